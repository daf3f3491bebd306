package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/observability"
)

// PostgresGateway backs the document store with a single JSONB table and
// fans out change invalidations through the Notifier. Live queries re-run on
// every invalidation and emit the full result set each time, so a snapshot
// is always a total replacement.
type PostgresGateway struct {
	pool     *pgxpool.Pool
	notifier *Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewPostgresGateway constructs the gateway.
func NewPostgresGateway(pool *pgxpool.Pool, notifier *Notifier, logger *zap.Logger) *PostgresGateway {
	return &PostgresGateway{pool: pool, notifier: notifier, logger: logger, now: time.Now}
}

type liveQuery struct {
	cancel context.CancelFunc
	pubsub *redis.PubSub
	done   chan struct{}
}

func (l *liveQuery) Cancel() {
	select {
	case <-l.done:
		return
	default:
	}
	close(l.done)
	l.cancel()
	_ = l.pubsub.Close()
}

// OpenLiveQuery starts a subscription for one query shape. The subscription
// runs until Cancel or until a terminal error is pushed through OnError; no
// automatic retry.
func (g *PostgresGateway) OpenLiveQuery(ctx context.Context, q Query, ev Events) (Subscription, error) {
	if ev.OnData == nil {
		return nil, errors.New("OnData callback required")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	pubsub := g.notifier.Subscribe(runCtx, q.Collection)
	lq := &liveQuery{cancel: cancel, pubsub: pubsub, done: make(chan struct{})}

	observability.SubscriptionOpened(q.Collection)
	go g.serve(runCtx, q, ev, pubsub)
	return lq, nil
}

func (g *PostgresGateway) serve(ctx context.Context, q Query, ev Events, pubsub *redis.PubSub) {
	defer observability.SubscriptionClosed(q.Collection)

	emit := func() bool {
		items, err := g.runQuery(ctx, q)
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			g.logger.Warn("live query failed",
				zap.String("collection", q.Collection), zap.Error(err))
			if ev.OnError != nil {
				ev.OnError(err)
			}
			return false
		}
		ev.OnData(items)
		observability.SnapshotDelivered(q.Collection)
		return true
	}

	if !emit() {
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				if ctx.Err() == nil && ev.OnError != nil {
					ev.OnError(errors.New("change notification channel closed"))
				}
				return
			}
			if !emit() {
				return
			}
		}
	}
}

func (g *PostgresGateway) runQuery(ctx context.Context, q Query) ([]Document, error) {
	sql := "SELECT id, data FROM documents WHERE collection = $1"
	args := []any{q.Collection}
	for _, w := range q.Where {
		args = append(args, w.Value)
		sql += fmt.Sprintf(" AND data->>'%s' = $%d", w.Field, len(args))
	}
	if q.Desc {
		sql += " ORDER BY created_at DESC, id DESC"
	} else {
		sql += " ORDER BY created_at ASC, id ASC"
	}

	rows, err := g.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Document{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		items = append(items, Document{ID: id, Data: data})
	}
	return items, rows.Err()
}

// GetDocument fetches one document by id.
func (g *PostgresGateway) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	const query = `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	var raw []byte
	if err := g.pool.QueryRow(ctx, query, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	data := map[string]any{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

// CreateDocument inserts a new document with a generated id, resolving
// ServerTimestamp sentinels against the gateway clock.
func (g *PostgresGateway) CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(resolveTimestamps(data, g.now()))
	if err != nil {
		return "", err
	}

	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	_, err = g.pool.Exec(ctx, query, collection, id, raw)
	observability.WriteObserved("create", collection, err)
	if err != nil {
		return "", err
	}
	g.notifier.Publish(ctx, collection, id)
	return id, nil
}

// WriteDocument merges a patch into a document, creating it when absent.
func (g *PostgresGateway) WriteDocument(ctx context.Context, collection, id string, patch map[string]any) error {
	raw, err := json.Marshal(resolveTimestamps(patch, g.now()))
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
        ON CONFLICT (collection, id)
        DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
	_, err = g.pool.Exec(ctx, query, collection, id, raw)
	observability.WriteObserved("merge", collection, err)
	if err != nil {
		return err
	}
	g.notifier.Publish(ctx, collection, id)
	return nil
}

// DeleteDocument removes a document.
func (g *PostgresGateway) DeleteDocument(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	cmd, err := g.pool.Exec(ctx, query, collection, id)
	if err == nil && cmd.RowsAffected() == 0 {
		err = ErrNotFound
	}
	observability.WriteObserved("delete", collection, err)
	if err != nil {
		return err
	}
	g.notifier.Publish(ctx, collection, id)
	return nil
}

func resolveTimestamps(in map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == ServerTimestamp {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}
