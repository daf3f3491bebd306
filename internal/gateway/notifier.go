package gateway

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "docs:"

// Notifier fans out document-change invalidations over Redis pub/sub. Every
// committed write publishes the changed document id on the collection
// channel; live queries re-run on each message.
type Notifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewNotifier constructs a notifier on an established Redis client.
func NewNotifier(client *redis.Client, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, logger: logger}
}

// Publish announces a change to one document. Failures are logged, not
// returned: the write itself has already committed and readers fall back to
// their next invalidation.
func (n *Notifier) Publish(ctx context.Context, collection, id string) {
	if err := n.client.Publish(ctx, Channel(collection), id).Err(); err != nil {
		n.logger.Warn("publish change notification",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Error(err))
	}
}

// Subscribe opens a pub/sub channel for one collection. The caller owns the
// returned PubSub and must close it.
func (n *Notifier) Subscribe(ctx context.Context, collection string) *redis.PubSub {
	return n.client.Subscribe(ctx, Channel(collection))
}

// Channel names the pub/sub channel carrying invalidations for a collection.
func Channel(collection string) string {
	return channelPrefix + collection
}
