package gateway

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections used by this service.
const (
	CollectionTickets = "tickets"
	CollectionUsers   = "users"
)

// ErrNotFound signals a direct fetch or delete of a missing document.
// Distinct from permission or connectivity failures.
var ErrNotFound = errors.New("document not found")

// serverTimestamp is the sentinel type for gateway-assigned write times.
type serverTimestamp struct{}

// ServerTimestamp marks a patch or create field to be replaced with the
// gateway's clock at write time.
var ServerTimestamp any = serverTimestamp{}

// Document is a raw remote record: opaque id plus loosely typed data.
type Document struct {
	ID   string
	Data map[string]any
}

// Decode maps the document data onto a typed value via JSON round-trip.
func (d Document) Decode(v any) error {
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Where is one equality predicate on a document field.
type Where struct {
	Field string
	Value string
}

// Query describes one live-query shape: a collection, equality predicates
// and an optional createdAt ordering.
type Query struct {
	Collection string
	Where      []Where
	OrderBy    string
	Desc       bool
}

// Events carries the push callbacks of a live query. OnData delivers a full
// replacement snapshot; OnError is terminal for the subscription.
type Events struct {
	OnData  func(items []Document)
	OnError func(err error)
}

// Subscription is one live channel for one query shape. Owned by exactly one
// consumer; Cancel must be called on every teardown path and is safe to call
// more than once.
type Subscription interface {
	Cancel()
}

// Gateway is the remote document-store collaborator: live queries, direct
// reads and merge-writes. WriteDocument is an upsert: it merges the patch
// into the document, creating it when absent (profile documents are keyed by
// the identity subject id and come into existence through exactly this
// path). Injected into every component so tests can substitute a fake.
type Gateway interface {
	OpenLiveQuery(ctx context.Context, q Query, ev Events) (Subscription, error)
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	CreateDocument(ctx context.Context, collection string, data map[string]any) (string, error)
	WriteDocument(ctx context.Context, collection, id string, patch map[string]any) error
	DeleteDocument(ctx context.Context, collection, id string) error
}
