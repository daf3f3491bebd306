// Package gatewaytest provides an in-memory Gateway for tests. It honors the
// gateway contract: snapshots are total replacements, delivered in order, and
// cancelled subscriptions receive no further events.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/gateway"
)

// WriteOp records one write call that reached the fake gateway.
type WriteOp struct {
	Op         string
	Collection string
	ID         string
	Data       map[string]any
}

// Fake is an in-memory document store with synchronous live queries.
type Fake struct {
	mu       sync.Mutex
	docs     map[string]map[string]map[string]any
	order    map[string][]string
	subs     []*fakeSub
	writes   []WriteOp
	writeErr error
	readErr  error
	seq      int

	// Clock supplies write timestamps; replace to pin time in tests.
	Clock func() time.Time
}

// NewFake constructs an empty fake gateway.
func NewFake() *Fake {
	return &Fake{
		docs:  map[string]map[string]map[string]any{},
		order: map[string][]string{},
		Clock: time.Now,
	}
}

type fakeSub struct {
	f         *Fake
	q         gateway.Query
	ev        gateway.Events
	cancelled bool
	dead      bool
}

func (s *fakeSub) Cancel() {
	s.f.mu.Lock()
	s.cancelled = true
	s.f.mu.Unlock()
}

// OpenLiveQuery registers a subscription and synchronously delivers the
// initial snapshot.
func (f *Fake) OpenLiveQuery(_ context.Context, q gateway.Query, ev gateway.Events) (gateway.Subscription, error) {
	f.mu.Lock()
	sub := &fakeSub{f: f, q: q, ev: ev}
	f.subs = append(f.subs, sub)
	items := f.evaluate(q)
	f.mu.Unlock()

	if ev.OnData != nil {
		ev.OnData(items)
	}
	return sub, nil
}

// GetDocument fetches one document.
func (f *Fake) GetDocument(_ context.Context, collection, id string) (gateway.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return gateway.Document{}, f.readErr
	}
	data, ok := f.docs[collection][id]
	if !ok {
		return gateway.Document{}, gateway.ErrNotFound
	}
	return gateway.Document{ID: id, Data: copyDoc(data)}, nil
}

// CreateDocument inserts a document with a generated id.
func (f *Fake) CreateDocument(_ context.Context, collection string, data map[string]any) (string, error) {
	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("doc-%03d", f.seq)
	f.writes = append(f.writes, WriteOp{Op: "create", Collection: collection, ID: id, Data: copyDoc(data)})
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return "", err
	}
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	f.docs[collection][id] = f.resolve(data)
	f.order[collection] = append(f.order[collection], id)
	f.mu.Unlock()

	f.broadcast(collection)
	return id, nil
}

// WriteDocument merges a patch into a document, creating it when absent.
func (f *Fake) WriteDocument(_ context.Context, collection, id string, patch map[string]any) error {
	f.mu.Lock()
	f.writes = append(f.writes, WriteOp{Op: "merge", Collection: collection, ID: id, Data: copyDoc(patch)})
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	existing, ok := f.docs[collection][id]
	if !ok {
		existing = map[string]any{}
		f.docs[collection][id] = existing
		f.order[collection] = append(f.order[collection], id)
	}
	for k, v := range f.resolve(patch) {
		existing[k] = v
	}
	f.mu.Unlock()

	f.broadcast(collection)
	return nil
}

// DeleteDocument removes a document.
func (f *Fake) DeleteDocument(_ context.Context, collection, id string) error {
	f.mu.Lock()
	f.writes = append(f.writes, WriteOp{Op: "delete", Collection: collection, ID: id})
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return err
	}
	if _, ok := f.docs[collection][id]; !ok {
		f.mu.Unlock()
		return gateway.ErrNotFound
	}
	delete(f.docs[collection], id)
	ids := f.order[collection]
	for i, existing := range ids {
		if existing == id {
			f.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	f.broadcast(collection)
	return nil
}

// Seed inserts a document with a fixed id, bypassing write recording.
func (f *Fake) Seed(collection, id string, data map[string]any) {
	f.mu.Lock()
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	f.docs[collection][id] = f.resolve(data)
	f.order[collection] = append(f.order[collection], id)
	f.mu.Unlock()

	f.broadcast(collection)
}

// FailWrites makes every subsequent write call fail with err. Pass nil to
// restore normal behavior. Failing calls are still recorded in Writes.
func (f *Fake) FailWrites(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// FailReads makes every subsequent GetDocument call fail with err. Pass nil
// to restore normal behavior.
func (f *Fake) FailReads(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// FailSubscriptions delivers a terminal error to every live subscription on
// the collection.
func (f *Fake) FailSubscriptions(collection string, err error) {
	f.mu.Lock()
	var targets []*fakeSub
	for _, sub := range f.subs {
		if sub.q.Collection == collection && !sub.cancelled && !sub.dead {
			sub.dead = true
			targets = append(targets, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range targets {
		if sub.ev.OnError != nil {
			sub.ev.OnError(err)
		}
	}
}

// LiveCount reports how many subscriptions are currently live.
func (f *Fake) LiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, sub := range f.subs {
		if !sub.cancelled && !sub.dead {
			count++
		}
	}
	return count
}

// Writes returns every write call that reached the gateway, in order.
func (f *Fake) Writes() []WriteOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]WriteOp, len(f.writes))
	copy(out, f.writes)
	return out
}

// Document inspects stored data directly.
func (f *Fake) Document(collection, id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[collection][id]
	if !ok {
		return nil, false
	}
	return copyDoc(data), true
}

func (f *Fake) broadcast(collection string) {
	f.mu.Lock()
	type delivery struct {
		sub   *fakeSub
		items []gateway.Document
	}
	var deliveries []delivery
	for _, sub := range f.subs {
		if sub.q.Collection != collection || sub.cancelled || sub.dead {
			continue
		}
		deliveries = append(deliveries, delivery{sub: sub, items: f.evaluate(sub.q)})
	}
	f.mu.Unlock()

	for _, d := range deliveries {
		if d.sub.ev.OnData != nil {
			d.sub.ev.OnData(d.items)
		}
	}
}

// evaluate runs a query against current state. Caller holds f.mu.
func (f *Fake) evaluate(q gateway.Query) []gateway.Document {
	items := []gateway.Document{}
	for _, id := range f.order[q.Collection] {
		data := f.docs[q.Collection][id]
		if matches(data, q.Where) {
			items = append(items, gateway.Document{ID: id, Data: copyDoc(data)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := docTime(items[i].Data), docTime(items[j].Data)
		if q.Desc {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return items
}

func matches(data map[string]any, where []gateway.Where) bool {
	for _, w := range where {
		val, ok := data[w.Field]
		if !ok || fmt.Sprint(val) != w.Value {
			return false
		}
	}
	return true
}

func docTime(data map[string]any) time.Time {
	switch t := data["createdAt"].(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func (f *Fake) resolve(in map[string]any) map[string]any {
	now := f.Clock()
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v == gateway.ServerTimestamp {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

func copyDoc(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
