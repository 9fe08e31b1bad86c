package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gts-commerce/cart-service/internal/store"
)

// --- Fakes ---

type fakeStore struct {
	mu    sync.Mutex
	carts map[string]map[string]string
	ttls  map[string]time.Duration

	readErr  error
	batchErr error
	// opErrAt fails the op at the given batch index (applies to every batch).
	opErrAt map[int]error

	batches [][]store.BatchOp
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts: map[string]map[string]string{},
		ttls:  map[string]time.Duration{},
	}
}

func (f *fakeStore) set(key, field, value string) {
	if f.carts[key] == nil {
		f.carts[key] = map[string]string{}
	}
	f.carts[key][field] = value
}

func (f *fakeStore) ReadAll(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := map[string]string{}
	for k, v := range f.carts[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) ReadField(_ context.Context, key, field string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", false, f.readErr
	}
	v, ok := f.carts[key][field]
	return v, ok, nil
}

func (f *fakeStore) WriteField(_ context.Context, key, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(key, field, value)
	return nil
}

func (f *fakeStore) DeleteField(_ context.Context, key, field string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts[key], field)
	return nil
}

func (f *fakeStore) RefreshTTL(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) DeleteKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, key)
	return nil
}

func (f *fakeStore) ExecuteBatch(_ context.Context, ops []store.BatchOp) ([]store.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ops)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	results := make([]store.BatchResult, len(ops))
	for i, op := range ops {
		if err, ok := f.opErrAt[i]; ok {
			results[i] = store.BatchResult{Op: op, Err: err}
			continue
		}
		switch op.Kind {
		case store.OpWriteField:
			f.set(op.Key, op.Field, op.Value)
		case store.OpDeleteField:
			delete(f.carts[op.Key], op.Field)
		case store.OpDeleteKey:
			delete(f.carts, op.Key)
		case store.OpRefreshTTL:
			f.ttls[op.Key] = op.TTL
		}
		results[i] = store.BatchResult{Op: op}
	}
	return results, nil
}

type fakeReader struct {
	stocks   map[string]int
	err      error
	batchLog [][]string
	getLog   []string
}

func (f *fakeReader) Stock(_ context.Context, productID string) (int, error) {
	f.getLog = append(f.getLog, productID)
	if f.err != nil {
		return 0, f.err
	}
	return f.stocks[productID], nil
}

func (f *fakeReader) StockBatch(_ context.Context, productIDs []string) (map[string]int, error) {
	f.batchLog = append(f.batchLog, append([]string(nil), productIDs...))
	out := map[string]int{}
	for _, id := range productIDs {
		if f.err == nil {
			out[id] = f.stocks[id]
		} else {
			out[id] = 0
		}
	}
	return out, f.err
}

type publishedEvent struct {
	group   string
	event   string
	payload interface{}
}

type joinCall struct {
	sessionID string
	groups    []string
}

type fakeTransport struct {
	published []publishedEvent
	joins     []joinCall
	err       error
}

func (f *fakeTransport) JoinGroups(_ context.Context, sessionID string, groups []string) error {
	f.joins = append(f.joins, joinCall{sessionID: sessionID, groups: groups})
	return f.err
}

func (f *fakeTransport) Publish(_ context.Context, group, event string, payload interface{}) error {
	f.published = append(f.published, publishedEvent{group: group, event: event, payload: payload})
	return f.err
}

func (f *fakeTransport) eventsFor(group string) []string {
	var names []string
	for _, p := range f.published {
		if p.group == group {
			names = append(names, p.event)
		}
	}
	return names
}

var errBoom = errors.New("boom")

func newTestService(fs *fakeStore, fr *fakeReader, ft *fakeTransport, opts Options) *CartService {
	return NewCartService(fs, fr, ft, opts, zerolog.Nop())
}
