package repo

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

var errBoom = errors.New("boom")

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// fakeStore is an in-memory remote.Store. Calls are recorded as
// "kind op id"; failures are injected under the same key.
type fakeStore struct {
	mu     sync.Mutex
	online bool
	rows   map[model.EntityKind]map[string]json.RawMessage
	calls  []string
	fail   map[string]error

	positionCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		online: true,
		rows: map[model.EntityKind]map[string]json.RawMessage{
			model.KindTask:     {},
			model.KindSection:  {},
			model.KindProject:  {},
			model.KindReminder: {},
		},
		fail: map[string]error{},
	}
}

func (f *fakeStore) setOnline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = v
}

func (f *fakeStore) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeStore) Collection(kind model.EntityKind) remote.Collection {
	return &fakeCollection{store: f, kind: kind}
}

func (f *fakeStore) SetPositions(_ context.Context, kind model.EntityKind, updates []remote.PositionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positionCalls++
	for _, u := range updates {
		raw, ok := f.rows[kind][u.ID]
		if !ok {
			continue
		}
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		m["position"] = u.Position
		bs, _ := json.Marshal(m)
		f.rows[kind][u.ID] = bs
	}
	return nil
}

func (f *fakeStore) Subscribe(model.EntityKind, string, func()) func() { return func() {} }
func (f *fakeStore) OnReachabilityChange(func(bool)) func()           { return func() {} }

func (f *fakeStore) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

type fakeCollection struct {
	store *fakeStore
	kind  model.EntityKind
}

func (c *fakeCollection) record(op, id string) error {
	key := string(c.kind) + " " + op + " " + id
	c.store.calls = append(c.store.calls, key)
	return c.store.fail[key]
}

func (c *fakeCollection) Select(_ context.Context, filter remote.Filter) ([]json.RawMessage, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	var out []json.RawMessage
	for _, raw := range c.store.rows[c.kind] {
		if filter["archived"] == "false" {
			var row struct {
				Archived bool `json:"archived"`
			}
			_ = json.Unmarshal(raw, &row)
			if row.Archived {
				continue
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

func (c *fakeCollection) Insert(_ context.Context, row any) (json.RawMessage, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	bs, _ := json.Marshal(row)
	var ided struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(bs, &ided)
	if err := c.record("insert", ided.ID); err != nil {
		return nil, err
	}
	c.store.rows[c.kind][ided.ID] = bs
	return bs, nil
}

func (c *fakeCollection) Update(_ context.Context, id string, row any) (json.RawMessage, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if err := c.record("update", id); err != nil {
		return nil, err
	}
	bs, _ := json.Marshal(row)
	c.store.rows[c.kind][id] = bs
	return bs, nil
}

func (c *fakeCollection) Delete(_ context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if err := c.record("delete", id); err != nil {
		return err
	}
	delete(c.store.rows[c.kind], id)
	return nil
}

func openTemp(t *testing.T) *offline.Store {
	t.Helper()
	s, err := offline.Open(filepath.Join(t.TempDir(), "offline.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
