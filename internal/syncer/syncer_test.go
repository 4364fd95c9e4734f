package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

// mockStore records every dispatched operation in order. Calls and
// failure injections are keyed "kind op entityID".
type mockStore struct {
	calls []string
	fail  map[string]error
}

func (m *mockStore) Collection(kind model.EntityKind) remote.Collection {
	return &mockCollection{store: m, kind: kind}
}

func (m *mockStore) SetPositions(context.Context, model.EntityKind, []remote.PositionUpdate) error {
	return nil
}

func (m *mockStore) Subscribe(model.EntityKind, string, func()) func() { return func() {} }
func (m *mockStore) Online() bool                                     { return true }
func (m *mockStore) OnReachabilityChange(func(bool)) func()           { return func() {} }

type mockCollection struct {
	store *mockStore
	kind  model.EntityKind
}

func (m *mockCollection) record(op, id string) error {
	key := string(m.kind) + " " + op + " " + id
	m.store.calls = append(m.store.calls, key)
	return m.store.fail[key]
}

func (m *mockCollection) Select(context.Context, remote.Filter) ([]json.RawMessage, error) {
	return nil, nil
}

func (m *mockCollection) Insert(_ context.Context, row any) (json.RawMessage, error) {
	var payload struct {
		ID string `json:"id"`
	}
	bs, _ := json.Marshal(row)
	_ = json.Unmarshal(bs, &payload)
	return nil, m.record("insert", payload.ID)
}

func (m *mockCollection) Update(_ context.Context, id string, _ any) (json.RawMessage, error) {
	return nil, m.record("update", id)
}

func (m *mockCollection) Delete(_ context.Context, id string) error {
	return m.record("delete", id)
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

func TestSync_ReplaysInEnqueueOrder(t *testing.T) {
	is := is.New(t)
	cache := openTemp(t)
	rs := &mockStore{}

	_, err := cache.EnqueueChange(model.KindTask, model.OpCreate, "t1", []byte(`{"id":"t1","name":"a"}`))
	is.NoErr(err)
	_, err = cache.EnqueueChange(model.KindTask, model.OpUpdate, "t1", []byte(`{"id":"t1","name":"b"}`))
	is.NoErr(err)
	_, err = cache.EnqueueChange(model.KindTask, model.OpUpdate, "t1", []byte(`{"id":"t1","name":"c"}`))
	is.NoErr(err)

	res, err := New(cache, rs).Sync(context.Background())
	is.NoErr(err)
	is.Equal(res, Result{Success: true, Synced: 3})
	is.Equal(rs.calls, []string{"task insert t1", "task update t1", "task update t1"})

	has, err := cache.HasPendingChanges()
	is.NoErr(err)
	is.Equal(has, false)
}

func TestSync_PartialFailureDoesNotHaltDrain(t *testing.T) {
	is := is.New(t)
	cache := openTemp(t)
	rs := &mockStore{fail: map[string]error{"task update t2": errors.New("boom")}}

	_, err := cache.EnqueueChange(model.KindTask, model.OpUpdate, "t1", []byte(`{"id":"t1"}`))
	is.NoErr(err)
	chB, err := cache.EnqueueChange(model.KindTask, model.OpUpdate, "t2", []byte(`{"id":"t2"}`))
	is.NoErr(err)
	_, err = cache.EnqueueChange(model.KindTask, model.OpUpdate, "t3", []byte(`{"id":"t3"}`))
	is.NoErr(err)

	res, err := New(cache, rs).Sync(context.Background())
	is.NoErr(err)
	is.Equal(res.Success, false)
	is.Equal(res.Synced, 2)
	is.Equal(res.Failed, 1)
	// C was still attempted after B failed
	is.Equal(rs.calls, []string{"task update t1", "task update t2", "task update t3"})

	// only B remains queued
	left, err := cache.PendingChanges()
	is.NoErr(err)
	is.Equal(len(left), 1)
	is.Equal(left[0].ID, chB.ID)
}

func TestSync_FailedEntityBlocksItsLaterChanges(t *testing.T) {
	is := is.New(t)
	cache := openTemp(t)
	rs := &mockStore{fail: map[string]error{"task update t1": errors.New("boom")}}

	_, err := cache.EnqueueChange(model.KindTask, model.OpUpdate, "t1", []byte(`{"id":"t1"}`))
	is.NoErr(err)
	_, err = cache.EnqueueChange(model.KindTask, model.OpDelete, "t1", []byte(`null`))
	is.NoErr(err)
	_, err = cache.EnqueueChange(model.KindSection, model.OpUpdate, "t1", []byte(`{"id":"t1"}`))
	is.NoErr(err)

	res, err := New(cache, rs).Sync(context.Background())
	is.NoErr(err)
	is.Equal(res.Failed, 1)
	is.Equal(res.Skipped, 1)
	is.Equal(res.Synced, 1) // the section change shares the id but not the entity
	is.Equal(rs.calls, []string{"task update t1", "section update t1"})

	left, err := cache.PendingChanges()
	is.NoErr(err)
	is.Equal(len(left), 2)
}

func TestSync_EmptyQueue(t *testing.T) {
	is := is.New(t)
	cache := openTemp(t)

	res, err := New(cache, &mockStore{}).Sync(context.Background())
	is.NoErr(err)
	is.Equal(res, Result{Success: true})
}
