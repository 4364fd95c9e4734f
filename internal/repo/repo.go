// Package repo orchestrates the entity repositories: optimistic local
// mutation, offline mirroring, pending-change queueing and remote store
// calls.
//
// Every mutation follows the same protocol: the new entity state is
// computed locally, applied to in-memory state immediately, mirrored
// into the offline cache, and then either queued (offline) or pushed to
// the remote store (online). A failed remote call is surfaced and
// answered with a full refresh rather than a field-by-field rollback.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("name is empty")
)

// pushChange routes one mutation: queued when the remote store is
// unreachable and an offline cache exists, otherwise straight to the
// remote collection.
func pushChange(ctx context.Context, rs remote.Store, cache *offline.Store, kind model.EntityKind, op model.ChangeOperation, id string, row any) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, op, err)
	}

	if cache != nil && !rs.Online() {
		if _, err := cache.EnqueueChange(kind, op, id, payload); err != nil {
			return err
		}
		return nil
	}

	coll := rs.Collection(kind)
	switch op {
	case model.OpCreate:
		_, err = coll.Insert(ctx, json.RawMessage(payload))
	case model.OpUpdate:
		_, err = coll.Update(ctx, id, json.RawMessage(payload))
	case model.OpDelete:
		err = coll.Delete(ctx, id)
	}
	return err
}

func mirrorPut(cache *offline.Store, kind model.EntityKind, id string, row any) {
	if cache == nil {
		return
	}
	data, err := json.Marshal(row)
	if err != nil {
		return
	}
	// mirror failures never block a mutation; the cache just goes stale
	_ = cache.Put(kind, offline.Entry{ID: id, Data: data})
}

func mirrorDelete(cache *offline.Store, kind model.EntityKind, id string) {
	if cache == nil {
		return
	}
	_ = cache.Delete(kind, id)
}

func mirrorAll[T any](cache *offline.Store, kind model.EntityKind, items []T, id func(T) string) {
	if cache == nil {
		return
	}
	entries := make([]offline.Entry, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return
		}
		entries = append(entries, offline.Entry{ID: id(item), Data: data})
	}
	_ = cache.CacheAll(kind, entries)
}

func decodeAll[T any](rows []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func cachedAll[T any](cache *offline.Store, kind model.EntityKind) []T {
	if cache == nil {
		return nil
	}
	entries, err := cache.GetAll(kind)
	if err != nil {
		// a corrupt substrate degrades to an empty cache
		return nil
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// watchers is the shared fan-out for reactive List() consumers.
type watchers struct {
	mu   sync.Mutex
	fns  map[int]func()
	next int
}

func (w *watchers) add(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]func())
	}
	id := w.next
	w.next++
	w.fns[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.fns, id)
	}
}

func (w *watchers) notify() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
