// Package remote defines the contract the repositories require from a
// remote store, and an HTTP client satisfying it against a taskdeckd
// server. Any backend offering per-entity CRUD, a change-notification
// signal and a reachability signal can stand in.
package remote

import (
	"context"
	"encoding/json"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// Filter narrows a Select call. Keys and values map onto query
// parameters of the backing collection.
type Filter map[string]string

// PositionUpdate is one row of a batched reorder.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// Collection is the CRUD surface of one remote entity collection. Rows
// travel as raw JSON; the repositories own the typed encoding.
type Collection interface {
	Select(ctx context.Context, filter Filter) ([]json.RawMessage, error)
	Insert(ctx context.Context, row any) (json.RawMessage, error)
	Update(ctx context.Context, id string, row any) (json.RawMessage, error)
	Delete(ctx context.Context, id string) error
}

// Store is the full remote contract.
//
// Subscribe registers a callback invoked whenever anything in the
// owner's slice of the collection changes; no payload is guaranteed
// beyond "something changed", so callers re-fetch. Online reports the
// current reachability; OnReachabilityChange fires on transitions.
type Store interface {
	Collection(kind model.EntityKind) Collection

	// SetPositions rewrites the positions of many rows in one call so a
	// reorder cannot be half-applied.
	SetPositions(ctx context.Context, kind model.EntityKind, updates []PositionUpdate) error

	Subscribe(kind model.EntityKind, owner string, fn func()) (cancel func())

	Online() bool
	OnReachabilityChange(fn func(online bool)) (cancel func())
}

// CollectionPath maps an entity kind to its REST collection name.
func CollectionPath(kind model.EntityKind) string {
	switch kind {
	case model.KindTask:
		return "tasks"
	case model.KindSection:
		return "sections"
	case model.KindProject:
		return "projects"
	case model.KindReminder:
		return "reminders"
	}
	return ""
}
