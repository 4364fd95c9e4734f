package model

import (
	"encoding/json"
	"time"
)

// EntityKind names a remote collection.
type EntityKind string

const (
	KindTask     EntityKind = "task"
	KindSection  EntityKind = "section"
	KindProject  EntityKind = "project"
	KindReminder EntityKind = "reminder"
)

// ChangeOperation is the kind of mutation a pending change replays.
type ChangeOperation string

const (
	OpCreate ChangeOperation = "create"
	OpUpdate ChangeOperation = "update"
	OpDelete ChangeOperation = "delete"
)

// PendingChange is a durably queued mutation awaiting replay against the
// remote store. The queue is FIFO: replay order matches enqueue order.
// Only tasks, sections and projects go through the queue.
type PendingChange struct {
	ID        string          `json:"id"`
	Entity    EntityKind      `json:"entity"`
	Operation ChangeOperation `json:"operation"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload"`
	QueuedAt  time.Time       `json:"queued_at"`
}
