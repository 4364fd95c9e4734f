// Package offline is the durable local mirror of the remote collections
// plus the FIFO queue of not-yet-synced mutations. It is backed by a
// SQLite file so both survive process restarts.
package offline

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/taskdeck/internal/model"
	_ "modernc.org/sqlite"
)

// Store owns the SQLite handle. Each entity kind's mirror lives in its
// own table, so the kinds never contend with each other.
type Store struct {
	db *sql.DB
}

// Entry is one mirrored row: an entity id and its JSON encoding.
type Entry struct {
	ID   string
	Data []byte
}

func defaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, "taskdeck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "offline.db"), nil
}

// Open opens (or creates) the offline database and ensures the schema
// exists. An empty path selects the XDG default location.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		var err error
		dbPath, err = defaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("determine db path: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id   TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pending_changes (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			id        TEXT NOT NULL UNIQUE,
			entity    TEXT NOT NULL,
			operation TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload   TEXT NOT NULL,
			queued_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func mirrorTable(kind model.EntityKind) (string, error) {
	switch kind {
	case model.KindTask:
		return "tasks", nil
	case model.KindSection:
		return "sections", nil
	case model.KindProject:
		return "projects", nil
	}
	return "", fmt.Errorf("no mirror for entity kind %q", kind)
}

// CacheAll replaces the whole mirror for one entity kind. It is called
// after a successful remote fetch, so the mirror tracks the last known
// authoritative state.
func (s *Store) CacheAll(kind model.EntityKind, entries []Entry) error {
	table, err := mirrorTable(kind)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("clear %s mirror: %w", table, err)
	}
	for _, e := range entries {
		if _, err := tx.Exec("INSERT INTO "+table+" (id, data) VALUES (?, ?)", e.ID, string(e.Data)); err != nil {
			return fmt.Errorf("fill %s mirror: %w", table, err)
		}
	}
	return tx.Commit()
}

// GetAll returns every mirrored row for one entity kind.
func (s *Store) GetAll(kind model.EntityKind) ([]Entry, error) {
	table, err := mirrorTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT id, data FROM " + table)
	if err != nil {
		return nil, fmt.Errorf("query %s mirror: %w", table, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var data string
		if err := rows.Scan(&e.ID, &data); err != nil {
			return nil, fmt.Errorf("scan %s mirror: %w", table, err)
		}
		e.Data = []byte(data)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one mirrored row, or ok=false if it is not cached.
func (s *Store) Get(kind model.EntityKind, id string) (Entry, bool, error) {
	table, err := mirrorTable(kind)
	if err != nil {
		return Entry{}, false, err
	}
	var data string
	err = s.db.QueryRow("SELECT data FROM "+table+" WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s %s: %w", table, id, err)
	}
	return Entry{ID: id, Data: []byte(data)}, true, nil
}

// Put upserts one row in the mirror. Optimistic updates go through here
// so the cache matches what the caller already sees.
func (s *Store) Put(kind model.EntityKind, e Entry) error {
	table, err := mirrorTable(kind)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO "+table+" (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
		e.ID, string(e.Data),
	)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", table, e.ID, err)
	}
	return nil
}

// Delete removes one row from the mirror.
func (s *Store) Delete(kind model.EntityKind, id string) error {
	table, err := mirrorTable(kind)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete %s %s: %w", table, id, err)
	}
	return nil
}

// EnqueueChange appends a mutation to the pending queue, stamping it
// with a composite id and the enqueue time. Returns the stored change.
func (s *Store) EnqueueChange(entity model.EntityKind, op model.ChangeOperation, entityID string, payload []byte) (model.PendingChange, error) {
	ch := model.PendingChange{
		ID:        fmt.Sprintf("%s-%s-%s", entity, entityID, uuid.NewString()),
		Entity:    entity,
		Operation: op,
		EntityID:  entityID,
		Payload:   payload,
		QueuedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		"INSERT INTO pending_changes (id, entity, operation, entity_id, payload, queued_at) VALUES (?, ?, ?, ?, ?, ?)",
		ch.ID, string(ch.Entity), string(ch.Operation), ch.EntityID, string(ch.Payload), ch.QueuedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.PendingChange{}, fmt.Errorf("enqueue change: %w", err)
	}
	return ch, nil
}

// PendingChanges returns the queue in enqueue order.
func (s *Store) PendingChanges() ([]model.PendingChange, error) {
	rows, err := s.db.Query(
		"SELECT id, entity, operation, entity_id, payload, queued_at FROM pending_changes ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query pending changes: %w", err)
	}
	defer rows.Close()

	var changes []model.PendingChange
	for rows.Next() {
		var ch model.PendingChange
		var entity, op, payload, queuedAt string
		if err := rows.Scan(&ch.ID, &entity, &op, &ch.EntityID, &payload, &queuedAt); err != nil {
			return nil, fmt.Errorf("scan pending change: %w", err)
		}
		ch.Entity = model.EntityKind(entity)
		ch.Operation = model.ChangeOperation(op)
		ch.Payload = []byte(payload)
		ch.QueuedAt, _ = time.Parse(time.RFC3339Nano, queuedAt)
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// RemovePendingChange drops one replayed entry from the queue.
func (s *Store) RemovePendingChange(id string) error {
	if _, err := s.db.Exec("DELETE FROM pending_changes WHERE id = ?", id); err != nil {
		return fmt.Errorf("remove pending change %s: %w", id, err)
	}
	return nil
}

// HasPendingChanges reports whether any queued mutation awaits replay.
func (s *Store) HasPendingChanges() (bool, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM pending_changes").Scan(&count); err != nil {
		return false, fmt.Errorf("count pending changes: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
