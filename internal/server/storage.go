package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Storage is the server-side persistence layer. Every entity row is a
// JSON document plus the few extracted columns the handlers filter and
// order by. Each mutation also appends to the changes log, which the
// clients poll to know when to re-fetch.
type Storage struct {
	db *sql.DB
}

const storageSchema = `
CREATE TABLE IF NOT EXISTS entities (
	kind     TEXT NOT NULL,
	id       TEXT NOT NULL,
	owner    TEXT NOT NULL,
	archived INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	data     TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS changes (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	owner TEXT NOT NULL,
	kind  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entities_owner ON entities (kind, owner);
`

// OpenStorage opens (and if needed creates) the server database.
func OpenStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(storageSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// entityColumns are the filterable fields lifted out of the document.
type entityColumns struct {
	ID       string `json:"id"`
	Owner    string `json:"user_id"`
	Archived bool   `json:"archived"`
	Position int    `json:"position"`
}

// List returns the documents of one kind for one owner, position-ordered.
// With activeOnly set, archived rows are excluded.
func (s *Storage) List(kind, owner string, activeOnly bool) ([]json.RawMessage, error) {
	query := "SELECT data FROM entities WHERE kind = ? AND owner = ?"
	if activeOnly {
		query += " AND archived = 0"
	}
	query += " ORDER BY position ASC, id ASC"

	rows, err := s.db.Query(query, kind, owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

// Upsert writes one full document. Creates and updates share this path
// so a replayed offline queue stays idempotent.
func (s *Storage) Upsert(kind string, data []byte) (entityColumns, error) {
	var cols entityColumns
	if err := json.Unmarshal(data, &cols); err != nil {
		return cols, fmt.Errorf("decode %s row: %w", kind, err)
	}
	if cols.ID == "" {
		return cols, fmt.Errorf("%s row has no id", kind)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return cols, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO entities (kind, id, owner, archived, position, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET
			owner = excluded.owner,
			archived = excluded.archived,
			position = excluded.position,
			data = excluded.data`,
		kind, cols.ID, cols.Owner, boolToInt(cols.Archived), cols.Position, string(data))
	if err != nil {
		return cols, fmt.Errorf("upsert %s %s: %w", kind, cols.ID, err)
	}
	if err := recordChange(tx, cols.Owner, kind); err != nil {
		return cols, err
	}
	return cols, tx.Commit()
}

// Delete removes one document. Deleting a missing row is not an error.
func (s *Storage) Delete(kind, id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRow("SELECT owner FROM entities WHERE kind = ? AND id = ?", kind, id).Scan(&owner)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}

	if _, err := tx.Exec("DELETE FROM entities WHERE kind = ? AND id = ?", kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if err := recordChange(tx, owner, kind); err != nil {
		return err
	}
	return tx.Commit()
}

// SetPositions rewrites the positions of many rows in one transaction,
// keeping both the column and the document in step.
func (s *Storage) SetPositions(kind, owner string, updates map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, position := range updates {
		var data string
		err := tx.QueryRow("SELECT data FROM entities WHERE kind = ? AND id = ?", kind, id).Scan(&data)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return fmt.Errorf("reposition %s %s: %w", kind, id, err)
		}

		var doc map[string]any
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return fmt.Errorf("reposition %s %s: %w", kind, id, err)
		}
		doc["position"] = position
		patched, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("reposition %s %s: %w", kind, id, err)
		}

		_, err = tx.Exec("UPDATE entities SET position = ?, data = ? WHERE kind = ? AND id = ?",
			position, string(patched), kind, id)
		if err != nil {
			return fmt.Errorf("reposition %s %s: %w", kind, id, err)
		}
	}
	if err := recordChange(tx, owner, kind); err != nil {
		return err
	}
	return tx.Commit()
}

// ChangesSince returns the latest change sequence for an owner and the
// kinds touched after the given cursor.
func (s *Storage) ChangesSince(owner string, since int64) (int64, []string, error) {
	rows, err := s.db.Query(
		"SELECT seq, kind FROM changes WHERE owner = ? AND seq > ? ORDER BY seq ASC", owner, since)
	if err != nil {
		return 0, nil, fmt.Errorf("read changes: %w", err)
	}
	defer rows.Close()

	seq := since
	seen := map[string]bool{}
	kinds := []string{}
	for rows.Next() {
		var kind string
		if err := rows.Scan(&seq, &kind); err != nil {
			return 0, nil, fmt.Errorf("scan change: %w", err)
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return seq, kinds, rows.Err()
}

// RecategorizeDueToday moves an owner's active tasks that are due on or
// before the given day into the "must finish today" section of the main
// context. Returns the number of tasks moved.
func (s *Storage) RecategorizeDueToday(owner, today string) (int, error) {
	sections, err := s.List("section", owner, false)
	if err != nil {
		return 0, err
	}
	targetID := ""
	for _, raw := range sections {
		var sec struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Context string `json:"context"`
		}
		if err := json.Unmarshal(raw, &sec); err != nil {
			continue
		}
		if sec.Context == "main" && strings.Contains(strings.ToLower(sec.Name), "must finish today") {
			targetID = sec.ID
			break
		}
	}
	if targetID == "" {
		return 0, fmt.Errorf("no \"must finish today\" section for owner %s", owner)
	}

	tasks, err := s.List("task", owner, true)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, raw := range tasks {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		due, _ := doc["due_date"].(string)
		sectionID, _ := doc["section_id"].(string)
		if due == "" || due > today || sectionID == targetID {
			continue
		}
		doc["section_id"] = targetID
		patched, err := json.Marshal(doc)
		if err != nil {
			return moved, err
		}
		if _, err := s.Upsert("task", patched); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func recordChange(tx *sql.Tx, owner, kind string) error {
	if _, err := tx.Exec("INSERT INTO changes (owner, kind) VALUES (?, ?)", owner, kind); err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
