package model

import "time"

// ViewMode controls where a project's tasks live: in the shared main
// sections, or in the project's own private section set.
type ViewMode string

const (
	StandardView ViewMode = "standard"
	CustomView   ViewMode = "custom"
)

// CollaboratorRole widens access to a project without changing row ownership.
type CollaboratorRole string

const (
	RoleOwner  CollaboratorRole = "owner"
	RoleEditor CollaboratorRole = "editor"
)

// Collaborator is a grant on a project.
type Collaborator struct {
	UserID string           `json:"user_id"`
	Role   CollaboratorRole `json:"role"`
}

// Project is a cross-cutting label over tasks.
type Project struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Color         string         `json:"color"`
	ViewMode      ViewMode       `json:"view_mode"`
	Owner         string         `json:"user_id"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Reminder is a standalone item: not sectioned, not tagged.
type Reminder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	DueDate   *string   `json:"due_date"`
	Completed bool      `json:"completed"`
	Owner     string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
