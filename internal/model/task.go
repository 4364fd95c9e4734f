package model

import "time"

// Importance is the three-level priority of a task. The zero value means
// the task has not been categorized yet.
type Importance string

const (
	ImportanceUnset Importance = ""
	Normal          Importance = "normal"
	Important       Importance = "important"
	VeryImportant   Importance = "very_important"
)

// SortKey orders importances most-important-first. Uncategorized tasks
// rank with normal ones.
func (i Importance) SortKey() int {
	switch i {
	case VeryImportant:
		return 0
	case Important:
		return 1
	default:
		return 2
	}
}

// Length is a rough size estimate for a task. The zero value means unset.
type Length string

const (
	LengthUnset Length = ""
	Short       Length = "short"
	Medium      Length = "medium"
	Long        Length = "long"
)

// Recurrence describes how a completed task respawns. The zero value
// means the task does not recur.
type Recurrence string

const (
	NoRecurrence Recurrence = ""
	Daily        Recurrence = "daily"
	Weekly       Recurrence = "weekly"
	Monthly      Recurrence = "monthly"
	Yearly       Recurrence = "yearly"
)

// Task is a single unit of work. It always belongs to exactly one section.
type Task struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SectionID      string     `json:"section_id"`
	ProjectID      *string    `json:"project_id"`
	Tags           []string   `json:"tags"`
	DueDate        *string    `json:"due_date"`
	StrictDueDate  bool       `json:"strict_due_date"`
	Notes          *string    `json:"notes"`
	Importance     Importance `json:"importance"`
	Urgent         Flag       `json:"urgent"`
	Length         Length     `json:"length"`
	Position       int        `json:"position"`
	CompletedAt    *time.Time `json:"completed_at"`
	Archived       bool       `json:"archived"`
	RecurrenceRule Recurrence `json:"recurrence_rule"`
	Owner          string     `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Active returns true while the task has not been completed.
func (t Task) Active() bool {
	return t.CompletedAt == nil
}

// IsDueToday returns true if the task's due date is today.
func (t Task) IsDueToday() bool {
	if t.DueDate == nil {
		return false
	}
	return *t.DueDate == time.Now().Format("2006-01-02")
}

// IsOverdue returns true if the task is past its due date and still active.
func (t Task) IsOverdue() bool {
	if t.DueDate == nil || !t.Active() {
		return false
	}
	return *t.DueDate < time.Now().Format("2006-01-02")
}

// HasTag reports whether the task carries the given tag.
func (t Task) HasTag(tag string) bool {
	for _, g := range t.Tags {
		if g == tag {
			return true
		}
	}
	return false
}
