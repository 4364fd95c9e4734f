package model

import (
	"strings"
	"time"
)

// Section contexts partition sections into independent ordering and
// visibility namespaces.
const (
	MainContext     = "main"
	ShoppingContext = "shopping"
)

// ProjectContext returns the context tag for a project's private sections.
func ProjectContext(projectID string) string {
	return "project-" + projectID
}

// Section is an ordered, named bucket of tasks within a context.
type Section struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	Context   string    `json:"context"`
	Owner     string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// IsTodaySection reports whether tasks in this section belong to the
// today view ("Must finish today" / "Work on today" naming convention).
func (s Section) IsTodaySection() bool {
	name := strings.ToLower(s.Name)
	return strings.Contains(name, "must finish today") || strings.Contains(name, "work on today")
}

// IsPrioritySection reports whether the section is one of the priority
// buckets (High/Medium/Low Priority), which the today view hides.
func (s Section) IsPrioritySection() bool {
	return strings.Contains(strings.ToLower(s.Name), "priority")
}
