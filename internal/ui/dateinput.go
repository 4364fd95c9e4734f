package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nissyi-gh/taskdeck/internal/quickadd"
)

// dateInput is a free-form due date field. It accepts everything the
// quick-add syntax does: "today", "tomorrow", "next friday",
// "2025-03-01", "03/01/2025".
type dateInput struct {
	field textinput.Model
}

func newDateInput() dateInput {
	ti := textinput.New()
	ti.Placeholder = "tomorrow, next friday, 2025-03-01..."
	ti.CharLimit = 32
	ti.Width = 40
	return dateInput{field: ti}
}

func (d *dateInput) Focus() tea.Cmd {
	return d.field.Focus()
}

func (d *dateInput) SetValue(date string) {
	d.field.SetValue(date)
}

func (d *dateInput) IsEmpty() bool {
	return strings.TrimSpace(d.field.Value()) == ""
}

// Value resolves the entered expression to a YYYY-MM-DD date.
func (d *dateInput) Value() (string, error) {
	expr := strings.TrimSpace(d.field.Value())
	due, ok := quickadd.ResolveDate(expr, time.Now())
	if !ok {
		return "", fmt.Errorf("unrecognized date: %s", expr)
	}
	return due.Format("2006-01-02"), nil
}

func (d dateInput) Update(msg tea.Msg) (dateInput, tea.Cmd) {
	var cmd tea.Cmd
	d.field, cmd = d.field.Update(msg)
	return d, cmd
}

func (d dateInput) View() string {
	return d.field.View()
}
