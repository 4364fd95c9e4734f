package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// TaskItem wraps model.Task to satisfy the list.DefaultItem interface.
type TaskItem struct {
	Task model.Task
	// Section is the name of the task's section, shown when the active
	// view spans multiple sections.
	Section string
	// ProjectName and ProjectColor come from the task's project, if any.
	ProjectName  string
	ProjectColor string
}

func (i TaskItem) Title() string {
	check := "[ ]"
	if !i.Task.Active() {
		check = "[x]"
	}

	marks := ""
	if i.Task.IsOverdue() {
		marks += "⚠️ "
	} else if i.Task.IsDueToday() {
		marks += "📅 "
	}
	if i.Task.Urgent.Bool() {
		marks += "⚡"
	}
	switch i.Task.Importance {
	case model.VeryImportant:
		marks += "‼ "
	case model.Important:
		marks += "❗"
	}

	var suffix []string
	if i.ProjectName != "" {
		badge := lipgloss.NewStyle().
			Foreground(lipgloss.Color(i.ProjectColor)).
			Render("[" + i.ProjectName + "]")
		suffix = append(suffix, badge)
	}
	for _, tag := range i.Task.Tags {
		suffix = append(suffix, statusStyle.Render("#"+tag))
	}
	if i.Task.DueDate != nil {
		suffix = append(suffix, statusStyle.Render("@"+*i.Task.DueDate))
	}

	line := fmt.Sprintf("%s %s%s", check, marks, i.Task.Name)
	if len(suffix) > 0 {
		line += " " + strings.Join(suffix, " ")
	}
	if i.Section != "" {
		line = statusStyle.Render(i.Section+" › ") + line
	}
	return line
}

func (i TaskItem) Description() string {
	return ""
}

func (i TaskItem) FilterValue() string {
	return i.Task.Name
}

// ReminderItem wraps model.Reminder for the reminders view.
type ReminderItem struct {
	Reminder model.Reminder
}

func (i ReminderItem) Title() string {
	check := "[ ]"
	if i.Reminder.Completed {
		check = "[x]"
	}
	line := check + " " + i.Reminder.Name
	if i.Reminder.DueDate != nil {
		line += " " + statusStyle.Render("@"+*i.Reminder.DueDate)
	}
	return line
}

func (i ReminderItem) Description() string {
	return ""
}

func (i ReminderItem) FilterValue() string {
	return i.Reminder.Name
}
