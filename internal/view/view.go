// Package view computes which tasks and sections are visible for a
// given view/search combination.
package view

import (
	"sort"
	"strings"

	"github.com/nissyi-gh/taskdeck/internal/model"
)

// View selects one of the mutually exclusive task views.
type View string

const (
	Home            View = "home"
	All             View = "all"
	Today           View = "today"
	Upcoming        View = "upcoming"
	Priority        View = "priority"
	UrgentImportant View = "urgent_important"
	Focus           View = "focus"
	Project         View = "project"
	Shopping        View = "shopping"
	Journal         View = "journal"
	Reminders       View = "reminders"
)

// Criteria describes one projection: the active view, an optional
// case-insensitive search term, and the project id for the project view.
type Criteria struct {
	View      View
	Search    string
	ProjectID string
}

// Tasks returns the ordered, filtered task subset for the criteria. The
// inputs are never mutated; the view filter applies first and the search
// overlay narrows its result.
func Tasks(tasks []model.Task, sections []model.Section, projects []model.Project, c Criteria) []model.Task {
	result := make([]model.Task, len(tasks))
	copy(result, tasks)

	switch c.View {
	case Today:
		ids := sectionIDSet(sections, func(s model.Section) bool {
			return s.IsTodaySection() && !s.IsPrioritySection()
		})
		result = filter(result, func(t model.Task) bool { return ids[t.SectionID] })

	case Upcoming:
		ids := sectionIDSet(sections, model.Section.IsTodaySection)
		result = filter(result, func(t model.Task) bool { return !ids[t.SectionID] })

	case Priority:
		result = filter(result, func(t model.Task) bool { return t.Importance == model.VeryImportant })

	case UrgentImportant:
		result = filter(result, func(t model.Task) bool {
			return t.Urgent.Bool() && t.Importance == model.VeryImportant
		})

	case Project:
		if c.ProjectID != "" {
			result = filter(result, func(t model.Task) bool {
				return t.ProjectID != nil && *t.ProjectID == c.ProjectID
			})
		}

	case Focus:
		// Batch by project with projectless tasks last, urgent work
		// first within a project, then most important first.
		sort.SliceStable(result, func(i, j int) bool {
			pi, pj := focusGroup(result[i]), focusGroup(result[j])
			if pi != pj {
				return pi < pj
			}
			ui, uj := result[i].Urgent.Bool(), result[j].Urgent.Bool()
			if ui != uj {
				return ui
			}
			return result[i].Importance.SortKey() < result[j].Importance.SortKey()
		})

	case Shopping:
		ids := sectionIDSet(sections, func(s model.Section) bool {
			return s.Context == model.ShoppingContext
		})
		result = filter(result, func(t model.Task) bool { return ids[t.SectionID] })

	case Journal, Reminders, Home:
		// these views render non-task content upstream
		return []model.Task{}
	}

	if term := strings.ToLower(strings.TrimSpace(c.Search)); term != "" {
		names := projectNames(projects)
		result = filter(result, func(t model.Task) bool { return matches(t, names, term) })
	}

	return result
}

// VisibleSections returns the sections a view displays, in input order.
func VisibleSections(sections []model.Section, c Criteria) []model.Section {
	switch c.View {
	case Today:
		return filter(sections, func(s model.Section) bool {
			return s.IsTodaySection() && !s.IsPrioritySection()
		})
	case Upcoming:
		return filter(sections, func(s model.Section) bool {
			return s.Context == model.MainContext && !s.IsTodaySection()
		})
	case Shopping:
		return filter(sections, func(s model.Section) bool {
			return s.Context == model.ShoppingContext
		})
	case Project:
		ctx := model.ProjectContext(c.ProjectID)
		return filter(sections, func(s model.Section) bool { return s.Context == ctx })
	default:
		return filter(sections, func(s model.Section) bool {
			return s.Context == model.MainContext
		})
	}
}

func matches(t model.Task, projectNames map[string]string, term string) bool {
	if strings.Contains(strings.ToLower(t.Name), term) {
		return true
	}
	if t.Notes != nil && strings.Contains(strings.ToLower(*t.Notes), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	if t.ProjectID != nil {
		if name, ok := projectNames[*t.ProjectID]; ok && strings.Contains(name, term) {
			return true
		}
	}
	return false
}

// focusGroup is the project grouping key; "zzz" pushes projectless tasks last.
func focusGroup(t model.Task) string {
	if t.ProjectID == nil || *t.ProjectID == "" {
		return "zzz"
	}
	return *t.ProjectID
}

func sectionIDSet(sections []model.Section, keep func(model.Section) bool) map[string]bool {
	ids := make(map[string]bool)
	for _, s := range sections {
		if keep(s) {
			ids[s.ID] = true
		}
	}
	return ids
}

func projectNames(projects []model.Project) map[string]string {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = strings.ToLower(p.Name)
	}
	return names
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
