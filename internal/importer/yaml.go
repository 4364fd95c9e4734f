// Package importer bulk-creates sections and tasks from a YAML document.
package importer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/quickadd"
)

// YAMLTask is a single task in the YAML input. Section and project are
// referenced by name; the due date accepts the same expressions as the
// quick-add syntax ("tomorrow", "next friday", "2025-03-01").
type YAMLTask struct {
	Name      string   `yaml:"name"`
	Section   string   `yaml:"section"`
	Project   string   `yaml:"project,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Due       string   `yaml:"due,omitempty"`
	Notes     string   `yaml:"notes,omitempty"`
	Important bool     `yaml:"important,omitempty"`
	Urgent    bool     `yaml:"urgent,omitempty"`
}

// YAMLSection declares a section up front; context defaults to main.
type YAMLSection struct {
	Name    string `yaml:"name"`
	Context string `yaml:"context,omitempty"`
}

// YAMLInput is the root structure of the YAML input.
type YAMLInput struct {
	Sections []YAMLSection `yaml:"sections,omitempty"`
	Tasks    []YAMLTask    `yaml:"tasks"`
}

// TaskCreator is the slice of the task repository the importer needs.
type TaskCreator interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
}

// SectionSource lists and creates sections.
type SectionSource interface {
	List() []model.Section
	Create(ctx context.Context, name, sectionContext string) (model.Section, error)
}

// ProjectResolver resolves a free-form project name to a project.
type ProjectResolver interface {
	GetOrCreate(ctx context.Context, query string) (model.Project, error)
}

// Import parses a YAML string and creates its sections and tasks.
// Referenced sections that do not exist yet are created on the fly.
// Returns the number of tasks created.
func Import(ctx context.Context, tasks TaskCreator, sections SectionSource, projects ProjectResolver, yamlStr string) (int, error) {
	var input YAMLInput
	if err := yaml.Unmarshal([]byte(yamlStr), &input); err != nil {
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Tasks) == 0 && len(input.Sections) == 0 {
		return 0, fmt.Errorf("no tasks found in YAML")
	}

	byName := make(map[string]model.Section)
	for _, s := range sections.List() {
		byName[s.Name] = s
	}

	ensureSection := func(name, sectionContext string) (model.Section, error) {
		if s, ok := byName[name]; ok {
			return s, nil
		}
		if sectionContext == "" {
			sectionContext = model.MainContext
		}
		s, err := sections.Create(ctx, name, sectionContext)
		if err != nil {
			return model.Section{}, fmt.Errorf("create section %q: %w", name, err)
		}
		byName[name] = s
		return s, nil
	}

	for _, ys := range input.Sections {
		if ys.Name == "" {
			return 0, fmt.Errorf("section name is required")
		}
		if _, err := ensureSection(ys.Name, ys.Context); err != nil {
			return 0, err
		}
	}

	count := 0
	for _, yt := range input.Tasks {
		if yt.Name == "" {
			return count, fmt.Errorf("task name is required")
		}
		if yt.Section == "" {
			return count, fmt.Errorf("task %q has no section", yt.Name)
		}

		section, err := ensureSection(yt.Section, "")
		if err != nil {
			return count, err
		}

		task := model.Task{
			Name:      yt.Name,
			SectionID: section.ID,
			Tags:      yt.Tags,
			Urgent:    model.FlagOf(yt.Urgent),
		}
		if yt.Important {
			task.Importance = model.Important
		}
		if yt.Notes != "" {
			notes := yt.Notes
			task.Notes = &notes
		}
		if yt.Project != "" {
			project, err := projects.GetOrCreate(ctx, yt.Project)
			if err != nil {
				return count, fmt.Errorf("resolve project %q: %w", yt.Project, err)
			}
			id := project.ID
			task.ProjectID = &id
		}
		if yt.Due != "" {
			due, ok := quickadd.ResolveDate(yt.Due, time.Now())
			if !ok {
				return count, fmt.Errorf("task %q: unrecognized due date %q", yt.Name, yt.Due)
			}
			ds := due.Format("2006-01-02")
			task.DueDate = &ds
		}

		if _, err := tasks.Create(ctx, task); err != nil {
			return count, fmt.Errorf("create task %q: %w", yt.Name, err)
		}
		count++
	}
	return count, nil
}
