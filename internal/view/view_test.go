package view

import (
	"testing"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
)

func strp(s string) *string { return &s }

func fixtures() ([]model.Task, []model.Section, []model.Project) {
	sections := []model.Section{
		{ID: "s1", Name: "Must Finish Today", Context: model.MainContext},
		{ID: "s2", Name: "Work On Today", Context: model.MainContext},
		{ID: "s3", Name: "High Priority - Must Finish Today", Context: model.MainContext},
		{ID: "s4", Name: "Someday", Context: model.MainContext},
		{ID: "s5", Name: "Groceries", Context: model.ShoppingContext},
	}
	projects := []model.Project{
		{ID: "pa", Name: "Apollo"},
		{ID: "pb", Name: "Borealis"},
	}
	tasks := []model.Task{
		{ID: "t1", Name: "finish report", SectionID: "s1"},
		{ID: "t2", Name: "draft slides", SectionID: "s2", ProjectID: strp("pb")},
		{ID: "t3", Name: "urgent priority thing", SectionID: "s3", Importance: model.VeryImportant},
		{ID: "t4", Name: "clean garage", SectionID: "s4", Notes: strp("ask Sam for help")},
		{ID: "t5", Name: "buy milk", SectionID: "s5", Tags: []string{"grocery"}},
		{ID: "t6", Name: "review budget", SectionID: "s4", Importance: model.VeryImportant, Urgent: model.FlagYes, ProjectID: strp("pa")},
		{ID: "t7", Name: "urgent only", SectionID: "s4", Importance: model.Important, Urgent: model.FlagYes},
	}
	return tasks, sections, projects
}

func ids(ts []model.Task) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestTasks_Today(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Today})
	// t3 sits in a "priority" section and must be excluded
	is.Equal(ids(got), []string{"t1", "t2"})
}

func TestTasks_Upcoming(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Upcoming})
	// complement of the today-named sections, priority wording irrelevant
	is.Equal(ids(got), []string{"t4", "t5", "t6", "t7"})
}

func TestTasks_Priority(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Priority})
	is.Equal(ids(got), []string{"t3", "t6"})
}

func TestTasks_UrgentImportantRequiresBoth(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: UrgentImportant})
	// t7 is urgent but only "important"; t3 is very_important but urgent unset
	is.Equal(ids(got), []string{"t6"})
}

func TestTasks_FocusOrdering(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Focus})
	is.Equal(len(got), len(tasks)) // focus sorts, never drops

	// project groups first (pa before pb), projectless last
	is.Equal(got[0].ID, "t6")
	is.Equal(got[1].ID, "t2")
	for _, task := range got[2:] {
		is.Equal(task.ProjectID, nil)
	}
	// within the projectless group, urgent first then importance
	is.Equal(got[2].ID, "t7")
	is.Equal(got[3].ID, "t3")
}

func TestTasks_ProjectView(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Project, ProjectID: "pb"})
	is.Equal(ids(got), []string{"t2"})
}

func TestTasks_Shopping(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	got := Tasks(tasks, sections, projects, Criteria{View: Shopping})
	is.Equal(ids(got), []string{"t5"})
}

func TestTasks_NonTaskViewsAreEmpty(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()

	for _, v := range []View{Journal, Reminders, Home} {
		is.Equal(len(Tasks(tasks, sections, projects, Criteria{View: v})), 0)
	}
}

func TestTasks_SearchOverlay(t *testing.T) {
	tasks, sections, projects := fixtures()

	t.Run("matches name, notes, tag and project name", func(t *testing.T) {
		is := is.New(t)
		is.Equal(ids(Tasks(tasks, sections, projects, Criteria{View: All, Search: "garage"})), []string{"t4"})
		is.Equal(ids(Tasks(tasks, sections, projects, Criteria{View: All, Search: "SAM"})), []string{"t4"})
		is.Equal(ids(Tasks(tasks, sections, projects, Criteria{View: All, Search: "grocer"})), []string{"t5"})
		is.Equal(ids(Tasks(tasks, sections, projects, Criteria{View: All, Search: "apollo"})), []string{"t6"})
	})

	t.Run("intersects with the view filter", func(t *testing.T) {
		is := is.New(t)
		got := Tasks(tasks, sections, projects, Criteria{View: Today, Search: "slides"})
		is.Equal(ids(got), []string{"t2"})
		got = Tasks(tasks, sections, projects, Criteria{View: Today, Search: "garage"})
		is.Equal(len(got), 0)
	})
}

func TestTasks_DoesNotMutateInput(t *testing.T) {
	is := is.New(t)
	tasks, sections, projects := fixtures()
	before := ids(tasks)

	Tasks(tasks, sections, projects, Criteria{View: Focus})
	is.Equal(ids(tasks), before)
}

func TestVisibleSections(t *testing.T) {
	_, sections, _ := fixtures()

	secIDs := func(ss []model.Section) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.ID
		}
		return out
	}

	t.Run("today hides priority sections", func(t *testing.T) {
		is := is.New(t)
		is.Equal(secIDs(VisibleSections(sections, Criteria{View: Today})), []string{"s1", "s2"})
	})

	t.Run("upcoming keeps the rest of main", func(t *testing.T) {
		is := is.New(t)
		is.Equal(secIDs(VisibleSections(sections, Criteria{View: Upcoming})), []string{"s4"})
	})

	t.Run("shopping selects by context", func(t *testing.T) {
		is := is.New(t)
		is.Equal(secIDs(VisibleSections(sections, Criteria{View: Shopping})), []string{"s5"})
	})

	t.Run("default is main context", func(t *testing.T) {
		is := is.New(t)
		is.Equal(secIDs(VisibleSections(sections, Criteria{View: All})), []string{"s1", "s2", "s3", "s4"})
	})
}
