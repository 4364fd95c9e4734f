package quickadd

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
)

var anchor = time.Date(2025, time.February, 10, 14, 30, 0, 0, time.Local) // a Monday

func TestParse_PlainText(t *testing.T) {
	is := is.New(t)

	p := ParseAt("  buy   milk  ", anchor)
	is.Equal(p.Name, "buy milk")
	is.Equal(p.Importance, model.Normal)
	is.Equal(p.Urgent, false)
	is.Equal(p.Tags, []string{})
	is.Equal(p.Project, "")
	is.Equal(p.DueDate, nil)
}

func TestParse_Tags(t *testing.T) {
	is := is.New(t)

	p := ParseAt("buy milk #Grocery #URGENT", anchor)
	is.Equal(p.Name, "buy milk")
	is.Equal(p.Tags, []string{"grocery", "urgent"})
}

func TestParse_Prefixes(t *testing.T) {
	tests := []struct {
		input      string
		importance model.Importance
		urgent     bool
		name       string
	}{
		{"*!Fix bug", model.Important, true, "Fix bug"},
		{"!*Fix bug", model.Important, true, "Fix bug"},
		{"*Fix bug", model.Important, false, "Fix bug"},
		{"!Fix bug", model.Normal, true, "Fix bug"},
		{"Fix * bug", model.Normal, false, "Fix * bug"}, // only a leading match counts
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			is := is.New(t)
			p := ParseAt(tt.input, anchor)
			is.Equal(p.Importance, tt.importance)
			is.Equal(p.Urgent, tt.urgent)
			is.Equal(p.Name, tt.name)
		})
	}
}

func TestParse_ProjectAndDue(t *testing.T) {
	is := is.New(t)

	p := ParseAt("Call client p:Acme @due(tomorrow)", anchor)
	is.Equal(p.Name, "Call client")
	is.Equal(p.Project, "Acme")
	is.True(p.DueDate != nil)
	is.Equal(*p.DueDate, time.Date(2025, time.February, 11, 0, 0, 0, 0, time.Local))
}

func TestParse_ProjectPrefixVariants(t *testing.T) {
	for _, input := range []string{"x proj:Growth", "x pro:Growth", "x p:Growth", "x P:Growth"} {
		t.Run(input, func(t *testing.T) {
			is := is.New(t)
			p := ParseAt(input, anchor)
			is.Equal(p.Project, "Growth")
			is.Equal(p.Name, "x")
		})
	}
}

func TestParse_OnlyFirstProjectWins(t *testing.T) {
	is := is.New(t)

	p := ParseAt("a p:One p:Two", anchor)
	is.Equal(p.Project, "One")
	is.Equal(p.Name, "a p:Two")
}

func TestParse_MalformedDueIsSilent(t *testing.T) {
	is := is.New(t)

	p := ParseAt("ship it @due(someday)", anchor)
	is.Equal(p.Name, "ship it")
	is.Equal(p.DueDate, nil)
}

func TestParse_Combined(t *testing.T) {
	is := is.New(t)

	p := ParseAt("Plan launch *! #work p:Growth @due(2025-03-01)", anchor)
	// the prefix is not leading here, so *! stays in the name
	is.Equal(p.Importance, model.Normal)

	p = ParseAt("*!Plan launch #work p:Growth @due(2025-03-01)", anchor)
	is.Equal(p.Name, "Plan launch")
	is.Equal(p.Importance, model.Important)
	is.Equal(p.Urgent, true)
	is.Equal(p.Tags, []string{"work"})
	is.Equal(p.Project, "Growth")
	is.True(p.DueDate != nil)
	is.Equal(*p.DueDate, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local))
}

func TestParse_EmptyName(t *testing.T) {
	is := is.New(t)

	p := ParseAt("#chore @due(today)", anchor)
	is.Equal(p.Name, "")
	is.Equal(p.Tags, []string{"chore"})
}
