package quickadd

import (
	"testing"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
)

func TestMatchProject(t *testing.T) {
	projects := []model.Project{
		{ID: "1", Name: "Growth"},
		{ID: "2", Name: "Growth Experiments"},
		{ID: "3", Name: "Acme Website"},
	}

	t.Run("exact beats substring", func(t *testing.T) {
		is := is.New(t)
		p, ok := MatchProject(projects, "growth")
		is.True(ok)
		is.Equal(p.ID, "1")
	})

	t.Run("substring containment", func(t *testing.T) {
		is := is.New(t)
		p, ok := MatchProject(projects, "website")
		is.True(ok)
		is.Equal(p.ID, "3")
	})

	t.Run("first in list order wins within a tier", func(t *testing.T) {
		is := is.New(t)
		p, ok := MatchProject(projects, "grow")
		is.True(ok)
		is.Equal(p.ID, "1")
	})

	t.Run("no match", func(t *testing.T) {
		is := is.New(t)
		_, ok := MatchProject(projects, "payroll")
		is.Equal(ok, false)
	})

	t.Run("empty query", func(t *testing.T) {
		is := is.New(t)
		_, ok := MatchProject(projects, "  ")
		is.Equal(ok, false)
	})
}
