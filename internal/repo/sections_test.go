package repo

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/nissyi-gh/taskdeck/internal/model"
)

func TestSections_PositionsArePerContext(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	rs := newFakeStore()
	sections := NewSections(rs, openTemp(t), "u1")
	t.Cleanup(sections.Close)

	a, err := sections.Create(ctx, "Must Finish Today", model.MainContext)
	is.NoErr(err)
	b, err := sections.Create(ctx, "Work On Today", model.MainContext)
	is.NoErr(err)
	g, err := sections.Create(ctx, "Groceries", model.ShoppingContext)
	is.NoErr(err)

	is.Equal(a.Position, 0)
	is.Equal(b.Position, 1)
	is.Equal(g.Position, 0) // shopping orders independently of main

	main := sections.ByContext(model.MainContext)
	is.Equal(len(main), 2)
	is.Equal(main[0].ID, a.ID)
}

func TestSections_Reorder(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	rs := newFakeStore()
	sections := NewSections(rs, openTemp(t), "u1")
	t.Cleanup(sections.Close)

	a, _ := sections.Create(ctx, "One", model.MainContext)
	b, _ := sections.Create(ctx, "Two", model.MainContext)

	is.NoErr(sections.Reorder(ctx, model.MainContext, []string{b.ID, a.ID}))
	is.Equal(rs.positionCalls, 1)

	main := sections.ByContext(model.MainContext)
	is.Equal(main[0].ID, b.ID)
	is.Equal(main[1].ID, a.ID)
}

func TestSections_DeleteUnknownID(t *testing.T) {
	is := is.New(t)
	rs := newFakeStore()
	sections := NewSections(rs, openTemp(t), "u1")
	t.Cleanup(sections.Close)

	is.Equal(sections.Delete(context.Background(), "missing"), ErrNotFound)
}
