package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/quickadd"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

// projectPalette is cycled through when a project is created without an
// explicit color.
var projectPalette = []string{
	"#e06c75", "#98c379", "#e5c07b", "#61afef", "#c678dd", "#56b6c2",
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name     *string
	Color    *string
	ViewMode *model.ViewMode
}

func (p ProjectPatch) apply(pr *model.Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Color != nil {
		pr.Color = *p.Color
	}
	if p.ViewMode != nil {
		pr.ViewMode = *p.ViewMode
	}
}

// Projects is the repository of projects for one owner.
type Projects struct {
	remote remote.Store
	cache  *offline.Store
	owner  string

	mu    sync.Mutex
	items []model.Project

	watch  watchers
	cancel func()
}

func NewProjects(rs remote.Store, cache *offline.Store, owner string) *Projects {
	p := &Projects{remote: rs, cache: cache, owner: owner}
	p.cancel = rs.Subscribe(model.KindProject, owner, func() {
		_ = p.Refresh(context.Background())
	})
	return p
}

func (p *Projects) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Projects) Load(ctx context.Context) error {
	if p.remote.Online() {
		if err := p.Refresh(ctx); err == nil {
			return nil
		}
	}
	items := cachedAll[model.Project](p.cache, model.KindProject)
	sortProjects(items)
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	p.watch.notify()
	return nil
}

func (p *Projects) Refresh(ctx context.Context) error {
	rows, err := p.remote.Collection(model.KindProject).Select(ctx, remote.Filter{})
	if err != nil {
		return err
	}
	items, err := decodeAll[model.Project](rows)
	if err != nil {
		return err
	}
	sortProjects(items)

	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	mirrorAll(p.cache, model.KindProject, items, func(v model.Project) string { return v.ID })
	p.watch.notify()
	return nil
}

func sortProjects(items []model.Project) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

// List returns a copy of all projects, name-ordered.
func (p *Projects) List() []model.Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Project, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Projects) Get(id string) (model.Project, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range p.items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.Project{}, ErrNotFound
}

func (p *Projects) Watch(fn func()) func() {
	return p.watch.add(fn)
}

// Create adds a project. An empty color picks the next palette entry.
func (p *Projects) Create(ctx context.Context, name, color string) (model.Project, error) {
	if name == "" {
		return model.Project{}, ErrEmptyName
	}
	p.mu.Lock()
	if color == "" {
		color = projectPalette[len(p.items)%len(projectPalette)]
	}
	p.mu.Unlock()

	project := model.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		ViewMode:  model.StandardView,
		Owner:     p.owner,
		CreatedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	p.items = append(p.items, project)
	sortProjects(p.items)
	p.mu.Unlock()
	mirrorPut(p.cache, model.KindProject, project.ID, project)
	p.watch.notify()

	if err := pushChange(ctx, p.remote, p.cache, model.KindProject, model.OpCreate, project.ID, project); err != nil {
		_ = p.Refresh(ctx)
		return project, err
	}
	return project, nil
}

// GetOrCreate resolves a free-form project query: an existing project
// wins, otherwise one is created under the query text.
func (p *Projects) GetOrCreate(ctx context.Context, query string) (model.Project, error) {
	if project, ok := quickadd.MatchProject(p.List(), query); ok {
		return project, nil
	}
	return p.Create(ctx, query, "")
}

func (p *Projects) Update(ctx context.Context, id string, patch ProjectPatch) (model.Project, error) {
	p.mu.Lock()
	idx := p.indexOf(id)
	if idx < 0 {
		p.mu.Unlock()
		return model.Project{}, ErrNotFound
	}
	merged := p.items[idx]
	patch.apply(&merged)
	p.items[idx] = merged
	sortProjects(p.items)
	p.mu.Unlock()
	mirrorPut(p.cache, model.KindProject, id, merged)
	p.watch.notify()

	if err := pushChange(ctx, p.remote, p.cache, model.KindProject, model.OpUpdate, id, merged); err != nil {
		_ = p.Refresh(ctx)
		return merged, err
	}
	return merged, nil
}

func (p *Projects) Delete(ctx context.Context, id string) error {
	p.mu.Lock()
	idx := p.indexOf(id)
	if idx < 0 {
		p.mu.Unlock()
		return ErrNotFound
	}
	p.items = append(p.items[:idx], p.items[idx+1:]...)
	p.mu.Unlock()
	mirrorDelete(p.cache, model.KindProject, id)
	p.watch.notify()

	if err := pushChange(ctx, p.remote, p.cache, model.KindProject, model.OpDelete, id, nil); err != nil {
		_ = p.Refresh(ctx)
		return err
	}
	return nil
}

func (p *Projects) indexOf(id string) int {
	for i := range p.items {
		if p.items[i].ID == id {
			return i
		}
	}
	return -1
}
