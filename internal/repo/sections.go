package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

// SectionPatch is a partial section update.
type SectionPatch struct {
	Name     *string
	Position *int
	Context  *string
}

func (p SectionPatch) apply(s *model.Section) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.Context != nil {
		s.Context = *p.Context
	}
}

// Sections is the repository of sections for one owner, across all
// contexts.
type Sections struct {
	remote remote.Store
	cache  *offline.Store
	owner  string

	mu    sync.Mutex
	items []model.Section

	watch  watchers
	cancel func()
}

func NewSections(rs remote.Store, cache *offline.Store, owner string) *Sections {
	s := &Sections{remote: rs, cache: cache, owner: owner}
	s.cancel = rs.Subscribe(model.KindSection, owner, func() {
		_ = s.Refresh(context.Background())
	})
	return s
}

func (s *Sections) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sections) Load(ctx context.Context) error {
	if s.remote.Online() {
		if err := s.Refresh(ctx); err == nil {
			return nil
		}
	}
	items := cachedAll[model.Section](s.cache, model.KindSection)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.watch.notify()
	return nil
}

func (s *Sections) Refresh(ctx context.Context) error {
	rows, err := s.remote.Collection(model.KindSection).Select(ctx, remote.Filter{})
	if err != nil {
		return err
	}
	items, err := decodeAll[model.Section](rows)
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	mirrorAll(s.cache, model.KindSection, items, func(v model.Section) string { return v.ID })
	s.watch.notify()
	return nil
}

// List returns a copy of all sections, position-ordered.
func (s *Sections) List() []model.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Section, len(s.items))
	copy(out, s.items)
	return out
}

// ByContext returns the sections of one context, position-ordered.
func (s *Sections) ByContext(sectionContext string) []model.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Section
	for _, item := range s.items {
		if item.Context == sectionContext {
			out = append(out, item)
		}
	}
	return out
}

func (s *Sections) Get(id string) (model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.Section{}, ErrNotFound
}

func (s *Sections) Watch(fn func()) func() {
	return s.watch.add(fn)
}

// Create appends a new section at the end of its context.
func (s *Sections) Create(ctx context.Context, name, sectionContext string) (model.Section, error) {
	if name == "" {
		return model.Section{}, ErrEmptyName
	}
	section := model.Section{
		ID:        uuid.NewString(),
		Name:      name,
		Position:  s.nextPosition(sectionContext),
		Context:   sectionContext,
		Owner:     s.owner,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.items = append(s.items, section)
	s.mu.Unlock()
	mirrorPut(s.cache, model.KindSection, section.ID, section)
	s.watch.notify()

	if err := pushChange(ctx, s.remote, s.cache, model.KindSection, model.OpCreate, section.ID, section); err != nil {
		_ = s.Refresh(ctx)
		return section, err
	}
	return section, nil
}

func (s *Sections) Update(ctx context.Context, id string, patch SectionPatch) (model.Section, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Section{}, ErrNotFound
	}
	merged := s.items[idx]
	patch.apply(&merged)
	s.items[idx] = merged
	s.mu.Unlock()
	mirrorPut(s.cache, model.KindSection, id, merged)
	s.watch.notify()

	if err := pushChange(ctx, s.remote, s.cache, model.KindSection, model.OpUpdate, id, merged); err != nil {
		_ = s.Refresh(ctx)
		return merged, err
	}
	return merged, nil
}

// Delete removes a section. Tasks inside it are the caller's problem;
// the server cascades them.
func (s *Sections) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()
	mirrorDelete(s.cache, model.KindSection, id)
	s.watch.notify()

	if err := pushChange(ctx, s.remote, s.cache, model.KindSection, model.OpDelete, id, nil); err != nil {
		_ = s.Refresh(ctx)
		return err
	}
	return nil
}

// Reorder rewrites section positions within one context.
func (s *Sections) Reorder(ctx context.Context, sectionContext string, orderedIDs []string) error {
	pos := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		pos[id] = i
	}

	s.mu.Lock()
	touched := make([]model.Section, 0, len(orderedIDs))
	for i := range s.items {
		if s.items[i].Context != sectionContext {
			continue
		}
		p, ok := pos[s.items[i].ID]
		if !ok || s.items[i].Position == p {
			continue
		}
		s.items[i].Position = p
		touched = append(touched, s.items[i])
	}
	sort.SliceStable(s.items, func(i, j int) bool { return s.items[i].Position < s.items[j].Position })
	s.mu.Unlock()

	for _, section := range touched {
		mirrorPut(s.cache, model.KindSection, section.ID, section)
	}
	s.watch.notify()
	if len(touched) == 0 {
		return nil
	}

	if s.cache != nil && !s.remote.Online() {
		for _, section := range touched {
			if err := pushChange(ctx, s.remote, s.cache, model.KindSection, model.OpUpdate, section.ID, section); err != nil {
				return err
			}
		}
		return nil
	}

	updates := make([]remote.PositionUpdate, len(touched))
	for i, section := range touched {
		updates[i] = remote.PositionUpdate{ID: section.ID, Position: section.Position}
	}
	if err := s.remote.SetPositions(ctx, model.KindSection, updates); err != nil {
		_ = s.Refresh(ctx)
		return err
	}
	return nil
}

func (s *Sections) nextPosition(sectionContext string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := 0
	for _, item := range s.items {
		if item.Context == sectionContext && item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

func (s *Sections) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
