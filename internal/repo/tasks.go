package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/quickadd"
	"github.com/nissyi-gh/taskdeck/internal/recurrence"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

const dayFormat = "2006-01-02"

// TaskPatch is a partial task update. Nil fields are left untouched; a
// pointer to the zero value clears the field.
type TaskPatch struct {
	Name           *string
	SectionID      *string
	ProjectID      **string
	Tags           *[]string
	DueDate        **string
	StrictDueDate  *bool
	Notes          **string
	Importance     *model.Importance
	Urgent         *model.Flag
	Length         *model.Length
	Position       *int
	RecurrenceRule *model.Recurrence
}

func (p TaskPatch) apply(t *model.Task) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.SectionID != nil {
		t.SectionID = *p.SectionID
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.StrictDueDate != nil {
		t.StrictDueDate = *p.StrictDueDate
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Importance != nil {
		t.Importance = *p.Importance
	}
	if p.Urgent != nil {
		t.Urgent = *p.Urgent
	}
	if p.Length != nil {
		t.Length = *p.Length
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.RecurrenceRule != nil {
		t.RecurrenceRule = *p.RecurrenceRule
	}
}

// Tasks is the repository of active tasks for one owner.
type Tasks struct {
	remote remote.Store
	cache  *offline.Store
	owner  string

	mu    sync.Mutex
	items []model.Task

	watch  watchers
	cancel func()
}

// NewTasks builds the task repository and subscribes to remote change
// notifications. Call Load before first use and Close when done.
func NewTasks(rs remote.Store, cache *offline.Store, owner string) *Tasks {
	t := &Tasks{remote: rs, cache: cache, owner: owner}
	t.cancel = rs.Subscribe(model.KindTask, owner, func() {
		_ = t.Refresh(context.Background())
	})
	return t
}

// Close cancels the change subscription.
func (t *Tasks) Close() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Load primes the repository: from the remote store when reachable,
// from the offline mirror otherwise.
func (t *Tasks) Load(ctx context.Context) error {
	if t.remote.Online() {
		if err := t.Refresh(ctx); err == nil {
			return nil
		}
	}
	items := cachedAll[model.Task](t.cache, model.KindTask)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
	t.watch.notify()
	return nil
}

// Refresh re-fetches the full active task list and refreshes the mirror.
func (t *Tasks) Refresh(ctx context.Context) error {
	rows, err := t.remote.Collection(model.KindTask).Select(ctx, remote.Filter{"archived": "false"})
	if err != nil {
		return err
	}
	items, err := decodeAll[model.Task](rows)
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	t.mu.Lock()
	t.items = items
	t.mu.Unlock()
	mirrorAll(t.cache, model.KindTask, items, func(v model.Task) string { return v.ID })
	t.watch.notify()
	return nil
}

// List returns a copy of the active tasks, position-ordered.
func (t *Tasks) List() []model.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Task, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns one active task by id.
func (t *Tasks) Get(id string) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, item := range t.items {
		if item.ID == id {
			return item, nil
		}
	}
	return model.Task{}, ErrNotFound
}

// Watch registers fn to run after every change to the task list. The
// returned func cancels the registration.
func (t *Tasks) Watch(fn func()) func() {
	return t.watch.add(fn)
}

// CreateFromQuickAdd parses one quick-add line and creates the task it
// describes in the given section. An unmatched project token is dropped
// rather than rejected.
func (t *Tasks) CreateFromQuickAdd(ctx context.Context, raw, sectionID string, projects []model.Project) (model.Task, error) {
	parsed := quickadd.Parse(raw)
	if parsed.Name == "" {
		return model.Task{}, ErrEmptyName
	}

	var projectID *string
	if parsed.Project != "" {
		if p, ok := quickadd.MatchProject(projects, parsed.Project); ok {
			id := p.ID
			projectID = &id
		}
	}
	var due *string
	if parsed.DueDate != nil {
		s := parsed.DueDate.Format(dayFormat)
		due = &s
	}

	task := model.Task{
		ID:         uuid.NewString(),
		Name:       parsed.Name,
		SectionID:  sectionID,
		ProjectID:  projectID,
		Tags:       parsed.Tags,
		DueDate:    due,
		Importance: parsed.Importance,
		Urgent:     model.FlagOf(parsed.Urgent),
		Position:   t.nextPosition(sectionID),
		Owner:      t.owner,
		CreatedAt:  time.Now().UTC(),
	}
	return t.create(ctx, task)
}

// Create adds a fully formed task. Missing id, owner and timestamps are
// filled in.
func (t *Tasks) Create(ctx context.Context, task model.Task) (model.Task, error) {
	if task.Name == "" {
		return model.Task{}, ErrEmptyName
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Owner == "" {
		task.Owner = t.owner
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return t.create(ctx, task)
}

func (t *Tasks) create(ctx context.Context, task model.Task) (model.Task, error) {
	t.mu.Lock()
	t.items = append(t.items, task)
	t.mu.Unlock()
	mirrorPut(t.cache, model.KindTask, task.ID, task)
	t.watch.notify()

	if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpCreate, task.ID, task); err != nil {
		_ = t.Refresh(ctx)
		return task, err
	}
	return task, nil
}

// Update merges a patch into one task and propagates the full merged row.
func (t *Tasks) Update(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return model.Task{}, ErrNotFound
	}
	merged := t.items[idx]
	patch.apply(&merged)
	t.items[idx] = merged
	t.mu.Unlock()
	mirrorPut(t.cache, model.KindTask, id, merged)
	t.watch.notify()

	if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpUpdate, id, merged); err != nil {
		_ = t.Refresh(ctx)
		return merged, err
	}
	return merged, nil
}

// Delete removes a task and returns the removed row so the caller can
// offer an undo.
func (t *Tasks) Delete(ctx context.Context, id string) (model.Task, error) {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return model.Task{}, ErrNotFound
	}
	removed := t.items[idx]
	t.items = append(t.items[:idx], t.items[idx+1:]...)
	t.mu.Unlock()
	mirrorDelete(t.cache, model.KindTask, id)
	t.watch.notify()

	if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpDelete, id, nil); err != nil {
		_ = t.Refresh(ctx)
		return removed, err
	}
	return removed, nil
}

// UndoDelete re-creates a previously deleted task under its old id.
func (t *Tasks) UndoDelete(ctx context.Context, task model.Task) (model.Task, error) {
	return t.create(ctx, task)
}

// Complete archives a task and, if it recurs, immediately creates the
// next occurrence. The archived row is returned for undo.
func (t *Tasks) Complete(ctx context.Context, id string) (model.Task, error) {
	t.mu.Lock()
	idx := t.indexOf(id)
	if idx < 0 {
		t.mu.Unlock()
		return model.Task{}, ErrNotFound
	}
	completed := t.items[idx]
	now := time.Now().UTC()
	completed.CompletedAt = &now
	completed.Archived = true
	t.items = append(t.items[:idx], t.items[idx+1:]...)
	t.mu.Unlock()
	mirrorDelete(t.cache, model.KindTask, id)
	t.watch.notify()

	if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpUpdate, id, completed); err != nil {
		_ = t.Refresh(ctx)
		return completed, err
	}

	if completed.RecurrenceRule != model.NoRecurrence {
		if next := recurrence.NextDueDate(completed.DueDate, completed.RecurrenceRule); next != nil {
			successor := model.Task{
				ID:             uuid.NewString(),
				Name:           completed.Name,
				SectionID:      completed.SectionID,
				ProjectID:      completed.ProjectID,
				Tags:           completed.Tags,
				DueDate:        next,
				Notes:          completed.Notes,
				Importance:     completed.Importance,
				Position:       completed.Position,
				RecurrenceRule: completed.RecurrenceRule,
				Owner:          completed.Owner,
				CreatedAt:      time.Now().UTC(),
			}
			if _, err := t.create(ctx, successor); err != nil {
				return completed, err
			}
		}
	}
	return completed, nil
}

// Uncomplete restores a previously completed task.
func (t *Tasks) Uncomplete(ctx context.Context, task model.Task) (model.Task, error) {
	task.CompletedAt = nil
	task.Archived = false

	t.mu.Lock()
	t.items = append(t.items, task)
	sort.SliceStable(t.items, func(i, j int) bool { return t.items[i].Position < t.items[j].Position })
	t.mu.Unlock()
	mirrorPut(t.cache, model.KindTask, task.ID, task)
	t.watch.notify()

	if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpUpdate, task.ID, task); err != nil {
		_ = t.Refresh(ctx)
		return task, err
	}
	return task, nil
}

// Reorder rewrites positions within one section to match orderedIDs.
// Online the new positions go out as a single batched call; offline each
// touched row is queued as a full update.
func (t *Tasks) Reorder(ctx context.Context, sectionID string, orderedIDs []string) error {
	pos := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		pos[id] = i
	}

	t.mu.Lock()
	touched := make([]model.Task, 0, len(orderedIDs))
	for i := range t.items {
		if t.items[i].SectionID != sectionID {
			continue
		}
		p, ok := pos[t.items[i].ID]
		if !ok || t.items[i].Position == p {
			continue
		}
		t.items[i].Position = p
		touched = append(touched, t.items[i])
	}
	sort.SliceStable(t.items, func(i, j int) bool { return t.items[i].Position < t.items[j].Position })
	t.mu.Unlock()

	for _, task := range touched {
		mirrorPut(t.cache, model.KindTask, task.ID, task)
	}
	t.watch.notify()
	if len(touched) == 0 {
		return nil
	}

	if t.cache != nil && !t.remote.Online() {
		for _, task := range touched {
			if err := pushChange(ctx, t.remote, t.cache, model.KindTask, model.OpUpdate, task.ID, task); err != nil {
				return err
			}
		}
		return nil
	}

	updates := make([]remote.PositionUpdate, len(touched))
	for i, task := range touched {
		updates[i] = remote.PositionUpdate{ID: task.ID, Position: task.Position}
	}
	if err := t.remote.SetPositions(ctx, model.KindTask, updates); err != nil {
		_ = t.Refresh(ctx)
		return err
	}
	return nil
}

// Move sends a task to another section, appended at the end.
func (t *Tasks) Move(ctx context.Context, id, sectionID string) (model.Task, error) {
	next := t.nextPosition(sectionID)
	return t.Update(ctx, id, TaskPatch{SectionID: &sectionID, Position: &next})
}

func (t *Tasks) nextPosition(sectionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	next := 0
	for _, item := range t.items {
		if item.SectionID == sectionID && item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

func (t *Tasks) indexOf(id string) int {
	for i := range t.items {
		if t.items[i].ID == id {
			return i
		}
	}
	return -1
}
