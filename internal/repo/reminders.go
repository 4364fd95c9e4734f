package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

// Reminders is the repository of reminders for one owner. Reminders are
// remote-only: they are neither mirrored nor queued, so mutations need
// connectivity.
type Reminders struct {
	remote remote.Store
	owner  string

	mu    sync.Mutex
	items []model.Reminder

	watch  watchers
	cancel func()
}

func NewReminders(rs remote.Store, owner string) *Reminders {
	r := &Reminders{remote: rs, owner: owner}
	r.cancel = rs.Subscribe(model.KindReminder, owner, func() {
		_ = r.Refresh(context.Background())
	})
	return r
}

func (r *Reminders) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Reminders) Refresh(ctx context.Context) error {
	rows, err := r.remote.Collection(model.KindReminder).Select(ctx, remote.Filter{})
	if err != nil {
		return err
	}
	items, err := decodeAll[model.Reminder](rows)
	if err != nil {
		return err
	}
	// due ones first, then by creation
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DueDate, items[j].DueDate
		switch {
		case di != nil && dj != nil:
			return *di < *dj
		case di != nil:
			return true
		case dj != nil:
			return false
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	r.watch.notify()
	return nil
}

func (r *Reminders) List() []model.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Reminder, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Reminders) Watch(fn func()) func() {
	return r.watch.add(fn)
}

func (r *Reminders) Create(ctx context.Context, name string, dueDate *string) (model.Reminder, error) {
	if name == "" {
		return model.Reminder{}, ErrEmptyName
	}
	reminder := model.Reminder{
		ID:        uuid.NewString(),
		Name:      name,
		DueDate:   dueDate,
		Owner:     r.owner,
		CreatedAt: time.Now().UTC(),
	}
	if err := pushChange(ctx, r.remote, nil, model.KindReminder, model.OpCreate, reminder.ID, reminder); err != nil {
		return model.Reminder{}, err
	}
	r.mu.Lock()
	r.items = append(r.items, reminder)
	r.mu.Unlock()
	r.watch.notify()
	return reminder, nil
}

// Toggle flips a reminder's completed state.
func (r *Reminders) Toggle(ctx context.Context, id string) (model.Reminder, error) {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return model.Reminder{}, ErrNotFound
	}
	toggled := r.items[idx]
	toggled.Completed = !toggled.Completed
	r.items[idx] = toggled
	r.mu.Unlock()
	r.watch.notify()

	if err := pushChange(ctx, r.remote, nil, model.KindReminder, model.OpUpdate, id, toggled); err != nil {
		_ = r.Refresh(ctx)
		return toggled, err
	}
	return toggled, nil
}

func (r *Reminders) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return ErrNotFound
	}
	r.items = append(r.items[:idx], r.items[idx+1:]...)
	r.mu.Unlock()
	r.watch.notify()

	if err := pushChange(ctx, r.remote, nil, model.KindReminder, model.OpDelete, id, nil); err != nil {
		_ = r.Refresh(ctx)
		return err
	}
	return nil
}

func (r *Reminders) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}
