// Package syncer replays the offline pending-change queue against the
// remote store once connectivity is back.
package syncer

import (
	"context"

	"github.com/nissyi-gh/taskdeck/internal/model"
	"github.com/nissyi-gh/taskdeck/internal/offline"
	"github.com/nissyi-gh/taskdeck/internal/remote"
)

// Coordinator drains the queue strictly in enqueue order. Retry cadence
// is the caller's business: call Sync again on the next reconnect or
// timer tick.
type Coordinator struct {
	cache  *offline.Store
	remote remote.Store
}

// Result reports one drain. Synced entries left the queue; Failed ones
// stay queued for a later drain; Skipped ones were held back because an
// earlier change for the same entity failed first.
type Result struct {
	Success bool
	Synced  int
	Failed  int
	Skipped int
}

func New(cache *offline.Store, rs remote.Store) *Coordinator {
	return &Coordinator{cache: cache, remote: rs}
}

// Sync replays every queued change in FIFO order. A failing entry stays
// queued and does not halt the drain, but it blocks later entries for
// the same entity so no entity ever sees its changes applied out of
// order.
func (c *Coordinator) Sync(ctx context.Context) (Result, error) {
	changes, err := c.cache.PendingChanges()
	if err != nil {
		return Result{}, err
	}

	var res Result
	blocked := make(map[string]bool)
	for _, ch := range changes {
		key := string(ch.Entity) + ":" + ch.EntityID
		if blocked[key] {
			res.Skipped++
			continue
		}
		if err := c.apply(ctx, ch); err != nil {
			res.Failed++
			blocked[key] = true
			continue
		}
		if err := c.cache.RemovePendingChange(ch.ID); err != nil {
			return res, err
		}
		res.Synced++
	}
	res.Success = res.Failed == 0 && res.Skipped == 0
	return res, nil
}

func (c *Coordinator) apply(ctx context.Context, ch model.PendingChange) error {
	coll := c.remote.Collection(ch.Entity)
	switch ch.Operation {
	case model.OpCreate:
		_, err := coll.Insert(ctx, ch.Payload)
		return err
	case model.OpUpdate:
		_, err := coll.Update(ctx, ch.EntityID, ch.Payload)
		return err
	case model.OpDelete:
		return coll.Delete(ctx, ch.EntityID)
	}
	return nil
}
