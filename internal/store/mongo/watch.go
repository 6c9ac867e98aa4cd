package mongo

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// subscription polls the room's documents on a fixed interval. Change
// streams would push instead, but they require a replica set; polling keeps
// the store usable against a standalone mongod. Unchanged snapshots are
// suppressed so watchers only wake on real writes.
type subscription struct {
	store  *Store
	roomID model.RoomID
	cancel context.CancelFunc

	mu     sync.Mutex
	ch     chan *model.Snapshot
	closed bool
}

var _ store.Subscription = (*subscription)(nil)

func (sub *subscription) Snapshots() <-chan *model.Snapshot {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.cancel()
	sub.end()
}

// deliver replaces any pending snapshot with snap
func (sub *subscription) deliver(snap *model.Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- snap:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snap
	}
}

// end closes the channel; safe to call more than once
func (sub *subscription) end() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

func (sub *subscription) run(ctx context.Context, last *model.Snapshot) {
	defer sub.end()

	ticker := time.NewTicker(sub.store.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap, err := sub.store.Snapshot(ctx, sub.roomID)
		if err != nil {
			continue
		}
		if snap.Deleted {
			sub.deliver(snap)
			return
		}
		if reflect.DeepEqual(snap, last) {
			continue
		}
		last = snap
		sub.deliver(snap)
	}
}

// Watch subscribes to changes for a room. The current snapshot is delivered
// immediately so a late joiner converges without waiting for the next poll.
func (s *Store) Watch(ctx context.Context, roomID model.RoomID) (store.Subscription, error) {
	snap, err := s.Snapshot(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if snap.Deleted {
		return nil, model.ErrRoomNotFound
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		store:  s,
		roomID: roomID,
		cancel: cancel,
		ch:     make(chan *model.Snapshot, 1),
	}
	sub.deliver(snap)
	go sub.run(runCtx, snap)
	return sub, nil
}
