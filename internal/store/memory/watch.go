package memory

import (
	"context"
	"sync"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// subscription is one watcher of a room. Deliveries coalesce: the channel
// holds at most one pending snapshot and a newer one replaces it, so slow
// consumers skip intermediate states but always converge on the latest.
type subscription struct {
	store  *Store
	roomID model.RoomID

	mu     sync.Mutex
	ch     chan *model.Snapshot
	closed bool
}

var _ store.Subscription = (*subscription)(nil)

func (sub *subscription) Snapshots() <-chan *model.Snapshot {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.store.mu.Lock()
	if subs, ok := sub.store.subs[sub.roomID]; ok {
		delete(subs, sub)
	}
	sub.store.mu.Unlock()
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

// Watch subscribes to changes for a room. The current snapshot is delivered
// immediately so a late joiner converges without waiting for the next write.
func (s *Store) Watch(ctx context.Context, roomID model.RoomID) (store.Subscription, error) {
	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		s.mu.Unlock()
		return nil, model.ErrRoomNotFound
	}
	sub := &subscription{
		store:  s,
		roomID: roomID,
		ch:     make(chan *model.Snapshot, 1),
	}
	if s.subs[roomID] == nil {
		s.subs[roomID] = make(map[*subscription]struct{})
	}
	s.subs[roomID][sub] = struct{}{}
	snap, _ := s.snapshotLocked(roomID)
	s.mu.Unlock()

	sub.deliver(snap)
	return sub, nil
}

// notify fans the current snapshot out to every watcher of the room
func (s *Store) notify(roomID model.RoomID) {
	s.mu.RLock()
	snap, err := s.snapshotLocked(roomID)
	subs := make([]*subscription, 0, len(s.subs[roomID]))
	for sub := range s.subs[roomID] {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	if err != nil {
		return
	}
	for _, sub := range subs {
		sub.deliver(snap)
	}
}
