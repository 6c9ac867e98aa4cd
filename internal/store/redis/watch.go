package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/bashkah/partyroom/internal/model"
	"github.com/bashkah/partyroom/internal/store"
)

// subscription re-reads the room snapshot whenever a change signal arrives
// on the room's pub/sub channel. The re-read makes delivery idempotent:
// duplicate or reordered signals all converge on the latest state.
type subscription struct {
	cancel context.CancelFunc
	pubsub *redis.PubSub
	ch     chan *model.Snapshot

	mu     sync.Mutex
	closed bool
}

var _ store.Subscription = (*subscription)(nil)

func (sub *subscription) Snapshots() <-chan *model.Snapshot {
	return sub.ch
}

func (sub *subscription) Close() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	sub.mu.Unlock()

	sub.cancel()
	_ = sub.pubsub.Close()
}

// deliver replaces any pending snapshot with snap so slow consumers always
// converge on the latest state
func (sub *subscription) deliver(snap *model.Snapshot) {
	select {
	case sub.ch <- snap:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- snap:
		default:
		}
	}
}

// Watch subscribes to changes for a room. A current snapshot is delivered
// immediately; the subscription survives transient read failures by simply
// waiting for the next signal.
func (s *Store) Watch(ctx context.Context, roomID model.RoomID) (store.Subscription, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := s.client.Subscribe(subCtx, eventsChannel(roomID))

	// Force the subscription to be established before returning so no
	// change signal between the initial snapshot and the first receive
	// is lost.
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{
		cancel: cancel,
		pubsub: pubsub,
		ch:     make(chan *model.Snapshot, 1),
	}

	go s.run(subCtx, roomID, sub)
	return sub, nil
}

func (s *Store) run(ctx context.Context, roomID model.RoomID, sub *subscription) {
	defer close(sub.ch)

	if snap, err := s.Snapshot(ctx, roomID); err == nil {
		sub.deliver(snap)
	}

	msgs := sub.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Payload == signalDeleted {
				sub.deliver(&model.Snapshot{Deleted: true})
				return
			}
			snap, err := s.Snapshot(ctx, roomID)
			if err != nil {
				// Transient read failure; the next signal triggers
				// another attempt
				continue
			}
			sub.deliver(snap)
		}
	}
}
