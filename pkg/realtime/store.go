package realtime

import (
	"context"
	"sync"
	"time"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster
}

// RoomStore manages rooms, their broadcasters and their timer loops.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T]
	loops map[string]context.CancelFunc
	wakes map[string]chan struct{}
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
		loops: make(map[string]context.CancelFunc),
		wakes: make(map[string]chan struct{}),
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetOrCreate returns the room for id, creating it with newState if missing.
// created reports whether newState was called.
func (s *RoomStore[T]) GetOrCreate(id string, newState func() T) (room *Room[T], created bool) {
	if r, ok := s.Get(id); ok {
		return r, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r, false
	}
	r := &Room[T]{ID: id, State: newState(), hub: NewBroadcaster()}
	s.rooms[id] = r
	return r, true
}

// Delete removes a room and stops its loop.
func (s *RoomStore[T]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.loops[id]; ok {
		cancel()
	}
	delete(s.rooms, id)
}

// IDs returns the ids of all rooms, in no particular order.
func (s *RoomStore[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Publish notifies subscribers of the room's broadcaster.
func (s *RoomStore[T]) Publish(id string, event string) {
	hub := s.Broadcaster(id)
	hub.Publish(event)
}

// Broadcaster returns the broadcaster for the room, creating it if the room
// exists but had none. Missing rooms get a detached broadcaster.
func (s *RoomStore[T]) Broadcaster(id string) *Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return NewBroadcaster()
	}
	if r.hub == nil {
		r.hub = NewBroadcaster()
	}
	return r.hub
}

// TickFunc is called by RunLoop to determine the next wake time and events to publish.
// stop true means exit the loop.
type TickFunc[T any] func(state T, now time.Time) (next time.Time, events []string, stop bool)

// RunLoop starts a timing loop for the room. If a loop is already running for
// id it is woken instead, so it re-reads state that just changed.
func (s *RoomStore[T]) RunLoop(id string, getState func() T, tick TickFunc[T]) {
	s.mu.Lock()
	if wake, ok := s.wakes[id]; ok {
		// Sent under the lock so exitLoop either sees it or has already
		// unregistered the loop.
		select {
		case wake <- struct{}{}:
		default:
		}
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.mu.Unlock()

	go func() {
		defer cancel()
		for {
			state := getState()
			now := time.Now().UTC()
			next, events, stop := tick(state, now)
			for _, e := range events {
				s.Publish(id, e)
			}
			if stop {
				if s.exitLoop(id, wake) {
					return
				}
				continue
			}
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.mu.Lock()
				delete(s.loops, id)
				delete(s.wakes, id)
				s.mu.Unlock()
				return
			case <-timer.C:
			case <-wake:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
		}
	}()
}

// exitLoop unregisters the loop unless a wake arrived while it was deciding
// to stop; in that case the loop keeps running.
func (s *RoomStore[T]) exitLoop(id string, wake chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-wake:
		return false
	default:
	}
	delete(s.loops, id)
	delete(s.wakes, id)
	return true
}

// Running reports whether a loop is active for id.
func (s *RoomStore[T]) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}
