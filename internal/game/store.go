package game

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"strings"
	"time"

	"spinlab/internal/wheel"
	"spinlab/pkg/realtime"
)

// EventPhase is published whenever a session changes phase.
const EventPhase = "phase"

// Store holds sessions and delegates to realtime.RoomStore for lookup,
// broadcast and timer loops.
type Store struct {
	r       *realtime.RoomStore[*Session]
	catalog wheel.Catalog
	newRNG  func() wheel.RNG
	opts    []Option
}

// NewStore creates an in-memory session store. newRNG may be nil; opts are
// applied to every session.
func NewStore(catalog wheel.Catalog, newRNG func() wheel.RNG, opts ...Option) *Store {
	if newRNG == nil {
		newRNG = func() wheel.RNG { return wheel.NewRNG(0) }
	}
	return &Store{
		r:       realtime.NewRoomStore[*Session](),
		catalog: catalog,
		newRNG:  newRNG,
		opts:    opts,
	}
}

// Catalog returns the catalog every session spins over.
func (s *Store) Catalog() wheel.Catalog {
	return s.catalog
}

// Create starts a new session with a fresh ID.
func (s *Store) Create() *Session {
	sess := NewSession(newID(), s.catalog, s.newRNG(), s.opts...)
	s.r.Create(sess.ID, sess)
	return sess
}

// Get returns a session by ID if it exists.
func (s *Store) Get(id string) (*Session, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return room.State, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown.
// created reports whether a new session was made.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id == "" {
		return s.Create(), true
	}
	room, created := s.r.GetOrCreate(id, func() *Session {
		return NewSession(id, s.catalog, s.newRNG(), s.opts...)
	})
	return room.State, created
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.r.Len()
}

// Broadcaster returns the SSE broadcaster for a session.
func (s *Store) Broadcaster(id string) *realtime.Broadcaster {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of a session update.
func (s *Store) Publish(id string, event string) {
	s.r.Publish(id, event)
}

// EnsureTimerLoop starts the timer loop for a session, or wakes it if it is
// already running. The loop publishes EventPhase whenever the phase differs
// from the last one it saw, including transitions a request caught up on
// first.
func (s *Store) EnsureTimerLoop(id string) {
	getState := func() *Session {
		sess, _ := s.Get(id)
		return sess
	}
	var last Phase
	if sess, ok := s.Get(id); ok {
		last = sess.Phase()
	}
	tick := func(sess *Session, now time.Time) (time.Time, []string, bool) {
		if sess == nil {
			return time.Time{}, nil, true
		}
		sess.AdvanceIfNeeded(now)
		var events []string
		if phase := sess.Phase(); phase != last {
			last = phase
			events = []string{EventPhase}
		}
		next, ok := sess.NextTimer(now)
		if !ok {
			return time.Time{}, events, true
		}
		return next, events, false
	}
	s.r.RunLoop(id, getState, tick)
}

// Sweep drops every expired session whose timer loop is not running and
// returns how many went.
func (s *Store) Sweep(now time.Time) int {
	removed := 0
	for _, id := range s.r.IDs() {
		if s.r.Running(id) {
			continue
		}
		sess, ok := s.Get(id)
		if !ok || !sess.Expired(now) {
			continue
		}
		s.r.Delete(id)
		removed++
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done. onSweep, if set,
// sees each pass that removed something.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration, onSweep func(removed, live int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now.UTC()); n > 0 && onSweep != nil {
				onSweep(n, s.Len())
			}
		}
	}
}

func newID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}
