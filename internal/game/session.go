package game

import (
	"sync"
	"time"

	"spinlab/internal/lead"
	"spinlab/internal/wheel"
	"spinlab/pkg/realtime"
)

// Phase is the step of the spin funnel a session is in.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseSpinning       Phase = "spinning"
	PhaseWon            Phase = "won"
	PhaseCollectingData Phase = "collecting_data"
	PhaseSuccess        Phase = "success"
)

const (
	// SpinDuration is both the spin timer and the wheel's animation length.
	SpinDuration = 6000 * time.Millisecond
	// RevealDelay keeps the win visible before the capture form opens.
	RevealDelay = 1800 * time.Millisecond

	// SessionTTL is how long a session that has spun survives without a
	// request. It matches the session cookie lifetime.
	SessionTTL = 24 * time.Hour
	// FreshSessionTTL applies to sessions that never spun, which is what
	// cookieless clients leave behind.
	FreshSessionTTL = 30 * time.Minute
)

const (
	timerSpin   = "spin"
	timerReveal = "reveal"
)

// Timing holds the lengths of the two timers. The renderer reads Spin from
// the snapshot so the animation and the spin timer cannot drift apart.
type Timing struct {
	Spin   time.Duration
	Reveal time.Duration
}

// DefaultTiming is the production pacing.
var DefaultTiming = Timing{Spin: SpinDuration, Reveal: RevealDelay}

// Option configures a Session.
type Option func(*Session)

// WithTiming overrides DefaultTiming.
func WithTiming(t Timing) Option {
	return func(s *Session) {
		s.timing = t
	}
}

// Session is one visitor's game. Every mutation goes through its methods.
type Session struct {
	mu        sync.Mutex
	ID        string
	CreatedAt time.Time

	catalog  wheel.Catalog
	rng      wheel.RNG
	timing   Timing
	timeline realtime.Timeline

	phase    Phase
	rotation float64
	outcome  *wheel.Outcome
	winner   *wheel.Prize
	record   *lead.Record
	spins    int
	lastSeen time.Time
}

// NewSession starts idle at rotation 0.
func NewSession(id string, catalog wheel.Catalog, rng wheel.RNG, opts ...Option) *Session {
	created := time.Now().UTC()
	s := &Session{
		ID:        id,
		CreatedAt: created,
		lastSeen:  created,
		catalog:   catalog,
		rng:       rng,
		timing:    DefaultTiming,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spin starts a spin. It does nothing unless the session is idle.
func (s *Session) Spin(now time.Time) (wheel.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceIfNeededLocked(now)
	if s.phase != PhaseIdle {
		return wheel.Outcome{}, false
	}
	out := wheel.SelectOutcome(s.rng, s.catalog, s.rotation)
	s.outcome = &out
	s.rotation = out.TargetRotation
	s.winner = nil
	s.record = nil
	s.spins++
	s.phase = PhaseSpinning
	s.timeline.Arm(timerSpin, now.Add(s.timing.Spin))
	return out, true
}

// AdvanceIfNeeded fires any timer that is due and reports whether the phase
// changed.
func (s *Session) AdvanceIfNeeded(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceIfNeededLocked(now)
}

func (s *Session) advanceIfNeededLocked(now time.Time) bool {
	changed := false
	for {
		d, ok := s.timeline.Fire(now)
		if !ok {
			return changed
		}
		switch {
		case d.Name == timerSpin && s.phase == PhaseSpinning:
			s.completeSpinLocked(d)
		case d.Name == timerReveal && s.phase == PhaseWon:
			s.phase = PhaseCollectingData
		default:
			continue
		}
		changed = true
	}
}

// completeSpinLocked is the spin timer's callback. The reveal timer is only
// ever armed here.
func (s *Session) completeSpinLocked(d realtime.Deadline) {
	prize := s.catalog[s.outcome.WinningIndex]
	s.winner = &prize
	s.phase = PhaseWon
	s.timeline.Arm(timerReveal, d.At.Add(s.timing.Reveal))
}

// NextTimer returns when the session next needs advancing.
func (s *Session) NextTimer(_ time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.NextWake()
}

// Submit stores the captured record. It is accepted once, and only while the
// capture form is open.
func (s *Session) Submit(rec lead.Record, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceIfNeededLocked(now)
	if s.phase != PhaseCollectingData || s.record != nil {
		return false
	}
	s.record = &rec
	s.phase = PhaseSuccess
	return true
}

// Abandon closes the capture form without a record.
func (s *Session) Abandon(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceIfNeededLocked(now)
	if s.phase != PhaseCollectingData {
		return false
	}
	s.toIdleLocked()
	return true
}

// Reset returns a finished session to idle for another go. It is only
// accepted in success: the target rotation is public as soon as a spin
// starts, so resetting mid-spin would let a visitor re-roll the prize.
// Rotation is kept so the next spin continues forward.
func (s *Session) Reset(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceIfNeededLocked(now)
	if s.phase != PhaseSuccess {
		return false
	}
	s.toIdleLocked()
	return true
}

func (s *Session) toIdleLocked() {
	s.timeline.Invalidate()
	s.phase = PhaseIdle
	s.winner = nil
	s.record = nil
	s.outcome = nil
}

// Touch records a request from the session's visitor.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// Expired reports whether the session has gone unused long enough to be
// dropped. A session with a pending timer never expires.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timeline.Pending(); ok {
		return false
	}
	ttl := SessionTTL
	if s.spins == 0 {
		ttl = FreshSessionTTL
	}
	return now.Sub(s.lastSeen) >= ttl
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Catalog returns the catalog the session spins over.
func (s *Session) Catalog() wheel.Catalog {
	return s.catalog
}

// Snapshot captures the state needed for rendering.
type Snapshot struct {
	ID           string
	Phase        Phase
	Rotation     float64
	Outcome      *wheel.Outcome
	Winner       *wheel.Prize
	WinnerIndex  int
	Record       *lead.Record
	Spins        int
	NextTimerAt  time.Time
	Epoch        uint64
	SpinDuration time.Duration
}

// HasWinner reports whether a prize has been revealed.
func (s Snapshot) HasWinner() bool {
	return s.Winner != nil
}

// Snapshot returns a consistent view of the session, catching up on any
// timer the loop has not fired yet.
func (s *Session) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceIfNeededLocked(now)
	snap := Snapshot{
		ID:           s.ID,
		Phase:        s.phase,
		Rotation:     s.rotation,
		WinnerIndex:  -1,
		Spins:        s.spins,
		Epoch:        s.timeline.Epoch(),
		SpinDuration: s.timing.Spin,
	}
	if s.outcome != nil {
		out := *s.outcome
		snap.Outcome = &out
	}
	if s.winner != nil {
		w := *s.winner
		snap.Winner = &w
		snap.WinnerIndex = s.outcome.WinningIndex
	}
	if s.record != nil {
		rec := *s.record
		snap.Record = &rec
	}
	if next, ok := s.timeline.NextWake(); ok {
		snap.NextTimerAt = next
	}
	return snap
}
