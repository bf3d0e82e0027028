package realtime

import "time"

// Deadline is a scheduled wake-up. It belongs to the epoch it was armed in
// and never fires once the timeline has moved to a later epoch.
type Deadline struct {
	Name  string
	At    time.Time
	Epoch uint64
}

// Timeline holds the one pending deadline of a state machine. It keeps no
// domain state; the owner arms it on transitions and reacts to Fire.
type Timeline struct {
	epoch   uint64
	pending Deadline
	armed   bool
}

// Epoch returns the current epoch.
func (t *Timeline) Epoch() uint64 {
	return t.epoch
}

// Arm schedules name at at, replacing any pending deadline.
func (t *Timeline) Arm(name string, at time.Time) Deadline {
	t.pending = Deadline{Name: name, At: at, Epoch: t.epoch}
	t.armed = true
	return t.pending
}

// Pending returns the armed deadline, if any.
func (t *Timeline) Pending() (Deadline, bool) {
	return t.pending, t.armed
}

// NextWake returns when the owner should next be advanced.
func (t *Timeline) NextWake() (time.Time, bool) {
	if !t.armed {
		return time.Time{}, false
	}
	return t.pending.At, true
}

// Fire returns the pending deadline and disarms it if it is due at now.
func (t *Timeline) Fire(now time.Time) (Deadline, bool) {
	if !t.armed || now.Before(t.pending.At) {
		return Deadline{}, false
	}
	d := t.pending
	t.pending = Deadline{}
	t.armed = false
	if d.Epoch != t.epoch {
		return Deadline{}, false
	}
	return d, true
}

// Invalidate drops the pending deadline and starts a new epoch, so callbacks
// holding older deadlines become no-ops.
func (t *Timeline) Invalidate() {
	t.epoch++
	t.pending = Deadline{}
	t.armed = false
}
