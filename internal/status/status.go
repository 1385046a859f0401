// Package status provides a thread-safe status tracker for the virtual wall
// daemon. It feeds the heartbeat and shutdown log lines; there is no host
// communication surface.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
)

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Running      bool
	SessionStart time.Time
	BatteryLow   bool
	Preset       logic.Preset
	Counts       logic.Counts
	StartTime    time.Time
	Now          time.Time
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// SessionElapsed returns how long the current session has run, or zero when
// idle.
func (s Snapshot) SessionElapsed() time.Duration {
	if !s.Running {
		return 0
	}
	return s.Now.Sub(s.SessionStart)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given daemon start time.
func NewTracker(startTime time.Time) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Preset:    logic.PresetNormal,
		},
	}
}

// Update sets session and battery state plus event counts.
// Called from the loop on every iteration.
func (t *Tracker) Update(running bool, sessionStart time.Time, low bool, preset logic.Preset, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Running = running
	t.snap.SessionStart = sessionStart
	t.snap.BatteryLow = low
	t.snap.Preset = preset
	t.snap.Counts = counts
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Format renders a snapshot as a single log line.
func Format(s Snapshot) string {
	battery := "ok"
	if s.BatteryLow {
		battery = "low"
	}
	return fmt.Sprintf(
		"running=%v session=%v battery=%s blink=%v/%v presses=%d bursts=%d checks=%d auto_offs=%d uptime=%v",
		s.Running, s.SessionElapsed().Round(time.Second), battery,
		s.Preset.OnDuration, s.Preset.Period,
		s.Counts.Presses, s.Counts.Bursts, s.Counts.BatteryChecks, s.Counts.AutoOffs,
		s.Uptime().Round(time.Second))
}
