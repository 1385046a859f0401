package hal

import (
	"errors"

	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
)

// FakeButton is a test double for the push button.
type FakeButton struct {
	// Levels contains scripted Pressed() values. Each call consumes the
	// next level; the last one repeats once exhausted.
	Levels []bool

	// ReadError, if set, is returned by Pressed.
	ReadError error

	// Closed tracks whether Close was called.
	Closed bool

	index   int
	handler func()
}

// NewFakeButton creates a FakeButton returning the given levels.
func NewFakeButton(levels ...bool) *FakeButton {
	return &FakeButton{Levels: levels}
}

// Watch records the edge handler for Fire.
func (b *FakeButton) Watch(fn func()) error {
	b.handler = fn
	return nil
}

// Fire simulates one falling edge, invoking the watched handler.
func (b *FakeButton) Fire() {
	if b.handler != nil {
		b.handler()
	}
}

// Pressed returns the next scripted level.
func (b *FakeButton) Pressed() (bool, error) {
	if b.ReadError != nil {
		return false, b.ReadError
	}
	if len(b.Levels) == 0 {
		return false, errors.New("no levels configured")
	}
	level := b.Levels[b.index]
	if b.index < len(b.Levels)-1 {
		b.index++
	}
	return level, nil
}

// Close marks the button as closed.
func (b *FakeButton) Close() error {
	b.Closed = true
	return nil
}

// FakeLED records every level written to the status output.
type FakeLED struct {
	// Writes contains every Set value in order.
	Writes []bool

	// SetError, if set, is returned by Set.
	SetError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakeLED creates a FakeLED.
func NewFakeLED() *FakeLED {
	return &FakeLED{}
}

// Set records the level.
func (l *FakeLED) Set(on bool) error {
	if l.SetError != nil {
		return l.SetError
	}
	l.Writes = append(l.Writes, on)
	return nil
}

// Last returns the most recently written level, or false if none.
func (l *FakeLED) Last() bool {
	if len(l.Writes) == 0 {
		return false
	}
	return l.Writes[len(l.Writes)-1]
}

// Close marks the LED as closed.
func (l *FakeLED) Close() error {
	l.Closed = true
	return nil
}

// FakeCarrier records every burst sent.
type FakeCarrier struct {
	// Bursts contains the pulse slices passed to SendBurst, in order.
	Bursts [][]logic.Pulse

	// SendError, if set, is returned by SendBurst.
	SendError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakeCarrier creates a FakeCarrier.
func NewFakeCarrier() *FakeCarrier {
	return &FakeCarrier{}
}

// SendBurst records the burst.
func (c *FakeCarrier) SendBurst(pulses []logic.Pulse) error {
	if c.SendError != nil {
		return c.SendError
	}
	c.Bursts = append(c.Bursts, pulses)
	return nil
}

// Close marks the carrier as closed.
func (c *FakeCarrier) Close() error {
	c.Closed = true
	return nil
}

// FakeBattery returns scripted millivolt readings and tracks the
// enable/disable pairing.
type FakeBattery struct {
	// Millivolts contains scripted readings. Each read consumes the next
	// value; the last one repeats once exhausted.
	Millivolts []int

	// ReadError, if set, is returned by ReadMillivolts.
	ReadError error

	// Enabled is the current subsystem power state.
	Enabled bool

	// EnableCount and DisableCount track how often each was called.
	EnableCount  int
	DisableCount int

	index int
}

// NewFakeBattery creates a FakeBattery returning the given readings.
func NewFakeBattery(millivolts ...int) *FakeBattery {
	return &FakeBattery{Millivolts: millivolts}
}

// Enable powers the fake subsystem on.
func (b *FakeBattery) Enable() error {
	b.Enabled = true
	b.EnableCount++
	return nil
}

// ReadMillivolts returns the next scripted reading. Reading while disabled
// is an error: the loop must power the subsystem first.
func (b *FakeBattery) ReadMillivolts() (int, error) {
	if b.ReadError != nil {
		return 0, b.ReadError
	}
	if !b.Enabled {
		return 0, errors.New("battery read while disabled")
	}
	if len(b.Millivolts) == 0 {
		return 0, errors.New("no readings configured")
	}
	mv := b.Millivolts[b.index]
	if b.index < len(b.Millivolts)-1 {
		b.index++
	}
	return mv, nil
}

// Disable powers the fake subsystem off.
func (b *FakeBattery) Disable() error {
	b.Enabled = false
	b.DisableCount++
	return nil
}

// FakeWake is a manually-triggered periodic wake source.
type FakeWake struct {
	// Armed is the current armed state.
	Armed bool

	// ArmCount and DisarmCount track how often each was called.
	ArmCount    int
	DisarmCount int

	// Closed tracks whether Close was called.
	Closed bool

	fn func()
}

// NewFakeWake creates a disarmed FakeWake.
func NewFakeWake() *FakeWake {
	return &FakeWake{}
}

// Arm records the callback.
func (w *FakeWake) Arm(fn func()) {
	if w.Armed {
		return
	}
	w.Armed = true
	w.ArmCount++
	w.fn = fn
}

// Disarm drops the callback.
func (w *FakeWake) Disarm() {
	if !w.Armed {
		return
	}
	w.Armed = false
	w.DisarmCount++
	w.fn = nil
}

// Trigger simulates one periodic firing. Does nothing while disarmed, like
// the hardware timer.
func (w *FakeWake) Trigger() {
	if w.Armed && w.fn != nil {
		w.fn()
	}
}

// Close marks the wake source as closed.
func (w *FakeWake) Close() error {
	w.Closed = true
	return nil
}
