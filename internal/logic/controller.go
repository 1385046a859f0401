package logic

import (
	"sync/atomic"
	"time"
)

// Controller owns the session state and evaluates every time gate once per
// loop iteration. All fields except the two pending flags are touched only
// from loop context.
type Controller struct {
	// Pending flags. Each is set only by its interrupt source (NoteButtonEdge,
	// NoteBatteryCheckDue) and cleared only by the loop — single writer,
	// single clearer, no other shared mutation in the system.
	buttonClicked   atomic.Bool
	batteryCheckDue atomic.Bool

	running   bool
	startTime time.Time

	low    bool
	preset Preset

	level  Level
	lastOn time.Time

	lastFired time.Time

	counts Counts
}

// NewController returns a controller in the boot state: not running,
// indicator off, normal blink preset.
func NewController() *Controller {
	return &Controller{
		level:  LevelOff,
		preset: PresetNormal,
	}
}

// NoteButtonEdge latches the button interrupt. Called from the edge handler;
// does nothing else.
func (c *Controller) NoteButtonEdge() {
	c.buttonClicked.Store(true)
}

// NoteBatteryCheckDue latches the periodic wake interrupt. Called from the
// wake timer; does nothing else.
func (c *Controller) NoteBatteryCheckDue() {
	c.batteryCheckDue.Store(true)
}

// TakeButtonEdge clears and reports the pending button flag. The loop calls
// it at the top of each iteration and runs the debounce when it reports true.
func (c *Controller) TakeButtonEdge() bool {
	return c.buttonClicked.Swap(false)
}

// ConfirmPress applies the outcome of a debounced button edge. pressed
// reports whether the button was still held after the debounce window; a
// spurious edge toggles nothing. Returns the running state and whether it
// changed, so the loop can arm or disarm the periodic wake source.
func (c *Controller) ConfirmPress(now time.Time, pressed bool) (running, changed bool) {
	if !pressed {
		return c.running, false
	}

	c.counts.Presses++
	if c.running {
		c.running = false
		return false, true
	}

	// start_time is written here and nowhere else; the transmit and
	// indicator clocks both restart from the moment the session begins.
	c.running = true
	c.startTime = now
	c.lastFired = now
	c.lastOn = now
	c.level = LevelOff
	return true, true
}

// Step evaluates one loop iteration at the given instant: services the
// pending battery flag, runs the session timer, the transmit scheduler and
// the indicator state machine, and reports the resulting hardware work.
// Calling it twice at the same instant produces no additional state change.
func (c *Controller) Step(now time.Time) Actions {
	var a Actions

	// Battery check rides the periodic wake. The flag is cleared exactly
	// once regardless; it only has effect while running.
	if c.batteryCheckDue.Swap(false) && c.running {
		a.SampleBattery = true
	}

	// Session timer. Converges on the same effects as a button-off: the
	// indicator branch below sees running == false in this same iteration.
	if c.running && now.Sub(c.startTime) >= SessionLimit {
		c.running = false
		c.counts.AutoOffs++
		a.SampleBattery = false
		a.DisarmWake = true
	}

	// Transmit scheduler. Cadence is measured from the previous burst,
	// drift-tolerant, never under BurstInterval.
	if c.running && now.Sub(c.lastFired) >= BurstInterval {
		c.lastFired = now
		c.counts.Bursts++
		a.EmitBurst = true
	}

	// Indicator state machine. On the off→on transition lastOn is updated;
	// on→off leaves it alone, so the next turn-on keeps measuring the
	// period from the previous one.
	switch {
	case !c.running:
		c.level = LevelOff
	case c.level == LevelOff:
		if now.Sub(c.lastOn) >= c.preset.Period {
			c.level = LevelOn
			c.lastOn = now
		}
	default:
		if now.Sub(c.lastOn) >= c.preset.OnDuration {
			c.level = LevelOff
		}
	}
	a.LEDOn = c.level == LevelOn

	a.Sleep = !c.running
	return a
}

// ApplyBatterySample records a measured supply voltage. The value is trusted
// as-is; the blink preset follows the new battery state immediately.
func (c *Controller) ApplyBatterySample(millivolts int) {
	c.low = millivolts < BatteryThresholdMV
	c.preset = PresetFor(c.low)
	c.counts.BatteryChecks++
}

// Running reports whether a session is active.
func (c *Controller) Running() bool {
	return c.running
}

// BatteryLow reports the most recent battery evaluation.
func (c *Controller) BatteryLow() bool {
	return c.low
}

// SessionStart returns the start time of the current session. Meaningful
// only while running.
func (c *Controller) SessionStart() time.Time {
	return c.startTime
}

// IndicatorLevel returns the current indicator level.
func (c *Controller) IndicatorLevel() Level {
	return c.level
}

// CurrentPreset returns the blink preset in effect.
func (c *Controller) CurrentPreset() Preset {
	return c.preset
}

// CountsSnapshot returns a copy of the event totals.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}
