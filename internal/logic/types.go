// Package logic contains the pure decision core of the virtual wall firmware.
// This package has NO external dependencies (no GPIO, sysfs, or time.Sleep).
// Time is always injectable via time.Time parameters; the only concurrency is
// the pair of pending flags latched from interrupt context.
package logic

import "time"

// Fixed device constants. None of these have a runtime configuration path.
const (
	// CarrierFreqHz is the IR carrier frequency, configured once at boot.
	CarrierFreqHz = 38000

	// BatteryThresholdMV is the supply voltage below which the battery is
	// considered low.
	BatteryThresholdMV = 2800

	// DebounceWindow is the fixed delay-then-recheck window for the button.
	DebounceWindow = 5 * time.Millisecond

	// ReferenceSettle is the wait after enabling the measurement reference
	// before a voltage read is trusted.
	ReferenceSettle = time.Millisecond

	// BurstInterval is the minimum spacing between transmit bursts,
	// measured from the previous burst.
	BurstInterval = 132 * time.Millisecond

	// SessionLimit is the elapsed running time after which the session is
	// forced off.
	SessionLimit = 80 * time.Minute
)

// Level is the status indicator output level.
type Level string

const (
	LevelOff Level = "OFF"
	LevelOn  Level = "ON"
)

// Pulse is one active/idle pair of a transmit burst. Active is time with the
// carrier keyed on, Idle the gap that follows.
type Pulse struct {
	Active time.Duration
	Idle   time.Duration
}

// Burst returns the fixed burst shape: 3 repetitions of 500 µs active,
// 7500 µs idle.
func Burst() []Pulse {
	p := Pulse{Active: 500 * time.Microsecond, Idle: 7500 * time.Microsecond}
	return []Pulse{p, p, p}
}

// Preset is an indicator blink timing pair. OnDuration is how long the LED
// stays lit; Period is the spacing between successive turn-ons.
type Preset struct {
	OnDuration time.Duration
	Period     time.Duration
}

var (
	// PresetNormal is the blink timing while the battery is good.
	PresetNormal = Preset{OnDuration: 1000 * time.Millisecond, Period: 2000 * time.Millisecond}

	// PresetLow is the blink timing once the battery has measured low:
	// shorter flashes, further apart.
	PresetLow = Preset{OnDuration: 100 * time.Millisecond, Period: 4000 * time.Millisecond}
)

// PresetFor returns the blink preset for the given battery state.
func PresetFor(low bool) Preset {
	if low {
		return PresetLow
	}
	return PresetNormal
}

// Actions is the work one loop iteration hands back to its caller. The
// controller decides; the loop touches hardware.
type Actions struct {
	// SampleBattery asks the loop to power the measurement subsystem, read
	// the supply voltage and feed it back via ApplyBatterySample.
	SampleBattery bool

	// EmitBurst asks the loop to send one transmit burst.
	EmitBurst bool

	// LEDOn is the indicator level the loop must write to the status pin.
	// It is written every iteration, redundantly or not.
	LEDOn bool

	// DisarmWake is set when the session timer forced the session off and
	// the periodic wake source must be disarmed.
	DisarmWake bool

	// Sleep is set when the device is idle and the loop should re-enter
	// low power until the button interrupt fires.
	Sleep bool
}

// Counts tracks event totals since boot, for the heartbeat and shutdown logs.
type Counts struct {
	Presses       int
	Bursts        int
	BatteryChecks int
	AutoOffs      int
}
