// Package hal provides the platform capabilities the firmware core consumes:
// button edge interrupt, status LED, IR carrier, battery measurement and the
// periodic wake timer. The real implementation uses the Linux GPIO character
// device plus the sysfs PWM and IIO interfaces. The fake implementations
// allow testing without hardware.
package hal

import "github.com/victor-chew/attiny-roomba-wall/internal/logic"

// Button is the active-low push button with an always-armed edge interrupt.
type Button interface {
	// Watch arms the falling-edge interrupt. fn runs on every falling edge
	// and must only latch a flag; it is never disarmed.
	Watch(fn func()) error

	// Pressed reads the line and reports whether the button is held.
	Pressed() (bool, error)

	// Close releases the line.
	Close() error
}

// LED drives the status indicator output, high = on.
type LED interface {
	// Set writes the output level. Safe to write redundantly.
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// Carrier emits IR pulse bursts. The carrier frequency is configured once at
// construction and never changes.
type Carrier interface {
	// SendBurst keys the carrier through the given active/idle pairs.
	// It blocks for the duration of the burst.
	SendBurst(pulses []logic.Pulse) error

	// Close idles the carrier and releases it.
	Close() error
}

// Battery is the supply-voltage measurement subsystem. It is powered only
// around a read to conserve the battery it measures.
type Battery interface {
	// Enable powers the measurement subsystem. Callers wait the reference
	// settle delay before reading.
	Enable() error

	// ReadMillivolts returns the approximate supply voltage.
	ReadMillivolts() (int, error)

	// Disable powers the measurement subsystem down.
	Disable() error
}

// Wake is the coarse periodic wake source. It is armed only while a session
// runs; the button interrupt is the sole wake path while idle.
type Wake interface {
	// Arm starts the periodic timer. fn runs on each firing and must only
	// latch a flag. Re-arming an armed source is a no-op.
	Arm(fn func())

	// Disarm stops the periodic timer. Disarming an idle source is a no-op.
	Disarm()

	// Close stops the timer permanently.
	Close() error
}

// Default wiring for the reference hardware (BCM numbering on gpiochip0).
const (
	DefaultChip      = "gpiochip0"
	DefaultButtonPin = 27
	DefaultLEDPin    = 17

	// DefaultPWMDir is the exported sysfs PWM channel driving the IR emitter.
	DefaultPWMDir = "/sys/class/pwm/pwmchip0/pwm0"

	// DefaultADCDir is the IIO device measuring the supply voltage.
	DefaultADCDir = "/sys/bus/iio/devices/iio:device0"
)
