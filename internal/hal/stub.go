//go:build !linux

package hal

import (
	"errors"

	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
)

var errUnsupported = errors.New("hal: not supported on this platform (requires Linux)")

// RealButton is not available on non-Linux platforms.
type RealButton struct{}

// NewRealButton returns an error on non-Linux platforms.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	return nil, errUnsupported
}

// Watch is not implemented on non-Linux platforms.
func (b *RealButton) Watch(fn func()) error { return errUnsupported }

// Pressed is not implemented on non-Linux platforms.
func (b *RealButton) Pressed() (bool, error) { return false, errUnsupported }

// Close is not implemented on non-Linux platforms.
func (b *RealButton) Close() error { return nil }

// RealLED is not available on non-Linux platforms.
type RealLED struct{}

// NewRealLED returns an error on non-Linux platforms.
func NewRealLED(chipName string, pin int) (*RealLED, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (l *RealLED) Set(on bool) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (l *RealLED) Close() error { return nil }

// RealCarrier is not available on non-Linux platforms.
type RealCarrier struct{}

// NewRealCarrier returns an error on non-Linux platforms.
func NewRealCarrier(dir string, freqHz int) (*RealCarrier, error) {
	return nil, errUnsupported
}

// SendBurst is not implemented on non-Linux platforms.
func (c *RealCarrier) SendBurst(pulses []logic.Pulse) error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (c *RealCarrier) Close() error { return nil }

// RealBattery is not available on non-Linux platforms.
type RealBattery struct{}

// NewRealBattery returns a stub on non-Linux platforms.
func NewRealBattery(dir string) *RealBattery { return &RealBattery{} }

// Enable is not implemented on non-Linux platforms.
func (b *RealBattery) Enable() error { return errUnsupported }

// ReadMillivolts is not implemented on non-Linux platforms.
func (b *RealBattery) ReadMillivolts() (int, error) { return 0, errUnsupported }

// Disable is not implemented on non-Linux platforms.
func (b *RealBattery) Disable() error { return nil }

// RealWake is not available on non-Linux platforms.
type RealWake struct{}

// NewRealWake returns a stub on non-Linux platforms.
func NewRealWake() *RealWake { return &RealWake{} }

// Arm is not implemented on non-Linux platforms.
func (w *RealWake) Arm(fn func()) {}

// Disarm is not implemented on non-Linux platforms.
func (w *RealWake) Disarm() {}

// Close is not implemented on non-Linux platforms.
func (w *RealWake) Close() error { return nil }
