package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/victor-chew/attiny-roomba-wall/internal/hal"
	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
	"github.com/victor-chew/attiny-roomba-wall/internal/status"
)

// noDelay replaces the blocking delays in tests.
func noDelay(time.Duration) {}

func TestPressedString(t *testing.T) {
	if got := pressedString(true); got != "PRESSED" {
		t.Errorf("got %q, want PRESSED", got)
	}
	if got := pressedString(false); got != "RELEASED" {
		t.Errorf("got %q, want RELEASED", got)
	}
}

func TestEnterLowPowerWakesOnButton(t *testing.T) {
	wake := make(chan struct{}, 1)
	sig := make(chan os.Signal, 1)
	wake <- struct{}{}

	s, woke := enterLowPower(wake, sig)
	if !woke {
		t.Error("expected wake from button")
	}
	if s != nil {
		t.Errorf("expected nil signal on wake, got %v", s)
	}
}

func TestEnterLowPowerExitsOnSignal(t *testing.T) {
	wake := make(chan struct{}, 1)
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGTERM

	s, woke := enterLowPower(wake, sig)
	if woke {
		t.Error("expected signal exit, not wake")
	}
	if s != syscall.SIGTERM {
		t.Errorf("expected SIGTERM, got %v", s)
	}
}

func TestServiceButtonConfirmedPressStartsSession(t *testing.T) {
	ctrl := logic.NewController()
	wake := hal.NewFakeWake()
	// Held at the recheck, released one poll later.
	btn := hal.NewFakeButton(true, false)
	dev := device{button: btn, wake: wake}

	now := func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	serviceButton(ctrl, dev, noDelay, now)

	if !ctrl.Running() {
		t.Error("expected session started")
	}
	if !wake.Armed {
		t.Error("expected periodic wake armed")
	}
}

func TestServiceButtonSecondPressStopsSession(t *testing.T) {
	ctrl := logic.NewController()
	wake := hal.NewFakeWake()
	btn := hal.NewFakeButton(true, false, true, false)
	dev := device{button: btn, wake: wake}

	now := func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC) }
	serviceButton(ctrl, dev, noDelay, now)
	serviceButton(ctrl, dev, noDelay, now)

	if ctrl.Running() {
		t.Error("expected session stopped after second press")
	}
	if wake.Armed {
		t.Error("expected periodic wake disarmed")
	}
	if wake.ArmCount != 1 || wake.DisarmCount != 1 {
		t.Errorf("arm/disarm counts: got %d/%d, want 1/1", wake.ArmCount, wake.DisarmCount)
	}
}

func TestServiceButtonSpuriousEdge(t *testing.T) {
	ctrl := logic.NewController()
	wake := hal.NewFakeWake()
	// Released by the time of the recheck: noise, no toggle.
	btn := hal.NewFakeButton(false)
	dev := device{button: btn, wake: wake}

	serviceButton(ctrl, dev, noDelay, time.Now)

	if ctrl.Running() {
		t.Error("spurious edge must not start a session")
	}
	if wake.Armed {
		t.Error("spurious edge must not arm the wake source")
	}
}

func TestServiceButtonDebounceWindow(t *testing.T) {
	ctrl := logic.NewController()
	btn := hal.NewFakeButton(true, false)
	dev := device{button: btn, wake: hal.NewFakeWake()}

	var delays []time.Duration
	delay := func(d time.Duration) { delays = append(delays, d) }
	serviceButton(ctrl, dev, delay, time.Now)

	if len(delays) == 0 || delays[0] != logic.DebounceWindow {
		t.Fatalf("expected first delay %v, got %v", logic.DebounceWindow, delays)
	}
}

func TestServiceButtonReadError(t *testing.T) {
	ctrl := logic.NewController()
	btn := hal.NewFakeButton(true)
	btn.ReadError = os.ErrClosed
	dev := device{button: btn, wake: hal.NewFakeWake()}

	serviceButton(ctrl, dev, noDelay, time.Now)

	if ctrl.Running() {
		t.Error("read error must not toggle the session")
	}
}

func TestWaitReleaseHoldsUntilReleased(t *testing.T) {
	btn := hal.NewFakeButton(true, true, true, false)

	polls := 0
	waitRelease(btn, func(time.Duration) { polls++ })

	if polls != 3 {
		t.Errorf("expected 3 release polls, got %d", polls)
	}
}

func TestSampleBatteryAppliesReading(t *testing.T) {
	ctrl := logic.NewController()
	battery := hal.NewFakeBattery(2500)

	var delays []time.Duration
	sampleBattery(ctrl, battery, func(d time.Duration) { delays = append(delays, d) })

	if !ctrl.BatteryLow() {
		t.Error("2500mV sample should set the low flag")
	}
	if ctrl.CurrentPreset() != logic.PresetLow {
		t.Errorf("expected low preset, got %+v", ctrl.CurrentPreset())
	}
	if battery.Enabled {
		t.Error("measurement subsystem left enabled after the sample")
	}
	if len(delays) != 1 || delays[0] != logic.ReferenceSettle {
		t.Errorf("expected one settle delay of %v, got %v", logic.ReferenceSettle, delays)
	}
}

func TestSampleBatteryReadErrorKeepsState(t *testing.T) {
	ctrl := logic.NewController()
	battery := hal.NewFakeBattery(2500)
	battery.ReadError = os.ErrClosed

	sampleBattery(ctrl, battery, noDelay)

	if ctrl.BatteryLow() {
		t.Error("failed read must not change battery state")
	}
	if battery.DisableCount != 1 {
		t.Errorf("subsystem must still be powered down, disables=%d", battery.DisableCount)
	}
}

func TestRunLoopPressStartsSessionAndSignalStops(t *testing.T) {
	ctrl := logic.NewController()
	btn := hal.NewFakeButton(true, false)
	wakeSrc := hal.NewFakeWake()
	dev := device{
		button:  btn,
		led:     hal.NewFakeLED(),
		carrier: hal.NewFakeCarrier(),
		battery: hal.NewFakeBattery(3100),
		wake:    wakeSrc,
	}
	tracker := status.NewTracker(time.Now())

	wakeCh := make(chan struct{}, 1)
	btn.Watch(func() {
		ctrl.NoteButtonEdge()
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	})

	tick := make(chan time.Time, 1)
	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- runLoop(ctrl, dev, tracker, 0, noDelay, time.Now, tick, wakeCh, sig)
	}()

	// The edge is latched before the first tick, so the first iteration
	// services the press and never parks.
	btn.Fire()
	tick <- time.Now()

	deadline := time.After(2 * time.Second)
	for !tracker.Snapshot().Running {
		select {
		case <-deadline:
			t.Fatal("session never started")
		case <-time.After(time.Millisecond):
		}
	}

	sig <- syscall.SIGTERM
	if err := <-done; err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if !wakeSrc.Armed {
		t.Error("expected periodic wake armed while running")
	}
}

func TestRunLoopIdleExitsOnSignal(t *testing.T) {
	ctrl := logic.NewController()
	dev := device{
		button:  hal.NewFakeButton(false),
		led:     hal.NewFakeLED(),
		carrier: hal.NewFakeCarrier(),
		battery: hal.NewFakeBattery(3100),
		wake:    hal.NewFakeWake(),
	}
	tracker := status.NewTracker(time.Now())

	tick := make(chan time.Time, 1)
	wakeCh := make(chan struct{}, 1)
	sig := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() {
		done <- runLoop(ctrl, dev, tracker, 0, noDelay, time.Now, tick, wakeCh, sig)
	}()

	// Whether the loop is parked in low power or waiting for a tick, the
	// signal must end it.
	tick <- time.Now()
	sig <- syscall.SIGTERM

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runLoop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not exit on signal")
	}
}
