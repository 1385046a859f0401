// Command roomba-wall runs the virtual wall firmware loop: while a session is
// active it emits periodic IR bursts, samples the battery on the coarse wake
// timer and blinks the status LED; while idle it parks until the button
// interrupt fires.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/victor-chew/attiny-roomba-wall/internal/hal"
	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
	"github.com/victor-chew/attiny-roomba-wall/internal/status"
)

func main() {
	chipName := flag.String("chip", hal.DefaultChip, "GPIO chip name")
	buttonPin := flag.Int("button-pin", hal.DefaultButtonPin, "BCM pin number for the push button")
	ledPin := flag.Int("led-pin", hal.DefaultLEDPin, "BCM pin number for the status LED")
	pwmDir := flag.String("pwm", hal.DefaultPWMDir, "sysfs PWM channel directory for the IR emitter")
	adcDir := flag.String("adc", hal.DefaultADCDir, "sysfs IIO device directory for the battery ADC")
	poll := flag.Duration("poll", 4*time.Millisecond, "Loop polling interval")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat log interval while running (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current button and battery state and exit")

	flag.Parse()

	if err := run(*chipName, *buttonPin, *ledPin, *pwmDir, *adcDir, *poll, *heartbeat, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// device bundles the platform pieces the loop drives.
type device struct {
	button  hal.Button
	led     hal.LED
	carrier hal.Carrier
	battery hal.Battery
	wake    hal.Wake
}

func run(chipName string, buttonPin, ledPin int, pwmDir, adcDir string, poll, heartbeat time.Duration, printState bool) error {
	btn, err := hal.NewRealButton(chipName, buttonPin)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer btn.Close()

	ctrl := logic.NewController()

	// The edge handler is the button interrupt: latch the flag, nudge the
	// sleeper, return.
	wakeCh := make(chan struct{}, 1)
	if err := btn.Watch(func() {
		ctrl.NoteButtonEdge()
		select {
		case wakeCh <- struct{}{}:
		default:
		}
	}); err != nil {
		return fmt.Errorf("watch button: %w", err)
	}

	battery := hal.NewRealBattery(adcDir)

	// Print state mode
	if printState {
		pressed, err := btn.Pressed()
		if err != nil {
			return fmt.Errorf("read button: %w", err)
		}
		mv, err := readBatteryOnce(battery)
		if err != nil {
			return fmt.Errorf("read battery: %w", err)
		}
		fmt.Printf("button: %s, battery: %dmV\n", pressedString(pressed), mv)
		return nil
	}

	led, err := hal.NewRealLED(chipName, ledPin)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	carrier, err := hal.NewRealCarrier(pwmDir, logic.CarrierFreqHz)
	if err != nil {
		return fmt.Errorf("init carrier: %w", err)
	}
	defer carrier.Close()

	wakeSrc := hal.NewRealWake()
	defer wakeSrc.Close()

	dev := device{button: btn, led: led, carrier: carrier, battery: battery, wake: wakeSrc}
	tracker := status.NewTracker(time.Now())

	log.Printf("started: poll=%v heartbeat=%v chip=%s button=%d led=%d pwm=%s adc=%s",
		poll, heartbeat, chipName, buttonPin, ledPin, pwmDir, adcDir)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, dev, tracker, heartbeat, time.Sleep, time.Now, ticker.C, wakeCh, sigCh)
}

func runLoop(ctrl *logic.Controller, dev device, tracker *status.Tracker, heartbeat time.Duration, delay func(time.Duration), now func() time.Time, tick <-chan time.Time, wake <-chan struct{}, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			return shutdown(s, tracker)

		case <-tick:
			t := now()

			if ctrl.TakeButtonEdge() {
				serviceButton(ctrl, dev, delay, now)
			}

			a := ctrl.Step(t)

			if a.DisarmWake {
				dev.wake.Disarm()
				log.Printf("event: session timed out")
			}
			if a.SampleBattery {
				sampleBattery(ctrl, dev.battery, delay)
			}
			if a.EmitBurst {
				if err := dev.carrier.SendBurst(logic.Burst()); err != nil {
					log.Printf("burst error: %v", err)
				}
			}
			if err := dev.led.Set(a.LEDOn); err != nil {
				log.Printf("led write error: %v", err)
			}

			tracker.Update(ctrl.Running(), ctrl.SessionStart(), ctrl.BatteryLow(), ctrl.CurrentPreset(), ctrl.CountsSnapshot())

			if heartbeat > 0 && ctrl.Running() && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				log.Printf("heartbeat: %s", status.Format(tracker.Snapshot()))
			}

			if a.Sleep {
				if err := dev.battery.Disable(); err != nil {
					log.Printf("battery disable error: %v", err)
				}
				// Flags latched during sleep are serviced on the
				// next pass; a stale wake token only costs one
				// extra iteration.
				if s, woke := enterLowPower(wake, sig); !woke {
					return shutdown(s, tracker)
				}
			}
		}
	}
}

// serviceButton runs the debounce for a latched button edge: wait the fixed
// window, recheck the line, hold until release, then apply the toggle and
// arm or disarm the periodic wake source.
func serviceButton(ctrl *logic.Controller, dev device, delay func(time.Duration), now func() time.Time) {
	delay(logic.DebounceWindow)
	pressed, err := dev.button.Pressed()
	if err != nil {
		log.Printf("button read error: %v", err)
		return
	}
	if pressed {
		waitRelease(dev.button, delay)
	}

	running, changed := ctrl.ConfirmPress(now(), pressed)
	if !changed {
		return
	}
	if running {
		dev.wake.Arm(ctrl.NoteBatteryCheckDue)
		log.Printf("event: session started")
	} else {
		dev.wake.Disarm()
		log.Printf("event: session stopped")
	}
}

// waitRelease holds until the button is let go. There is no other work
// pending while the user keeps the button down.
func waitRelease(btn hal.Button, delay func(time.Duration)) {
	for {
		pressed, err := btn.Pressed()
		if err != nil || !pressed {
			return
		}
		delay(time.Millisecond)
	}
}

// sampleBattery powers the measurement subsystem, lets the reference settle,
// reads one value and powers it back down. The reading is trusted as-is.
func sampleBattery(ctrl *logic.Controller, battery hal.Battery, delay func(time.Duration)) {
	if err := battery.Enable(); err != nil {
		log.Printf("battery enable error: %v", err)
		return
	}
	delay(logic.ReferenceSettle)
	mv, err := battery.ReadMillivolts()
	if derr := battery.Disable(); derr != nil {
		log.Printf("battery disable error: %v", derr)
	}
	if err != nil {
		log.Printf("battery read error: %v", err)
		return
	}
	ctrl.ApplyBatterySample(mv)
	log.Printf("event: battery check %dmV low=%v", mv, ctrl.BatteryLow())
}

// enterLowPower parks the loop until the button interrupt or a shutdown
// signal arrives. It is the daemon's stand-in for the MCU deep sleep; only
// the always-armed button edge ends it.
func enterLowPower(wake <-chan struct{}, sig <-chan os.Signal) (os.Signal, bool) {
	select {
	case <-wake:
		return nil, true
	case s := <-sig:
		return s, false
	}
}

func shutdown(s os.Signal, tracker *status.Tracker) error {
	log.Printf("received %v, shutting down", s)
	log.Printf("final: %s", status.Format(tracker.Snapshot()))
	return nil
}

// readBatteryOnce is the print-state helper: one enable/settle/read/disable
// cycle.
func readBatteryOnce(b hal.Battery) (int, error) {
	if err := b.Enable(); err != nil {
		return 0, err
	}
	defer b.Disable()
	time.Sleep(logic.ReferenceSettle)
	return b.ReadMillivolts()
}

func pressedString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
