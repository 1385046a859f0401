//go:build linux

package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/victor-chew/attiny-roomba-wall/internal/logic"
)

// RealButton is the push button on a GPIO line, wired active-low with the
// internal pull-up.
type RealButton struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
	fn   func()
}

// NewRealButton opens the button line on the given chip.
func NewRealButton(chipName string, pin int) (*RealButton, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealButton{chip: chip, pin: pin}, nil
}

// Watch requests the line with a falling-edge event handler. The handler runs
// on the gpiocdev event goroutine and must only latch a flag.
func (b *RealButton) Watch(fn func()) error {
	b.fn = fn
	line, err := b.chip.RequestLine(b.pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(b.handleEdge))
	if err != nil {
		return fmt.Errorf("request button pin %d: %w", b.pin, err)
	}
	b.line = line
	return nil
}

func (b *RealButton) handleEdge(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	b.fn()
}

// Pressed reads the line level. The button is active-low: raw 0 = held.
func (b *RealButton) Pressed() (bool, error) {
	if b.line == nil {
		return false, fmt.Errorf("button pin %d not requested", b.pin)
	}
	v, err := b.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin %d: %w", b.pin, err)
	}
	return v == 0, nil
}

// Close reverts the line to a plain input and releases it.
func (b *RealButton) Close() error {
	var errs []error
	if b.line != nil {
		if err := b.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLED drives the status LED on a GPIO line, high = on.
type RealLED struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealLED opens the LED line on the given chip, initially off.
func NewRealLED(chipName string, pin int) (*RealLED, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", pin, err)
	}
	return &RealLED{chip: chip, line: line, pin: pin}, nil
}

// Set writes the output level.
func (l *RealLED) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("write led pin %d: %w", l.pin, err)
	}
	return nil
}

// Close turns the LED off, reverts the line to input and releases it.
func (l *RealLED) Close() error {
	var errs []error
	if err := l.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear led pin: %w", err))
	}
	if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure led pin: %w", err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close led pin: %w", err))
	}
	if err := l.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealCarrier keys a sysfs PWM channel carrying the IR modulation. The
// frequency is written once at construction; bursts only toggle the duty
// cycle between 50% and zero.
type RealCarrier struct {
	dir      string
	periodNs int
}

// NewRealCarrier configures the PWM channel under dir to the given carrier
// frequency with the output idle.
func NewRealCarrier(dir string, freqHz int) (*RealCarrier, error) {
	c := &RealCarrier{dir: dir, periodNs: int(time.Second/time.Nanosecond) / freqHz}
	if err := c.writeAttr("duty_cycle", 0); err != nil {
		return nil, err
	}
	if err := c.writeAttr("period", c.periodNs); err != nil {
		return nil, err
	}
	if err := c.writeAttr("enable", 1); err != nil {
		return nil, err
	}
	return c, nil
}

// SendBurst keys the carrier through the given active/idle pairs.
func (c *RealCarrier) SendBurst(pulses []logic.Pulse) error {
	for _, p := range pulses {
		if err := c.writeAttr("duty_cycle", c.periodNs/2); err != nil {
			return err
		}
		time.Sleep(p.Active)
		if err := c.writeAttr("duty_cycle", 0); err != nil {
			return err
		}
		time.Sleep(p.Idle)
	}
	return nil
}

// Close idles and disables the PWM channel.
func (c *RealCarrier) Close() error {
	if err := c.writeAttr("duty_cycle", 0); err != nil {
		return err
	}
	return c.writeAttr("enable", 0)
}

func (c *RealCarrier) writeAttr(name string, value int) error {
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, []byte(strconv.Itoa(value)), 0644); err != nil {
		return fmt.Errorf("write pwm %s: %w", name, err)
	}
	return nil
}

// RealBattery reads the supply voltage from an IIO ADC channel. The raw and
// scale files follow the standard IIO voltage convention: raw * scale is the
// value in millivolts.
type RealBattery struct {
	dir  string
	file *os.File
}

// NewRealBattery points at the IIO device directory. The channel is not
// opened until Enable.
func NewRealBattery(dir string) *RealBattery {
	return &RealBattery{dir: dir}
}

// Enable opens the raw voltage channel.
func (b *RealBattery) Enable() error {
	if b.file != nil {
		return nil
	}
	f, err := os.Open(filepath.Join(b.dir, "in_voltage0_raw"))
	if err != nil {
		return fmt.Errorf("enable battery adc: %w", err)
	}
	b.file = f
	return nil
}

// ReadMillivolts reads and scales one sample.
func (b *RealBattery) ReadMillivolts() (int, error) {
	if b.file == nil {
		return 0, fmt.Errorf("battery adc not enabled")
	}
	if _, err := b.file.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("rewind battery adc: %w", err)
	}
	buf := make([]byte, 32)
	n, err := b.file.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("read battery adc: %w", err)
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0, fmt.Errorf("parse battery adc: %w", err)
	}
	scale, err := b.readScale()
	if err != nil {
		return 0, err
	}
	return int(float64(raw) * scale), nil
}

func (b *RealBattery) readScale() (float64, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, "in_voltage_scale"))
	if err != nil {
		return 0, fmt.Errorf("read adc scale: %w", err)
	}
	scale, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse adc scale: %w", err)
	}
	return scale, nil
}

// Disable closes the raw voltage channel.
func (b *RealBattery) Disable() error {
	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	if err != nil {
		return fmt.Errorf("disable battery adc: %w", err)
	}
	return nil
}

// RealWake fires a callback on a coarse fixed period while armed. It stands
// in for the hardware wake timer; the period is not configurable below the
// hardware's ~64 s granularity.
type RealWake struct {
	period time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// WakePeriod is the fixed firing interval of the periodic wake source.
const WakePeriod = 64 * time.Second

// NewRealWake returns a disarmed wake source.
func NewRealWake() *RealWake {
	return &RealWake{period: WakePeriod}
}

// Arm starts the periodic timer. fn runs on the timer goroutine and must only
// latch a flag.
func (w *RealWake) Arm(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	stop := make(chan struct{})
	w.stop = stop
	go func() {
		t := time.NewTicker(w.period)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				fn()
			case <-stop:
				return
			}
		}
	}()
}

// Disarm stops the periodic timer.
func (w *RealWake) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop == nil {
		return
	}
	close(w.stop)
	w.stop = nil
}

// Close stops the timer permanently.
func (w *RealWake) Close() error {
	w.Disarm()
	return nil
}
