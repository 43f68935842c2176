package robot

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// busServo is the subset of *feetech.Servo used by the servo adapters.
type busServo interface {
	Position(ctx context.Context) (int, error)
	SetPositionWithTime(ctx context.Context, position int, timeMs int) error
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// ServoBus is an open Feetech servo bus carrying the arm joint, the wrist and the intake.
type ServoBus struct {
	bus         *feetech.Bus
	servos      map[int]*feetech.Servo
	calibration Calibration
}

// OpenServoBus opens the serial bus and scans for the calibrated servo IDs.
func OpenServoBus(ctx context.Context, cfg ServoConfig) (*ServoBus, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	ids := cfg.Calibration.IDs()
	if len(ids) == 0 {
		bus.Close()
		return nil, fmt.Errorf("no servos calibrated on %s", cfg.Port)
	}

	found, err := bus.Scan(ctx, slices.Min(ids), slices.Max(ids))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scan bus: %w", err)
	}

	servos := make(map[int]*feetech.Servo, len(found))
	for _, s := range found {
		servos[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}
	for _, id := range ids {
		if _, ok := servos[id]; !ok {
			bus.Close()
			return nil, fmt.Errorf("servo %d not found on %s", id, cfg.Port)
		}
	}

	return &ServoBus{
		bus:         bus,
		servos:      servos,
		calibration: cfg.Calibration,
	}, nil
}

// Close closes the bus connection.
func (b *ServoBus) Close() error {
	return b.bus.Close()
}

func (b *ServoBus) lookup(name DeviceName) (*feetech.Servo, ServoCalibration, error) {
	cal, ok := b.calibration[name]
	if !ok {
		return nil, ServoCalibration{}, fmt.Errorf("device %s not calibrated", name)
	}
	s, ok := b.servos[cal.ID]
	if !ok {
		return nil, ServoCalibration{}, fmt.Errorf("device %s: servo %d not on bus", name, cal.ID)
	}
	return s, cal, nil
}

// Servo returns the position servo bound to name.
func (b *ServoBus) Servo(ctx context.Context, name DeviceName) (*FeetechServo, error) {
	s, cal, err := b.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := s.Enable(ctx); err != nil {
		return nil, fmt.Errorf("enable %s: %w", name, err)
	}
	return NewFeetechServo(s, cal), nil
}

// Arm returns the arm joint bound to the arm device name.
func (b *ServoBus) Arm(stepsPerTick float64) (*FeetechArm, error) {
	s, cal, err := b.lookup(ArmMotorName)
	if err != nil {
		return nil, err
	}
	return NewFeetechArm(s, cal, stepsPerTick), nil
}

// FeetechServo drives a bus servo as a [0, 1] position servo.
type FeetechServo struct {
	servo busServo
	cal   ServoCalibration
}

// NewFeetechServo wraps a bus servo with its calibration.
func NewFeetechServo(s busServo, cal ServoCalibration) *FeetechServo {
	return &FeetechServo{servo: s, cal: cal}
}

// SetPosition moves the servo to a position in [0, 1].
func (s *FeetechServo) SetPosition(ctx context.Context, position float64) error {
	// A move time of zero runs at the servo's maximum speed.
	if err := s.servo.SetPositionWithTime(ctx, s.cal.Denormalize(position), 0); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// Position reads the servo position in [0, 1].
func (s *FeetechServo) Position(ctx context.Context) (float64, error) {
	raw, err := s.servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	return s.cal.Normalize(raw), nil
}

// FeetechArm drives a bus servo as the arm's run-to-position motor. Encoder
// ticks are scaled to servo steps and measured from the step captured at the
// last encoder reset.
type FeetechArm struct {
	servo        busServo
	cal          ServoCalibration
	stepsPerTick float64

	zero     int
	target   int
	velocity float64
	mode     RunMode
	alert    float64

	lastRaw int
	holding bool
	// zeroed is set once an encoder reset has captured the zero step.
	zeroed bool
}

// NewFeetechArm wraps a bus servo as the arm motor.
func NewFeetechArm(s busServo, cal ServoCalibration, stepsPerTick float64) *FeetechArm {
	return &FeetechArm{servo: s, cal: cal, stepsPerTick: stepsPerTick}
}

// SetPower enables torque for a non-zero power and releases the joint at zero.
func (a *FeetechArm) SetPower(ctx context.Context, power float64) error {
	if power == 0 {
		a.holding = false
		return a.servo.Disable(ctx)
	}
	return a.servo.Enable(ctx)
}

// SetZeroPowerBehavior is accepted for compatibility; the servo always holds position under torque.
func (a *FeetechArm) SetZeroPowerBehavior(ctx context.Context, b ZeroPowerBehavior) error {
	return nil
}

// SetTargetPosition sets the target in ticks and moves there when running to
// position. Nothing is written before the first encoder reset.
func (a *FeetechArm) SetTargetPosition(ctx context.Context, ticks int) error {
	a.target = ticks
	if a.mode != RunToPosition || !a.zeroed {
		return nil
	}
	return a.drive(ctx)
}

// TargetPosition returns the target in ticks.
func (a *FeetechArm) TargetPosition(ctx context.Context) (int, error) {
	return a.target, nil
}

// CurrentPosition reads the joint position in ticks.
func (a *FeetechArm) CurrentPosition(ctx context.Context) (int, error) {
	raw, err := a.servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	steps := float64(raw - a.zero)
	if a.cal.Inverted() {
		steps = -steps
	}
	return int(math.Round(steps / a.stepsPerTick)), nil
}

// SetVelocity sets the run-to-position velocity in ticks per second.
func (a *FeetechArm) SetVelocity(ctx context.Context, ticksPerSecond float64) error {
	a.velocity = ticksPerSecond
	return nil
}

// SetMode switches the run mode. StopAndResetEncoder holds the joint where it
// is and captures that step as tick zero. RunToPosition only moves the joint
// once the zero has been captured.
func (a *FeetechArm) SetMode(ctx context.Context, mode RunMode) error {
	a.mode = mode
	switch mode {
	case RunToPosition:
		if err := a.servo.Enable(ctx); err != nil {
			return fmt.Errorf("enable arm: %w", err)
		}
		if !a.zeroed {
			return nil
		}
		return a.drive(ctx)
	case StopAndResetEncoder:
		raw, err := a.servo.Position(ctx)
		if err != nil {
			return fmt.Errorf("read position: %w", err)
		}
		if err := a.servo.SetPositionWithTime(ctx, raw, 0); err != nil {
			return fmt.Errorf("hold position: %w", err)
		}
		a.zero = raw
		a.lastRaw = raw
		a.holding = false
		a.zeroed = true
	}
	return nil
}

// SetCurrentAlert stores the alert threshold. The bus servo enforces its own
// protection current, so the value is informational.
func (a *FeetechArm) SetCurrentAlert(ctx context.Context, amps float64) error {
	a.alert = amps
	return nil
}

// raw converts the target in ticks to a servo step within the calibrated range.
func (a *FeetechArm) raw() int {
	steps := float64(a.target) * a.stepsPerTick
	if a.cal.Inverted() {
		steps = -steps
	}
	raw := a.zero + int(math.Round(steps))
	if a.cal.RangeMax > a.cal.RangeMin {
		raw = min(max(raw, a.cal.RangeMin), a.cal.RangeMax)
	}
	return raw
}

func (a *FeetechArm) drive(ctx context.Context) error {
	raw := a.raw()
	if a.holding && raw == a.lastRaw {
		return nil
	}

	moveMs := 0
	if a.velocity > 0 {
		stepsPerSecond := a.velocity * a.stepsPerTick
		moveMs = int(math.Abs(float64(raw-a.lastRaw)) / stepsPerSecond * 1000)
	}
	if err := a.servo.SetPositionWithTime(ctx, raw, moveMs); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	a.lastRaw = raw
	a.holding = true
	return nil
}
