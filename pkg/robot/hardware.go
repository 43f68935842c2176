package robot

import (
	"context"
	"errors"
	"fmt"
)

// ZeroPowerBehavior selects what a motor does when commanded to zero power.
type ZeroPowerBehavior int

const (
	ZeroPowerFloat ZeroPowerBehavior = iota
	ZeroPowerBrake
)

// RunMode is the control mode of an encoder motor.
type RunMode int

const (
	RunWithoutEncoder RunMode = iota
	RunToPosition
	StopAndResetEncoder
)

func (m RunMode) String() string {
	switch m {
	case RunWithoutEncoder:
		return "RUN_WITHOUT_ENCODER"
	case RunToPosition:
		return "RUN_TO_POSITION"
	case StopAndResetEncoder:
		return "STOP_AND_RESET_ENCODER"
	default:
		return "UNKNOWN"
	}
}

// Motor accepts a power in [-1, 1].
type Motor interface {
	SetPower(ctx context.Context, power float64) error
}

// Braker is implemented by motors that support a zero power behavior.
type Braker interface {
	SetZeroPowerBehavior(ctx context.Context, b ZeroPowerBehavior) error
}

// ArmMotor is a position controlled motor with an encoder.
type ArmMotor interface {
	Motor
	SetTargetPosition(ctx context.Context, ticks int) error
	TargetPosition(ctx context.Context) (int, error)
	CurrentPosition(ctx context.Context) (int, error)
	SetVelocity(ctx context.Context, ticksPerSecond float64) error
	SetMode(ctx context.Context, mode RunMode) error
	SetCurrentAlert(ctx context.Context, amps float64) error
}

// CurrentMonitor is implemented by motors that report exceeding their current alert.
type CurrentMonitor interface {
	OverCurrent(ctx context.Context) (bool, error)
}

// Servo is a position servo accepting a position in [0, 1].
type Servo interface {
	SetPosition(ctx context.Context, position float64) error
	Position(ctx context.Context) (float64, error)
}

// CRServo is a continuous rotation servo accepting a power in [-1, 1].
type CRServo interface {
	SetPower(ctx context.Context, power float64) error
}

// Hardware holds every actuator the autonomous routine owns for the run.
type Hardware struct {
	LeftFront  Motor
	RightFront Motor
	LeftBack   Motor
	RightBack  Motor
	Arm        ArmMotor
	Wrist      Servo
	Intake     Servo
	Extension  CRServo

	closers []func() error
}

// Drives returns the four drive motors in the order left front, right front,
// left back, right back.
func (h *Hardware) Drives() []Motor {
	return []Motor{h.LeftFront, h.RightFront, h.LeftBack, h.RightBack}
}

// Validate returns an error naming every device that is not bound.
func (h *Hardware) Validate() error {
	var errs []error
	check := func(name DeviceName, bound bool) {
		if !bound {
			errs = append(errs, fmt.Errorf("device %s not bound", name))
		}
	}
	check(LeftFrontDrive, h.LeftFront != nil)
	check(RightFrontDrive, h.RightFront != nil)
	check(LeftBackDrive, h.LeftBack != nil)
	check(RightBackDrive, h.RightBack != nil)
	check(ArmMotorName, h.Arm != nil)
	check(WristServo, h.Wrist != nil)
	check(IntakeServo, h.Intake != nil)
	check(ExtensionServo, h.Extension != nil)
	return errors.Join(errs...)
}

// Init performs the one-time setup before the start signal: brake mode on the
// motors that support it, the arm current alert, the encoder reset and the
// stowed pose of the servos.
func (h *Hardware) Init(ctx context.Context) error {
	if err := h.Validate(); err != nil {
		return err
	}

	for _, m := range append(h.Drives(), h.Arm) {
		b, ok := m.(Braker)
		if !ok {
			continue
		}
		if err := b.SetZeroPowerBehavior(ctx, ZeroPowerBrake); err != nil {
			return fmt.Errorf("set brake: %w", err)
		}
	}

	if err := h.Arm.SetCurrentAlert(ctx, ArmCurrentAlert); err != nil {
		return fmt.Errorf("set arm current alert: %w", err)
	}

	if err := h.Arm.SetTargetPosition(ctx, ArmTicks(ArmClearBarrier)); err != nil {
		return fmt.Errorf("set arm target: %w", err)
	}
	if err := h.Arm.SetMode(ctx, RunToPosition); err != nil {
		return fmt.Errorf("set arm mode: %w", err)
	}
	if err := h.Arm.SetMode(ctx, StopAndResetEncoder); err != nil {
		return fmt.Errorf("reset arm encoder: %w", err)
	}

	if err := h.Intake.SetPosition(ctx, IntakeClamp); err != nil {
		return fmt.Errorf("set intake: %w", err)
	}
	if err := h.Extension.SetPower(ctx, 0); err != nil {
		return fmt.Errorf("set extension: %w", err)
	}
	if err := h.Wrist.SetPosition(ctx, WristFoldedIn); err != nil {
		return fmt.Errorf("set wrist: %w", err)
	}
	return nil
}

// Close releases every bus the hardware was opened on.
func (h *Hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (h *Hardware) onClose(fn func() error) {
	h.closers = append(h.closers, fn)
}
