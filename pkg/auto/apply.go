package auto

import (
	"context"
	"errors"
	"fmt"

	"github.com/gwillem/yeti/pkg/robot"
)

// Apply writes a command to the hardware. Writes are idempotent, so applying
// the same command on consecutive ticks is harmless.
func Apply(ctx context.Context, hw *robot.Hardware, cmd Command) error {
	switch c := cmd.(type) {
	case Drive:
		// Every motor is written even if one fails, so a faulty side never
		// leaves the others running.
		powers := []float64{c.LeftFront, c.RightFront, c.LeftBack, c.RightBack}
		var errs []error
		for i, m := range hw.Drives() {
			if err := m.SetPower(ctx, powers[i]); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	case ArmTarget:
		if err := hw.Arm.SetTargetPosition(ctx, c.Ticks); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		if err := hw.Arm.SetVelocity(ctx, c.Velocity); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		if err := hw.Arm.SetMode(ctx, robot.RunToPosition); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	case Wrist:
		if err := hw.Wrist.SetPosition(ctx, c.Position); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	case Intake:
		if err := hw.Intake.SetPosition(ctx, c.Position); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	case Extension:
		if err := hw.Extension.SetPower(ctx, c.Power); err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
	default:
		return fmt.Errorf("unknown command %T", cmd)
	}
	return nil
}

// ApplyAll writes each command in order and returns the errors of those that failed.
// A failed write does not stop the remaining commands.
func ApplyAll(ctx context.Context, hw *robot.Hardware, cmds []Command) []error {
	var errs []error
	for _, cmd := range cmds {
		if err := Apply(ctx, hw, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
