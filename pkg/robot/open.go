package robot

import (
	"context"
	"fmt"
)

// Open binds every device named in the configuration: the drive motors and the
// extension on the CAN motor controller, the arm joint, wrist and intake on the
// servo bus. With cfg.Sim set it returns a simulated robot instead.
func Open(ctx context.Context, cfg Config) (*Hardware, error) {
	cfg = cfg.withDefaults()
	if cfg.Sim {
		return NewSim(nil).Hardware, nil
	}

	ctrl, err := OpenMotorController(ctx, cfg.CAN)
	if err != nil {
		return nil, fmt.Errorf("open motor controller: %w", err)
	}

	bus, err := OpenServoBus(ctx, cfg.Servos)
	if err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("open servo bus: %w", err)
	}

	hw := &Hardware{
		LeftFront:  ctrl.Motor(ChannelLeftFront),
		RightFront: ctrl.Motor(ChannelRightFront),
		LeftBack:   simpleMotor{ctrl.Motor(ChannelLeftBack)},
		RightBack:  ctrl.Motor(ChannelRightBack),
		Extension:  ctrl.Extension(),
	}
	hw.onClose(ctrl.Close)
	hw.onClose(bus.Close)

	if hw.Arm, err = bus.Arm(cfg.Servos.StepsPerTick); err != nil {
		hw.Close()
		return nil, err
	}
	if hw.Wrist, err = bus.Servo(ctx, WristServo); err != nil {
		hw.Close()
		return nil, err
	}
	if hw.Intake, err = bus.Servo(ctx, IntakeServo); err != nil {
		hw.Close()
		return nil, err
	}

	return hw, nil
}
