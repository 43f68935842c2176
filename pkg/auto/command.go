// Package auto implements the autonomous period as a fixed sequence of timed
// phases, each issuing actuator commands.
package auto

import "fmt"

// Command is a single actuator command. The concrete types are Drive,
// ArmTarget, Wrist, Intake and Extension.
type Command interface {
	fmt.Stringer
	command()
}

// Drive sets the power of the four drive motors, each in [-1, 1].
type Drive struct {
	LeftFront  float64
	RightFront float64
	LeftBack   float64
	RightBack  float64
}

// ArmTarget runs the arm to a position in encoder ticks at a velocity in ticks per second.
type ArmTarget struct {
	Ticks    int
	Velocity float64
}

// Wrist moves the wrist servo to a position in [0, 1].
type Wrist struct {
	Position float64
}

// Intake moves the intake servo to a position in [0, 1].
type Intake struct {
	Position float64
}

// Extension sets the extension servo power in [-1, 1].
type Extension struct {
	Power float64
}

func (Drive) command()     {}
func (ArmTarget) command() {}
func (Wrist) command()     {}
func (Intake) command()    {}
func (Extension) command() {}

func (d Drive) String() string {
	if d.IsStop() {
		return "drive(stop)"
	}
	return fmt.Sprintf("drive(lf=%.2f rf=%.2f lb=%.2f rb=%.2f)", d.LeftFront, d.RightFront, d.LeftBack, d.RightBack)
}

func (a ArmTarget) String() string {
	return fmt.Sprintf("arm(%d @%.0f)", a.Ticks, a.Velocity)
}

func (w Wrist) String() string {
	return fmt.Sprintf("wrist(%.4f)", w.Position)
}

func (i Intake) String() string {
	return fmt.Sprintf("intake(%.2f)", i.Position)
}

func (e Extension) String() string {
	return fmt.Sprintf("extension(%.2f)", e.Power)
}

// Stop returns the command that sets all drive motors to zero.
func Stop() Drive {
	return Drive{}
}

// Rotate returns an in-place rotation: left side at power, right side at -power.
func Rotate(power float64) Drive {
	return Drive{LeftFront: power, RightFront: -power, LeftBack: power, RightBack: -power}
}

// IsStop reports whether d commands every drive motor to zero.
func (d Drive) IsStop() bool {
	return d == Drive{}
}
