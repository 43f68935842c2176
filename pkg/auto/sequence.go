package auto

import (
	"errors"
	"fmt"

	"github.com/gwillem/yeti/pkg/robot"
)

// PhaseName names a phase of the autonomous sequence.
type PhaseName string

// Phases of the default sequence, in order.
const (
	Deploy     PhaseName = "Deploy"
	Rotate1    PhaseName = "Rotate1"
	ScoreArm   PhaseName = "ScoreArm"
	OpenIntake PhaseName = "OpenIntake"
	Rotate2    PhaseName = "Rotate2"
	Retract    PhaseName = "Retract"
	Withdraw   PhaseName = "Withdraw"
	Hold       PhaseName = "Hold"
)

// Duration is the length of the autonomous period in seconds.
const Duration = 25.0

// Phase is a window (Start, End] of elapsed seconds and the commands issued on
// every tick inside it. The first phase of a sequence also includes Start.
type Phase struct {
	Name     PhaseName
	Start    float64
	End      float64
	Commands []Command
}

// Sequence is an ordered, contiguous list of phases covering [0, Duration).
type Sequence struct {
	Phases   []Phase
	Duration float64
}

// DefaultSequence returns the autonomous routine: score a specimen, release
// it, back away and hold the arm retracted until the period ends.
func DefaultSequence() *Sequence {
	scoreSpecimen := ArmTarget{Ticks: robot.ArmTicks(robot.ArmScoreSpecimen), Velocity: robot.ArmVelocity}
	scoreFudged := ArmTarget{Ticks: robot.ArmTicks(robot.ArmScoreSpecimen + robot.ArmFudge), Velocity: robot.ArmVelocity}
	retracted := ArmTarget{Ticks: robot.ArmTicks(robot.ArmRetracted), Velocity: robot.ArmVelocity}

	return &Sequence{
		Duration: Duration,
		Phases: []Phase{
			{Name: Deploy, Start: 0, End: 2, Commands: []Command{
				scoreSpecimen,
				Wrist{robot.WristFoldedOut},
				Stop(),
			}},
			{Name: Rotate1, Start: 2, End: 3, Commands: []Command{
				Rotate(0.4),
			}},
			{Name: ScoreArm, Start: 3, End: 5, Commands: []Command{
				Stop(),
				scoreFudged,
			}},
			{Name: OpenIntake, Start: 5, End: 7, Commands: []Command{
				Intake{robot.IntakeOpen},
			}},
			{Name: Rotate2, Start: 7, End: 8, Commands: []Command{
				Rotate(-0.4),
			}},
			{Name: Retract, Start: 8, End: 10, Commands: []Command{
				Stop(),
				Wrist{robot.WristFoldedIn},
				Intake{robot.IntakeClamp},
				retracted,
			}},
			{Name: Withdraw, Start: 10, End: 12, Commands: []Command{
				Drive{LeftFront: -0.6, RightFront: -0.9, LeftBack: 0.6, RightBack: 0.3},
			}},
			{Name: Hold, Start: 12, End: Duration, Commands: []Command{
				Stop(),
				retracted,
				Wrist{robot.WristFoldedIn},
				Intake{robot.IntakeClamp},
			}},
		},
	}
}

// Validate checks that the phases are non-empty, named, contiguous and cover
// [0, Duration].
func (s *Sequence) Validate() error {
	if len(s.Phases) == 0 {
		return errors.New("sequence has no phases")
	}
	if s.Duration <= 0 {
		return fmt.Errorf("invalid duration %f", s.Duration)
	}
	if s.Phases[0].Start != 0 {
		return fmt.Errorf("phase %s starts at %f, want 0", s.Phases[0].Name, s.Phases[0].Start)
	}

	seen := make(map[PhaseName]bool, len(s.Phases))
	for i, p := range s.Phases {
		if p.Name == "" {
			return fmt.Errorf("phase %d has no name", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate phase %s", p.Name)
		}
		seen[p.Name] = true
		if p.End <= p.Start {
			return fmt.Errorf("phase %s ends at %f before it starts at %f", p.Name, p.End, p.Start)
		}
		if i > 0 && p.Start != s.Phases[i-1].End {
			return fmt.Errorf("phase %s starts at %f, previous phase ends at %f", p.Name, p.Start, s.Phases[i-1].End)
		}
	}

	if last := s.Phases[len(s.Phases)-1]; last.End != s.Duration {
		return fmt.Errorf("phase %s ends at %f, want %f", last.Name, last.End, s.Duration)
	}
	return nil
}

// PhaseAt returns the phase active at t elapsed seconds. Windows are
// lower-exclusive and upper-inclusive, so a tick exactly on a boundary belongs
// to the phase ending there. The sequence ends at Duration, exclusive.
func (s *Sequence) PhaseAt(t float64) (Phase, bool) {
	if t < 0 || t >= s.Duration {
		return Phase{}, false
	}
	for _, p := range s.Phases {
		if t <= p.End {
			return p, true
		}
	}
	return Phase{}, false
}

// Tick returns the commands to issue at t elapsed seconds, or nil once the
// sequence has ended. The result depends only on t.
func (s *Sequence) Tick(t float64) []Command {
	p, ok := s.PhaseAt(t)
	if !ok {
		return nil
	}
	out := make([]Command, len(p.Commands))
	copy(out, p.Commands)
	return out
}

// Index returns the position of the named phase, or -1.
func (s *Sequence) Index(name PhaseName) int {
	for i, p := range s.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}
