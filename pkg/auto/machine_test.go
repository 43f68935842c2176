package auto

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/yeti/pkg/robot"
)

func TestParseTrigger(t *testing.T) {
	for in, want := range map[string]Trigger{"": TriggerLevel, "level": TriggerLevel, "edge": TriggerEdge} {
		got, err := ParseTrigger(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTrigger("pulse")
	assert.Error(t, err)
}

func TestMachine_Level(t *testing.T) {
	m := NewMachine(DefaultSequence(), TriggerLevel)

	tr, cmds := m.Step(0)
	assert.True(t, tr.Entered)
	assert.Equal(t, Deploy, tr.Phase)
	assert.Len(t, cmds, 3)

	tr, cmds = m.Step(0.5)
	assert.False(t, tr.Entered)
	assert.Len(t, cmds, 3, "level trigger repeats commands")

	tr, cmds = m.Step(2.5)
	assert.True(t, tr.Entered)
	assert.Equal(t, Rotate1, tr.Phase)
	assert.Equal(t, Deploy, tr.Previous)
	assert.Equal(t, []Command{Rotate(0.4)}, cmds)
}

func TestMachine_Edge(t *testing.T) {
	m := NewMachine(DefaultSequence(), TriggerEdge)

	var issued [][]Command
	for _, at := range []float64{0, 1, 2, 2.1, 2.9, 3.1, 4} {
		_, cmds := m.Step(at)
		if cmds != nil {
			issued = append(issued, cmds)
		}
	}

	require.Len(t, issued, 3)
	assert.Equal(t, []Command{Rotate(0.4)}, issued[1])
	assert.Equal(t, Stop(), issued[2][0])
}

func TestMachine_SkippedPhases(t *testing.T) {
	m := NewMachine(DefaultSequence(), TriggerEdge)
	m.Step(1)

	tr, cmds := m.Step(6)
	assert.True(t, tr.Entered)
	assert.Equal(t, OpenIntake, tr.Phase)
	assert.Equal(t, []PhaseName{Rotate1, ScoreArm}, tr.Skipped)
	assert.Equal(t, []Command{Intake{robot.IntakeOpen}}, cmds)
}

func TestMachine_NoBackwards(t *testing.T) {
	m := NewMachine(DefaultSequence(), TriggerLevel)
	m.Step(9)

	tr, cmds := m.Step(1)
	assert.Equal(t, Retract, tr.Phase)
	assert.False(t, tr.Entered)
	assert.Equal(t, DefaultSequence().Tick(9), cmds)
}

func TestMachine_Done(t *testing.T) {
	m := NewMachine(DefaultSequence(), TriggerLevel)
	m.Step(24)

	tr, cmds := m.Step(25)
	assert.True(t, tr.Done)
	assert.Nil(t, cmds)
	assert.True(t, m.Done())

	// Once done, stays done.
	tr, cmds = m.Step(3)
	assert.True(t, tr.Done)
	assert.Nil(t, cmds)
}

func TestApply(t *testing.T) {
	sim := robot.NewSim(nil)
	ctx := context.Background()

	for _, cmd := range DefaultSequence().Tick(9) {
		require.NoError(t, Apply(ctx, sim.Hardware, cmd))
	}
	require.NoError(t, Apply(ctx, sim.Hardware, Extension{Power: -0.5}))

	for _, m := range []interface{ Power() float64 }{sim.LeftFrontSim, sim.RightFrontSim, sim.LeftBackSim, sim.RightBackSim} {
		assert.Zero(t, m.Power())
	}
	wrist, _ := sim.WristSim.Position(ctx)
	intake, _ := sim.IntakeSim.Position(ctx)
	target, _ := sim.ArmSim.TargetPosition(ctx)
	assert.Equal(t, robot.WristFoldedIn, wrist)
	assert.Equal(t, robot.IntakeClamp, intake)
	assert.Equal(t, -197, target)
	assert.Equal(t, robot.RunToPosition, sim.ArmSim.Mode())
	assert.Equal(t, -0.5, sim.ExtensionSim.Power())
}

func TestApply_CurvedWithdraw(t *testing.T) {
	sim := robot.NewSim(nil)
	require.NoError(t, Apply(context.Background(), sim.Hardware, Drive{-0.6, -0.9, 0.6, 0.3}))

	assert.Equal(t, -0.6, sim.LeftFrontSim.Power())
	assert.Equal(t, -0.9, sim.RightFrontSim.Power())
	assert.Equal(t, 0.6, sim.LeftBackSim.Power())
	assert.Equal(t, 0.3, sim.RightBackSim.Power())
}

type failingServo struct{ err error }

func (s failingServo) SetPosition(ctx context.Context, position float64) error { return s.err }
func (s failingServo) Position(ctx context.Context) (float64, error)          { return 0, s.err }

func TestApplyAll_ContinuesAfterError(t *testing.T) {
	boom := errors.New("servo unplugged")
	sim := robot.NewSim(nil)
	sim.Wrist = failingServo{boom}

	errs := ApplyAll(context.Background(), sim.Hardware, DefaultSequence().Tick(9))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)

	intake, _ := sim.IntakeSim.Position(context.Background())
	assert.Equal(t, robot.IntakeClamp, intake, "intake written after wrist failure")
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "drive(stop)", Stop().String())
	assert.Equal(t, "drive(lf=0.40 rf=-0.40 lb=0.40 rb=-0.40)", Rotate(0.4).String())
	assert.Equal(t, "arm(-1306 @2100)", ArmTarget{Ticks: -1306, Velocity: 2100}.String())
	assert.True(t, Drive{RightFront: math.Copysign(0, -1)}.IsStop(), "negative zero is a stop")
}

type failingMotor struct{ err error }

func (m failingMotor) SetPower(ctx context.Context, power float64) error { return m.err }

func TestApply_DriveWritesEveryMotor(t *testing.T) {
	boom := errors.New("bus timeout")
	sim := robot.NewSim(nil)
	sim.LeftFront = failingMotor{boom}

	err := Apply(context.Background(), sim.Hardware, Rotate(0.4))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, -0.4, sim.RightFrontSim.Power())
	assert.Equal(t, 0.4, sim.LeftBackSim.Power())
	assert.Equal(t, -0.4, sim.RightBackSim.Power())
}
