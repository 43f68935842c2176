package robot

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
)

func TestArmTicksPerDegree(t *testing.T) {
	want := 28 * 250047.0 / 4913.0 * 5 / 360
	if math.Abs(ArmTicksPerDegree-want) > 1e-9 {
		t.Errorf("ArmTicksPerDegree = %f, want %f", ArmTicksPerDegree, want)
	}
	if math.Abs(ArmTicksPerDegree-19.7925) > 1e-4 {
		t.Errorf("ArmTicksPerDegree = %f, want ~19.7925", ArmTicksPerDegree)
	}
}

func TestArmTicks(t *testing.T) {
	tests := []struct {
		name     string
		setpoint float64
		expected int
	}{
		{"collapsed", ArmCollapsed, 0},
		{"clear barrier", ArmClearBarrier, -395},
		{"score specimen", ArmScoreSpecimen, -1306},
		{"score specimen + fudge", ArmScoreSpecimen + ArmFudge, -969},
		{"retracted", ArmRetracted, -197},
		{"score sample low", ArmScoreSampleLow, -2078},
		{"attach hook", ArmAttachHook, -2691},
		{"winch", ArmWinch, -296},
		{"fudge", ArmFudge, 336},
	}

	for _, tt := range tests {
		if got := ArmTicks(tt.setpoint); got != tt.expected {
			t.Errorf("ArmTicks(%s) = %d, want %d", tt.name, got, tt.expected)
		}
	}
}

func TestHardware_Init(t *testing.T) {
	sim := NewSim(nil)
	if err := sim.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for _, m := range []*SimMotor{sim.LeftFrontSim, sim.RightFrontSim, sim.RightBackSim} {
		if m.ZeroPowerBehavior() != ZeroPowerBrake {
			t.Errorf("%s not braked", m.name)
		}
	}
	if sim.ArmSim.ZeroPowerBehavior() != ZeroPowerBrake {
		t.Error("arm not braked")
	}
	if sim.ArmSim.Mode() != StopAndResetEncoder {
		t.Errorf("arm mode = %s, want STOP_AND_RESET_ENCODER", sim.ArmSim.Mode())
	}

	ctx := context.Background()
	target, _ := sim.ArmSim.TargetPosition(ctx)
	if target != -395 {
		t.Errorf("arm target = %d, want -395", target)
	}
	if over, _ := sim.ArmSim.OverCurrent(ctx); over {
		t.Error("arm over current with no draw")
	}
	sim.ArmSim.SetDraw(6)
	if over, _ := sim.ArmSim.OverCurrent(ctx); !over {
		t.Error("arm not over current at 6A with 5A alert")
	}

	wrist, _ := sim.WristSim.Position(ctx)
	intake, _ := sim.IntakeSim.Position(ctx)
	if wrist != WristFoldedIn || intake != IntakeClamp {
		t.Errorf("wrist=%f intake=%f, want %f %f", wrist, intake, WristFoldedIn, IntakeClamp)
	}
}

func TestHardware_InitOrder(t *testing.T) {
	sim := NewSim(nil)
	if err := sim.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	var ops []string
	for _, w := range sim.Journal.Writes() {
		ops = append(ops, string(w.Device)+"."+w.Op)
	}
	got := strings.Join(ops, " ")
	want := "leftFDrive.zero_power rightFDrive.zero_power rightBDrive.zero_power armMotor.zero_power " +
		"armMotor.current_alert armMotor.target armMotor.mode armMotor.mode " +
		"intake.position extendo.power wrist.position"
	if got != want {
		t.Errorf("init writes:\n got %s\nwant %s", got, want)
	}
}

func TestHardware_Validate(t *testing.T) {
	hw := &Hardware{}
	err := hw.Validate()
	if err == nil {
		t.Fatal("Validate on empty hardware returned nil")
	}
	for _, name := range AllDevices() {
		if !strings.Contains(err.Error(), string(name)) {
			t.Errorf("Validate error does not mention %s", name)
		}
	}
	if err := hw.Init(context.Background()); err == nil {
		t.Error("Init on empty hardware returned nil")
	}
}

func TestSimArm_RunsToPosition(t *testing.T) {
	now := time.Unix(0, 0)
	sim := NewSim(func() time.Time { return now })
	arm := sim.ArmSim
	ctx := context.Background()

	_ = arm.SetMode(ctx, StopAndResetEncoder)
	_ = arm.SetTargetPosition(ctx, -1000)
	_ = arm.SetVelocity(ctx, 2000)
	_ = arm.SetMode(ctx, RunToPosition)

	now = now.Add(250 * time.Millisecond)
	if pos, _ := arm.CurrentPosition(ctx); pos != -500 {
		t.Errorf("position after 250ms = %d, want -500", pos)
	}

	now = now.Add(time.Second)
	if pos, _ := arm.CurrentPosition(ctx); pos != -1000 {
		t.Errorf("position after 1.25s = %d, want -1000", pos)
	}
}
