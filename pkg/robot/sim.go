package robot

import (
	"context"
	"math"
	"sync"
	"time"
)

// Write is a single actuator write recorded by the simulator.
type Write struct {
	Device DeviceName
	Op     string
	Value  float64
}

// Journal records every write made to simulated devices.
type Journal struct {
	mu     sync.Mutex
	writes []Write
}

func (j *Journal) record(device DeviceName, op string, value float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.writes = append(j.writes, Write{Device: device, Op: op, Value: value})
}

// Writes returns a copy of the recorded writes.
func (j *Journal) Writes() []Write {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Write, len(j.writes))
	copy(out, j.writes)
	return out
}

// Reset discards all recorded writes.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.writes = nil
}

// SimSimpleMotor is a drive output without zero power behavior support.
type SimSimpleMotor struct {
	name    DeviceName
	journal *Journal

	mu    sync.Mutex
	power float64
}

// SetPower records the commanded power.
func (m *SimSimpleMotor) SetPower(ctx context.Context, power float64) error {
	m.mu.Lock()
	m.power = power
	m.mu.Unlock()
	m.journal.record(m.name, "power", power)
	return nil
}

// Power returns the last commanded power.
func (m *SimSimpleMotor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

// SimMotor is a drive motor that also supports brake mode.
type SimMotor struct {
	SimSimpleMotor
	behavior ZeroPowerBehavior
}

// SetZeroPowerBehavior records the zero power behavior.
func (m *SimMotor) SetZeroPowerBehavior(ctx context.Context, b ZeroPowerBehavior) error {
	m.mu.Lock()
	m.behavior = b
	m.mu.Unlock()
	m.journal.record(m.name, "zero_power", float64(b))
	return nil
}

// ZeroPowerBehavior returns the configured zero power behavior.
func (m *SimMotor) ZeroPowerBehavior() ZeroPowerBehavior {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.behavior
}

// SimArm is a run-to-position arm whose encoder moves toward the target at
// the commanded velocity.
type SimArm struct {
	SimMotor
	now func() time.Time

	target   int
	velocity float64
	mode     RunMode
	position float64
	alert    float64
	draw     float64
	last     time.Time
}

// SetTargetPosition records the target in ticks.
func (a *SimArm) SetTargetPosition(ctx context.Context, ticks int) error {
	a.mu.Lock()
	a.advance()
	a.target = ticks
	a.mu.Unlock()
	a.journal.record(a.name, "target", float64(ticks))
	return nil
}

// TargetPosition returns the target in ticks.
func (a *SimArm) TargetPosition(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target, nil
}

// CurrentPosition returns the simulated encoder position in ticks.
func (a *SimArm) CurrentPosition(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advance()
	return int(math.Round(a.position)), nil
}

// SetVelocity records the run-to-position velocity in ticks per second.
func (a *SimArm) SetVelocity(ctx context.Context, ticksPerSecond float64) error {
	a.mu.Lock()
	a.advance()
	a.velocity = ticksPerSecond
	a.mu.Unlock()
	a.journal.record(a.name, "velocity", ticksPerSecond)
	return nil
}

// SetMode switches the run mode. StopAndResetEncoder zeroes the encoder.
func (a *SimArm) SetMode(ctx context.Context, mode RunMode) error {
	a.mu.Lock()
	a.advance()
	a.mode = mode
	if mode == StopAndResetEncoder {
		a.position = 0
	}
	a.mu.Unlock()
	a.journal.record(a.name, "mode", float64(mode))
	return nil
}

// Mode returns the current run mode.
func (a *SimArm) Mode() RunMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetCurrentAlert records the current alert threshold in amps.
func (a *SimArm) SetCurrentAlert(ctx context.Context, amps float64) error {
	a.mu.Lock()
	a.alert = amps
	a.mu.Unlock()
	a.journal.record(a.name, "current_alert", amps)
	return nil
}

// SetDraw sets the simulated current draw in amps.
func (a *SimArm) SetDraw(amps float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draw = amps
}

// OverCurrent reports whether the simulated draw exceeds the alert threshold.
func (a *SimArm) OverCurrent(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alert > 0 && a.draw > a.alert, nil
}

// advance moves the encoder toward the target. Caller holds a.mu.
func (a *SimArm) advance() {
	now := a.now()
	if a.last.IsZero() {
		a.last = now
		return
	}
	dt := now.Sub(a.last).Seconds()
	a.last = now
	if a.mode != RunToPosition || dt <= 0 {
		return
	}

	step := a.velocity * dt
	diff := float64(a.target) - a.position
	if math.Abs(diff) <= step {
		a.position = float64(a.target)
		return
	}
	a.position += math.Copysign(step, diff)
}

// SimServo is a position servo.
type SimServo struct {
	name    DeviceName
	journal *Journal

	mu       sync.Mutex
	position float64
}

// SetPosition records the commanded position.
func (s *SimServo) SetPosition(ctx context.Context, position float64) error {
	s.mu.Lock()
	s.position = position
	s.mu.Unlock()
	s.journal.record(s.name, "position", position)
	return nil
}

// Position returns the last commanded position.
func (s *SimServo) Position(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position, nil
}

// Sim is a fully simulated robot.
type Sim struct {
	*Hardware
	Journal *Journal

	LeftFrontSim  *SimMotor
	RightFrontSim *SimMotor
	LeftBackSim   *SimSimpleMotor
	RightBackSim  *SimMotor
	ArmSim        *SimArm
	WristSim      *SimServo
	IntakeSim     *SimServo
	ExtensionSim  *SimSimpleMotor
}

// NewSim creates a simulated robot. The arm advances against now; pass nil
// to use the wall clock.
func NewSim(now func() time.Time) *Sim {
	if now == nil {
		now = time.Now
	}
	j := &Journal{}
	motor := func(name DeviceName) *SimMotor {
		return &SimMotor{SimSimpleMotor: SimSimpleMotor{name: name, journal: j}}
	}

	s := &Sim{
		Journal:       j,
		LeftFrontSim:  motor(LeftFrontDrive),
		RightFrontSim: motor(RightFrontDrive),
		LeftBackSim:   &SimSimpleMotor{name: LeftBackDrive, journal: j},
		RightBackSim:  motor(RightBackDrive),
		ArmSim: &SimArm{
			SimMotor: SimMotor{SimSimpleMotor: SimSimpleMotor{name: ArmMotorName, journal: j}},
			now:      now,
		},
		WristSim:     &SimServo{name: WristServo, journal: j},
		IntakeSim:    &SimServo{name: IntakeServo, journal: j},
		ExtensionSim: &SimSimpleMotor{name: ExtensionServo, journal: j},
	}
	s.Hardware = &Hardware{
		LeftFront:  s.LeftFrontSim,
		RightFront: s.RightFrontSim,
		LeftBack:   s.LeftBackSim,
		RightBack:  s.RightBackSim,
		Arm:        s.ArmSim,
		Wrist:      s.WristSim,
		Intake:     s.IntakeSim,
		Extension:  s.ExtensionSim,
	}
	return s
}
