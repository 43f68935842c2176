// Package opmode runs the autonomous sequence against the robot hardware.
package opmode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/yeti/pkg/auto"
	"github.com/gwillem/yeti/pkg/robot"
	"github.com/gwillem/yeti/pkg/telemetry"
)

// State is a snapshot of the run published once per loop iteration.
type State struct {
	Elapsed     float64
	Phase       auto.PhaseName
	Commands    []auto.Command
	ArmTarget   int
	ArmCurrent  int
	Intake      float64
	OverCurrent bool
	Timestamp   time.Time
	Error       error
}

// ErrAlreadyRun is returned by Run on a runner that has been run before.
var ErrAlreadyRun = errors.New("runner already run")

// Runner owns the hardware for the duration of an autonomous run.
type Runner struct {
	hw      *robot.Hardware
	machine *auto.Machine
	clock   Clock
	sink    telemetry.Sink
	hz      int

	mu      sync.Mutex
	started bool
	ready   chan struct{}
	stateCh chan State
	logCh   chan string
}

// Config holds configuration for the runner.
type Config struct {
	Hz       int
	Trigger  auto.Trigger
	Sequence *auto.Sequence
	Clock    Clock
	Sink     telemetry.Sink
}

// NewRunner creates a runner for the given hardware.
func NewRunner(hw *robot.Hardware, cfg Config) (*Runner, error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}
	if cfg.Sequence == nil {
		cfg.Sequence = auto.DefaultSequence()
	}
	if err := cfg.Sequence.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sequence: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = NewElapsedTime(nil)
	}
	if cfg.Sink == nil {
		cfg.Sink = telemetry.Discard
	}

	return &Runner{
		hw:      hw,
		machine: auto.NewMachine(cfg.Sequence, cfg.Trigger),
		clock:   cfg.Clock,
		sink:    cfg.Sink,
		hz:      cfg.Hz,
		ready:   make(chan struct{}),
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 32),
	}, nil
}

// States returns a channel that receives state updates.
func (r *Runner) States() <-chan State {
	return r.stateCh
}

// Logs returns a channel that receives log messages.
func (r *Runner) Logs() <-chan string {
	return r.logCh
}

// Ready is closed once the hardware is initialized and the runner waits for start.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Hz returns the loop frequency.
func (r *Runner) Hz() int {
	return r.hz
}

// Sequence returns the sequence being run.
func (r *Runner) Sequence() *auto.Sequence {
	return r.machine.Sequence()
}

func (r *Runner) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case r.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Run initializes the hardware, blocks until start is closed, then runs the
// sequence until it ends or ctx is cancelled. A runner can run once.
func (r *Runner) Run(ctx context.Context, start <-chan struct{}) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyRun
	}
	r.started = true
	r.mu.Unlock()

	if err := r.hw.Init(ctx); err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	r.sink.AddLine("Robot Ready.")
	if err := r.sink.Update(); err != nil {
		r.log("Telemetry error: %v", err)
	}
	r.log("Robot ready, waiting for start")
	close(r.ready)

	select {
	case <-ctx.Done():
		r.log("Stopped before start")
		return ctx.Err()
	case <-start:
	}

	r.clock.Reset()
	seq := r.machine.Sequence()
	r.log("Autonomous started: %d phases over %.0fs at %d Hz", len(seq.Phases), seq.Duration, r.hz)

	ticker := time.NewTicker(time.Second / time.Duration(r.hz))
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			r.shutdown()
			return ctx.Err()
		}
		if done := r.step(ctx); done {
			r.shutdown()
			return nil
		}

		select {
		case <-ctx.Done():
			r.shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// step runs one loop iteration and reports whether the sequence has ended.
func (r *Runner) step(ctx context.Context) bool {
	t := r.clock.Seconds()
	tr, cmds := r.machine.Step(t)
	if tr.Done {
		r.log("Autonomous complete at %.2fs", t)
		return true
	}

	if tr.Entered {
		for _, name := range tr.Skipped {
			r.log("Phase %s skipped", name)
		}
		r.log("Phase %s at %.2fs", tr.Phase, t)
	}

	for _, err := range auto.ApplyAll(ctx, r.hw, cmds) {
		r.log("Write error: %v", err)
	}

	r.sendState(r.report(ctx, t, tr.Phase, cmds))
	return false
}

// report reads back the arm and intake and publishes the telemetry frame.
func (r *Runner) report(ctx context.Context, t float64, phase auto.PhaseName, cmds []auto.Command) State {
	s := State{
		Elapsed:   t,
		Phase:     phase,
		Commands:  cmds,
		Timestamp: time.Now(),
	}

	var err error
	if s.ArmTarget, err = r.hw.Arm.TargetPosition(ctx); err != nil {
		s.Error = err
	}
	if s.ArmCurrent, err = r.hw.Arm.CurrentPosition(ctx); err != nil {
		s.Error = err
	}
	if s.Intake, err = r.hw.Intake.Position(ctx); err != nil {
		s.Error = err
	}
	monitor, hasMonitor := r.hw.Arm.(robot.CurrentMonitor)
	if hasMonitor {
		if s.OverCurrent, err = monitor.OverCurrent(ctx); err != nil {
			s.Error = err
		}
	}
	if s.Error != nil {
		r.log("Read error: %v", s.Error)
	}

	r.sink.AddData("Runtime", t)
	r.sink.AddData("Phase", phase)
	r.sink.AddData("Arm Target", s.ArmTarget)
	r.sink.AddData("Arm Current", s.ArmCurrent)
	r.sink.AddData("Intake Status", s.Intake)
	if hasMonitor {
		r.sink.AddData("Arm Over Current", s.OverCurrent)
	}
	if err := r.sink.Update(); err != nil {
		r.log("Telemetry error: %v", err)
	}
	return s
}

func (r *Runner) sendState(s State) {
	select {
	case r.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-r.stateCh:
		default:
		}
		select {
		case r.stateCh <- s:
		default:
		}
	}
}

// shutdown stops the drive and the extension once the run is over.
func (r *Runner) shutdown() {
	ctx := context.Background()
	cmds := []auto.Command{auto.Stop(), auto.Extension{}}
	for _, err := range auto.ApplyAll(ctx, r.hw, cmds) {
		r.log("Warning: failed to stop: %v", err)
	}
	r.log("Autonomous stopped")
}
