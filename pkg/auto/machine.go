package auto

import "fmt"

// Trigger selects when a phase's commands are issued.
type Trigger int

const (
	// TriggerLevel issues the active phase's commands on every tick.
	TriggerLevel Trigger = iota
	// TriggerEdge issues a phase's commands once, on entry.
	TriggerEdge
)

func (t Trigger) String() string {
	switch t {
	case TriggerLevel:
		return "level"
	case TriggerEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// ParseTrigger parses "level" or "edge".
func ParseTrigger(s string) (Trigger, error) {
	switch s {
	case "", "level":
		return TriggerLevel, nil
	case "edge":
		return TriggerEdge, nil
	default:
		return 0, fmt.Errorf("unknown trigger %q", s)
	}
}

// Transition describes the outcome of one machine step.
type Transition struct {
	Phase    PhaseName
	Previous PhaseName
	// Entered is set on the step that enters Phase.
	Entered bool
	// Skipped lists phases passed over between two steps.
	Skipped []PhaseName
	// Done is set once the sequence has ended.
	Done bool
}

// Machine tracks the active phase of a sequence as elapsed time advances.
// Phases only move forward.
type Machine struct {
	seq     *Sequence
	trigger Trigger
	current int
	done    bool
}

// NewMachine creates a machine positioned before the first phase.
func NewMachine(seq *Sequence, trigger Trigger) *Machine {
	return &Machine{seq: seq, trigger: trigger, current: -1}
}

// Sequence returns the sequence the machine runs.
func (m *Machine) Sequence() *Sequence {
	return m.seq
}

// Phase returns the active phase name, or "" before the first step.
func (m *Machine) Phase() PhaseName {
	if m.current < 0 {
		return ""
	}
	return m.seq.Phases[m.current].Name
}

// Done reports whether the sequence has ended.
func (m *Machine) Done() bool {
	return m.done
}

// Step advances the machine to t elapsed seconds and returns the transition
// and the commands to issue under the machine's trigger.
func (m *Machine) Step(t float64) (Transition, []Command) {
	tr := Transition{Phase: m.Phase(), Previous: m.Phase()}
	if m.done {
		tr.Done = true
		return tr, nil
	}
	if t >= m.seq.Duration {
		m.done = true
		tr.Done = true
		return tr, nil
	}

	p, ok := m.seq.PhaseAt(t)
	if !ok {
		return tr, nil
	}
	idx := m.seq.Index(p.Name)
	if idx < m.current {
		// Time went backwards; hold the current phase.
		idx = m.current
		p = m.seq.Phases[idx]
	}

	if idx != m.current {
		tr.Entered = true
		for i := m.current + 1; i < idx; i++ {
			tr.Skipped = append(tr.Skipped, m.seq.Phases[i].Name)
		}
		m.current = idx
		tr.Phase = p.Name
	}

	if m.trigger == TriggerEdge && !tr.Entered {
		return tr, nil
	}
	out := make([]Command, len(p.Commands))
	copy(out, p.Commands)
	return tr, out
}
