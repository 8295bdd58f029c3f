package core

import (
	"fmt"
	"strings"
)

// Mode selects how the outputs of several agents are composed for one task.
type Mode int

const (
	// ModeSequential folds over agents in order, feeding each step the
	// results of all previous steps.
	ModeSequential Mode = iota
	// ModeParallel fans out to all agents concurrently.
	ModeParallel
	// ModeHierarchical lets the first agent plan and the remaining agents
	// execute that plan one after another.
	ModeHierarchical
)

// Modes lists every valid Mode in declaration order.
var Modes = []Mode{ModeSequential, ModeParallel, ModeHierarchical}

// String returns the canonical lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	case ModeHierarchical:
		return "hierarchical"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m >= ModeSequential && m <= ModeHierarchical
}

// ParseMode converts a case-insensitive mode name. An empty string yields
// ModeSequential.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return ModeSequential, nil
	case "parallel":
		return ModeParallel, nil
	case "hierarchical":
		return ModeHierarchical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}

	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// Task is a single request handed to the core. It is created per request and
// owned by the caller; the core never mutates Context.
type Task struct {
	// Instruction is the free-text instruction.
	Instruction string `json:"instruction"`
	// Context carries caller supplied key/value context.
	Context map[string]string `json:"context,omitempty"`
	// Agents is the optional explicit, ordered list of target agent ids.
	Agents []string `json:"agents,omitempty"`
	// Mode selects the collaboration topology.
	Mode Mode `json:"mode"`
}

// NewTask creates a task with the given instruction and no explicit agents.
func NewTask(instruction string) Task {
	return Task{Instruction: instruction, Context: map[string]string{}}
}

// WithInstruction returns a copy of t using a different instruction.
func (t Task) WithInstruction(instruction string) Task {
	t.Instruction = instruction
	return t
}

// CloneContext returns a private copy of the task context, never nil.
func (t Task) CloneContext() map[string]string {
	out := make(map[string]string, len(t.Context))
	for k, v := range t.Context {
		out[k] = v
	}

	return out
}
