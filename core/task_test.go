package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeSequential},
		{"sequential", ModeSequential},
		{" Parallel ", ModeParallel},
		{"HIERARCHICAL", ModeHierarchical},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMode("round-robin")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestMode_Valid(t *testing.T) {
	for _, m := range Modes {
		assert.True(t, m.Valid(), m.String())
	}

	assert.False(t, Mode(7).Valid())
	assert.Equal(t, "mode(7)", Mode(7).String())
}

func TestMode_JSON(t *testing.T) {
	task := Task{Instruction: "quiz me", Mode: ModeHierarchical}

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"hierarchical"`)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ModeHierarchical, decoded.Mode)

	_, err = json.Marshal(Task{Mode: Mode(9)})
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"mode":"broadcast"}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestTask_CloneContext(t *testing.T) {
	task := NewTask("explain osmosis")
	task.Context["level"] = "beginner"

	clone := task.CloneContext()
	clone["level"] = "expert"

	assert.Equal(t, "beginner", task.Context["level"])
	assert.NotNil(t, Task{}.CloneContext())
}

func TestTask_WithInstruction(t *testing.T) {
	task := NewTask("a")
	task.Agents = []string{"tutor"}

	other := task.WithInstruction("b")

	assert.Equal(t, "a", task.Instruction)
	assert.Equal(t, "b", other.Instruction)
	assert.Equal(t, []string{"tutor"}, other.Agents)
}
