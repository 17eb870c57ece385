package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/dbchat/pkg/events"
)

func stage(seq uint64, s events.Stage) *events.EventMissionStage {
	return &events.EventMissionStage{EventMetadata: meta(seq), Stage: s}
}

func TestMissionStateLastStageWins(t *testing.T) {
	state := ComputeMissionState([]events.Event{
		stage(1, events.StagePlan),
		stage(2, events.StageExplore),
		stage(3, events.StageExecute),
	})

	require.Equal(t, events.StageExecute, state.CurrentStage)
	require.Len(t, state.Stages, 3)
	require.False(t, state.Terminal())
}

func TestMissionStateCompleteWithoutFinalize(t *testing.T) {
	state := ComputeMissionState([]events.Event{
		stage(1, events.StageExecute),
		&events.EventMissionComplete{EventMetadata: meta(2)},
	})

	require.True(t, state.IsComplete)
	require.False(t, state.IsFailed)
	require.Equal(t, events.StageExecute, state.CurrentStage)
}

func TestMissionStateStickyFailure(t *testing.T) {
	interleavings := [][]events.Event{
		{
			&events.EventMissionError{EventMetadata: meta(1), Message: "boom"},
			&events.EventMissionComplete{EventMetadata: meta(2)},
		},
		{
			&events.EventMissionComplete{EventMetadata: meta(1)},
			&events.EventMissionError{EventMetadata: meta(2), Message: "boom"},
		},
	}

	for _, evs := range interleavings {
		state := ComputeMissionState(evs)
		require.True(t, state.IsFailed)
		require.False(t, state.IsComplete)
		require.Equal(t, "boom", state.ErrorMessage)
	}
}

func TestMissionStatePostTerminalStagesRecorded(t *testing.T) {
	state := ComputeMissionState([]events.Event{
		stage(1, events.StageExecute),
		&events.EventMissionComplete{EventMetadata: meta(2)},
		stage(3, events.StageFinalize),
	})

	// Recorded for audit, but current stage stays pre-terminal.
	require.Len(t, state.Stages, 2)
	require.Equal(t, events.StageExecute, state.CurrentStage)
}

func TestMissionStateDuplicateStageEvent(t *testing.T) {
	dup := stage(1, events.StagePlan)
	state := ComputeMissionState([]events.Event{dup, dup})
	require.Len(t, state.Stages, 1)
}

func TestMissionStateFirstErrorMessageKept(t *testing.T) {
	state := ComputeMissionState([]events.Event{
		&events.EventMissionError{EventMetadata: meta(1), Message: "first"},
		&events.EventMissionError{EventMetadata: meta(2), Message: "second"},
	})
	require.Equal(t, "first", state.ErrorMessage)
}
