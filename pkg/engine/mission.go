package engine

import (
	"github.com/go-go-golems/dbchat/pkg/events"
)

// ComputeMissionState folds all mission events of an entry into a single
// derived view. The tracker is observational: it enforces no transition graph
// and simply exposes the last stage seen before a terminal event as current.
//
// mission_complete sets IsComplete even when no finalize stage arrived.
// mission_error sets IsFailed; failure is sticky and wins over completion no
// matter the order the two events arrive in. Stage events after termination
// are still recorded in the history for audit but do not move CurrentStage.
func ComputeMissionState(evs []events.Event) MissionState {
	var state MissionState

	for _, ev := range sortedBySequence(evs) {
		switch e := ev.(type) {
		case *events.EventMissionStage:
			state.Stages = append(state.Stages, e)
			if !state.Terminal() {
				state.CurrentStage = e.Stage
			}
		case *events.EventMissionComplete:
			if !state.IsFailed {
				state.IsComplete = true
			}
		case *events.EventMissionError:
			state.IsFailed = true
			state.IsComplete = false
			if state.ErrorMessage == "" {
				state.ErrorMessage = e.Message
			}
		}
	}
	return state
}
