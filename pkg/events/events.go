// Package events defines the typed vocabulary of stream events emitted while
// an agent answers a question, plus the JSON envelope codec used by the event
// transport. Events form a closed tagged union; consumers dispatch with a type
// switch over the concrete variants.
package events

import "time"

type EventType string

const (
	EventTypeToolStart       EventType = "tool_start"
	EventTypeToolEnd         EventType = "tool_end"
	EventTypeToken           EventType = "token"
	EventTypeMissionStage    EventType = "mission_stage"
	EventTypeMissionComplete EventType = "mission_complete"
	EventTypeMissionError    EventType = "mission_error"
)

// Stage names a phase of the agent's multi-step reasoning process.
type Stage string

const (
	StagePlan       Stage = "plan"
	StageExplore    Stage = "explore"
	StageExecute    Stage = "execute"
	StageSynthesize Stage = "synthesize"
	StageFinalize   Stage = "finalize"
	StageFailed     Stage = "failed"
)

// EventMetadata is carried by every event variant. SequenceNumber is unique
// and increasing within a single turn's stream and is the only reliable
// ordering key; Timestamp is wall clock and may be skewed.
type EventMetadata struct {
	SequenceNumber uint64    `json:"sequence_number"`
	Timestamp      time.Time `json:"timestamp"`
	EntryID        string    `json:"entry_id,omitempty"`
}

type Event interface {
	Type() EventType
	Metadata() EventMetadata
}

// EventToolStart marks the invocation of an agent tool.
type EventToolStart struct {
	EventMetadata
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input,omitempty"`
}

// EventToolEnd carries the output of a finished tool invocation. Output is
// the decoded JSON payload; tabular outputs are recognized downstream by the
// result processor.
type EventToolEnd struct {
	EventMetadata
	ToolName string `json:"tool_name"`
	Output   any    `json:"output,omitempty"`
}

// EventToken is an incremental text fragment of the agent's answer.
type EventToken struct {
	EventMetadata
	Text string `json:"text"`
}

// EventMissionStage reports a transition of the agent's mission stage.
type EventMissionStage struct {
	EventMetadata
	Stage             Stage    `json:"stage"`
	Confidence        *float64 `json:"confidence,omitempty"`
	OutputSummary     string   `json:"output_summary,omitempty"`
	ArtifactsProduced []string `json:"artifacts_produced,omitempty"`
}

// EventMissionComplete marks the turn as successfully finished.
type EventMissionComplete struct {
	EventMetadata
}

// EventMissionError marks the turn as failed. Message is surfaced verbatim.
type EventMissionError struct {
	EventMetadata
	Message string `json:"message"`
}

func (e *EventToolStart) Type() EventType       { return EventTypeToolStart }
func (e *EventToolEnd) Type() EventType         { return EventTypeToolEnd }
func (e *EventToken) Type() EventType           { return EventTypeToken }
func (e *EventMissionStage) Type() EventType    { return EventTypeMissionStage }
func (e *EventMissionComplete) Type() EventType { return EventTypeMissionComplete }
func (e *EventMissionError) Type() EventType    { return EventTypeMissionError }

func (e *EventToolStart) Metadata() EventMetadata       { return e.EventMetadata }
func (e *EventToolEnd) Metadata() EventMetadata         { return e.EventMetadata }
func (e *EventToken) Metadata() EventMetadata           { return e.EventMetadata }
func (e *EventMissionStage) Metadata() EventMetadata    { return e.EventMetadata }
func (e *EventMissionComplete) Metadata() EventMetadata { return e.EventMetadata }
func (e *EventMissionError) Metadata() EventMetadata    { return e.EventMetadata }

// IsTerminal reports whether the event ends the entry's streaming phase.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case *EventMissionComplete, *EventMissionError:
		return true
	}
	return false
}
