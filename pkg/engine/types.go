// Package engine is the pure conversation reducer: it folds an ordered event
// stream into a stable ConversationEntry, pairing tool calls, tracking mission
// stages, and running structured-content extraction over the accumulated text.
// Every operation is a synchronous transformation of its inputs; no mutable
// state is retained across calls beyond the event list the caller owns.
package engine

import (
	"time"

	"github.com/go-go-golems/dbchat/pkg/events"
	"github.com/go-go-golems/dbchat/pkg/extract"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ToolCallPair pairs a tool_start with its eventual tool_end. Either side may
// be nil: a nil End is a call still in progress, a nil Start is a result whose
// start event was lost in transport.
type ToolCallPair struct {
	Start *events.EventToolStart
	End   *events.EventToolEnd
}

func (p ToolCallPair) Pending() bool { return p.Start != nil && p.End == nil }

// ToolName works for either side of the pair.
func (p ToolCallPair) ToolName() string {
	if p.Start != nil {
		return p.Start.ToolName
	}
	if p.End != nil {
		return p.End.ToolName
	}
	return ""
}

// MissionState is the derived view over all mission_stage events of an entry.
// Stages holds the full history in sequence order, including stages that
// arrived after a terminal event; CurrentStage only reflects pre-terminal
// transitions.
type MissionState struct {
	Stages       []*events.EventMissionStage
	CurrentStage events.Stage
	IsComplete   bool
	IsFailed     bool
	ErrorMessage string
}

func (m MissionState) Terminal() bool { return m.IsComplete || m.IsFailed }

// ConversationEntry is one accumulated conversation turn. It is owned by the
// reducer: apply events via Reduce, never mutate it directly. Once IsStreaming
// drops to false the entry no longer changes.
type ConversationEntry struct {
	ID          string
	Role        Role
	RawText     string
	DisplayText string
	Events      []events.Event
	Structured  extract.StructuredContent
	ToolCalls   []ToolCallPair
	Mission     MissionState
	Tasks       []string
	IsStreaming bool
	CreatedAt   time.Time
}
