package engine

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/go-go-golems/dbchat/pkg/events"
	"github.com/go-go-golems/dbchat/pkg/extract"
)

// NewEntry creates an empty entry for one conversation turn. Agent entries
// start out streaming; user entries are complete on creation.
func NewEntry(role Role) ConversationEntry {
	return ConversationEntry{
		ID:          uuid.NewString(),
		Role:        role,
		IsStreaming: role == RoleAgent,
		CreatedAt:   time.Now(),
	}
}

// NewUserEntry creates a finished user turn carrying the given text.
func NewUserEntry(text string) ConversationEntry {
	e := NewEntry(RoleUser)
	e.RawText = text
	e.DisplayText = text
	return e
}

// Reduce applies one event to an entry and returns the updated entry. The
// input entry is not mutated. Applying an event whose sequence number is
// already present is a no-op, as is applying anything to an entry that has
// stopped streaming, with one exception: a mission_error is always let
// through, so failure sticks even when it arrives after mission_complete or
// a cancel. Error events carry no text, so the frozen display state is
// unaffected.
func Reduce(entry ConversationEntry, ev events.Event) ConversationEntry {
	if ev == nil {
		return entry
	}
	if !entry.IsStreaming && ev.Type() != events.EventTypeMissionError {
		return entry
	}
	seq := ev.Metadata().SequenceNumber
	for _, existing := range entry.Events {
		if existing.Metadata().SequenceNumber == seq {
			return entry
		}
	}

	out := entry
	out.Events = append(append([]events.Event(nil), entry.Events...), ev)
	out = rederive(out)
	if events.IsTerminal(ev) {
		out.IsStreaming = false
	}
	return out
}

// ReduceAll folds a whole event list into the entry in order.
func ReduceAll(entry ConversationEntry, evs []events.Event) ConversationEntry {
	for _, ev := range evs {
		entry = Reduce(entry, ev)
	}
	return entry
}

// Cancel stops streaming without a terminal event (user-initiated stop). The
// accumulated state is kept as-is.
func Cancel(entry ConversationEntry) ConversationEntry {
	entry.IsStreaming = false
	return entry
}

// rederive recomputes every derived field from the full event list. Replaying
// from the full list keeps correlation and mission tracking re-entrant: no
// pair or stage resolution changes once established.
func rederive(entry ConversationEntry) ConversationEntry {
	ordered := sortedBySequence(entry.Events)

	var sb strings.Builder
	for _, ev := range ordered {
		if tok, ok := ev.(*events.EventToken); ok {
			sb.WriteString(tok.Text)
		}
	}
	entry.RawText = sb.String()

	structured, residual, ok := extract.Extract(entry.RawText)
	if ok {
		entry.Structured = extract.Merge(entry.Structured, structured)
		entry.DisplayText = residual
	} else {
		entry.DisplayText = entry.RawText
	}

	entry.ToolCalls = CorrelateToolCalls(ordered)
	entry.Mission = ComputeMissionState(ordered)
	entry.Tasks = collectTasks(entry.Mission)
	return entry
}

// collectTasks gathers the artifacts produced across all stages, in stage
// order, dropping duplicates.
func collectTasks(m MissionState) []string {
	var out []string
	seen := map[string]bool{}
	for _, st := range m.Stages {
		for _, a := range st.ArtifactsProduced {
			a = strings.TrimSpace(a)
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// LastTabularOutput returns the output of the most recent resolved tool call,
// for callers that want to hand it to the result processor. Later results
// supersede earlier ones within the same entry.
func (e ConversationEntry) LastTabularOutput() (any, bool) {
	for i := len(e.ToolCalls) - 1; i >= 0; i-- {
		if end := e.ToolCalls[i].End; end != nil && end.Output != nil {
			return end.Output, true
		}
	}
	return nil, false
}
