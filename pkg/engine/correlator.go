package engine

import (
	"sort"

	"github.com/go-go-golems/dbchat/pkg/events"
)

// CorrelateToolCalls derives tool-call pairs from the full ordered event list
// of an entry. Matching is FIFO per tool name: a tool_end resolves the oldest
// pending tool_start with the same name. A tool_end with no pending start is
// kept as a pair with a nil Start; starts never resolved are kept as pending
// pairs with a nil End.
//
// The function always replays from the full list, so re-running it on a longer
// stream reproduces the same pairing for every previously resolved pair.
// Duplicate sequence numbers are skipped.
func CorrelateToolCalls(evs []events.Event) []ToolCallPair {
	ordered := sortedBySequence(evs)

	var pairs []ToolCallPair
	pending := map[string][]int{}
	for _, ev := range ordered {
		switch e := ev.(type) {
		case *events.EventToolStart:
			pairs = append(pairs, ToolCallPair{Start: e})
			pending[e.ToolName] = append(pending[e.ToolName], len(pairs)-1)
		case *events.EventToolEnd:
			queue := pending[e.ToolName]
			if len(queue) == 0 {
				pairs = append(pairs, ToolCallPair{End: e})
				continue
			}
			pairs[queue[0]].End = e
			pending[e.ToolName] = queue[1:]
		}
	}
	return pairs
}

// sortedBySequence returns a copy of evs in sequence-number order with
// duplicate sequence numbers removed (first occurrence wins). The input is
// never mutated.
func sortedBySequence(evs []events.Event) []events.Event {
	seen := map[uint64]bool{}
	out := make([]events.Event, 0, len(evs))
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		seq := ev.Metadata().SequenceNumber
		if seen[seq] {
			continue
		}
		seen[seq] = true
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metadata().SequenceNumber < out[j].Metadata().SequenceNumber
	})
	return out
}
