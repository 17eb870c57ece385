package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/dbchat/pkg/events"
)

func meta(seq uint64) events.EventMetadata {
	return events.EventMetadata{
		SequenceNumber: seq,
		Timestamp:      time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
	}
}

func toolStart(seq uint64, name string) *events.EventToolStart {
	return &events.EventToolStart{EventMetadata: meta(seq), ToolName: name}
}

func toolEnd(seq uint64, name string, output any) *events.EventToolEnd {
	return &events.EventToolEnd{EventMetadata: meta(seq), ToolName: name, Output: output}
}

func TestCorrelateResolvedPair(t *testing.T) {
	evs := []events.Event{
		toolStart(1, "sql_execute"),
		toolEnd(2, "sql_execute", map[string]any{
			"results": []any{
				map[string]any{"id": float64(1), "name": "A"},
				map[string]any{"id": float64(2), "name": "B"},
			},
		}),
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 1)
	require.NotNil(t, pairs[0].Start)
	require.NotNil(t, pairs[0].End)
	require.False(t, pairs[0].Pending())
	require.Equal(t, "sql_execute", pairs[0].ToolName())
}

func TestCorrelateFIFOSameName(t *testing.T) {
	evs := []events.Event{
		toolStart(1, "fetch"),
		toolStart(2, "fetch"),
		toolEnd(3, "fetch", "first"),
		toolEnd(4, "fetch", "second"),
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 2)
	require.Equal(t, uint64(1), pairs[0].Start.SequenceNumber)
	require.Equal(t, "first", pairs[0].End.Output)
	require.Equal(t, uint64(2), pairs[1].Start.SequenceNumber)
	require.Equal(t, "second", pairs[1].End.Output)
}

func TestCorrelateUnmatchedEnd(t *testing.T) {
	evs := []events.Event{
		toolEnd(1, "sql_execute", "orphan result"),
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 1)
	require.Nil(t, pairs[0].Start)
	require.NotNil(t, pairs[0].End)
	require.False(t, pairs[0].Pending())
}

func TestCorrelatePendingStart(t *testing.T) {
	evs := []events.Event{
		toolStart(1, "sql_execute"),
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 1)
	require.True(t, pairs[0].Pending())
}

func TestCorrelatePrefixConsistency(t *testing.T) {
	full := []events.Event{
		toolStart(1, "a"),
		toolStart(2, "b"),
		toolEnd(3, "a", nil),
		toolStart(4, "a"),
		toolEnd(5, "b", nil),
		toolEnd(6, "a", nil),
	}

	for cut := 1; cut <= len(full); cut++ {
		prefixPairs := CorrelateToolCalls(full[:cut])
		fullPairs := CorrelateToolCalls(full)
		for i, p := range prefixPairs {
			if p.End == nil {
				continue
			}
			// A resolved pair must keep its resolution in the full stream.
			require.Equal(t, p.Start == nil, fullPairs[i].Start == nil)
			if p.Start != nil {
				require.Equal(t, p.Start.SequenceNumber, fullPairs[i].Start.SequenceNumber)
			}
			require.Equal(t, p.End.SequenceNumber, fullPairs[i].End.SequenceNumber)
		}
	}
}

func TestCorrelateDuplicateEnd(t *testing.T) {
	end := toolEnd(2, "sql_execute", nil)
	evs := []events.Event{
		toolStart(1, "sql_execute"),
		end,
		end,
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 1)
	require.NotNil(t, pairs[0].End)
}

func TestCorrelateOutOfOrderArrival(t *testing.T) {
	// The transport delivered the end before the start; sequence numbers still
	// pair them up.
	evs := []events.Event{
		toolEnd(2, "sql_execute", nil),
		toolStart(1, "sql_execute"),
	}

	pairs := CorrelateToolCalls(evs)
	require.Len(t, pairs, 1)
	require.NotNil(t, pairs[0].Start)
	require.NotNil(t, pairs[0].End)
}
