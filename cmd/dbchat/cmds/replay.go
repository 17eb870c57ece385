package cmds

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/dbchat/pkg/engine"
	"github.com/go-go-golems/dbchat/pkg/events"
	"github.com/go-go-golems/dbchat/pkg/feed"
	"github.com/go-go-golems/dbchat/pkg/persistence/historystore"
	"github.com/go-go-golems/dbchat/pkg/results"
)

type replaySummary struct {
	EntryID     string          `json:"entry_id"`
	Role        string          `json:"role"`
	DisplayText string          `json:"display_text"`
	Structured  any             `json:"structured,omitempty"`
	Stage       string          `json:"current_stage,omitempty"`
	IsComplete  bool            `json:"is_complete"`
	IsFailed    bool            `json:"is_failed"`
	Error       string          `json:"error,omitempty"`
	ToolCalls   []toolCallEntry `json:"tool_calls,omitempty"`
	Table       *tableSummary   `json:"table,omitempty"`
}

type toolCallEntry struct {
	Name    string `json:"name"`
	Pending bool   `json:"pending"`
}

type tableSummary struct {
	Columns  []string `json:"columns"`
	RowCount int      `json:"row_count"`
}

// NewReplayCommand reduces a recorded event log (one JSON envelope per line)
// back into conversation state, pumping the events through the same feed the
// live client uses.
func NewReplayCommand() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "replay <events.jsonl>",
		Short: "Reduce a recorded event log into conversation state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := readEventLog(args[0])
			if err != nil {
				return err
			}
			entry, err := replayThroughFeed(cmd.Context(), evs)
			if err != nil {
				return err
			}
			if storePath != "" {
				if err := persistEntry(cmd.Context(), storePath, entry); err != nil {
					return err
				}
			}
			return printSummary(cmd, entry)
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "sqlite history database to persist the reduced entry to")
	return cmd
}

func readEventLog(path string) ([]events.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "replay: open event log")
	}
	defer func() { _ = f.Close() }()

	var evs []events.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := events.NewEventFromJSON([]byte(line))
		if err != nil {
			log.Warn().Err(err).Int("line", lineNo).Msg("replay: skipping undecodable event")
			continue
		}
		evs = append(evs, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "replay: read event log")
	}
	if len(evs) == 0 {
		return nil, errors.New("replay: event log contains no events")
	}
	return evs, nil
}

func replayThroughFeed(ctx context.Context, evs []events.Event) (engine.ConversationEntry, error) {
	entry := engine.NewEntry(engine.RoleAgent)

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubsub.Close() }()

	var mu sync.Mutex
	done := make(chan struct{})
	applied := 0
	coord := feed.NewCoordinator(entry.ID, pubsub, func(ev events.Event) {
		mu.Lock()
		entry = engine.Reduce(entry, ev)
		applied++
		if applied == len(evs) {
			close(done)
		}
		mu.Unlock()
	})
	if err := coord.Start(ctx); err != nil {
		return entry, errors.Wrap(err, "replay: start feed")
	}
	defer coord.Stop()

	if err := feed.PublishEvents(pubsub, entry.ID, evs); err != nil {
		return entry, errors.Wrap(err, "replay: publish events")
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		return entry, errors.New("replay: timed out waiting for events")
	case <-ctx.Done():
		return entry, ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return entry, nil
}

func persistEntry(ctx context.Context, storePath string, entry engine.ConversationEntry) error {
	dsn, err := historystore.SQLiteEntryDSNForFile(storePath)
	if err != nil {
		return err
	}
	store, err := historystore.NewSQLiteEntryStore(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	record, err := historystore.RecordFromEntry(entry)
	if err != nil {
		return err
	}
	return store.UpsertEntry(ctx, record)
}

func printSummary(cmd *cobra.Command, entry engine.ConversationEntry) error {
	summary := replaySummary{
		EntryID:     entry.ID,
		Role:        string(entry.Role),
		DisplayText: entry.DisplayText,
		Stage:       string(entry.Mission.CurrentStage),
		IsComplete:  entry.Mission.IsComplete,
		IsFailed:    entry.Mission.IsFailed,
		Error:       entry.Mission.ErrorMessage,
	}
	if !entry.Structured.IsEmpty() {
		summary.Structured = entry.Structured
	}
	for _, pair := range entry.ToolCalls {
		summary.ToolCalls = append(summary.ToolCalls, toolCallEntry{
			Name:    pair.ToolName(),
			Pending: pair.Pending(),
		})
	}
	if output, ok := entry.LastTabularOutput(); ok {
		if table, ok := results.Normalize(output); ok {
			summary.Table = &tableSummary{Columns: table.Columns, RowCount: table.RowCount}
		}
	}

	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "replay: marshal summary")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
