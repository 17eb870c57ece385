package cmds

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/dbchat/pkg/config"
	"github.com/go-go-golems/dbchat/pkg/persistence/historystore"
	"github.com/go-go-golems/dbchat/pkg/search"
)

// NewSearchCommand runs a filtered, ranked query over a persisted history
// snapshot.
func NewSearchCommand() *cobra.Command {
	var (
		storePath  string
		configPath string
		query      string
		dateRange  string
		entryType  string
		fromStr    string
		toStr      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search persisted conversation history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storePath == "" {
				return errors.New("search: --store is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			dsn, err := historystore.SQLiteEntryDSNForFile(storePath)
			if err != nil {
				return err
			}
			store, err := historystore.NewSQLiteEntryStore(dsn)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.ListEntries(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			entries := historystore.EntriesFromRecords(records)

			filters := search.Filters{
				QueryText: query,
				DateRange: search.DateRange(dateRange),
				EntryType: search.EntryType(entryType),
			}
			if fromStr != "" {
				t, err := time.Parse(time.RFC3339, fromStr)
				if err != nil {
					return errors.Wrap(err, "search: parse --from")
				}
				filters.CustomStart = t
				filters.DateRange = search.DateRangeCustom
			}
			if toStr != "" {
				t, err := time.Parse(time.RFC3339, toStr)
				if err != nil {
					return errors.Wrap(err, "search: parse --to")
				}
				filters.CustomEnd = t
				filters.DateRange = search.DateRangeCustom
			}

			matches := search.Search(entries, filters, cfg.Weights())
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matches")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s  %-5s  %s\n",
					m.Score, m.Entry.ID, m.Entry.Role, snippet(m.Entry.DisplayText, query))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&storePath, "store", "", "sqlite history database to search")
	cmd.Flags().StringVar(&configPath, "config", "", "config file with search weights")
	cmd.Flags().StringVar(&query, "query", "", "free-text query")
	cmd.Flags().StringVar(&dateRange, "range", "all", "date range (all, today, week, month, custom)")
	cmd.Flags().StringVar(&entryType, "type", "all", "entry type (all, user, agent, has_sql, has_tasks)")
	cmd.Flags().StringVar(&fromStr, "from", "", "custom range start (RFC3339)")
	cmd.Flags().StringVar(&toStr, "to", "", "custom range end (RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum entries to load from the store")
	return cmd
}

// snippet renders the first line of text with query matches bracketed.
func snippet(text, query string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 120 {
		text = text[:120]
	}
	if query == "" {
		return text
	}
	var sb strings.Builder
	for _, span := range search.HighlightSpans(text, query) {
		if span.Match {
			sb.WriteString("[")
			sb.WriteString(span.Text)
			sb.WriteString("]")
			continue
		}
		sb.WriteString(span.Text)
	}
	return sb.String()
}
