// Package report produces operational views of migration history:
// full listings, status filters, recent activity, and a plain-text
// rendering suitable for CLI output and log attachments.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	orchestrator "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history"
)

// Config holds configuration for the Reporter.
type Config struct {
	// Store is the history store to report on (required).
	Store history.Store

	// Logger is for observability (optional, defaults to no-op).
	Logger *zap.Logger
}

// Reporter reads migration history and renders it for operators.
type Reporter struct {
	store  history.Store
	logger *zap.Logger
}

// New creates a new Reporter with the given configuration.
func New(cfg Config) (*Reporter, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Reporter{
		store:  cfg.Store,
		logger: cfg.Logger,
	}, nil
}

// All returns every history record ordered by version then name.
func (r *Reporter) All(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	return records, nil
}

// ByStatus returns the records currently in the given status.
func (r *Reporter) ByStatus(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error) {
	records, err := r.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list history by status %s: %w", status, err)
	}

	return records, nil
}

// Recent returns the limit most recently executed records, newest
// first. A non-positive limit yields an empty slice.
func (r *Reporter) Recent(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error) {
	if limit <= 0 {
		return []orchestrator.HistoryRecord{}, nil
	}

	records, err := r.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent history: %w", err)
	}

	return records, nil
}

// Summary is an aggregate count of history records per status.
type Summary struct {
	Total    int
	ByStatus map[orchestrator.Status]int
}

// Summarize counts all history records by status.
func (r *Reporter) Summarize(ctx context.Context) (Summary, error) {
	records, err := r.store.ListAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list history: %w", err)
	}

	summary := Summary{
		Total:    len(records),
		ByStatus: make(map[orchestrator.Status]int),
	}
	for _, rec := range records {
		summary.ByStatus[rec.Status]++
	}

	return summary, nil
}

// Format renders records as an aligned text table. An empty record set
// renders a single explanatory line.
func Format(records []orchestrator.HistoryRecord) string {
	if len(records) == 0 {
		return "no migration history\n"
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tEXECUTED\tDURATION\tERROR")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Name,
			rec.Version,
			rec.Status,
			rec.ExecutedAt.Format(time.RFC3339),
			formatDuration(rec),
			firstLine(rec.ErrorMessage),
		)
	}
	w.Flush()

	return b.String()
}

// FormatSummary renders a Summary as one line per status in a fixed
// order, followed by the total.
func FormatSummary(summary Summary) string {
	statuses := make([]orchestrator.Status, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	var b strings.Builder
	for _, status := range statuses {
		fmt.Fprintf(&b, "%s: %d\n", status, summary.ByStatus[status])
	}
	fmt.Fprintf(&b, "total: %d\n", summary.Total)

	return b.String()
}

func formatDuration(rec orchestrator.HistoryRecord) string {
	if rec.CompletedAt == nil {
		return "-"
	}

	return (time.Duration(rec.DurationMs) * time.Millisecond).String()
}

// firstLine truncates multi-line error detail (stack traces) for
// table display.
func firstLine(s string) string {
	if s == "" {
		return "-"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}
