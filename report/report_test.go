package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orchestrator "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history"
	"github.com/getpup/migration-orchestrator/history/memory"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.New()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.Begin(ctx, "create_tables", "v000", base)
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "create_tables", "v000", base.Add(time.Second), 1000))

	_, err = store.Begin(ctx, "backfill", "v001", base.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, store.Fail(ctx, "backfill", "v001", "timeout\nstack trace here", base.Add(2*time.Minute), 60000))

	_, err = store.Begin(ctx, "add_index", "v002", base.Add(3*time.Minute))
	require.NoError(t, err)
	require.NoError(t, store.Skip(ctx, "add_index", "v002", base.Add(3*time.Minute)))

	return store
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestAll(t *testing.T) {
	r, err := New(Config{Store: seededStore(t)})
	require.NoError(t, err)

	records, err := r.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "create_tables", records[0].Name)
	assert.Equal(t, "backfill", records[1].Name)
	assert.Equal(t, "add_index", records[2].Name)
}

func TestByStatus(t *testing.T) {
	r, err := New(Config{Store: seededStore(t)})
	require.NoError(t, err)

	failed, err := r.ByStatus(context.Background(), orchestrator.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "backfill", failed[0].Name)

	running, err := r.ByStatus(context.Background(), orchestrator.StatusRunning)
	require.NoError(t, err)
	assert.Empty(t, running)
}

func TestRecent(t *testing.T) {
	r, err := New(Config{Store: seededStore(t)})
	require.NoError(t, err)

	records, err := r.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "add_index", records[0].Name, "newest first")
	assert.Equal(t, "backfill", records[1].Name)
}

func TestRecent_NonPositiveLimit(t *testing.T) {
	store := history.NewMockStore()
	store.ListRecentFunc = func(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error) {
		t.Fatal("store must not be queried for a non-positive limit")
		return nil, nil
	}

	r, err := New(Config{Store: store})
	require.NoError(t, err)

	records, err := r.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSummarize(t *testing.T) {
	r, err := New(Config{Store: seededStore(t)})
	require.NoError(t, err)

	summary, err := r.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[orchestrator.StatusCompleted])
	assert.Equal(t, 1, summary.ByStatus[orchestrator.StatusFailed])
	assert.Equal(t, 1, summary.ByStatus[orchestrator.StatusSkipped])
}

func TestSummarize_StoreError(t *testing.T) {
	store := history.NewMockStore()
	store.ListAllFunc = func(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
		return nil, errors.New("connection lost")
	}

	r, err := New(Config{Store: store})
	require.NoError(t, err)

	_, err = r.Summarize(context.Background())
	assert.ErrorContains(t, err, "connection lost")
}

func TestFormat(t *testing.T) {
	store := seededStore(t)
	records, err := store.ListAll(context.Background())
	require.NoError(t, err)

	out := Format(records)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header plus one line per record")
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, out, "create_tables")
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "1s")
	assert.Contains(t, out, "timeout")
	assert.NotContains(t, out, "stack trace here", "error detail is truncated to its first line")
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "no migration history\n", Format(nil))
}

func TestFormatSummary(t *testing.T) {
	out := FormatSummary(Summary{
		Total: 3,
		ByStatus: map[orchestrator.Status]int{
			orchestrator.StatusCompleted: 2,
			orchestrator.StatusFailed:    1,
		},
	})

	assert.Equal(t, "COMPLETED: 2\nFAILED: 1\ntotal: 3\n", out)
}
