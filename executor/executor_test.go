package executor

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// fakeClock returns a Now func that advances by step on every call.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func defWith(action orchestrator.Action) orchestrator.Definition {
	return orchestrator.Definition{
		Name:    "create_tables",
		Version: "v000",
		Phase:   1,
		Action:  action,
	}
}

func TestRun_Success(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := New(Config{Now: fakeClock(start, 50*time.Millisecond)})

	applied := false
	res := e.Run(context.Background(), defWith(orchestrator.FuncAction{
		ApplyFunc: func(ctx context.Context, db *sql.DB) error {
			applied = true
			return nil
		},
	}), nil)

	assert.True(t, applied)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyApplied)
	assert.NoError(t, res.Err)
	assert.Equal(t, start, res.StartedAt)
	assert.Equal(t, 50*time.Millisecond, res.Duration)
	assert.Equal(t, int64(50), res.DurationMs())
}

func TestRun_ApplyErrorCaptured(t *testing.T) {
	e := New(Config{})
	bang := errors.New("relation already exists")

	res := e.Run(context.Background(), defWith(orchestrator.FuncAction{
		ApplyFunc: func(ctx context.Context, db *sql.DB) error {
			return bang
		},
	}), nil)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, bang)
	assert.Equal(t, "relation already exists", res.ErrorDetail)
}

func TestRun_ProbeShortCircuitsApply(t *testing.T) {
	e := New(Config{})

	applyCalled := false
	res := e.Run(context.Background(), defWith(orchestrator.FuncAction{
		ProbeFunc: func(ctx context.Context, db *sql.DB) (bool, error) {
			return true, nil
		},
		ApplyFunc: func(ctx context.Context, db *sql.DB) error {
			applyCalled = true
			return nil
		},
	}), nil)

	assert.False(t, applyCalled, "apply must not run when probe reports applied")
	assert.True(t, res.AlreadyApplied)
	assert.False(t, res.Success)
	assert.NoError(t, res.Err)
}

func TestRun_ProbeErrorIsFailure(t *testing.T) {
	e := New(Config{})

	res := e.Run(context.Background(), defWith(orchestrator.FuncAction{
		ProbeFunc: func(ctx context.Context, db *sql.DB) (bool, error) {
			return false, errors.New("probe query timeout")
		},
	}), nil)

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.Contains(t, res.ErrorDetail, "probe query timeout")
}

func TestRun_PanicRecovered(t *testing.T) {
	e := New(Config{})

	var res Result
	require.NotPanics(t, func() {
		res = e.Run(context.Background(), defWith(orchestrator.FuncAction{
			ApplyFunc: func(ctx context.Context, db *sql.DB) error {
				panic("nil map write")
			},
		}), nil)
	})

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "panicked")
	assert.Contains(t, res.ErrorDetail, "nil map write")
	assert.Contains(t, res.ErrorDetail, "goroutine", "detail should carry the stack trace")
}

func TestRun_NilAction(t *testing.T) {
	e := New(Config{})

	res := e.Run(context.Background(), orchestrator.Definition{Name: "empty", Version: "v000"}, nil)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, orchestrator.ErrNilAction)
}

func TestRun_ContextPassedToAction(t *testing.T) {
	e := New(Config{})

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	var seen any
	e.Run(ctx, defWith(orchestrator.FuncAction{
		ApplyFunc: func(ctx context.Context, db *sql.DB) error {
			seen = ctx.Value(key{})
			return nil
		},
	}), nil)

	assert.Equal(t, "marker", seen)
}
