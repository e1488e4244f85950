package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesMetrics(t *testing.T) {
	// Grab a free port so tests can run in parallel environments.
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	// Vectors only appear in the exposition once they have a child.
	RunsTotal.WithLabelValues("COMPLETED").Inc()

	s := NewServer(addr)
	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	// The server starts asynchronously; poll briefly.
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "migration_orchestrator_runs_total")
}

func TestServer_ErrReportsBindFailure(t *testing.T) {
	s := NewServer("256.256.256.256:99999")
	s.Start()

	var err error
	for i := 0; i < 50; i++ {
		if err = s.Err(); err != nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Error(t, err)
}
