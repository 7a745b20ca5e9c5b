package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"equilibria/communication/client"
	"equilibria/dynamic"
	"equilibria/game"
	"equilibria/solver"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, s solver.Solver) (*client.Client, *httptest.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(dynamic.NewManager(s), 4)
	go srv.Track(ctx)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return client.NewClient(ts.URL), ts
}

func TestServer(t *testing.T) {
	t.Run("no equilibrium before the first snapshot", func(t *testing.T) {
		c, _ := startServer(t, solver.NewNash())

		_, err := c.Equilibrium(context.Background())

		require.ErrorIs(t, err, client.ErrNotReady)
	})

	t.Run("tracks posted snapshots", func(t *testing.T) {
		c, _ := startServer(t, solver.NewNash())
		ctx := context.Background()

		require.NoError(t, c.SendSnapshot(ctx, game.PrisonersDilemma()))

		require.Eventually(t, func() bool {
			_, err := c.Equilibrium(ctx)
			return err == nil
		}, time.Second, 10*time.Millisecond)
		view, err := c.Equilibrium(ctx)
		require.NoError(t, err)
		require.Equal(t, "nash", view.Kind)
		require.InDeltaSlice(t, []float64{1, 0}, view.Strategies["Player1"], 1e-9)
		require.Empty(t, view.LastError)
	})

	t.Run("failed updates are reported", func(t *testing.T) {
		c, _ := startServer(t, solver.NewBayesian())
		ctx := context.Background()

		require.NoError(t, c.SendSnapshot(ctx, game.PrisonersDilemma()))

		require.Eventually(t, func() bool {
			_, err := c.Equilibrium(ctx)
			return err != nil && strings.Contains(err.Error(), "missing belief")
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("rejects malformed snapshots", func(t *testing.T) {
		_, ts := startServer(t, solver.NewNash())

		resp, err := http.Post(ts.URL+"/snapshots", "application/json", bytes.NewBufferString(`{"players": [`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, err = http.Post(ts.URL+"/snapshots", "application/json",
			bytes.NewBufferString(`{"players": [{"id": "a", "strategies": ["x"]}], "shape": [2], "payoffs": [[1]]}`))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestNewServer(t *testing.T) {
	require.Panics(t, func() { NewServer(dynamic.NewManager(solver.NewNash()), -1) })
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(dynamic.NewManager(solver.NewNash()), 1)
	done := make(chan error, 1)

	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "Cancelling shuts the server down cleanly")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
