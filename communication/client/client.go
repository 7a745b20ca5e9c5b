package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"equilibria/communication"
	"equilibria/game"
)

// ErrNotReady is returned while the server has no equilibrium to report.
var ErrNotReady = errors.New("no equilibrium available")

type Client struct {
	serverURL string
	http      *http.Client
}

func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		http:      &http.Client{},
	}
}

// SendSnapshot queues g on the server.
func (c *Client) SendSnapshot(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(communication.SnapshotOf(g))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/snapshots", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return decodeError(resp)
	}
	return nil
}

// Equilibrium fetches the server's current equilibrium.
func (c *Client) Equilibrium(ctx context.Context) (communication.EquilibriumView, error) {
	var view communication.EquilibriumView
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/equilibrium", nil)
	if err != nil {
		return view, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return view, fmt.Errorf("failed to fetch equilibrium: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return view, fmt.Errorf("%w: %v", ErrNotReady, decodeError(resp))
	}
	if resp.StatusCode != http.StatusOK {
		return view, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("failed to decode equilibrium: %w", err)
	}
	return view, nil
}

func decodeError(resp *http.Response) error {
	var body communication.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, body.Error)
}
