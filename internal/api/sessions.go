package api

import (
	"context"
	"net/url"

	"github.com/rickgao/sessionlink/internal/model"
)

// ListSessions returns sessions, optionally filtered by status.
func (c *Client) ListSessions(ctx context.Context, status string) ([]model.Session, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}

	var resp SessionsResponse
	if err := c.get(ctx, "/api/sessions", query, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// WaitingSessionIDs returns the ids of every session currently waiting for
// input. Entries the server returns with another status are skipped.
func (c *Client) WaitingSessionIDs(ctx context.Context) ([]string, error) {
	sessions, err := c.ListSessions(ctx, model.StatusWaiting)
	if err != nil {
		return nil, err
	}
	return model.WaitingIDs(sessions), nil
}
