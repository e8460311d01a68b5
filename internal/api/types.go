package api

import "github.com/rickgao/sessionlink/internal/model"

// SessionsResponse from GET /api/sessions
type SessionsResponse struct {
	Sessions []model.Session `json:"sessions"`
}
