package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"piigate/internal/core"
	"piigate/internal/metrics"
	"piigate/internal/session"
	"piigate/internal/sessionstore"
)

type sessionSummary struct {
	ID         string `json:"id"`
	CreatedAt  int64  `json:"created_at"`
	TokenCount int    `json:"token_count"`
}

type sessionDetail struct {
	sessionSummary
	State core.State `json:"state"`
}

func summarize(snap *sessionstore.Snapshot) sessionSummary {
	return sessionSummary{
		ID:         snap.ID,
		CreatedAt:  snap.CreatedAt,
		TokenCount: snap.State.Len(),
	}
}

// CreateSession handles POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	snap := &sessionstore.Snapshot{
		ID:        uuid.New().String(),
		State:     core.NewState(),
		CreatedAt: time.Now().Unix(),
	}
	if err := h.sessions.Create(c.Request().Context(), snap); err != nil {
		return handleError(c, err)
	}
	metrics.SessionsCreated.Inc()
	return c.JSON(http.StatusCreated, summarize(snap))
}

// ListSessions handles GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return handleError(c, core.NewInvalidRequestError("invalid limit: "+raw, err))
		}
		limit = parsed
	}

	snaps, err := h.sessions.List(c.Request().Context(), limit, c.QueryParam("after"))
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return handleError(c, core.NewNotFoundError("cursor session not found"))
		}
		return handleError(c, err)
	}

	items := make([]sessionSummary, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, summarize(snap))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": items})
}

// GetSession handles GET /v1/sessions/:id
func (h *Handler) GetSession(c echo.Context) error {
	snap, err := h.loadSession(c)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, sessionDetail{
		sessionSummary: summarize(snap),
		State:          snap.State,
	})
}

// DeleteSession handles DELETE /v1/sessions/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return handleError(c, core.NewNotFoundError("session not found"))
		}
		return handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type sessionRedactRequest struct {
	Text string `json:"text"`
}

type sessionRedactResponse struct {
	Text       string `json:"text"`
	SessionID  string `json:"session_id"`
	TokenCount int    `json:"token_count"`
}

// SessionRedact handles POST /v1/sessions/:id/redact
func (h *Handler) SessionRedact(c echo.Context) error {
	var req sessionRedactRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	snap, err := h.loadSession(c)
	if err != nil {
		return handleError(c, err)
	}

	prior := snap.State
	sess := session.NewWithState(h.engine, snap.State)
	redacted, err := sess.Redact(c.Request().Context(), req.Text)
	if err != nil {
		metrics.DetectorFailures.Inc()
		return handleError(c, err)
	}

	snap.State = sess.State()
	if err := h.sessions.Update(c.Request().Context(), snap); err != nil {
		return handleError(c, err)
	}

	metrics.RedactionsTotal.Inc()
	for label, tok := range snap.State.Tokens() {
		if _, seen := prior.Lookup(label); seen {
			continue
		}
		metrics.EntitiesDetected.WithLabelValues(string(tok.Kind)).Inc()
	}
	return c.JSON(http.StatusOK, sessionRedactResponse{
		Text:       redacted,
		SessionID:  snap.ID,
		TokenCount: snap.State.Len(),
	})
}

type sessionUnredactRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// SessionUnredact handles POST /v1/sessions/:id/unredact
func (h *Handler) SessionUnredact(c echo.Context) error {
	var req sessionUnredactRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		return handleError(c, err)
	}

	snap, err := h.loadSession(c)
	if err != nil {
		return handleError(c, err)
	}

	restored, issues := h.engine.Unredact(req.Text, snap.State, mode)
	observeUnredaction(issues)
	if issues == nil {
		issues = []core.Issue{}
	}
	return c.JSON(http.StatusOK, unredactResponse{Text: restored, Issues: issues})
}

func (h *Handler) loadSession(c echo.Context) (*sessionstore.Snapshot, error) {
	id := c.Param("id")
	if id == "" {
		return nil, core.NewInvalidRequestError("session id is required", nil)
	}
	snap, err := h.sessions.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return nil, core.NewNotFoundError("session not found: " + id)
		}
		return nil, err
	}
	return snap, nil
}
