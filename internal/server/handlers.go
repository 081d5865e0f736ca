// Package server provides HTTP handlers and server setup for the redaction service.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"piigate/internal/batchdetect"
	"piigate/internal/core"
	"piigate/internal/metrics"
	"piigate/internal/record"
	"piigate/internal/redact"
	"piigate/internal/sessionstore"
	"piigate/internal/tracker"
)

// Handler holds the HTTP handlers
type Handler struct {
	engine   *redact.Engine
	batch    *batchdetect.Detector
	sessions sessionstore.Store
}

// NewHandler creates a new handler around a detector and session store.
func NewHandler(detector core.Detector, sessions sessionstore.Store) *Handler {
	return &Handler{
		engine:   redact.NewEngine(detector, redact.Config{}),
		batch:    batchdetect.New(detector),
		sessions: sessions,
	}
}

// redactRequest accepts exactly one of text, fields, or record.
type redactRequest struct {
	Text   string            `json:"text,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Record json.RawMessage   `json:"record,omitempty"`
}

type redactResponse struct {
	Text   string            `json:"text,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Record json.RawMessage   `json:"record,omitempty"`
	State  core.State        `json:"state"`
}

// Redact handles POST /v1/redact
func (h *Handler) Redact(c echo.Context) error {
	var req redactRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	inputs := 0
	if req.Text != "" {
		inputs++
	}
	if req.Fields != nil {
		inputs++
	}
	if req.Record != nil {
		inputs++
	}
	if inputs != 1 {
		return handleError(c, core.NewInvalidRequestError("exactly one of text, fields, or record is required", nil))
	}

	ctx := c.Request().Context()

	switch {
	case req.Text != "":
		redacted, state, err := h.engine.Redact(ctx, req.Text)
		if err != nil {
			metrics.DetectorFailures.Inc()
			return handleError(c, err)
		}
		observeRedaction(state)
		return c.JSON(http.StatusOK, redactResponse{Text: redacted, State: state})

	case req.Fields != nil:
		redacted, state, err := h.redactFields(c, req.Fields)
		if err != nil {
			return handleError(c, err)
		}
		observeRedaction(state)
		return c.JSON(http.StatusOK, redactResponse{Fields: redacted, State: state})

	default:
		rec, err := record.NewJSON(req.Record)
		if err != nil {
			return handleError(c, err)
		}
		fields, err := rec.Fields()
		if err != nil {
			return handleError(c, core.NewInvalidRequestError("invalid record: "+err.Error(), err))
		}
		redacted, state, err := h.redactFields(c, fields)
		if err != nil {
			return handleError(c, err)
		}
		if err := rec.Apply(redacted); err != nil {
			return handleError(c, core.NewInvalidRequestError("apply redacted fields: "+err.Error(), err))
		}
		observeRedaction(state)
		return c.JSON(http.StatusOK, redactResponse{Record: rec.Bytes(), State: state})
	}
}

// redactFields runs batch detection over named fields and rewrites each
// field with tokens assigned by a request-scoped tracker, so repeated
// values share one label across fields.
func (h *Handler) redactFields(c echo.Context, fields map[string]string) (map[string]string, core.State, error) {
	detected, err := h.batch.Detect(c.Request().Context(), fields)
	if err != nil {
		var batchErr *core.BatchError
		if errors.As(err, &batchErr) && !batchErr.SeparatorIssue {
			metrics.DetectorFailures.Inc()
		}
		return nil, core.State{}, err
	}

	names := make([]string, 0, len(detected))
	for name := range detected {
		names = append(names, name)
	}
	sort.Strings(names)

	trackerFields := make([]tracker.Field, 0, len(names))
	for _, name := range names {
		trackerFields = append(trackerFields, tracker.Field{
			Name:     name,
			Entities: redact.ResolveOverlaps(detected[name]),
		})
	}

	tokens := tracker.New().AssignTokens(trackerFields)

	out := make(map[string]string, len(fields))
	for name, text := range fields {
		out[name] = text
	}

	state := core.NewState()
	for _, f := range trackerFields {
		fieldTokens := tokens[f.Name]
		text := fields[f.Name]
		// Entities are sorted by start offset; rewrite back-to-front so
		// earlier offsets stay valid.
		for i := len(f.Entities) - 1; i >= 0; i-- {
			entity := f.Entities[i]
			tok := fieldTokens[i]
			state = state.WithToken(tok)
			text = text[:entity.Start] + tok.Label() + text[entity.End:]
		}
		out[f.Name] = text
	}

	return out, state, nil
}

type unredactRequest struct {
	Text  string     `json:"text"`
	State core.State `json:"state"`
	Mode  string     `json:"mode,omitempty"`
}

type unredactResponse struct {
	Text   string       `json:"text"`
	Issues []core.Issue `json:"issues"`
}

// Unredact handles POST /v1/unredact
func (h *Handler) Unredact(c echo.Context) error {
	var req unredactRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		return handleError(c, err)
	}

	restored, issues := h.engine.Unredact(req.Text, req.State, mode)
	observeUnredaction(issues)
	if issues == nil {
		issues = []core.Issue{}
	}
	return c.JSON(http.StatusOK, unredactResponse{Text: restored, Issues: issues})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func parseMode(raw string) (redact.Mode, error) {
	switch raw {
	case "", string(redact.ModeStrict):
		return redact.ModeStrict, nil
	case string(redact.ModeFuzzy):
		return redact.ModeFuzzy, nil
	default:
		return "", core.NewInvalidRequestError("unknown mode: "+raw, nil)
	}
}

func observeRedaction(state core.State) {
	metrics.RedactionsTotal.Inc()
	for _, tok := range state.Tokens() {
		metrics.EntitiesDetected.WithLabelValues(string(tok.Kind)).Inc()
	}
}

func observeUnredaction(issues []core.Issue) {
	metrics.UnredactionsTotal.Inc()
	for _, issue := range issues {
		metrics.UnredactIssues.WithLabelValues(string(issue.Type)).Inc()
	}
}

// handleError converts service errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var svcErr *core.ServiceError
	if errors.As(err, &svcErr) {
		return c.JSON(svcErr.HTTPStatusCode(), svcErr.ToJSON())
	}

	var batchErr *core.BatchError
	if errors.As(err, &batchErr) {
		status := http.StatusBadGateway
		errType := "detector_error"
		if batchErr.SeparatorIssue {
			status = http.StatusBadRequest
			errType = "invalid_request_error"
		}
		fields := batchErr.FailedFields
		if fields == nil {
			fields = []string{}
		}
		return c.JSON(status, map[string]interface{}{
			"error": map[string]interface{}{
				"type":          errType,
				"message":       batchErr.Message,
				"failed_fields": fields,
			},
		})
	}

	// Fallback for unexpected errors
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
