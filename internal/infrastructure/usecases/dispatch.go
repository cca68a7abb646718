// Package usecases orchestrates the store, the condition matcher, and the
// renderer into the operations the HTTP layer calls: dispatching an
// inbound request, and mutating the expectation list.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/logstream"
	"github.com/sophialabs/mimicrab/internal/domain/match"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/render"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/store"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// DispatchRequest is the transport-independent view of an inbound request
// the dispatcher needs to match and render a response.
type DispatchRequest struct {
	Method       string
	Path         string
	PathAndQuery string
	Accept       string
	Headers      map[string]string // canonical name -> first value
	RawHeaders   map[string][]string
	RawBody      []byte
	ParsedBody   any // nil when RawBody is empty or not valid JSON
	PathSegments []string
}

// DispatchUseCase matches an inbound request against the current
// expectation snapshot and renders the matched (or default 404) response.
type DispatchUseCase struct {
	store  *store.Store
	deps   render.Dependencies
	logger ports.Logger
}

// NewDispatchUseCase wires a DispatchUseCase.
func NewDispatchUseCase(s *store.Store, deps render.Dependencies, logger ports.Logger) *DispatchUseCase {
	return &DispatchUseCase{store: s, deps: deps, logger: logger}
}

// Execute matches req against the store's current snapshot in list order
// and renders the first match, or a 404 if none match.
func (u *DispatchUseCase) Execute(ctx context.Context, req DispatchRequest) (*render.Result, logstream.Entry) {
	entry := logstream.Entry{
		Timestamp: time.Now(),
		Method:    req.Method,
		Path:      req.Path,
		Body:      req.ParsedBody,
	}

	incoming := match.IncomingRequest{
		Method:     req.Method,
		Path:       req.Path,
		Headers:    req.Headers,
		Body:       req.RawBody,
		ParsedBody: req.ParsedBody,
	}

	for _, exp := range u.store.Snapshot() {
		ok, err := match.Evaluate(incoming, exp.Condition)
		if err != nil {
			u.logger.Error("condition evaluation failed", "expectation_id", exp.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		entry.Matched = true
		id := exp.ID
		entry.ExpectationID = &id

		result, err := render.Render(ctx, render.Request{
			Method:       req.Method,
			Path:         req.Path,
			PathAndQuery: req.PathAndQuery,
			Accept:       req.Accept,
			Headers:      req.Headers,
			RawHeaders:   req.RawHeaders,
			RawBody:      req.RawBody,
			ParsedBody:   req.ParsedBody,
			PathSegments: req.PathSegments,
		}, exp, u.deps)
		if err != nil {
			u.logger.Error("render failed", "expectation_id", exp.ID, "error", err)
			return errorResult(500, fmt.Sprintf("render error: %v", err)), entry
		}
		return result, entry
	}

	return noMatchResult(req), entry
}

func noMatchResult(req DispatchRequest) *render.Result {
	body, _ := json.Marshal(map[string]any{
		"error": "no matching expectation",
		"request": map[string]any{
			"method": req.Method,
			"path":   req.Path,
			"body":   req.ParsedBody,
		},
	})
	return &render.Result{
		Status:  404,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

func errorResult(status int, msg string) *render.Result {
	return &render.Result{
		Status:  status,
		Headers: map[string]string{"Content-Type": "text/plain"},
		Body:    []byte(msg),
	}
}
