// Package render turns a matched Expectation into an HTTP response: script
// execution, upstream proxying, or a synthesized body, in that priority
// order.
package render

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/domain/match"
	"github.com/sophialabs/mimicrab/internal/domain/templating"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/bodytemplate"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/script"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// Request is the transport-independent view of the inbound HTTP request
// the renderer needs.
type Request struct {
	Method       string
	Path         string
	PathAndQuery string
	Accept       string
	Headers      map[string]string // canonical name -> first value
	RawHeaders   map[string][]string
	RawBody      []byte
	ParsedBody   any
	PathSegments []string
}

// Result is the HTTP response the renderer produced.
type Result struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Dependencies collects the collaborators the renderer may need depending
// on which branch of the decision tree a given Expectation takes.
type Dependencies struct {
	Script       script.Evaluator
	BodyTemplate *bodytemplate.Renderer
	Proxy        *ProxyDialer
	Clock        ports.Clock
	Logger       ports.Logger
}

// Render evaluates exp.Response against req: script takes priority over
// proxy, which takes priority over a synthesized response.
func Render(ctx context.Context, req Request, exp expectation.Expectation, deps Dependencies) (*Result, error) {
	mock := exp.Response

	if mock.Script != "" {
		return renderScript(ctx, req, mock.Script, deps)
	}

	if mock.Proxy != nil {
		return renderProxy(ctx, req, *mock.Proxy, deps)
	}

	return renderSynthesized(ctx, req, mock, exp.Condition.Path, deps)
}

func renderScript(ctx context.Context, req Request, source string, deps Dependencies) (*Result, error) {
	out, err := deps.Script.Evaluate(ctx, source, script.Input{
		Method:  req.Method,
		Path:    req.Path,
		Headers: req.Headers,
		Body:    req.ParsedBody,
	})
	if err != nil {
		return &Result{
			Status:  500,
			Headers: map[string]string{"Content-Type": "text/plain"},
			Body:    []byte(err.Error()),
		}, nil
	}

	status := clampStatus(out.Status, 200)
	headers := out.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return &Result{Status: status, Headers: headers, Body: out.Body}, nil
}

func renderSynthesized(ctx context.Context, req Request, mock expectation.MockResponse, pattern string, deps Dependencies) (*Result, error) {
	cfg := mock.Response

	if cfg.LatencyMS > 0 {
		if err := deps.Clock.SleepContext(ctx, time.Duration(cfg.LatencyMS)*time.Millisecond); err != nil {
			return nil, fmt.Errorf("latency sleep interrupted: %w", err)
		}
	}

	if mock.Jitter != nil && rand.Float64() < mock.Jitter.Probability {
		if mock.Jitter.LatencyMS > 0 {
			if err := deps.Clock.SleepContext(ctx, time.Duration(mock.Jitter.LatencyMS)*time.Millisecond); err != nil {
				return nil, fmt.Errorf("jitter latency sleep interrupted: %w", err)
			}
		}
		return renderResponseConfig(req, mock.Jitter.ResponseConfig, 500, pattern, deps)
	}

	return renderResponseConfig(req, cfg, 200, pattern, deps)
}

// clampStatus enforces spec §8's status-code invariant: any status outside
// [100, 599], including the zero value, falls back to fallback (200 for a
// synthesized or scripted response, 500 for the jitter response).
func clampStatus(status, fallback int) int {
	if status < 100 || status > 599 {
		return fallback
	}
	return status
}

func renderResponseConfig(req Request, cfg expectation.ResponseConfig, defaultStatus int, pattern string, deps Dependencies) (*Result, error) {
	status := clampStatus(cfg.StatusCode, defaultStatus)

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	bodyBytes, contentType, err := renderBody(req, cfg, pattern, deps)
	if err != nil {
		return nil, err
	}

	if _, set := headerLookup(headers, "Content-Type"); !set && contentType != "" {
		headers["Content-Type"] = contentType
	}

	return &Result{Status: status, Headers: headers, Body: bodyBytes}, nil
}

func renderBody(req Request, cfg expectation.ResponseConfig, pattern string, deps Dependencies) (body []byte, contentType string, err error) {
	if cfg.TemplateEngine == "pongo2" {
		source, ok := cfg.Body.(string)
		if !ok {
			return nil, "", fmt.Errorf("pongo2 template_engine requires a string body")
		}
		rendered, err := deps.BodyTemplate.Render(source, bodytemplate.Context{
			Method:      req.Method,
			Path:        req.Path,
			Headers:     req.Headers,
			PathParams:  match.PathParams(pattern, req.PathSegments),
			QueryParams: queryParams(req.PathAndQuery),
			Body:        req.ParsedBody,
			Now:         deps.Clock.Now(),
		})
		if err != nil {
			return nil, "", err
		}
		if cfg.BodyType == "text" {
			return rendered, "text/plain", nil
		}
		return rendered, "application/json", nil
	}

	tctx := templating.Context{PathSegments: req.PathSegments, Body: req.ParsedBody}
	rendered := templating.RenderValue(cfg.Body, tctx)

	if cfg.BodyType == "text" {
		text, err := templating.Unwrap(rendered)
		if err != nil {
			return nil, "", err
		}
		return text, "text/plain", nil
	}

	return renderJSONOrBSON(rendered, req.Accept)
}

func headerLookup(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// queryParams extracts the query string from a "path?query" combination
// (Request.PathAndQuery) into a flat first-value-wins map, for the pongo2
// template context's queryParams (SPEC_FULL.md §C.2).
func queryParams(pathAndQuery string) map[string]string {
	idx := strings.IndexByte(pathAndQuery, '?')
	if idx < 0 {
		return map[string]string{}
	}
	values, err := url.ParseQuery(pathAndQuery[idx+1:])
	if err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
