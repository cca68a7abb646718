package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var _ Evaluator = (*ExprEvaluator)(nil)

// ErrMalformedResult is returned when a script's result isn't shaped like
// the documented {status, headers, body} table.
var ErrMalformedResult = errors.New("Script must return a table")

// ExprEvaluator runs scripts written in the Expr expression language
// (https://expr-lang.org), the Go-idiomatic substitute for an embedded
// scripting VM: the program evaluates to a map with status/headers/body
// keys, mirroring the documented Lua contract.
type ExprEvaluator struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewExprEvaluator returns a ready-to-use ExprEvaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) compile(source string) (*vm.Program, error) {
	e.mu.Lock()
	if p, ok := e.cache[source]; ok {
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	program, err := expr.Compile(source, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}

	e.mu.Lock()
	e.cache[source] = program
	e.mu.Unlock()
	return program, nil
}

// Evaluate compiles (or reuses a cached compilation of) source and runs it
// with a "request" variable exposing method/path/headers/body.
func (e *ExprEvaluator) Evaluate(_ context.Context, source string, in Input) (Output, error) {
	program, err := e.compile(source)
	if err != nil {
		return Output{}, err
	}

	env := map[string]any{
		"request": map[string]any{
			"method":  in.Method,
			"path":    in.Path,
			"headers": headersToAny(in.Headers),
			"body":    in.Body,
		},
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return Output{}, fmt.Errorf("run script: %w", err)
	}

	return decodeOutput(result)
}

func headersToAny(h map[string]string) map[string]any {
	out := make(map[string]any, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func decodeOutput(result any) (Output, error) {
	table, ok := result.(map[string]any)
	if !ok {
		return Output{}, ErrMalformedResult
	}

	out := Output{Status: 200, Headers: map[string]string{}}

	if status, ok := table["status"]; ok {
		out.Status = toInt(status, 200)
	}

	if headers, ok := table["headers"].(map[string]any); ok {
		for k, v := range headers {
			out.Headers[k] = fmt.Sprintf("%v", v)
		}
	}

	switch body := table["body"].(type) {
	case nil:
		out.Body = nil
	case string:
		out.Body = []byte(body)
	default:
		b, err := json.Marshal(body)
		if err != nil {
			return Output{}, fmt.Errorf("serialize script body: %w", err)
		}
		out.Body = b
	}

	return out, nil
}

func toInt(v any, fallback int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return fallback
	}
}
