// Package script implements the scripting collaborator: an isolated
// evaluator given a read-only view of the inbound request and expected to
// return a {status, headers, body} result.
package script

import "context"

// Input is the read-only view of the inbound request exposed to a script.
type Input struct {
	Method  string
	Path    string
	Headers map[string]string // name -> first value, case-insensitive lookup
	Body    any                // parsed JSON, or nil
}

// Output is the result of a script evaluation.
type Output struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Evaluator compiles and runs scripts against an Input, producing an
// Output. A runtime error or a result that isn't shaped like
// {status, headers, body} is reported via err.
type Evaluator interface {
	Evaluate(ctx context.Context, source string, in Input) (Output, error)
}
