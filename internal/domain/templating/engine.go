// Package templating renders response bodies against the incoming request's
// path segments and parsed JSON body using the {{path[i]}}/{{body.x}}
// placeholder grammar.
package templating

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Context carries the request-derived values a rendered body may reference.
type Context struct {
	PathSegments []string
	Body         any // nil when the request carried no parseable JSON body
}

var placeholderRE = regexp.MustCompile(`\{\{(?:path\[(\d+)\]|body((?:\.[a-zA-Z0-9_]+|\[\d+\])*))(?::(string|int|bool))?\}\}`)

var bracketSelectorRE = regexp.MustCompile(`\[(\d+)\]`)

type placeholder struct {
	isPath   bool
	index    int
	selector string
	filter   string
	start    int
	end      int
}

func findPlaceholders(s string) []placeholder {
	locs := placeholderRE.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return nil
	}
	out := make([]placeholder, 0, len(locs))
	for _, loc := range locs {
		ph := placeholder{start: loc[0], end: loc[1]}

		if loc[2] != -1 {
			ph.isPath = true
			idx, _ := strconv.Atoi(s[loc[2]:loc[3]])
			ph.index = idx
		} else {
			ph.selector = s[loc[4]:loc[5]]
		}

		if loc[6] != -1 {
			ph.filter = s[loc[6]:loc[7]]
		}
		out = append(out, ph)
	}
	return out
}

// RenderValue walks v recursively, substituting placeholders found in string
// values. A string that consists of a single whole placeholder is replaced
// by the placeholder's typed value (value-mode); a string carrying extra
// surrounding text has each placeholder substituted as text (string-mode).
// Non-string scalars pass through unchanged.
func RenderValue(v any, ctx Context) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = RenderValue(vv, ctx)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = RenderValue(vv, ctx)
		}
		return out
	case string:
		return renderString(t, ctx)
	default:
		return v
	}
}

func renderString(s string, ctx Context) any {
	matches := findPlaceholders(s)
	if len(matches) == 0 {
		return s
	}

	if len(matches) == 1 && matches[0].start == 0 && matches[0].end == len(s) {
		val, absent := resolve(ctx, matches[0])
		if absent {
			return nil
		}
		return val
	}

	var buf strings.Builder
	last := 0
	for _, m := range matches {
		buf.WriteString(s[last:m.start])
		val, absent := resolve(ctx, m)
		if absent {
			buf.WriteString("null")
		} else {
			buf.WriteString(toText(val))
		}
		last = m.end
	}
	buf.WriteString(s[last:])
	return buf.String()
}

func resolve(ctx Context, ph placeholder) (value any, absent bool) {
	var rawText string
	var bodyVal any

	if ph.isPath {
		if ph.index < 0 || ph.index >= len(ctx.PathSegments) {
			return nil, true
		}
		rawText = ctx.PathSegments[ph.index]
	} else {
		node, ok := resolveBodyNode(ctx.Body, ph.selector)
		if !ok {
			return nil, true
		}
		bodyVal = node
		rawText = bodyText(node)
	}

	switch ph.filter {
	case "":
		if ph.isPath {
			return coerceHeuristic(rawText), false
		}
		return bodyVal, false
	case "string":
		return rawText, false
	case "int":
		n, err := strconv.ParseInt(rawText, 10, 64)
		if err != nil {
			return nil, true
		}
		return n, false
	case "bool":
		b, err := strconv.ParseBool(rawText)
		if err != nil {
			return nil, true
		}
		return b, false
	default:
		return nil, true
	}
}

func resolveBodyNode(body any, selector string) (any, bool) {
	parts := normalizeSelector(selector)
	node := body
	for _, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			arr, ok := node.([]any)
			if !ok || n < 0 || n >= len(arr) {
				return nil, false
			}
			node = arr[n]
			continue
		}
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		v, present := obj[p]
		if !present {
			return nil, false
		}
		node = v
	}
	return node, true
}

func normalizeSelector(selector string) []string {
	replaced := bracketSelectorRE.ReplaceAllString(selector, ".$1")
	raw := strings.Split(replaced, ".")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func coerceHeuristic(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func bodyText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// Unwrap converts the result of RenderValue into raw text for a
// body_type "text" response: a bare JSON string literal becomes its raw
// text, anything else is serialized back to JSON.
func Unwrap(v any) ([]byte, error) {
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serialize rendered body: %w", err)
	}
	return b, nil
}
