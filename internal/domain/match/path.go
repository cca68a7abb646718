// Package match implements condition evaluation against inbound requests:
// path pattern matching, and the full RequestCondition predicate.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	patternCacheMu sync.Mutex
	patternCache   = make(map[string]*regexp.Regexp)
)

// Matches reports whether path (a "/"-separated request path) satisfies
// pattern. Patterns support three segment forms: a literal segment
// (compared byte-for-byte), a parameter segment beginning with ":" (matches
// any single non-empty segment containing no "/"), and a wildcard. A
// segment that is exactly "*" matches any sequence of characters including
// "/" boundaries; a segment that merely contains "*" as a substring only
// matches within a single segment (no "/" crossing).
//
// An exact string match between pattern and path always succeeds without
// further interpretation. A malformed pattern fails closed: Matches
// returns (false, err).
func Matches(pattern, path string) (bool, error) {
	if pattern == path {
		return true, nil
	}

	re, err := compilePattern(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
	}
	return re.MatchString(path), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternCacheMu.Lock()
	if re, ok := patternCache[pattern]; ok {
		patternCacheMu.Unlock()
		return re, nil
	}
	patternCacheMu.Unlock()

	segments := strings.Split(pattern, "/")
	fragments := make([]string, len(segments))
	for i, seg := range segments {
		fragments[i] = segmentToRegex(seg)
	}

	full := "^" + strings.Join(fragments, "/") + "$"
	re, err := regexp.Compile(full)
	if err != nil {
		return nil, err
	}

	patternCacheMu.Lock()
	patternCache[pattern] = re
	patternCacheMu.Unlock()
	return re, nil
}

func segmentToRegex(seg string) string {
	switch {
	case seg == "*":
		return ".*"
	case strings.HasPrefix(seg, ":"):
		return "[^/]+"
	case strings.Contains(seg, "*"):
		parts := strings.Split(seg, "*")
		quoted := make([]string, len(parts))
		for i, p := range parts {
			quoted[i] = regexp.QuoteMeta(p)
		}
		return strings.Join(quoted, "[^/]*")
	default:
		return regexp.QuoteMeta(seg)
	}
}

// PathParams extracts named parameter segments (a pattern segment like
// ":id") from pattern by position against segments (the request path's
// non-empty segments, see NonEmptySegments). It is the capture-side
// counterpart to Matches' ":name" predicate, used to populate the pongo2
// template context's pathParams (SPEC_FULL.md §C.2). Non-":name" segments,
// including wildcards, are ignored; a pattern longer than segments yields
// a partial map rather than an error, since PathParams is only ever
// called after Matches has already confirmed the pattern matches.
func PathParams(pattern string, segments []string) map[string]string {
	out := make(map[string]string)
	patSegs := NonEmptySegments(pattern)
	for i, seg := range patSegs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if i >= len(segments) {
			break
		}
		out[strings.TrimPrefix(seg, ":")] = segments[i]
	}
	return out
}

// NonEmptySegments splits path on "/" and discards empty segments, the
// indexing scheme the templating engine uses for {{path[i]}} references.
func NonEmptySegments(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
