package match

import (
	"net/http"
	"reflect"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// IncomingRequest is the request-side data the condition matcher and the
// templating engine both need, expressed free of net/http so the domain
// layer stays independent of the transport.
type IncomingRequest struct {
	Method     string
	Path       string
	Headers    map[string]string // canonical header name -> first value
	Body       []byte
	ParsedBody any // nil when Body is empty or not valid JSON
}

// Evaluate reports whether req satisfies every present constraint of cond.
// A malformed path pattern is reported via err and is always a non-match
// (spec: "fails closed").
func Evaluate(req IncomingRequest, cond expectation.RequestCondition) (bool, error) {
	if cond.Method != "" && !equalFold(cond.Method, req.Method) {
		return false, nil
	}

	if cond.Path != "" {
		ok, err := Matches(cond.Path, req.Path)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	for name, want := range cond.Headers {
		got, ok := req.Headers[http.CanonicalHeaderKey(name)]
		if !ok || got != want {
			return false, nil
		}
	}

	if cond.Body != nil {
		if req.ParsedBody == nil || !reflect.DeepEqual(req.ParsedBody, cond.Body) {
			return false, nil
		}
	}

	if cond.BodyMatch != nil {
		ok, err := evaluateBodyMatch(req.Body, cond.BodyMatch)
		if err != nil || !ok {
			return false, nil
		}
	}

	return true, nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// CanonicalizeHeaders rebuilds a header map keyed by http.CanonicalHeaderKey,
// keeping only the first value seen for each name, so condition headers and
// request headers are compared on equal footing (spec §9: names are
// case-insensitive, values are case-sensitive).
func CanonicalizeHeaders(raw map[string][]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, vs := range raw {
		if len(vs) == 0 {
			continue
		}
		ck := http.CanonicalHeaderKey(k)
		if _, exists := out[ck]; !exists {
			out[ck] = vs[0]
		}
	}
	return out
}
