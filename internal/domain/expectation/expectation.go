// Package expectation holds the core data model mocked traffic is matched
// and rendered against: an ordered set of condition/response pairs.
package expectation

// Expectation is a single condition-to-response mocking rule.
type Expectation struct {
	ID       uint64           `json:"id"`
	Condition RequestCondition `json:"condition"`
	Response  MockResponse     `json:"response"`
}

// RequestCondition constrains which inbound requests an Expectation applies
// to. Every field is optional; an absent field does not constrain matching.
type RequestCondition struct {
	Method    string            `json:"method,omitempty"`
	Path      string            `json:"path,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Body      any               `json:"body,omitempty"`
	BodyMatch *BodyMatch        `json:"body_match,omitempty"`
}

// BodyMatch is a supplemental predicate that extracts a value from the
// request body via JSONPath or XPath and compares it against an exact
// string or a regular expression. It composes with Body (both, if present,
// must hold) rather than replacing the strict whole-body equality check.
type BodyMatch struct {
	ContentType string `json:"content_type"` // "json" or "xml"
	Extractor   string `json:"extractor"`
	Exact       string `json:"exact,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
}

// MockResponse is a discriminated response behavior. Evaluation priority,
// highest first: Script, then Proxy, then the synthesized Response/Jitter
// pair.
type MockResponse struct {
	Response ResponseConfig `json:"response"`
	Jitter   *JitterConfig  `json:"jitter,omitempty"`
	Proxy    *ProxyConfig   `json:"proxy,omitempty"`
	Script   string         `json:"script,omitempty"`
}

// ResponseConfig describes one synthesized HTTP response.
type ResponseConfig struct {
	StatusCode     int               `json:"status_code,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           any               `json:"body,omitempty"`
	BodyType       string            `json:"body_type,omitempty"` // "text" or "" (json)
	LatencyMS      int               `json:"latency,omitempty"`
	TemplateEngine string            `json:"template_engine,omitempty"` // "" or "pongo2"
}

// JitterConfig is a probabilistic alternate response evaluated after the
// primary response's latency has been applied.
type JitterConfig struct {
	Probability float64 `json:"probability"`
	ResponseConfig
}

// ProxyConfig forwards the intercepted request to an upstream URL.
type ProxyConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Rate    float64           `json:"rate,omitempty"`
	Burst   int               `json:"burst,omitempty"`
}
