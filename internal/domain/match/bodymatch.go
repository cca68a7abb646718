package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/PaesslerAG/jsonpath"
	"github.com/antchfx/xmlquery"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// evaluateBodyMatch extracts a value from body per bm.ContentType/Extractor
// and compares it against bm.Exact (literal equality) or bm.Pattern (regular
// expression), whichever is set. An extraction failure is reported via err
// and is treated by the caller as a non-match, never a hard error.
func evaluateBodyMatch(body []byte, bm *expectation.BodyMatch) (bool, error) {
	var got string
	var err error

	switch bm.ContentType {
	case "json":
		got, err = extractJSONPath(body, bm.Extractor)
	case "xml":
		got, err = extractXPath(body, bm.Extractor)
	default:
		return false, fmt.Errorf("unsupported body_match content_type %q", bm.ContentType)
	}
	if err != nil {
		return false, err
	}

	if bm.Pattern != "" {
		re, err := regexp.Compile(bm.Pattern)
		if err != nil {
			return false, fmt.Errorf("invalid body_match pattern %q: %w", bm.Pattern, err)
		}
		return re.MatchString(got), nil
	}

	return got == bm.Exact, nil
}

func extractJSONPath(body []byte, expr string) (string, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("decode json body: %w", err)
	}

	result, err := jsonpath.Get(expr, v)
	if err != nil {
		return "", fmt.Errorf("evaluate jsonpath %q: %w", expr, err)
	}
	return stringify(result), nil
}

func extractXPath(body []byte, expr string) (string, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse xml body: %w", err)
	}

	node := xmlquery.FindOne(doc, expr)
	if node == nil {
		return "", nil
	}
	return node.InnerText(), nil
}

func stringify(v any) string {
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
