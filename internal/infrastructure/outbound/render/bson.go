package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// renderJSONOrBSON serializes v as JSON text, or as BSON when accept
// requests application/bson: a top-level object becomes a document
// directly, a top-level array is wrapped as {"data": [...]}, and any
// other top-level scalar falls back to plain JSON (BSON has no bare-value
// wire form).
func renderJSONOrBSON(v any, accept string) (body []byte, contentType string, err error) {
	if !strings.Contains(accept, "application/bson") {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("serialize json body: %w", err)
		}
		return b, "application/json", nil
	}

	switch t := v.(type) {
	case map[string]any:
		b, err := bson.Marshal(t)
		if err != nil {
			return nil, "", fmt.Errorf("serialize bson body: %w", err)
		}
		return b, "application/bson", nil
	case []any:
		b, err := bson.Marshal(map[string]any{"data": t})
		if err != nil {
			return nil, "", fmt.Errorf("serialize bson body: %w", err)
		}
		return b, "application/bson", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("serialize json body: %w", err)
		}
		return b, "application/json", nil
	}
}
