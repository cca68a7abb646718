package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/match"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/render"
	"github.com/sophialabs/mimicrab/internal/infrastructure/usecases"
)

// handleDispatch is the entry point for every request not claimed by the
// admin plane or the static UI: it reads the body, resolves a match
// against the live store snapshot, renders the response, and emits a log
// event to SSE subscribers (spec §2 data flow, §4.7 logs stream).
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := readLimitedBody(r)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	headers := match.CanonicalizeHeaders(r.Header)

	req := usecases.DispatchRequest{
		Method:       r.Method,
		Path:         r.URL.Path,
		PathAndQuery: pathAndQuery(r),
		Accept:       r.Header.Get("Accept"),
		Headers:      headers,
		RawHeaders:   r.Header,
		RawBody:      body,
		ParsedBody:   parseJSONOrNil(body),
		PathSegments: match.NonEmptySegments(r.URL.Path),
	}

	result, entry := s.dispatch.Execute(r.Context(), req)

	s.metrics.ObserveRequest(r.URL.Path, entry.Matched, time.Since(start))
	s.broadcaster.Publish(entry)

	writeResult(w, result)
}

func pathAndQuery(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

func parseJSONOrNil(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v
}

func writeResult(w http.ResponseWriter, result *render.Result) {
	for k, v := range result.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(result.Status)
	_, _ = w.Write(result.Body)
}
