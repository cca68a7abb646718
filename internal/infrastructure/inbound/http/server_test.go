package http_test

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/domain/logstream"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/bodytemplate"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/clock"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/filesystem"
	inboundhttp "github.com/sophialabs/mimicrab/internal/infrastructure/inbound/http"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/metrics"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/render"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/script"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/store"
	"github.com/sophialabs/mimicrab/internal/infrastructure/usecases"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}

func newTestServer(t *testing.T, seed ...expectation.Expectation) (*inboundhttp.Server, *usecases.ExpectationsUseCase) {
	t.Helper()

	persister := filesystem.NewFilePersister(filepath.Join(t.TempDir(), "expectations.json"))
	st := store.New()
	if len(seed) > 0 {
		st.Replace(seed)
	}

	logger := noopLogger{}
	expectUC := usecases.NewExpectationsUseCase(st, persister, logger)

	deps := render.Dependencies{
		Script:       script.NewExprEvaluator(),
		BodyTemplate: bodytemplate.NewRenderer(),
		Proxy:        render.NewProxyDialer(nil),
		Clock:        clock.New(),
		Logger:       logger,
	}
	dispatchUC := usecases.NewDispatchUseCase(st, deps, logger)

	srv := inboundhttp.NewServer(inboundhttp.Dependencies{
		Dispatch:     dispatchUC,
		Expectations: expectUC,
		Broadcaster:  logstream.NewBroadcaster(),
		Metrics:      metrics.New(),
		Logger:       logger,
	})
	return srv, expectUC
}

func TestDispatch_ParameterizedPathTemplate(t *testing.T) {
	srv, _ := newTestServer(t, expectation.Expectation{
		ID: 1,
		Condition: expectation.RequestCondition{
			Method: "GET",
			Path:   "/books/:id/author",
		},
		Response: expectation.MockResponse{
			Response: expectation.ResponseConfig{
				Body: map[string]any{"id": "{{path[1]:string}}"},
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/books/123/author", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["id"] != "123" {
		t.Errorf("id = %v, want 123", body["id"])
	}
}

func TestDispatch_NoMatchReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nothing/here", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestAdmin_AddListUpdateDelete(t *testing.T) {
	srv, _ := newTestServer(t)

	addBody := `{"condition":{"method":"GET","path":"/a"},"response":{"response":{"status_code":200,"body":{"ok":true}}}}`
	req := httptest.NewRequest(http.MethodPost, "/_admin/mocks", strings.NewReader(addBody))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var created expectation.Expectation
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	req = httptest.NewRequest(http.MethodGet, "/_admin/mocks", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	var list []expectation.Expectation
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}

	updateBody := `{"condition":{"method":"GET","path":"/b"},"response":{"response":{"status_code":201}}}`
	req = httptest.NewRequest(http.MethodPut, "/_admin/mocks/"+strconv.FormatUint(created.ID, 10), strings.NewReader(updateBody))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPut, "/_admin/mocks/999999", strings.NewReader(updateBody))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("update unknown id status = %d, want 404", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/_admin/mocks/"+strconv.FormatUint(created.ID, 10), nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/_admin/mocks/"+strconv.FormatUint(created.ID, 10), nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("double delete status = %d, want 404", w.Code)
	}
}

func TestAdmin_ExportImportRoundTrip(t *testing.T) {
	srv, expectUC := newTestServer(t, expectation.Expectation{
		ID:        1,
		Condition: expectation.RequestCondition{Method: "GET", Path: "/a"},
		Response:  expectation.MockResponse{Response: expectation.ResponseConfig{StatusCode: 200}},
	})

	req := httptest.NewRequest(http.MethodGet, "/_admin/export", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	exported := w.Body.Bytes()

	req = httptest.NewRequest(http.MethodPost, "/_admin/import", bytes.NewReader(exported))
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, want 200: %s", w.Code, w.Body.String())
	}

	if got := expectUC.List(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected unchanged single expectation after round-trip, got %+v", got)
	}
}

func TestStaticAsset_ServesIndexAndHonorsEncodingAndETag(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", w.Header().Get("Content-Encoding"))
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	gz, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if !strings.Contains(string(raw), "Mimicrab") {
		t.Errorf("decoded body missing expected content: %s", raw)
	}

	req = httptest.NewRequest(http.MethodGet, "/ui/", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", w.Code)
	}
}

func TestStaticAsset_UnknownPathReturns404(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/does-not-exist.js", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (spec: asset not found)", w.Code)
	}
}
