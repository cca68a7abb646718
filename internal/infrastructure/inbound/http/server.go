// Package http wires the chi router that serves all three route families
// documented in spec §6: the admin plane, the embedded static UI, and
// traffic dispatch (the catch-all).
package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sophialabs/mimicrab/internal/domain/logstream"
	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/assets"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
	"github.com/sophialabs/mimicrab/internal/infrastructure/usecases"
)

const maxBodySize = 10 << 20 // 10 MB

// Dependencies collects everything the HTTP layer needs to serve a
// request, independent of how the caller constructed each collaborator.
type Dependencies struct {
	Dispatch     *usecases.DispatchUseCase
	Expectations *usecases.ExpectationsUseCase
	Broadcaster  *logstream.Broadcaster
	Metrics      ports.Metrics
	Logger       ports.Logger
}

// Server is the top-level HTTP handler: a chi.Mux built once at
// construction time, since dispatch routing is a single catch-all rather
// than one route per expectation (matching happens against the live
// store snapshot on every request, not against the router).
type Server struct {
	router       *chi.Mux
	dispatch     *usecases.DispatchUseCase
	expectations *usecases.ExpectationsUseCase
	broadcaster  *logstream.Broadcaster
	metrics      ports.Metrics
	logger       ports.Logger
	assets       map[string]assets.Asset
}

// NewServer builds the Server and its router.
func NewServer(deps Dependencies) *Server {
	uiAssets, err := assets.Load()
	if err != nil {
		deps.Logger.Error("failed to load embedded UI assets", "error", err)
		uiAssets = map[string]assets.Asset{}
	}

	s := &Server{
		dispatch:     deps.Dispatch,
		expectations: deps.Expectations,
		broadcaster:  deps.Broadcaster,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		assets:       uiAssets,
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusPermanentRedirect)
	})

	r.Get("/ui/*", s.handleStaticAsset)

	r.Route("/_admin", func(r chi.Router) {
		r.Get("/mocks", s.handleListMocks)
		r.Post("/mocks", s.handleAddMock)
		r.Put("/mocks/{id}", s.handleUpdateMock)
		r.Delete("/mocks/{id}", s.handleDeleteMock)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/logs/stream", s.handleLogsStream)
		r.Get("/metrics", s.handleMetrics)
	})

	r.NotFound(s.handleDispatch)

	return r
}

func readLimitedBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(io.LimitReader(r.Body, maxBodySize))
}
