package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sophialabs/mimicrab/internal/infrastructure/outbound/assets"
)

// handleStaticAsset serves the embedded UI under /ui/{*path}, honoring
// If-None-Match (ETag) for 304 responses and Accept-Encoding (br
// preferred, then gzip, else identity) for the body (spec §6).
func (s *Server) handleStaticAsset(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	if p == "" {
		p = "index.html"
	}
	p = strings.TrimPrefix(p, "/")

	asset, ok := s.assets[p]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("ETag", asset.ETag)
	w.Header().Set("Content-Type", asset.ContentType)

	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == asset.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	switch assets.NegotiateEncoding(r.Header.Get("Accept-Encoding")) {
	case "br":
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(asset.Brotli)
	case "gzip":
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(asset.Gzip)
	default:
		_, _ = w.Write(asset.Identity)
	}
}
