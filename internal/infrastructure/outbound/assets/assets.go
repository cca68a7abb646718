// Package assets embeds the Mimicrab admin UI's static files. The UI
// bundler itself is out of scope (spec §1): these are the placeholder
// files the embedded-asset route (§6 "/ui/{*path}") serves, pre-encoded
// once at load time so every request only needs a map lookup and a
// conditional-request check.
package assets

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
)

//go:embed ui
var embedded embed.FS

// Asset is one static file, pre-compressed in both supported encodings so
// request handling never compresses on the hot path.
type Asset struct {
	ContentType string
	ETag        string // quoted, ready to compare against If-None-Match
	Identity    []byte
	Gzip        []byte
	Brotli      []byte
}

// Load walks the embedded ui/ tree and returns every file keyed by its
// path relative to ui/ (e.g. "index.html", "app.js").
func Load() (map[string]Asset, error) {
	root, err := fs.Sub(embedded, "ui")
	if err != nil {
		return nil, fmt.Errorf("open embedded ui root: %w", err)
	}

	out := make(map[string]Asset)
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(root, p)
		if err != nil {
			return fmt.Errorf("read embedded asset %q: %w", p, err)
		}

		asset, err := buildAsset(p, data)
		if err != nil {
			return err
		}
		out[p] = asset
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func buildAsset(name string, data []byte) (Asset, error) {
	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:])[:16] + `"`

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	if _, err := gw.Write(data); err != nil {
		return Asset{}, fmt.Errorf("gzip encode %q: %w", name, err)
	}
	if err := gw.Close(); err != nil {
		return Asset{}, fmt.Errorf("gzip close %q: %w", name, err)
	}

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	if _, err := bw.Write(data); err != nil {
		return Asset{}, fmt.Errorf("brotli encode %q: %w", name, err)
	}
	if err := bw.Close(); err != nil {
		return Asset{}, fmt.Errorf("brotli close %q: %w", name, err)
	}

	return Asset{
		ContentType: contentTypeFor(name),
		ETag:        etag,
		Identity:    data,
		Gzip:        gz.Bytes(),
		Brotli:      br.Bytes(),
	}, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// NegotiateEncoding picks "br", "gzip", or "" (identity) from an
// Accept-Encoding header value, preferring br per spec §6.
func NegotiateEncoding(acceptEncoding string) string {
	if strings.Contains(acceptEncoding, "br") {
		return "br"
	}
	if strings.Contains(acceptEncoding, "gzip") {
		return "gzip"
	}
	return ""
}
