// Package metrics implements the collaborator contract of spec §6: a
// counter/histogram registry labeled by matched and path, exposed as text
// for GET /_admin/metrics. The spec treats the metrics exporter surface as
// an external collaborator tracked only as a contract, so this registry is
// a minimal in-memory implementation rather than a wired third-party
// client — there is no dispatch-path component left for a metrics client
// library to serve beyond the single counters/histogram text dump below.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

var _ ports.Metrics = (*Registry)(nil)

type key struct {
	path    string
	matched bool
}

type histogram struct {
	count int64
	sumMS float64
}

// Registry is a process-wide, lock-protected counters/histogram store.
type Registry struct {
	mu         sync.Mutex
	counters   map[key]int64
	histograms map[string]*histogram
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		counters:   make(map[key]int64),
		histograms: make(map[string]*histogram),
	}
}

// ObserveRequest increments the (path, matched) counter and, for matched
// requests, folds duration into the path's duration histogram (spec §6:
// "a duration histogram labeled by path is observed on every matched
// request").
func (r *Registry) ObserveRequest(path string, matched bool, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[key{path: path, matched: matched}]++

	if matched {
		h, ok := r.histograms[path]
		if !ok {
			h = &histogram{}
			r.histograms[path] = h
		}
		h.count++
		h.sumMS += float64(duration.Microseconds()) / 1000.0
	}
}

// Expose renders the current state as Prometheus-style text exposition.
func (r *Registry) Expose() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString("# HELP mimicrab_requests_total Total dispatched requests by path and match outcome.\n")
	b.WriteString("# TYPE mimicrab_requests_total counter\n")

	counterKeys := make([]key, 0, len(r.counters))
	for k := range r.counters {
		counterKeys = append(counterKeys, k)
	}
	sort.Slice(counterKeys, func(i, j int) bool {
		if counterKeys[i].path != counterKeys[j].path {
			return counterKeys[i].path < counterKeys[j].path
		}
		return !counterKeys[i].matched && counterKeys[j].matched
	})
	for _, k := range counterKeys {
		fmt.Fprintf(&b, "mimicrab_requests_total{path=%q,matched=%q} %d\n", k.path, fmt.Sprint(k.matched), r.counters[k])
	}

	b.WriteString("# HELP mimicrab_request_duration_ms_sum Sum of render durations in milliseconds by path.\n")
	b.WriteString("# TYPE mimicrab_request_duration_ms_sum counter\n")
	paths := make([]string, 0, len(r.histograms))
	for p := range r.histograms {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		h := r.histograms[p]
		fmt.Fprintf(&b, "mimicrab_request_duration_ms_sum{path=%q} %g\n", p, h.sumMS)
		fmt.Fprintf(&b, "mimicrab_request_duration_ms_count{path=%q} %d\n", p, h.count)
	}

	return []byte(b.String())
}
