package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// ProxyDialer forwards matched requests to an upstream URL, optionally
// throttled by a per-target-host token bucket.
type ProxyDialer struct {
	client  *http.Client
	limiter ports.RateLimiter
}

// NewProxyDialer returns a ProxyDialer. limiter may be nil to disable
// outbound throttling entirely.
func NewProxyDialer(limiter ports.RateLimiter) *ProxyDialer {
	return &ProxyDialer{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func renderProxy(ctx context.Context, req Request, cfg expectation.ProxyConfig, deps Dependencies) (*Result, error) {
	return deps.Proxy.forward(ctx, req, cfg)
}

func (p *ProxyDialer) forward(ctx context.Context, req Request, cfg expectation.ProxyConfig) (*Result, error) {
	target := strings.TrimRight(cfg.URL, "/") + req.PathAndQuery

	if p.limiter != nil && cfg.Rate > 0 {
		host, err := hostOf(target)
		if err == nil && !p.limiter.Allow(ctx, host, cfg.Rate, proxyBurst(cfg.Burst)) {
			return &Result{
				Status:  http.StatusBadGateway,
				Headers: map[string]string{"Content-Type": "text/plain"},
				Body:    []byte("proxy rate limit exceeded for " + host),
			}, nil
		}
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, req.Method, target, newBodyReader(req.RawBody))
	if err != nil {
		return badGateway(err), nil
	}

	for name, values := range req.RawHeaders {
		for _, v := range values {
			upstreamReq.Header.Add(name, v)
		}
	}
	for name, value := range cfg.Headers {
		upstreamReq.Header.Set(name, value)
	}

	resp, err := p.client.Do(upstreamReq)
	if err != nil {
		return badGateway(err), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return badGateway(err), nil
	}

	headers := make(map[string]string, len(resp.Header))
	for name, values := range resp.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return &Result{Status: resp.StatusCode, Headers: headers, Body: respBody}, nil
}

func badGateway(err error) *Result {
	return &Result{
		Status:  http.StatusBadGateway,
		Headers: map[string]string{"Content-Type": "text/plain"},
		Body:    []byte(fmt.Sprintf("upstream error: %v", err)),
	}
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func proxyBurst(burst int) int {
	if burst <= 0 {
		return 1
	}
	return burst
}

func newBodyReader(body []byte) io.Reader {
	if len(body) == 0 {
		return nil
	}
	return bytes.NewReader(body)
}
