package sdk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/getindexednow/getindexednow-go/headers"
)

// TransportConfig wires the interception layer. APIBaseURL and Session are
// required; Base defaults to http.DefaultTransport.
type TransportConfig struct {
	APIBaseURL string
	Session    *SessionManager
	Base       http.RoundTripper
	Telemetry  TelemetryHooks
}

// Transport decorates a base http.RoundTripper with session handling for
// requests that target the dashboard API: it attaches the stored token as a
// bearer credential, refuses to dispatch requests whose token is already
// expired, and converts 401 responses into the centralized logout path.
// Requests for any other origin pass through byte-for-byte untouched.
type Transport struct {
	base      http.RoundTripper
	session   *SessionManager
	apiURL    *url.URL
	telemetry TelemetryHooks
}

// NewTransport validates cfg and returns the interception layer.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	if cfg.Session == nil {
		return nil, errors.New("sdk: session manager required")
	}
	normalized, err := normalizeBaseURL(cfg.APIBaseURL)
	if err != nil {
		return nil, err
	}
	apiURL, err := url.Parse(normalized)
	if err != nil {
		return nil, err
	}
	base := cfg.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:      base,
		session:   cfg.Session,
		apiURL:    apiURL,
		telemetry: cfg.Telemetry,
	}, nil
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.isInternalAPI(req.URL) {
		return t.base.RoundTrip(req)
	}

	token := t.session.GetToken()
	if token != "" && IsTokenExpired(token) {
		// Dead token: skip the guaranteed-401 round trip entirely.
		t.session.Logout("session expired")
		return nil, ErrTokenExpired
	}

	clone := req.Clone(req.Context())
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	if clone.Header.Get(headers.RequestID) == "" {
		clone.Header.Set(headers.RequestID, uuid.NewString())
	}
	injectTraceparent(req.Context(), clone)

	if t.telemetry.OnHTTPRequest != nil {
		t.telemetry.OnHTTPRequest(req.Context(), clone)
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(clone)
	if t.telemetry.OnHTTPResponse != nil {
		t.telemetry.OnHTTPResponse(req.Context(), clone, resp, err, time.Since(start))
	}
	t.telemetry.metric(req.Context(), "sdk_http_request_latency_ms", float64(time.Since(start).Milliseconds()), map[string]string{
		"path": req.URL.Path,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		t.session.Logout("session invalid")
		return nil, ErrUnauthorized
	}
	return resp, nil
}

// injectTraceparent propagates the active span, if any, as a W3C traceparent
// header so API-side traces link back to the caller.
func injectTraceparent(ctx context.Context, req *http.Request) {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return
	}
	traceparent := fmt.Sprintf("00-%s-%s-01", sc.TraceID().String(), sc.SpanID().String())
	req.Header.Set("Traceparent", traceparent)
}

// isInternalAPI classifies a target as the application's own backend: the
// configured API origin, or a bare /api path with no host.
func (t *Transport) isInternalAPI(u *url.URL) bool {
	if u == nil {
		return false
	}
	if u.Host == "" {
		return strings.HasPrefix(u.Path, "/api")
	}
	if !strings.EqualFold(u.Host, t.apiURL.Host) {
		return false
	}
	return u.Scheme == "" || strings.EqualFold(u.Scheme, t.apiURL.Scheme)
}
