package sdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// stubRoundTripper records requests and serves canned responses without
// touching the network.
type stubRoundTripper struct {
	calls  int
	last   *http.Request
	status int
	body   string
}

func (s *stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	s.last = req
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Request:    req,
	}, nil
}

func newTestTransport(t *testing.T, rec *sessionRecorder, base http.RoundTripper) (*Transport, *SessionManager) {
	t.Helper()
	m := newTestManager(t, rec)
	tr, err := NewTransport(TransportConfig{
		APIBaseURL: "https://api.example.com/api",
		Session:    m,
		Base:       base,
	})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	return tr, m
}

func apiRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func TestTransportAttachesBearerToInternalAPI(t *testing.T) {
	base := &stubRoundTripper{}
	tr, m := newTestTransport(t, &sessionRecorder{}, base)
	m.SetToken(tokenExpiringAt(t, time.Now().Add(time.Hour)))

	resp, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	got := base.last.Header.Get("Authorization")
	if !strings.HasPrefix(got, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", got)
	}
	if base.last.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestTransportIgnoresExternalURLs(t *testing.T) {
	base := &stubRoundTripper{}
	tr, m := newTestTransport(t, &sessionRecorder{}, base)
	m.SetToken(tokenExpiringAt(t, time.Now().Add(time.Hour)))

	resp, err := tr.RoundTrip(apiRequest(t, "https://cdn.example.net/lib.js"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()

	if got := base.last.Header.Get("Authorization"); got != "" {
		t.Fatalf("external request grew an Authorization header: %q", got)
	}
	if got := base.last.Header.Get("X-Request-Id"); got != "" {
		t.Fatalf("external request grew a request id: %q", got)
	}
}

func TestTransportAbortsExpiredTokenBeforeSend(t *testing.T) {
	rec := &sessionRecorder{}
	base := &stubRoundTripper{}
	tr, m := newTestTransport(t, rec, base)
	m.SetToken(tokenExpiringAt(t, time.Now().Add(-time.Minute)))

	_, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if err.Error() != "Token expired" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if base.calls != 0 {
		t.Fatalf("expired token still reached the network (%d calls)", base.calls)
	}
	if got := m.GetToken(); got != "" {
		t.Fatalf("store not cleared, got %q", got)
	}
	if len(rec.navigated) != 1 {
		t.Fatalf("expected one navigation, got %d", len(rec.navigated))
	}
}

func TestTransport401TriggersLogout(t *testing.T) {
	rec := &sessionRecorder{}
	base := &stubRoundTripper{status: http.StatusUnauthorized, body: `{"error":{"code":"UNAUTHORIZED"}}`}
	tr, m := newTestTransport(t, rec, base)
	m.SetToken(tokenExpiringAt(t, time.Now().Add(time.Hour)))

	_, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err.Error() != "Unauthorized" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if got := m.GetToken(); got != "" {
		t.Fatalf("store not cleared after 401, got %q", got)
	}
}

func TestTransportNoTokenNoHeader(t *testing.T) {
	base := &stubRoundTripper{}
	tr, m := newTestTransport(t, &sessionRecorder{}, base)
	m.Logout("user clicked logout")

	resp, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	if got := base.last.Header.Get("Authorization"); got != "" {
		t.Fatalf("logged-out request carried credentials: %q", got)
	}
}

func TestTransportOtherStatusesPassThrough(t *testing.T) {
	rec := &sessionRecorder{}
	base := &stubRoundTripper{status: http.StatusForbidden}
	tr, m := newTestTransport(t, rec, base)
	m.SetToken(tokenExpiringAt(t, time.Now().Add(time.Hour)))

	resp, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 passthrough, got %d", resp.StatusCode)
	}
	if got := m.GetToken(); got == "" {
		t.Fatalf("non-401 error cleared the session")
	}
	if len(rec.navigated) != 0 {
		t.Fatalf("non-401 error navigated")
	}
}

func TestTransportInternalAPIClassification(t *testing.T) {
	tr, _ := newTestTransport(t, &sessionRecorder{}, &stubRoundTripper{})
	tests := []struct {
		target string
		want   bool
	}{
		{"https://api.example.com/api/tasks", true},
		{"https://API.EXAMPLE.COM/api/tasks", true},
		{"http://api.example.com/api/tasks", false}, // scheme mismatch
		{"https://other.example.com/api/tasks", false},
		{"https://cdn.example.net/lib.js", false},
		{"/api/tasks", true}, // relative internal path
		{"/static/logo.png", false},
	}
	for _, tc := range tests {
		req := apiRequest(t, tc.target)
		if got := tr.isInternalAPI(req.URL); got != tc.want {
			t.Fatalf("%s: classified %v, want %v", tc.target, got, tc.want)
		}
	}
}

func TestTransportEmitsLatencyMetric(t *testing.T) {
	var metrics []Metric
	m := NewSessionManager(SessionManagerConfig{Store: NewMemoryStore(), NavigateDelay: DurationPtr(0)})
	tr, err := NewTransport(TransportConfig{
		APIBaseURL: "https://api.example.com/api",
		Session:    m,
		Base:       &stubRoundTripper{},
		Telemetry: TelemetryHooks{
			OnMetric: func(_ context.Context, metric Metric) { metrics = append(metrics, metric) },
		},
	})
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	resp, err := tr.RoundTrip(apiRequest(t, "https://api.example.com/api/tasks"))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	if len(metrics) != 1 || metrics[0].Name != "sdk_http_request_latency_ms" {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}
