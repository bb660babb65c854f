package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/getindexednow/getindexednow-go/headers"
)

const defaultBaseURL = "https://api.getindexednow.com/api"
const defaultUserAgent = "getindexednow-go/" + Version

// Config wires storage, session behavior, and telemetry for the API client.
// Only BaseURL is commonly set; every other field has a working default.
type Config struct {
	BaseURL    string
	Store      TokenStore
	HTTPClient *http.Client
	UserAgent  string

	Hooks     SessionHooks
	Telemetry TelemetryHooks
	Logger    *zerolog.Logger

	CheckInterval time.Duration
	ExpiryWarning time.Duration
	NavigateDelay *time.Duration
	SweepPrefixes []string
	Retry         *RetryConfig
}

// Client is the thin facade over the session core: it owns the
// SessionManager, routes every outbound call through the interception
// Transport, and groups the auth endpoints under Auth.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	retry      RetryConfig

	// Session is the process-wide lifecycle monitor. Close it (or the
	// client) in teardown to stop the background expiry check.
	Session *SessionManager

	Auth *AuthClient
}

// NewClient validates the configuration, starts the session watcher, and
// returns a ready-to-use Client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	store := cfg.Store
	if store == nil {
		store = defaultStore(cfg.Logger)
	}

	session := NewSessionManager(SessionManagerConfig{
		Store:         store,
		CheckInterval: cfg.CheckInterval,
		ExpiryWarning: cfg.ExpiryWarning,
		NavigateDelay: cfg.NavigateDelay,
		SweepPrefixes: cfg.SweepPrefixes,
		Hooks:         cfg.Hooks,
		Logger:        cfg.Logger,
	})

	base := http.DefaultTransport
	timeout := time.Duration(0)
	if cfg.HTTPClient != nil {
		if cfg.HTTPClient.Transport != nil {
			base = cfg.HTTPClient.Transport
		}
		timeout = cfg.HTTPClient.Timeout
	}
	transport, err := NewTransport(TransportConfig{
		APIBaseURL: normalized,
		Session:    session,
		Base:       base,
		Telemetry:  cfg.Telemetry,
	})
	if err != nil {
		return nil, err
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	retry := defaultRetryConfig()
	if cfg.Retry != nil {
		retry = cfg.Retry.normalized()
	}

	client := &Client{
		baseURL:    normalized,
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		userAgent:  ua,
		retry:      retry,
		Session:    session,
	}
	client.Auth = &AuthClient{client: client}
	client.Session.Start()
	return client, nil
}

// defaultStore prefers the durable file store and degrades to memory when no
// config dir is available.
func defaultStore(logger *zerolog.Logger) TokenStore {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	path, err := DefaultStorePath()
	if err != nil {
		log.Warn().Err(err).Msg("no user config dir, session will not survive restarts")
		return NewMemoryStore()
	}
	return NewFileStore(path, log)
}

// Close stops the background session watcher.
func (c *Client) Close() {
	c.Session.Close()
}

// Facade delegations. UI and form code talks to these; the session core
// does the work.

func (c *Client) GetToken() string { return c.Session.GetToken() }

func (c *Client) SetToken(token string) { c.Session.SetToken(token) }

func (c *Client) IsAuthenticated() bool { return c.Session.IsAuthenticated() }

func (c *Client) Login(token string) { c.Session.Login(token) }

func (c *Client) Logout(reason string) { c.Session.Logout(reason) }

func (c *Client) IsTokenExpired() bool { return c.Session.IsTokenExpired() }

func (c *Client) IsTokenExpiringSoon() bool { return c.Session.IsTokenExpiringSoon() }

func (c *Client) UserFromToken() *UserInfo { return c.Session.UserFromToken() }

func (c *Client) OnLogout(fn func()) *LogoutSubscription {
	return c.Session.OnLogout(fn)
}

// ValidateTokenWithServer asks the server for an authoritative verdict on a
// token. Pure pass-through; the polling path never calls it.
func (c *Client) ValidateTokenWithServer(ctx context.Context, token string) (TokenValidation, error) {
	return c.Auth.ValidateToken(ctx, token)
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("sdk: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("sdk: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("sdk: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("sdk: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return req, nil
}

// send dispatches through the interception transport. Auth failures come
// back as the bare AuthError sentinels rather than url.Error wrappers so
// callers can compare with errors.Is without unwrapping.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(headers.Client, c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
