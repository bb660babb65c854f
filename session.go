package sdk

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/getindexednow/getindexednow-go/routes"
)

const (
	// DefaultCheckInterval is how often the watcher re-reads the stored token.
	DefaultCheckInterval = 30 * time.Second

	// DefaultNavigateDelay gives the logout notice time to render before the
	// navigate hook fires. UX accommodation only; set 0 in tests.
	DefaultNavigateDelay = 1500 * time.Millisecond

	loggedOutNotice = "You have been logged out."
	expiringNotice  = "Your session is about to expire. Please save your work."
)

// defaultSweepPrefixes are the auxiliary key namespaces cleared on logout.
var defaultSweepPrefixes = []string{"task_refresh_", "query_cache_"}

// SessionHooks carries the UI-facing side effects the session manager
// triggers. Nil members are skipped.
type SessionHooks struct {
	// OnNotice fires for user-facing messages: logout notifications and
	// expiring-soon advisories. Implementations must not block.
	OnNotice func(message string)
	// OnNavigate fires after logout with the unauthenticated entry route.
	OnNavigate func(route string)
	// OnLogin fires after Login stores a fresh token, so dependents can
	// refresh their own state.
	OnLogin func()
}

// SessionManagerConfig wires storage, timing, and UI hooks for a manager.
// The zero value is usable: in-memory storage, default intervals, no hooks.
type SessionManagerConfig struct {
	Store         TokenStore
	CheckInterval time.Duration
	ExpiryWarning time.Duration
	NavigateDelay *time.Duration
	SweepPrefixes []string
	Hooks         SessionHooks
	// Logger defaults to zerolog.Nop(); the SDK is silent unless configured.
	Logger *zerolog.Logger
}

// SessionManager owns the stored session token and its lifecycle: it watches
// for expiry in the background, funnels every termination trigger through one
// idempotent logout path, and lets unrelated subsystems subscribe to logout.
//
// Construct one per process and pass it by reference to the transport and the
// UI facade; there is no ambient global instance.
type SessionManager struct {
	store         TokenStore
	checkInterval time.Duration
	expiryWarning time.Duration
	navigateDelay time.Duration
	sweepPrefixes []string
	hooks         SessionHooks
	log           zerolog.Logger

	mu       sync.Mutex
	subs     []*LogoutSubscription
	watching bool
	done     chan struct{}
}

// LogoutSubscription identifies one registered logout callback.
type LogoutSubscription struct {
	manager *SessionManager
	fn      func()
}

// Cancel removes the callback from the registry. Cancelling twice, or after
// the manager is closed, is a no-op.
func (s *LogoutSubscription) Cancel() {
	if s == nil || s.manager == nil {
		return
	}
	m := s.manager
	s.manager = nil
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subs {
		if sub == s {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			return
		}
	}
}

// NewSessionManager builds a manager from cfg, applying defaults for any
// unset field. Call Start to begin the recurring expiry check.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	warning := cfg.ExpiryWarning
	if warning <= 0 {
		warning = DefaultExpiryWarning
	}
	delay := DefaultNavigateDelay
	if cfg.NavigateDelay != nil {
		delay = *cfg.NavigateDelay
	}
	prefixes := cfg.SweepPrefixes
	if prefixes == nil {
		prefixes = defaultSweepPrefixes
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &SessionManager{
		store:         store,
		checkInterval: interval,
		expiryWarning: warning,
		navigateDelay: delay,
		sweepPrefixes: prefixes,
		hooks:         cfg.Hooks,
		log:           logger,
	}
}

// Start begins the recurring expiry check. Starting an already-watching
// manager is a no-op.
func (m *SessionManager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watching {
		return
	}
	m.watching = true
	m.done = make(chan struct{})
	go m.watch(m.done)
}

// Close stops the recurring check. Intended for test teardown; the manager
// remains usable for direct calls afterwards.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.watching {
		return
	}
	m.watching = false
	close(m.done)
}

func (m *SessionManager) watch(done <-chan struct{}) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.checkOnce()
		}
	}
}

// checkOnce is one tick of the watcher: absent token is a no-op, an expired
// token ends the session, an expiring one raises an advisory. The advisory
// repeats on every tick inside the warning window; there is no dedup flag.
func (m *SessionManager) checkOnce() {
	token := m.store.Get()
	if token == "" {
		return
	}
	if IsTokenExpired(token) {
		m.log.Debug().Msg("stored session token expired, logging out")
		m.Logout("session expired")
		return
	}
	if IsTokenExpiringSoon(token, m.expiryWarning) {
		m.notify(expiringNotice)
	}
}

// GetToken returns the stored token, or "" when absent.
func (m *SessionManager) GetToken() string { return m.store.Get() }

// SetToken replaces the stored token. SetToken("") removes it without
// running the logout path; use Logout to terminate a session.
func (m *SessionManager) SetToken(token string) { m.store.Set(token) }

// IsAuthenticated reports whether a decodable, unexpired token is stored.
func (m *SessionManager) IsAuthenticated() bool {
	token := m.store.Get()
	return token != "" && !IsTokenExpired(token)
}

// IsTokenExpired reports whether the stored token is absent or past expiry.
func (m *SessionManager) IsTokenExpired() bool {
	return IsTokenExpired(m.store.Get())
}

// IsTokenExpiringSoon reports whether the stored token expires within the
// configured warning window.
func (m *SessionManager) IsTokenExpiringSoon() bool {
	return IsTokenExpiringSoon(m.store.Get(), m.expiryWarning)
}

// UserFromToken returns the identity asserted by the stored token, or nil.
func (m *SessionManager) UserFromToken() *UserInfo {
	return UserFromToken(m.store.Get())
}

// Login stores a token freshly issued by one of the auth flows and notifies
// dependents via the OnLogin hook. It is the only write path besides
// SetToken; the manager never mints tokens itself.
func (m *SessionManager) Login(token string) {
	m.store.Set(token)
	if m.hooks.OnLogin != nil {
		m.hooks.OnLogin()
	}
}

// OnLogout registers a callback to run during logout, after storage is
// cleared. Callbacks run in registration order; a panicking callback is
// logged and skipped without stopping the rest. The returned subscription's
// Cancel removes the callback.
func (m *SessionManager) OnLogout(fn func()) *LogoutSubscription {
	sub := &LogoutSubscription{manager: m, fn: fn}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
	return sub
}

// Logout terminates the session. It is the single funnel for every trigger
// (explicit action, expiry detection, rejected request) and every step
// tolerates repeated execution, so calling it twice or concurrently is safe.
func (m *SessionManager) Logout(reason string) {
	if strings.TrimSpace(reason) == "" {
		reason = "logged out"
	}
	m.store.Set("")
	for _, prefix := range m.sweepPrefixes {
		m.store.RemoveByPrefix(prefix)
	}
	for _, fn := range m.snapshotCallbacks() {
		m.runCallback(fn)
	}
	notice := reason
	if strings.Contains(reason, "expired") {
		notice = loggedOutNotice
	}
	m.notify(notice)
	m.scheduleNavigate()
}

func (m *SessionManager) snapshotCallbacks() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fns := make([]func(), 0, len(m.subs))
	for _, sub := range m.subs {
		fns = append(fns, sub.fn)
	}
	return fns
}

func (m *SessionManager) runCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn().Interface("panic", r).Msg("logout callback failed")
		}
	}()
	fn()
}

func (m *SessionManager) notify(message string) {
	if m.hooks.OnNotice != nil {
		m.hooks.OnNotice(message)
	}
}

func (m *SessionManager) scheduleNavigate() {
	nav := m.hooks.OnNavigate
	if nav == nil {
		return
	}
	if m.navigateDelay <= 0 {
		nav(routes.LoginPage)
		return
	}
	time.AfterFunc(m.navigateDelay, func() { nav(routes.LoginPage) })
}
