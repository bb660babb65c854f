package sdk

// Version is the published SDK version.
// 0.4.0: Breaking - OnLogout returns a *LogoutSubscription with Cancel instead of
// requiring callers to retain the callback for RemoveLogoutCallback.
// 0.3.0: Route every request through Transport; 401 responses and expired-before-send
// tokens now surface AuthError sentinels and funnel into SessionManager.Logout.
// 0.2.0: Add FileStore-backed session persistence under the user config dir.
const Version = "0.4.0"
