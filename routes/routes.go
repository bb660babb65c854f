// Package routes provides shared API route constants used by both
// the API server and dashboard clients to prevent path mismatches.
package routes

// API route paths - these constants are shared between server and clients
// to ensure compile-time safety and prevent endpoint mismatches.
const (
	// AuthLogin exchanges email/password for a session token, or signals
	// that a second factor is required.
	AuthLogin = "/auth/login"

	// AuthVerifyOTP exchanges a one-time code for a session token.
	AuthVerifyOTP = "/auth/verify-otp"

	// AuthValidateToken asks the server for an authoritative verdict on a token.
	AuthValidateToken = "/auth/validate-token" // #nosec G101 -- route path, not a credential

	// AuthPasswordReset requests a password reset email.
	AuthPasswordReset = "/auth/password-reset"

	// AuthMe returns the current authenticated user's profile.
	AuthMe = "/auth/me"

	// LoginPage is the unauthenticated entry route the dashboard navigates
	// to after the session ends.
	LoginPage = "/auth/login"

	// Dashboard is the authenticated landing page.
	Dashboard = "/dashboard"
)
