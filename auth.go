// Package sdk provides the GetIndexedNow Go SDK for interacting with the
// dashboard API. Its centerpiece is the client-side session manager: a
// dependency-injected SessionManager that persists the signed session token,
// watches its expiry in the background, and a Transport that attaches the
// token to API requests and funnels authentication failures into one
// idempotent logout path.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getindexednow/getindexednow-go/routes"
)

// AuthClient wraps the dashboard's authentication endpoints. These flows
// produce the raw session token that callers hand to SessionManager.Login;
// the SDK never mints or verifies tokens itself.
type AuthClient struct {
	client *Client
}

// LoginRequest carries first-factor credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is either a session token or a signal that a second factor
// is required.
type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	RequiresOTP bool   `json:"requiresOtp,omitempty"`
}

// VerifyOTPRequest carries the second-factor proof.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// TokenResponse holds a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// TokenValidation is the server's authoritative verdict on a token.
type TokenValidation struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Profile is the authenticated user's account record.
type Profile struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// Login exchanges email/password for a session token. When the account has
// 2FA enabled the response carries RequiresOTP instead of a token and the
// caller continues with VerifyOTP.
func (a *AuthClient) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return LoginResponse{}, errors.New("sdk: email and password required")
	}
	var out LoginResponse
	if err := a.post(ctx, routes.AuthLogin, req, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

// VerifyOTP exchanges a one-time code for a session token.
func (a *AuthClient) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (TokenResponse, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Code) == "" {
		return TokenResponse{}, errors.New("sdk: email and code required")
	}
	var out TokenResponse
	if err := a.post(ctx, routes.AuthVerifyOTP, req, &out); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

// RequestPasswordReset asks the server to start a password reset flow.
func (a *AuthClient) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("sdk: email required")
	}
	payload := struct {
		Email string `json:"email"`
	}{Email: email}
	return a.post(ctx, routes.AuthPasswordReset, payload, nil)
}

// ValidateToken is a pure pass-through asking the server whether a token is
// still good. Not used by the polling path; callers invoke it before a
// sensitive action when they want authoritative confirmation. Transient
// network failures are retried.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (TokenValidation, error) {
	if strings.TrimSpace(token) == "" {
		return TokenValidation{}, errors.New("sdk: token required")
	}
	payload := struct {
		Token string `json:"token"`
	}{Token: token}
	var out TokenValidation
	err := retryOperation(ctx, a.client.retry, func() error {
		out = TokenValidation{}
		err := a.post(ctx, routes.AuthValidateToken, payload, &out)
		if err != nil && !isTransient(err) {
			return backoffPermanent(err)
		}
		return err
	})
	if err != nil {
		return TokenValidation{}, err
	}
	return out, nil
}

// Me returns the current user's profile using the stored session token.
func (a *AuthClient) Me(ctx context.Context) (Profile, error) {
	if err := a.ensureInitialized(); err != nil {
		return Profile{}, err
	}
	req, err := a.client.newJSONRequest(ctx, http.MethodGet, routes.AuthMe, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := a.client.send(req)
	if err != nil {
		return Profile{}, err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	var out Profile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Profile{}, err
	}
	return out, nil
}

func (a *AuthClient) post(ctx context.Context, path string, payload, out any) error {
	if err := a.ensureInitialized(); err != nil {
		return err
	}
	req, err := a.client.newJSONRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	resp, err := a.client.send(req)
	if err != nil {
		return err
	}
	//nolint:errcheck // best-effort cleanup on return
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *AuthClient) ensureInitialized() error {
	if a == nil || a.client == nil {
		return errors.New("sdk: auth client not initialized")
	}
	return nil
}
