// Package headers defines HTTP header constants used across the GetIndexedNow platform.
// This is the single source of truth for header names used in API requests/responses.
package headers

const (
	// RequestID is the header for request correlation.
	// The SDK mints one per outbound API request when the caller did not.
	RequestID = "X-Request-Id"

	// Client identifies the SDK build issuing a request.
	Client = "X-GetIndexedNow-Client"
)
