// Package common contains shared constants and sentinel errors used across
// admindata components.
package common

const (
	// AuthorizationHeaderName carries the bearer access token on REST requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "
)
