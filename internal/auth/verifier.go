// Package auth implements bearer token verification behind a small
// capability interface, so the concrete identity provider is swappable
// in tests via a fixed key pair.
package auth

// Identity is the authenticated caller extracted from a verified token.
// UserID is an opaque reference owned by the identity provider; the API
// never stores credentials for it.
type Identity struct {
	UserID string
	Email  string
}

// Verifier validates a bearer token string and extracts an identity.
// Implementations must treat every failure mode (missing, malformed,
// expired, bad signature, unknown signing key) as an authentication
// failure; callers map the error to a 401 uniformly.
type Verifier interface {
	Verify(tokenString string) (*Identity, error)
}
