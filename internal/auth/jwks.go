package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	apperrors "cashflow/internal/errors"
	"cashflow/internal/logger"
)

const (
	jwksRefreshInterval = time.Hour
	jwksFetchTimeout    = 5 * time.Second
)

// jwksSigningMethods are the asymmetric algorithms accepted for
// provider-issued tokens. HS256 is excluded so a leaked JWKS document can
// never be replayed as an HMAC secret.
var jwksSigningMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// headerTransport adds static headers to every key-set request. Supabase
// JWKS endpoints require the project api key on the fetch.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for name, value := range t.headers {
		clone.Header.Set(name, value)
	}
	return t.base.RoundTrip(clone)
}

// JWKSVerifier verifies provider-issued tokens against the provider's
// published key set. Fetching, kid lookup, caching, and hourly refresh are
// delegated to keyfunc; the initial fetch happens at construction so a
// misconfigured endpoint fails startup instead of every request.
type JWKSVerifier struct {
	keys keyfunc.Keyfunc
}

// NewJWKSVerifier creates a verifier backed by the given JWKS endpoint.
// apiKey is sent as both an apikey header and bearer credential when set
// (Supabase-style endpoints require it). The key set refreshes in the
// background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, url, apiKey string) (*JWKSVerifier, error) {
	client := &http.Client{Timeout: jwksFetchTimeout}
	if apiKey != "" {
		client.Transport = &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"apikey":        apiKey,
				"Authorization": "Bearer " + apiKey,
			},
		}
	}

	storage, err := jwkset.NewStorageFromHTTP(url, jwkset.HTTPClientStorageOptions{
		Client:          client,
		Ctx:             ctx,
		HTTPTimeout:     jwksFetchTimeout,
		RefreshInterval: jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Get().Warnw("jwks refresh failed, serving cached keys", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load key set from %s: %w", url, err)
	}

	keys, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build keyfunc: %w", err)
	}

	return &JWKSVerifier{keys: keys}, nil
}

// Verify parses and validates a provider-issued token.
func (v *JWKSVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keys.Keyfunc,
		jwt.WithValidMethods(jwksSigningMethods))
	if err != nil || !token.Valid {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Token has no subject")
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

var _ Verifier = (*JWKSVerifier)(nil)
