package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "cashflow/internal/errors"
)

// Claims are the JWT claims carried by locally issued access tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// HMACVerifier verifies and issues HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewHMACVerifier creates a verifier/issuer for locally signed tokens.
func NewHMACVerifier(secret string, expiry time.Duration) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		expiry: expiry,
		issuer: "cashflow-api",
	}
}

// Issue signs a new access token for the given identity.
func (v *HMACVerifier) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    v.issuer,
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify parses and validates an HS256 access token.
func (v *HMACVerifier) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnauthorized, "Token has no subject")
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

var _ Verifier = (*HMACVerifier)(nil)
