package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuerName = "todo-api"

var (
	// ErrMissingSecret means no signing key was configured.
	ErrMissingSecret = errors.New("jwt: signing secret is not configured")
	// ErrTokenInvalid covers every verification failure: malformed, expired, bad signature.
	ErrTokenInvalid = errors.New("jwt: token invalid")
)

// Claims defines JWT payload.
type Claims struct {
	UserID string `json:"id"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed JWT with provided secret and ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Issuer signs and verifies identity tokens with a fixed secret and lifetime.
type Issuer struct {
	secret string
	ttl    time.Duration
}

// NewIssuer fails with ErrMissingSecret when secret is blank.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: secret, ttl: ttl}, nil
}

// TTL reports the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	return GenerateToken(userID, i.secret, i.ttl)
}

// Verify returns the user id bound to token or ErrTokenInvalid.
func (i *Issuer) Verify(token string) (string, error) {
	claims, err := Parse(strings.TrimSpace(token), i.secret)
	if err != nil || claims.UserID == "" {
		return "", ErrTokenInvalid
	}
	return claims.UserID, nil
}
