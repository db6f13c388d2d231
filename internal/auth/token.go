package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/taskforge/task-service/internal/domain"
)

// Sentinel errors distinguish forged tokens from unparsable ones. Expiry is a
// separate check so callers can tell a stale token from a corrupted one.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMalformedToken   = errors.New("malformed token")
)

// TokenCodec signs and verifies JWTs. The secret is fixed at construction;
// rotating it requires a new codec (and invalidates all outstanding tokens).
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec around the given secret.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = 10 * time.Hour
	}
	return &TokenCodec{secret: secret, ttl: ttl}
}

// TTL returns the validity window applied to issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Claims describes the JWT payload.
type Claims struct {
	Role domain.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token asserting the subject and role, expiring after the TTL.
func (c *TokenCodec) Issue(subject string, role domain.UserRole) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAndExtractSubject checks the signature and returns the subject claim.
// It does not evaluate expiry; use IsExpired for that.
func (c *TokenCodec) VerifyAndExtractSubject(tokenStr string) (string, error) {
	claims, err := c.verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ExtractRole checks the signature and returns the role claim, which may be
// empty when the token carries none.
func (c *TokenCodec) ExtractRole(tokenStr string) (domain.UserRole, error) {
	claims, err := c.verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}

// IsExpired reports whether the expiry claim lies in the past. It inspects
// claims without verifying the signature, so a stale token is reported as
// stale even before signature checks run.
func (c *TokenCodec) IsExpired(tokenStr string) (bool, error) {
	expiresAt, err := c.ExpiresAt(tokenStr)
	if err != nil {
		return false, err
	}
	return expiresAt.Before(time.Now()), nil
}

// ExpiresAt returns the expiry claim of the token.
func (c *TokenCodec) ExpiresAt(tokenStr string) (time.Time, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, errors.Join(ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}

func (c *TokenCodec) verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS512 {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, errors.Join(ErrInvalidSignature, err)
		}
		return nil, errors.Join(ErrMalformedToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}
