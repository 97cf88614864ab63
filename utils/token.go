package utils

import (
	"errors"
	"fmt"
	"time"

	"profile-service/models"

	"github.com/golang-jwt/jwt/v4"
)

var errMissingSigningKey = errors.New("token signing key is not configured")

// TokenUser is the identity carried in the token payload as {"user":{"id":...}}.
type TokenUser struct {
	ID string `json:"id"`
}

// Claims defines the token payload.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens. It holds no state
// besides its configuration.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, issuer: issuer, now: time.Now}
}

// TTL reports how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the identity.
func (s *TokenService) Issue(identityID string) (string, error) {
	if len(s.secret) == 0 {
		return "", errMissingSigningKey
	}
	if identityID == "" {
		return "", errors.New("identity id is required")
	}

	now := s.now()
	claims := Claims{
		User: TokenUser{ID: identityID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the identity id of a valid token. Malformed, tampered and
// expired tokens all yield models.ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	if len(s.secret) == 0 {
		return "", models.ErrInvalidToken
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", models.ErrInvalidToken
	}
	if claims.User.ID == "" {
		return "", models.ErrInvalidToken
	}
	return claims.User.ID, nil
}
