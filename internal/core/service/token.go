package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// DefaultTokenTTL is the validity window of an issued bearer token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims carries the identity id in the "id" claim alongside the registered
// expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	ID string `json:"id"`
}

// JWTIssuer signs HS256 bearer tokens.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID.
func (j *JWTIssuer) Issue(userID string) (string, error) {
	now := j.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		ID: userID,
	})
	signed, err := t.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of token and returns the identity id.
func (j *JWTIssuer) Parse(token string) (string, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return j.secret, nil
	})
	if err != nil || !tkn.Valid || claims.ID == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.ID, nil
}
