package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the platform role carried in the access token.
type Role string

const (
	RoleClient    Role = "client"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// Identity is the authenticated caller. The service trusts this as input;
// issuing and refreshing tokens belongs to the platform's auth service.
type Identity struct {
	UserID   string
	Role     Role
	Verified bool
}

// Privileged reports whether the role may create sessions and join directly
// without approval.
func (i Identity) Privileged() bool {
	return i.Role == RoleCounselor || i.Role == RoleAdmin
}

// Claims is the JWT payload. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// ParseToken validates an HMAC-signed token and returns the caller identity.
func ParseToken(tokenString string, secret []byte) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	return Identity{
		UserID:   claims.Subject,
		Role:     Role(claims.Role),
		Verified: claims.Verified,
	}, nil
}

// SignToken issues an HMAC token for the identity. Used by the seed tooling
// and tests; production tokens come from the auth service.
func SignToken(ident Identity, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:     string(ident.Role),
		Verified: ident.Verified,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
