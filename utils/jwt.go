package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the custom JWT claims carried by every session token. The
// commune rides along so geography checks never need a user lookup.
type Claims struct {
	UserID  uint   `json:"userId"`
	Role    string `json:"role"`
	Commune string `json:"commune"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed JWT for the user.
func GenerateToken(userID uint, role, commune, secret string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Commune: commune,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
