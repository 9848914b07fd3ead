// Package auth issues and validates the server's access tokens and password
// hashes. The authenticated username travels from here through explicit
// function arguments only, never through ambient state.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vikinglab/contentvault/internal/common"
)

// Claims carries the registered claims plus the authenticated username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Username: username,
	})

	return token.SignedString(secretKey)
}

func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Username, nil
}
