// Package auth issues and verifies the HS256 access tokens that carry the
// caller identity to the document store.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/authx"
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func GenerateToken(userID string, role common.Role, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the identity it carries.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (authx.Identity, error) {
	claims := &authx.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authx.Identity{}, common.ErrTokenExpired
		}
		return authx.Identity{}, common.ErrInvalidToken
	}

	if !token.Valid {
		return authx.Identity{}, common.ErrInvalidToken
	}

	return claims.Identity()
}
