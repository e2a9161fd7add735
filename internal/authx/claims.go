// Package authx holds the access-token claims shared by the document store
// and its clients. Signing and verification live with the server.
package authx

import (
	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims plus the account id and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Role   common.Role `json:"role"`
}

// Identity is the caller a token speaks for.
type Identity struct {
	UserID string
	Role   common.Role
}

// IsClinician reports whether the caller has the clinician role.
func (i Identity) IsClinician() bool {
	return i.Role == common.RoleClinician
}

// Identity returns the identity carried by c, or common.ErrInvalidToken when
// the id is missing or the role is unknown.
func (c *Claims) Identity() (Identity, error) {
	if c.UserID == "" || !c.Role.Valid() {
		return Identity{}, common.ErrInvalidToken
	}
	return Identity{UserID: c.UserID, Role: c.Role}, nil
}

// PeekClaims decodes the claims without verifying the signature. Clients use
// it to learn their own id and role from a token they were handed.
func PeekClaims(tokenString string) (Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return Identity{}, common.ErrInvalidToken
	}
	return claims.Identity()
}
