package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	FamilyID *uuid.UUID
	Role     string
	Scopes   []enums.PermissionScope
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. Scopes is the
// comma-separated grant string; use PermissionScopes to read it back.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	FamilyID *uuid.UUID `json:"family_id,omitempty"`
	Role     string     `json:"role,omitempty"`
	Scopes   string     `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// PermissionScopes parses the grant claim, dropping unknown entries.
func (c *AccessTokenClaims) PermissionScopes() []enums.PermissionScope {
	return enums.SplitScopes(c.Scopes)
}

// HasScope reports whether the token carries the wanted grant.
func (c *AccessTokenClaims) HasScope(wanted enums.PermissionScope) bool {
	return enums.HasScope(c.PermissionScopes(), wanted)
}
