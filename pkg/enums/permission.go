package enums

import (
	"fmt"
	"strings"
)

// PermissionScope is a single grant string carried on a user record and in
// bearer token claims, e.g. "Product:Read".
type PermissionScope string

const (
	ScopeProductCreate PermissionScope = "Product:Create"
	ScopeProductRead   PermissionScope = "Product:Read"
	ScopeProductUpdate PermissionScope = "Product:Update"
	ScopeProductDelete PermissionScope = "Product:Delete"

	ScopeCategoryCreate PermissionScope = "Category:Create"
	ScopeCategoryRead   PermissionScope = "Category:Read"
	ScopeCategoryUpdate PermissionScope = "Category:Update"
	ScopeCategoryDelete PermissionScope = "Category:Delete"

	ScopeUserCreate PermissionScope = "User:Create"
	ScopeUserRead   PermissionScope = "User:Read"
	ScopeUserUpdate PermissionScope = "User:Update"
	ScopeUserDelete PermissionScope = "User:Delete"

	ScopeOrderRefund PermissionScope = "Order:Refund"
	ScopeOrderRead   PermissionScope = "Order:Read"
	ScopeOrderUpdate PermissionScope = "Order:Update"
	ScopeOrderDelete PermissionScope = "Order:Delete"

	ScopeCustomerRead    PermissionScope = "Customer:Read"
	ScopeCustomerUpdate  PermissionScope = "Customer:Update"
	ScopeCustomerDelete  PermissionScope = "Customer:Delete"
	ScopeCustomerDetails PermissionScope = "Customer:Details"
)

var scopeGroups = map[string][]PermissionScope{
	"Products":   {ScopeProductCreate, ScopeProductRead, ScopeProductUpdate, ScopeProductDelete},
	"Categories": {ScopeCategoryCreate, ScopeCategoryRead, ScopeCategoryUpdate, ScopeCategoryDelete},
	"Users":      {ScopeUserCreate, ScopeUserRead, ScopeUserUpdate, ScopeUserDelete},
	"Orders":     {ScopeOrderRefund, ScopeOrderRead, ScopeOrderUpdate, ScopeOrderDelete},
	"Customers":  {ScopeCustomerRead, ScopeCustomerUpdate, ScopeCustomerDelete, ScopeCustomerDetails},
}

// String implements fmt.Stringer.
func (p PermissionScope) String() string {
	return string(p)
}

// IsValid reports whether the scope is a known grant.
func (p PermissionScope) IsValid() bool {
	for _, group := range scopeGroups {
		for _, candidate := range group {
			if candidate == p {
				return true
			}
		}
	}
	return false
}

// ParsePermissionScope converts raw input into a PermissionScope.
func ParsePermissionScope(value string) (PermissionScope, error) {
	scope := PermissionScope(strings.TrimSpace(value))
	if !scope.IsValid() {
		return "", fmt.Errorf("invalid permission scope %q", value)
	}
	return scope, nil
}

// ScopesForGroup returns the grants of a named group ("Products", "Users", ...).
func ScopesForGroup(name string) []PermissionScope {
	group, ok := scopeGroups[name]
	if !ok {
		return nil
	}
	out := make([]PermissionScope, len(group))
	copy(out, group)
	return out
}

// HasScope reports whether the grant list contains the wanted scope.
func HasScope(granted []PermissionScope, wanted PermissionScope) bool {
	for _, scope := range granted {
		if scope == wanted {
			return true
		}
	}
	return false
}

// HasAllScopes reports whether every required scope is granted.
func HasAllScopes(granted, required []PermissionScope) bool {
	for _, scope := range required {
		if !HasScope(granted, scope) {
			return false
		}
	}
	return true
}

// JoinScopes renders grants as the comma-separated claim string.
func JoinScopes(scopes []PermissionScope) string {
	parts := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		parts = append(parts, string(scope))
	}
	return strings.Join(parts, ",")
}

// SplitScopes parses a comma-separated claim string, dropping unknown grants.
func SplitScopes(raw string) []PermissionScope {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	scopes := make([]PermissionScope, 0, len(parts))
	for _, part := range parts {
		if scope, err := ParsePermissionScope(part); err == nil {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}
