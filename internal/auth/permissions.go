package auth

import "github.com/spec-kit/servicehub-platform/internal/domain"

// Wildcard grants every permission when present in a role.
const Wildcard = "*"

// PermissionSet is a capability set derived from a role's permission tokens.
type PermissionSet struct {
	all    bool
	tokens map[string]struct{}
}

// NewPermissionSet builds a set from raw permission strings.
func NewPermissionSet(permissions []string) PermissionSet {
	set := PermissionSet{tokens: make(map[string]struct{}, len(permissions))}
	for _, permission := range permissions {
		if permission == Wildcard {
			set.all = true
			continue
		}
		set.tokens[permission] = struct{}{}
	}
	return set
}

// PermissionsForRole derives the capability set of a role. A nil role holds
// no permissions.
func PermissionsForRole(role *domain.Role) PermissionSet {
	if role == nil {
		return PermissionSet{tokens: map[string]struct{}{}}
	}
	return NewPermissionSet(role.Permissions)
}

// Has reports whether the set grants the given permission token.
func (p PermissionSet) Has(permission string) bool {
	if p.all {
		return true
	}
	_, ok := p.tokens[permission]
	return ok
}

// HasAll reports whether the set carries the wildcard.
func (p PermissionSet) HasAll() bool {
	return p.all
}
