package auth

import "strings"

// Identity is the in-process representation of an authenticated caller.
// It is built exclusively from verified claims, lives for one request and is
// owned by that request's context; it is never persisted or shared.
type Identity struct {
	UserID      string
	Email       string
	Name        string
	Roles       []string
	Permissions []string
}

// NewIdentity builds an Identity from verified claims.
func NewIdentity(claims *Claims) *Identity {
	return &Identity{
		UserID:      claims.UserID,
		Email:       claims.Email,
		Name:        claims.Name,
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity carries at least one of the roles.
// An empty requirement list succeeds.
func (i *Identity) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if i.HasRole(r) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the identity carries every given role.
func (i *Identity) HasAllRoles(roles []string) bool {
	for _, r := range roles {
		if !i.HasRole(r) {
			return false
		}
	}
	return true
}

// HasPermission checks a permission of the form "action:resource".
//
// Wildcards: "*:*" grants everything and "*:resource" grants any action on
// that resource. Action-level wildcards ("action:*") are not recognized and
// only ever match literally.
func (i *Identity) HasPermission(permission string) bool {
	for _, p := range i.Permissions {
		if p == permission || p == "*:*" {
			return true
		}
	}
	if _, resource, ok := strings.Cut(permission, ":"); ok {
		for _, p := range i.Permissions {
			if p == "*:"+resource {
				return true
			}
		}
	}
	return false
}

// HasAllPermissions reports whether the identity carries every given
// permission. An empty requirement list succeeds.
func (i *Identity) HasAllPermissions(permissions []string) bool {
	for _, p := range permissions {
		if !i.HasPermission(p) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether the identity carries at least one of the
// given permissions. An empty requirement list succeeds.
func (i *Identity) HasAnyPermission(permissions []string) bool {
	if len(permissions) == 0 {
		return true
	}
	for _, p := range permissions {
		if i.HasPermission(p) {
			return true
		}
	}
	return false
}
