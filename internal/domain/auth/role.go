package auth

import "strings"

// Role is the closed set of portal roles understood by the gateway.
// Keep string form for easy persistence and storage keys.
type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
	RoleSupport   Role = "support"
	RoleCTO       Role = "cto"
	RoleDataEntry Role = "data-entry"

	// RoleUnknown is the sentinel for role strings the gateway does not
	// recognize. Unknown input must never default to buyer.
	RoleUnknown Role = "unknown"
)

// roleAliases maps normalized backend spellings to canonical roles. The
// backend reports the same logical role under several spellings (current,
// legacy, and prefixed variants), so this table is the single place where
// raw strings are interpreted.
var roleAliases = map[string]Role{
	"buyer":         RoleBuyer,
	"buyer_class":   RoleBuyer,
	"user":          RoleBuyer,
	"customer":      RoleBuyer,
	"vendor":        RoleVendor,
	"vendor_class":  RoleVendor,
	"seller":        RoleVendor,
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"support":       RoleSupport,
	"support_agent": RoleSupport,
	"cto":           RoleCTO,
	"data_entry":    RoleDataEntry,
	"dataentry":     RoleDataEntry,
}

// Valid reports whether the role is a member of the closed enumeration.
// RoleUnknown is not considered valid.
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleVendor, RoleAdmin, RoleSupport, RoleCTO, RoleDataEntry:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role belongs to an internal portal
// (authenticated via corporate SSO rather than marketplace credentials).
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleSupport, RoleCTO, RoleDataEntry:
		return true
	default:
		return false
	}
}

// normalizeRole lowercases, trims, strips the common "ROLE_" prefix, and
// folds separator variants so "Data-Entry" and "data_entry" compare equal.
func normalizeRole(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.TrimPrefix(s, "role_")
	return s
}

// ParseRole resolves a raw backend role string to a canonical Role.
// The function is pure, total, and idempotent: parsing a canonical role
// returns it unchanged, and anything outside the alias table resolves to
// RoleUnknown.
func ParseRole(raw string) Role {
	if role, ok := roleAliases[normalizeRole(raw)]; ok {
		return role
	}
	return RoleUnknown
}

// ResolveRole produces a canonical role from a backend authentication
// response. An explicit user-type field wins over the role string when both
// are present; an unrecognized explicit type falls through to the role
// string rather than masking it.
func ResolveRole(explicitType, roleString string) Role {
	if explicitType != "" {
		if role := ParseRole(explicitType); role != RoleUnknown {
			return role
		}
	}
	return ParseRole(roleString)
}

// PartitionOrder is the fixed priority order rehydration probes token
// partitions in. Vendor-class partitions come first and buyer-class last;
// a single browser profile is assumed to host at most one active role.
func PartitionOrder() []Role {
	return []Role{RoleVendor, RoleAdmin, RoleSupport, RoleCTO, RoleDataEntry, RoleBuyer}
}
