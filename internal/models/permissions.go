package models

// Permission is the closed set of capabilities a caller may hold.
type Permission string

const (
	PermissionRead     Permission = "read"
	PermissionDeposit  Permission = "deposit"
	PermissionTransfer Permission = "transfer"
)

// AllPermissions is what an interactively authenticated user holds.
// API keys carry an explicit subset instead.
func AllPermissions() []Permission {
	return []Permission{PermissionRead, PermissionDeposit, PermissionTransfer}
}

// ParsePermission validates a raw permission string against the closed set.
func ParsePermission(s string) (Permission, bool) {
	switch Permission(s) {
	case PermissionRead, PermissionDeposit, PermissionTransfer:
		return Permission(s), true
	default:
		return "", false
	}
}
