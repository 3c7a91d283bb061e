// Package rbac decides what a document access level allows.
package rbac

type Role string
type Action string

const (
	RoleViewer  Role = "viewer"
	RoleEditor  Role = "editor"
	RoleCreator Role = "creator"
)

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionShare  Action = "share"
	ActionDelete Action = "delete"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleCreator:
		return true
	case RoleEditor:
		return action == ActionRead || action == ActionWrite || action == ActionShare
	case RoleViewer:
		return action == ActionRead
	default:
		return false
	}
}

// Grantable reports whether role may be handed out through sharing.
func Grantable(role string) bool {
	return Role(role) == RoleEditor || Role(role) == RoleViewer
}

// Normalize maps unknown values to the empty role, which allows nothing.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleEditor, RoleCreator:
		return Role(role)
	default:
		return ""
	}
}
