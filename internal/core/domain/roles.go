package domain

import "strings"

// Role is a portal role as issued in the access token.
type Role string

const (
	RoleViewer       Role = "viewer"
	RoleOrgUser      Role = "org_user"
	RoleOrgPublisher Role = "org_publisher"
	RoleOrgAdmin     Role = "org_admin"
)

var roleRank = map[Role]int{
	RoleViewer:       1,
	RoleOrgUser:      2,
	RoleOrgPublisher: 3,
	RoleOrgAdmin:     4,
}

// ParseRole normalises a role claim. Unknown values are returned as-is and rank 0.
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// Rank returns the privilege level of r, 0 for unknown roles.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r grants everything min grants.
// An unknown min is never satisfied.
func (r Role) AtLeast(min Role) bool {
	need := min.Rank()
	return need > 0 && r.Rank() >= need
}

// CompareRoles orders roles by privilege: -1 if a < b, 0 if equal rank, +1 if a > b.
func CompareRoles(a, b Role) int {
	ra, rb := a.Rank(), b.Rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// HighestRole returns the most privileged of roles, or "" when none is known.
func HighestRole(roles ...Role) Role {
	var best Role
	for _, r := range roles {
		if r.Rank() > best.Rank() {
			best = r
		}
	}
	return best
}
