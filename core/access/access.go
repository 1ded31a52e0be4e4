// Package access holds the static table of which roles may do what on each resource.
package access

import "github.com/trezcool/pta/core/user"

type (
	Resource string
	Action   string
)

// Resources
const (
	Schools  Resource = "schools"
	Classes  Resource = "classes"
	Students Resource = "students"
	Parents  Resource = "parents"
	Payments Resource = "payments"
	Expenses Resource = "expenses"
	Users    Resource = "users"
	Reports  Resource = "reports"
)

// Actions
const (
	Read   Action = "read"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
	Export Action = "export"
)

var (
	allRoles = user.AllRoles
	staff    = []string{user.RoleTeacher, user.RoleTreasurer, user.RolePrincipal, user.RoleAdmin}
	managers = []string{user.RolePrincipal, user.RoleAdmin}
	finance  = []string{user.RoleTreasurer, user.RolePrincipal, user.RoleAdmin}
	bookkeep = []string{user.RoleTreasurer, user.RoleAdmin}
	admins   = []string{user.RoleAdmin}

	// Parents are granted Read on students & payments; their results are narrowed to their own children.
	table = map[Resource]map[Action][]string{
		Schools: {
			Read:   allRoles,
			Update: admins,
		},
		Classes: {
			Read:   allRoles,
			Create: managers,
			Update: managers,
			Delete: managers,
		},
		Students: {
			Read:   allRoles,
			Create: managers,
			Update: []string{user.RoleTeacher, user.RolePrincipal, user.RoleAdmin},
			Delete: managers,
		},
		Parents: {
			Read:   staff,
			Create: managers,
			Update: managers,
			Delete: managers,
		},
		Payments: {
			Read:   []string{user.RoleParent, user.RoleTreasurer, user.RolePrincipal, user.RoleAdmin},
			Create: []string{user.RoleTreasurer, user.RoleAdmin, user.RolePrincipal},
			Update: bookkeep,
			Delete: bookkeep,
		},
		Expenses: {
			Read:   finance,
			Create: []string{user.RoleTreasurer, user.RoleAdmin, user.RolePrincipal},
			Update: bookkeep,
			Delete: bookkeep,
		},
		Users: {
			Read:   managers,
			Create: admins,
			Update: admins,
			Delete: admins,
		},
		Reports: {
			Read:   finance,
			Export: finance,
		},
	}
)

// Allowed reports whether `role` may perform `act` on `res`. Unknown roles, resources and actions are denied.
func Allowed(role string, res Resource, act Action) bool {
	for _, r := range table[res][act] {
		if r == role {
			return true
		}
	}
	return false
}

// Roles returns the roles allowed to perform `act` on `res`.
func Roles(res Resource, act Action) []string {
	roles := table[res][act]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// ScopedToOwn reports whether `role` only sees its own records of `res`.
func ScopedToOwn(role string, res Resource) bool {
	return role == user.RoleParent && (res == Students || res == Payments)
}
