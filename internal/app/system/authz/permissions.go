// internal/app/system/authz/permissions.go
package authz

// Permission tokens. The vocabulary is defined once here; custom roles may
// only be granted permissions from this list.
const (
	PermMachineView   = "machine:view"
	PermMachineCreate = "machine:create"
	PermMachineEdit   = "machine:edit"
	PermMachineDelete = "machine:delete"

	PermPreStartView   = "prestart:view"
	PermPreStartSubmit = "prestart:submit"

	PermServiceView   = "service:view"
	PermServiceRecord = "service:record"

	PermFuelView   = "fuel:view"
	PermFuelRecord = "fuel:record"

	PermUsersView   = "users:view"
	PermUsersManage = "users:manage"

	PermRolesManage = "roles:manage"

	PermNotificationsSend = "notifications:send"
)

// AllPermissions lists every valid permission token.
var AllPermissions = []string{
	PermMachineView, PermMachineCreate, PermMachineEdit, PermMachineDelete,
	PermPreStartView, PermPreStartSubmit,
	PermServiceView, PermServiceRecord,
	PermFuelView, PermFuelRecord,
	PermUsersView, PermUsersManage,
	PermRolesManage,
	PermNotificationsSend,
}

// IsValidPermission reports whether perm belongs to the vocabulary.
func IsValidPermission(perm string) bool {
	_, ok := permissionSet[perm]
	return ok
}

var permissionSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// rolePermissions is the static system-role → permission-set mapping. It is
// built once at init and never mutated, so concurrent reads need no locking.
// Superadmin is deliberately absent: superadmins bypass permission checks
// entirely and never consult this table.
var rolePermissions = map[string]map[string]struct{}{
	"admin": permSet(
		PermMachineView, PermMachineCreate, PermMachineEdit, PermMachineDelete,
		PermPreStartView, PermPreStartSubmit,
		PermServiceView, PermServiceRecord,
		PermFuelView, PermFuelRecord,
		PermUsersView, PermUsersManage,
		PermRolesManage,
		PermNotificationsSend,
	),
	"manager": permSet(
		PermMachineView, PermMachineCreate, PermMachineEdit,
		PermPreStartView, PermPreStartSubmit,
		PermServiceView, PermServiceRecord,
		PermFuelView, PermFuelRecord,
		PermUsersView,
		PermNotificationsSend,
	),
	"technician": permSet(
		PermMachineView, PermMachineEdit,
		PermPreStartView, PermPreStartSubmit,
		PermServiceView, PermServiceRecord,
		PermFuelView, PermFuelRecord,
	),
	"operator": permSet(
		PermMachineView,
		PermPreStartSubmit,
		PermFuelRecord,
	),
	"user": permSet(
		PermMachineView,
		PermPreStartView, PermPreStartSubmit,
		PermFuelView,
	),
	"viewer": permSet(
		PermMachineView,
		PermPreStartView,
		PermServiceView,
		PermFuelView,
	),
}

func permSet(perms ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// RoleHasPermission is the pure static-mapping check: does the system role's
// permission set contain perm? Unknown roles have no permissions.
func RoleHasPermission(role, perm string) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// RolesWithPermission returns the system roles whose static set contains perm.
func RolesWithPermission(perm string) []string {
	var roles []string
	for role, set := range rolePermissions {
		if _, ok := set[perm]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
