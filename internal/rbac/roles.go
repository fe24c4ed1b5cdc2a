package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleOwner           = "owner"
	RoleManager         = "manager"
	RolePayroll         = "payroll"
	RoleSuperAdmin      = "super_admin"
	RoleSupportEngineer = "support_engineer" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupportEngineer }
