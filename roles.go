package session

// Role is the user's role
type Role = string

const (
	// RoleCustomer is a marketplace customer
	RoleCustomer Role = "CUSTOMER"
	// RoleBusiness is a service-providing business
	RoleBusiness Role = "BUSINESS"
	// RoleAdmin is a platform administrator
	RoleAdmin Role = "ADMIN"
)

// Route defaults used when no Config overrides them.
const (
	DefaultHomePath            = "/"
	DefaultLoginPath           = "/login"
	DefaultRegisterPath        = "/register"
	DefaultCustomerLandingPath = "/customer/profile"
	DefaultBusinessLandingPath = "/business/profile"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleBusiness, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// AllRoles returns all predefined roles
func AllRoles() []Role {
	return []Role{RoleCustomer, RoleBusiness, RoleAdmin}
}

// LandingPath returns the default landing area for a role: customers and
// businesses land on their profile, everyone else on home.
func LandingPath(cfg Config, role Role) string {
	switch role {
	case RoleCustomer:
		return pathOrDefault(cfg.GetCustomerLandingPath(), DefaultCustomerLandingPath)
	case RoleBusiness:
		return pathOrDefault(cfg.GetBusinessLandingPath(), DefaultBusinessLandingPath)
	default:
		return pathOrDefault(cfg.GetHomePath(), DefaultHomePath)
	}
}

func pathOrDefault(path, def string) string {
	if path == "" {
		return def
	}
	return path
}
