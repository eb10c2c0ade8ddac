package session

// TemplateUserKey is the global key under which the session user is
// exposed to templates.
var TemplateUserKey = "current_user"

// TemplateHelpers returns helper functions and data for template engines
// that support global data injection.
//
// In templates:
//
//	{% if current_user %}
//	{% if current_user|has_role:"BUSINESS" %}
//	{{ landing_path(current_user) }}
func TemplateHelpers(m *Manager) map[string]any {
	return map[string]any{
		"is_authenticated": func() bool { return m.IsAuthenticated() },
		"is_customer":      func() bool { return m.IsCustomer() },
		"is_business":      func() bool { return m.IsBusiness() },
		"is_admin":         func() bool { return m.IsAdmin() },

		"has_role": func(user *User, role string) bool {
			return user.HasRole(Role(role))
		},

		"landing_path": func(cfg Config, user *User) string {
			if user == nil {
				return pathOrDefault(cfg.GetHomePath(), DefaultHomePath)
			}
			return LandingPath(cfg, user.Role)
		},

		// Role constants for easy template access
		"roles": map[string]string{
			"customer": string(RoleCustomer),
			"business": string(RoleBusiness),
			"admin":    string(RoleAdmin),
		},
	}
}

// TemplateHelpersWithUser injects a specific user as current_user in
// addition to the standard helpers.
func TemplateHelpersWithUser(m *Manager, user *User) map[string]any {
	helpers := TemplateHelpers(m)
	helpers[TemplateUserKey] = user
	return helpers
}
