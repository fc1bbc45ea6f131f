package auth

import (
	"strings"

	"github.com/brandonhuynh1/eventwish-api/internal/config"
)

// Admin roles
const (
	RoleSuperAdmin     = "superAdmin"
	RoleContentAdmin   = "contentAdmin"
	RoleUserAdmin      = "userAdmin"
	RoleAnalyticsAdmin = "analyticsAdmin"
)

// Permissions checked by admin routes
const (
	PermContentView = "content.view"
	PermContentEdit = "content.edit"
)

var rolePermissions = map[string][]string{
	RoleSuperAdmin: {
		"users.view", "users.edit", "users.block", "users.delete",
		"content.view", "content.edit", "content.create", "content.delete",
		"system.view", "system.edit",
		"analytics.view",
	},
	RoleContentAdmin: {
		"content.view", "content.edit", "content.create", "content.delete",
		"analytics.view",
	},
	RoleUserAdmin: {
		"users.view", "users.edit", "users.block",
		"analytics.view",
	},
	RoleAnalyticsAdmin: {
		"analytics.view",
	},
}

// Roles resolves admin roles from email whitelists
type Roles struct {
	byEmail map[string]string
}

// NewRoles builds the lookup. An email listed under several roles gets the
// most privileged one.
func NewRoles(cfg config.AdminConfig) *Roles {
	r := &Roles{byEmail: map[string]string{}}
	// least privileged first so stronger roles overwrite
	r.add(RoleAnalyticsAdmin, cfg.AnalyticsAdmins)
	r.add(RoleUserAdmin, cfg.UserAdmins)
	r.add(RoleContentAdmin, cfg.ContentAdmins)
	r.add(RoleSuperAdmin, cfg.SuperAdmins)
	return r
}

func (r *Roles) add(role string, emails []string) {
	for _, email := range emails {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			r.byEmail[email] = role
		}
	}
}

// RoleFor returns the admin role of email, or "" when it is not an admin
func (r *Roles) RoleFor(email string) string {
	return r.byEmail[strings.ToLower(strings.TrimSpace(email))]
}

// HasPermission reports whether role grants permission
func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Permissions lists what role grants
func Permissions(role string) []string {
	return append([]string(nil), rolePermissions[role]...)
}
