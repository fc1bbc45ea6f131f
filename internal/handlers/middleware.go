package handlers

import (
	"net/http"

	"github.com/brandonhuynh1/eventwish-api/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	identityKey  = "identity"
	adminRoleKey = "admin_role"
)

// AuthConfig selects how callers are authenticated
type AuthConfig struct {
	Verifier auth.Verifier
	// AllowUIDHeader trusts x-firebase-uid without a token. Development only.
	AllowUIDHeader bool
	Roles          *auth.Roles
}

// authMiddleware requires a verified Firebase identity
func authMiddleware(cfg AuthConfig, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if cfg.AllowUIDHeader && header == "" {
			if uid := c.GetHeader("x-firebase-uid"); uid != "" {
				logger.Debug().Str("uid", uid).Msg("Using UID from header")
				c.Set(identityKey, &auth.Identity{UID: uid})
				c.Next()
				return
			}
		}

		token := auth.BearerToken(header)
		if token == "" {
			logger.Warn().Str("path", c.FullPath()).Msg("Authentication failed: no token provided")
			fail(c, http.StatusUnauthorized, auth.Message(auth.ErrMissingToken))
			c.Abort()
			return
		}

		identity, err := cfg.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("Authentication failed")
			fail(c, http.StatusUnauthorized, auth.Message(err))
			c.Abort()
			return
		}

		// Store identity in context for handlers to use
		c.Set(identityKey, identity)
		c.Next()
	}
}

// requirePermission admits admins whose role grants permission. It runs
// after authMiddleware.
func requirePermission(roles *auth.Roles, permission string, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		role := ""
		if identity != nil {
			role = roles.RoleFor(identity.Email)
		}

		if role == "" {
			logger.Warn().Str("path", c.FullPath()).Msg("Admin access denied")
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"isAdmin": false,
				"message": "User is not authorized for admin access",
			})
			c.Abort()
			return
		}
		if !auth.HasPermission(role, permission) {
			logger.Warn().Str("role", role).Str("permission", permission).Msg("Admin permission denied")
			fail(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}

		c.Set(adminRoleKey, role)
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}
