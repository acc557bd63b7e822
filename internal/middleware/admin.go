package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/atelierhaus/portfolio-backend/internal/config"
)

// ContextIsAdmin is the context key under which the admin flag is stored.
const ContextIsAdmin = "is_admin"

// AdminAccess lifts the out-of-band admin flag set by the upstream auth
// layer into the request context. Authenticating the caller is that layer's
// job, not ours.
func AdminAccess(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextIsAdmin, c.GetHeader(cfg.AdminHeader) == "true")
		c.Next()
	}
}
