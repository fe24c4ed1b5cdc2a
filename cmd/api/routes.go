package main

import (
	"timesheet-platform/internal/auth"
	"timesheet-platform/internal/httpapi"
	"timesheet-platform/internal/rbac"
	"timesheet-platform/internal/reporting"
	"timesheet-platform/internal/timesheet"
	"timesheet-platform/internal/webhook"

	"github.com/gin-gonic/gin"
)

type deps struct {
	authMW     gin.HandlerFunc
	auth       *auth.Manager
	gateway    *webhook.Gateway
	timesheets *timesheet.Service
	reports    *reporting.Service
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Voice platform webhook (public; the gateway checks the shared
	// secret header when one is configured).
	r.POST("/webhooks/vapi/tool-calls", d.gateway.HandleToolCalls)

	h := httpapi.Handlers{
		Auth:       d.auth,
		Timesheets: d.timesheets,
		Reports:    d.reports,
	}

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(d.authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			tid, _ := auth.TenantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"user_id": uid, "tenant_id": tid, "role": role})
		})

		// TIMESHEET routes
		timesheets := v1.Group("/timesheets")
		timesheets.Use(rbac.RequireTenant())
		timesheets.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleManager, rbac.RolePayroll, rbac.RoleSuperAdmin))
		{
			timesheets.GET("", h.ListTimesheets)
		}

		// REPORT routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireTenant())
		reports.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleManager, rbac.RolePayroll, rbac.RoleSuperAdmin))
		{
			reports.GET("/hours", h.HoursReport)
		}

		// ADMIN routes
		// Only owner/super_admin can access admin endpoints by default.
		// Hidden support_engineer is intentionally NOT included unless explicitly desired.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireTenant())
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			admin.GET("/ping", func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "ok"})
			})
		}
	}
}
