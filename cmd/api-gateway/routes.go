package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/handler"
	"github.com/noah-isme/erp-api/internal/middleware"
	"github.com/noah-isme/erp-api/internal/models"
)

type routeDeps struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	documents     *handler.DocumentHandler
	approvals     *handler.ApprovalHandler
	attachments   *handler.AttachmentHandler
	departments   *handler.DepartmentHandler
	warehouses    *handler.WarehouseHandler
	tasks         *handler.TaskHandler
	notifications *handler.NotificationHandler
	reports       *handler.ReportHandler
	schemas       *handler.SchemaHandler
	metrics       *handler.MetricsHandler
	tokens        middleware.TokenValidator
	audit         middleware.AuditWriter
}

func registerRoutes(api *gin.RouterGroup, d routeDeps) {
	admins := middleware.RequireRoles(models.RoleAdmin)
	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)

	auth := api.Group("/auth")
	auth.POST("/login", d.auth.Login)
	auth.POST("/refresh", d.auth.Refresh)

	// Signed links carry their own authorisation.
	api.GET("/attachments/:id/download", d.attachments.Download)
	api.GET("/reports/download", d.reports.Download)
	api.GET("/schemas", d.schemas.List)
	api.GET("/schemas/:name", d.schemas.Describe)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.tokens))

	secured.POST("/auth/logout", d.auth.Logout)
	secured.POST("/auth/change-password", d.auth.ChangePassword)
	secured.GET("/auth/me", d.auth.Me)

	users := secured.Group("/users")
	users.GET("", d.users.List)
	users.POST("", admins, d.users.Create)
	users.GET("/:id", d.users.Get)
	users.PUT("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.Self), d.users.Update)
	users.DELETE("/:id", admins, d.users.Delete)
	users.PUT("/:id/parent", admins, d.users.AssignParent)
	users.GET("/:id/subordinates", d.users.Subordinates)

	secured.POST("/hierarchy/rebuild", admins, d.users.RebuildHierarchy)
	secured.GET("/hierarchy/violations", admins, d.users.CheckHierarchy)

	docs := secured.Group("/documents")
	docs.GET("/:type", d.documents.List)
	docs.POST("/:type", d.documents.Create)
	docs.GET("/:type/export", middleware.Audit(d.audit, models.AuditActionDocumentExport, "documents"), d.documents.Export)
	docs.GET("/:type/:id", d.documents.Get)
	docs.PUT("/:type/:id", d.documents.Update)
	docs.DELETE("/:type/:id", managers, d.documents.Delete)
	docs.GET("/:type/:id/transactions", d.approvals.List)
	docs.POST("/:type/:id/transactions", d.approvals.Record)
	docs.GET("/:type/:id/approval-status", d.approvals.Current)
	docs.GET("/:type/:id/attachments", d.attachments.List)
	docs.POST("/:type/:id/attachments", d.attachments.Upload)
	docs.POST("/:type/:id/quotation", middleware.Audit(d.audit, models.AuditActionReportGenerate, "quotation"), d.reports.Quotation)

	secured.DELETE("/attachments/:id", d.attachments.Delete)

	departments := secured.Group("/departments")
	departments.GET("", d.departments.List)
	departments.GET("/:id", d.departments.Get)
	departments.POST("", admins, d.departments.Create)
	departments.PUT("/:id", admins, d.departments.Update)
	departments.DELETE("/:id", admins, d.departments.Delete)

	warehouses := secured.Group("/warehouses")
	warehouses.GET("", d.warehouses.List)
	warehouses.GET("/:id", d.warehouses.Get)
	warehouses.POST("", admins, d.warehouses.Create)
	warehouses.PUT("/:id", admins, d.warehouses.Update)
	warehouses.DELETE("/:id", admins, d.warehouses.Delete)
	secured.GET("/inventory-transfers", d.warehouses.ListTransfers)
	secured.POST("/inventory-transfers", managers, d.warehouses.CreateTransfer)

	tasks := secured.Group("/tasks")
	tasks.GET("", d.tasks.List)
	tasks.POST("", d.tasks.Create)
	tasks.GET("/:id", d.tasks.Get)
	tasks.GET("/:id/descriptions", d.tasks.Descriptions)
	tasks.POST("/:id/descriptions", d.tasks.AddDescription)

	secured.GET("/notification-settings", d.notifications.Settings)
	secured.PUT("/notification-settings", d.notifications.UpdateSettings)
	secured.GET("/notifications", d.notifications.Inbox)
	secured.POST("/notifications/:id/read", d.notifications.MarkRead)

	secured.POST("/reports/balance-sheet", managers, middleware.Audit(d.audit, models.AuditActionReportGenerate, "balance_sheet"), d.reports.BalanceSheet)

	secured.GET("/system/metrics", admins, d.metrics.Snapshot)
}
