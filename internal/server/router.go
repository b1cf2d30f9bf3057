package server

import (
	"net/http"

	"atelier-backend/internal/config"
	"atelier-backend/internal/handlers"
	"atelier-backend/internal/middleware"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", handlers.Login)

	// signature-protected, no bearer token needed
	v1.GET("/files/:name", handlers.ServeFile)

	authed := v1.Group("/")
	authed.Use(middleware.RequireAuth(cfg.JWTSecret))

	authed.POST("/auth/register",
		middleware.RequireRole(models.RoleAdmin),
		handlers.Register,
	)

	// clients
	authed.GET("/clients", handlers.ListClients)
	authed.GET("/clients/export", handlers.ExportClients)
	authed.POST("/clients", handlers.CreateClient)
	authed.GET("/clients/:id", handlers.GetClient)
	authed.PUT("/clients/:id", handlers.UpdateClient)
	authed.DELETE("/clients/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.DeleteClient,
	)

	// entities and inventories
	authed.GET("/entities", handlers.ListEntities)
	authed.POST("/entities",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateEntity,
	)
	authed.GET("/entities/:id", handlers.GetEntity)
	authed.PUT("/entities/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateEntity,
	)
	authed.DELETE("/entities/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteEntity,
	)
	authed.GET("/entities/:id/inventory", handlers.GetEntityInventory)

	// workshops and repairs
	authed.GET("/workshops", handlers.ListWorkshops)
	authed.GET("/workshops/:id/repairs", handlers.ListRepairJobs)
	authed.POST("/workshops/:id/repairs", handlers.CreateRepairJob)
	authed.PUT("/workshops/:id/repairs/:rid/complete", handlers.CompleteRepairJob)

	// clothes
	authed.GET("/clothes", handlers.ListClothes)
	authed.GET("/clothes/export", handlers.ExportClothes)
	authed.POST("/clothes", handlers.CreateCloth)
	authed.GET("/clothes/types", handlers.ListClothTypes)
	authed.POST("/clothes/types",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.CreateClothType,
	)
	authed.GET("/clothes/:id", handlers.GetCloth)
	authed.PUT("/clothes/:id", handlers.UpdateCloth)
	authed.DELETE("/clothes/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.DeleteCloth,
	)
	authed.GET("/clothes/:id/available", handlers.ClothAvailability)

	// orders
	authed.GET("/orders", handlers.ListOrders)
	authed.GET("/orders/export", handlers.ExportOrders)
	authed.POST("/orders", handlers.CreateOrder)
	authed.GET("/orders/:id", handlers.GetOrder)
	authed.POST("/orders/:id/add-payment", handlers.AddPayment)
	authed.POST("/orders/:id/payments/:pid/cancel", handlers.CancelPayment)
	authed.POST("/orders/:id/deliver", handlers.DeliverOrder)
	authed.POST("/orders/:id/return", handlers.ReturnOrderItems)
	authed.POST("/orders/:id/finish", handlers.FinishOrder)
	authed.POST("/orders/:id/cancel", handlers.CancelOrder)
	authed.POST("/orders/:id/custody", handlers.CreateCustody)

	// custody
	authed.GET("/custody", handlers.ListCustody)
	authed.GET("/custody/:id", handlers.GetCustody)
	authed.POST("/custody/:id/return", handlers.ReturnCustody)
	authed.POST("/custody/:id/photos", handlers.UploadCustodyPhoto)
	authed.POST("/custody/:id/return-proof", handlers.UploadReturnProof)

	// transfers
	authed.GET("/transfers", handlers.ListTransfers)
	authed.POST("/transfers", handlers.CreateTransfer)
	authed.GET("/transfers/:id", handlers.GetTransfer)
	authed.POST("/transfers/:id/approve", handlers.ApproveTransfer)
	authed.POST("/transfers/:id/reject", handlers.RejectTransfer)
	authed.POST("/transfers/:id/approve-items", handlers.ApproveTransferItems)
	authed.POST("/transfers/:id/reject-items", handlers.RejectTransferItems)

	// employees
	authed.GET("/employees",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.ListEmployees,
	)
	authed.POST("/employees",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateEmployee,
	)
	authed.GET("/employees/:id",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.GetEmployee,
	)
	authed.PUT("/employees/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateEmployee,
	)
	authed.DELETE("/employees/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteEmployee,
	)
	authed.POST("/employees/:id/assignments",
		middleware.RequireRole(models.RoleAdmin),
		handlers.AddEmployeeAssignment,
	)
	authed.DELETE("/employees/:id/assignments/:aid",
		middleware.RequireRole(models.RoleAdmin),
		handlers.RemoveEmployeeAssignment,
	)

	// factory pipeline
	authed.GET("/factory/orders", handlers.ListFactoryItems)
	authed.PUT("/factory/orders/items/:id/status", handlers.UpdateFactoryItemStatus)

	// reports
	authed.GET("/reports/revenue",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleAccountant),
		handlers.RevenueReport,
	)
	authed.GET("/reports/receivables",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleAccountant),
		handlers.ReceivablesReport,
	)
	authed.GET("/reports/occupancy",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager, models.RoleAccountant),
		handlers.OccupancyReport,
	)
	authed.GET("/reports/cashbox",
		middleware.RequireRole(models.RoleAdmin, models.RoleAccountant),
		handlers.CashboxReport,
	)

	// audit trail and notifications
	authed.GET("/history",
		middleware.RequireRole(models.RoleAdmin, models.RoleManager),
		handlers.ListHistory,
	)
	authed.GET("/notifications", handlers.ListNotifications)
	authed.POST("/notifications/:id/read", handlers.MarkNotificationRead)

	return r
}
