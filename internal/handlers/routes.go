package handlers

import (
	"log"
	"net/http"

	"go-adega-pos/internal/middleware"
	"go-adega-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "online"})
}

// Mount registers every route on r. Registration is a feature flag: it is
// only reachable when explicitly allowed.
func (h *Handler) Mount(r gin.IRouter, allowRegistration bool) {
	r.GET("/health", h.Health)
	r.POST("/login", h.Login)

	if allowRegistration {
		r.POST("/register", h.Register)
		log.Println("WARNING: registration route is OPEN. Disable this in production!")
	} else {
		log.Println("registration route is disabled")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.tokens))
	{
		// EVERY SIGNED-IN USER
		api.GET("/products", h.GetProducts)
		api.GET("/products/scan/:barcode", h.ScanProduct)
		api.GET("/products/filters", h.ProductFilters)
		api.POST("/checkout", h.ProcessSale)
		api.GET("/sales/:id", h.GetSale)
		api.PUT("/me/password", h.ChangePassword)

		// MANAGER & ADMIN
		back := api.Group("")
		back.Use(middleware.RequireRole(models.RoleManager, models.RoleAdmin))
		{
			back.POST("/products", h.AddProduct)
			back.PUT("/products/:id", h.UpdateProduct)
			back.DELETE("/products/:id", h.DeleteProduct)
			back.POST("/products/:id/adjust", h.AdjustStock)
			back.GET("/products/:id/movements", h.GetMovements)
			back.POST("/products/import", h.ImportProducts)
			back.GET("/products/low-stock", h.LowStock)
			back.GET("/products/expiring", h.Expiring)

			back.GET("/suppliers", h.GetSuppliers)
			back.POST("/suppliers", h.AddSupplier)
			back.PUT("/suppliers/:id", h.UpdateSupplier)
			back.DELETE("/suppliers/:id", h.DeleteSupplier)

			back.GET("/reports", h.GetSalesReport)
			back.GET("/reports/valuation", h.GetStockValuation)
		}

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/settings", h.GetSettings)
			admin.PUT("/settings", h.UpdateSettings)

			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:id/role", h.SetUserRole)
			admin.PUT("/users/:id/password", h.ResetPassword)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.POST("/ask", h.AskAI)
		}
	}
}
