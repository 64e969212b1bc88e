package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sangkips/fixdesk-api/internal/config"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/handler"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/middleware"
	"github.com/sangkips/fixdesk-api/pkg/utils"
)

const (
	permissionReversal = "pos-reversal"
	roleAdmin          = "admin"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Session *handler.SessionHandler
	Receipt *handler.ReceiptHandler
	Printer *handler.PrinterHandler
	Admin   *handler.AdminHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager  *utils.JWTManager
	Cfg         *config.Config
	RateLimiter *middleware.TenantRateLimiter
	// Ping checks the database for /health. Optional.
	Ping func(ctx context.Context) error
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", health(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pos := router.Group("/api/v1/pos")
	pos.Use(middleware.AuthMiddleware(deps.JWTManager))
	pos.Use(middleware.TenantMiddleware())
	if deps.RateLimiter != nil {
		pos.Use(deps.RateLimiter.Middleware())
	}

	registerSessionRoutes(pos, h)
	registerReceiptRoutes(pos, h)
	registerPrinterRoutes(pos, h)
	registerAdminRoutes(pos, h)

	return router
}

func health(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": deps.Cfg.App.Name,
		})
	}
}

func registerSessionRoutes(rg *gin.RouterGroup, h *Handlers) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Session.Ensure)
		sessions.GET("/:id", h.Session.Get)
		sessions.PUT("/:id/opening-cash", h.Session.SetOpeningCash)
		sessions.POST("/:id/close", h.Session.Close)
		sessions.POST("/:id/report", h.Session.GenerateReport)
		sessions.GET("/:id/report", h.Session.GetReport)
		sessions.GET("/:id/report/pdf", h.Session.ReportPDF)
	}
}

func registerReceiptRoutes(rg *gin.RouterGroup, h *Handlers) {
	receipts := rg.Group("/receipts")
	{
		receipts.POST("", h.Receipt.Create)
		receipts.GET("", h.Receipt.List)
		receipts.GET("/:id", h.Receipt.Get)
		receipts.POST("/:id/items", h.Receipt.AddItem)
		receipts.DELETE("/:id/items/:item_id", h.Receipt.RemoveItem)
		receipts.POST("/:id/issue", middleware.Idempotency(false), h.Receipt.Issue)
		receipts.POST("/:id/void", middleware.RequirePermission(permissionReversal), h.Receipt.Void)
		receipts.POST("/:id/refund", middleware.RequirePermission(permissionReversal), middleware.Idempotency(false), h.Receipt.Refund)
		receipts.POST("/:id/print", h.Printer.PrintReceipt)
	}

	rg.POST("/checkout", middleware.Idempotency(false), h.Receipt.Checkout)
	rg.POST("/tickets/:ticket_id/deliver", h.Receipt.DeliverTicket)
}

func registerPrinterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/printer/status", h.Printer.GetStatus)
}

func registerAdminRoutes(rg *gin.RouterGroup, h *Handlers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RequireRole(roleAdmin))
	{
		admin.POST("/daily-close", h.Admin.DailyClose)
	}
}
