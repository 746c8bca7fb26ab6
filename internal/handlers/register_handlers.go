package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/merchantkit/fulfillment_ledger/internal/core/ports/services"
	"github.com/merchantkit/fulfillment_ledger/internal/middleware"
	"github.com/merchantkit/fulfillment_ledger/pkg/config"
)

// webhookRateLimit bounds payment webhook delivery per source IP.
var webhookRateLimit = limiter.Rate{Period: time.Minute, Limit: 120}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	registerAccountRoutes(v1, services.Account)
	registerInventoryRoutes(v1, services.Inventory, services.Reservation)
	registerReservationRoutes(v1, services.Reservation)
	registerJournalRoutes(v1, services.Ledger)
	registerRecurringRoutes(v1, services.Recurring)
	registerReportingRoutes(v1, services.Reporting)

	limiterInstance := limiter.New(memorystore.NewStore(), webhookRateLimit)
	registerWebhookRoutes(v1, services.Posting, middleware.RateLimit(limiterInstance))
}
