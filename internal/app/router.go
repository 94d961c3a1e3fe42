package app

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"freight/internal/handler"
	"freight/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	LedgerHandler   *handler.LedgerHandler
	RegistryHandler *handler.RegistryHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	router.Use(middleware.ActorMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Registry routes.
		orgs := v1.Group("/orgs")
		{
			orgs.POST("", deps.RegistryHandler.CreateOrg)
			orgs.GET("", deps.RegistryHandler.GetAllOrgs)
			orgs.GET("/:id", deps.RegistryHandler.GetOrg)
		}

		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.RegistryHandler.CreateDriver)
			drivers.GET("", deps.RegistryHandler.GetAllDrivers)
			drivers.GET("/:id", deps.RegistryHandler.GetDriver)
		}

		trucks := v1.Group("/trucks")
		{
			trucks.POST("", deps.RegistryHandler.CreateTruck)
			trucks.GET("", deps.RegistryHandler.GetAllTrucks)
			trucks.GET("/:id", deps.RegistryHandler.GetTruck)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.POST("", deps.TripHandler.CreateTrip)
			trips.GET("", deps.TripHandler.GetAll)
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/load-card", deps.TripHandler.CreateLoadCard)
			trips.GET("/:id/load-card", deps.TripHandler.GetLoadCard)
			trips.POST("/:id/status", deps.TripHandler.TransitionStatus)
			trips.POST("/:id/receive-card", deps.TripHandler.CreateReceiveCard)
			trips.GET("/:id/receive-card", deps.TripHandler.GetReceiveCard)
			trips.POST("/:id/cancel", deps.TripHandler.CancelTrip)
			trips.POST("/:id/assignment", deps.TripHandler.ChangeAssignment)
		}

		// Ledger routes.
		ledger := v1.Group("/ledger")
		{
			ledger.POST("/invoices", deps.LedgerHandler.PostInvoice)
			ledger.POST("/payments", deps.LedgerHandler.PostPayment)
			ledger.POST("/documents/:id/void", deps.LedgerHandler.VoidDocument)
			ledger.GET("/balance", deps.LedgerHandler.GetBalance)
			ledger.GET("/entries", deps.LedgerHandler.ListEntries)
			ledger.GET("/reconciliation", deps.LedgerHandler.Reconcile)
		}
	}

	return router
}
