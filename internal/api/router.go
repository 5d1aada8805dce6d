package api

import (
	"github.com/gin-gonic/gin"

	"github.com/smolin/antiplag/internal/api/handler"
	"github.com/smolin/antiplag/internal/api/middleware"
	"github.com/smolin/antiplag/internal/config"
	"github.com/smolin/antiplag/internal/repository"
	"github.com/smolin/antiplag/internal/service"
	"github.com/smolin/antiplag/internal/storage"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cfg *config.ServerConfig,
	sources *repository.SourceRepository,
	cases *repository.CaseRepository,
	orchestrator *service.Orchestrator,
	store storage.ObjectStorage,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	caseHandler := handler.NewCaseHandler(cases, store)
	sourceHandler := handler.NewSourceHandler(sources)
	monitoringHandler := handler.NewMonitoringHandler(orchestrator)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Case review
		v1.GET("/cases", caseHandler.ListCases)
		v1.GET("/cases/:id", caseHandler.GetCase)
		v1.POST("/cases/:id/confirm", caseHandler.ConfirmCase)
		v1.POST("/cases/:id/false-positive", caseHandler.RejectCase)

		// Monitored sources
		v1.GET("/sources", sourceHandler.ListSources)
		v1.POST("/sources", sourceHandler.CreateSource)
		v1.GET("/sources/:id", sourceHandler.GetSource)

		// Monitoring control
		v1.POST("/monitoring/run", monitoringHandler.Run)
		v1.GET("/monitoring/status", monitoringHandler.Status)
	}

	return r
}
