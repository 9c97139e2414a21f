package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/blisspaper/internal/api/handler"
	"github.com/timmy/blisspaper/internal/api/middleware"
	"github.com/timmy/blisspaper/internal/logger"
)

// RouterConfig holds what the status API serves.
type RouterConfig struct {
	Engine         handler.StatusProvider
	Cache          handler.EntryLister
	History        handler.HistoryReader // nil disables /api/v1/history
	Mode           string                // debug, release, test
	AllowedOrigins []string
	Logger         *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler := handler.NewHealthHandler()
	statusHandler := handler.NewStatusHandler(cfg.Engine, cfg.Cache, cfg.History)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/status", statusHandler.GetStatus)
		v1.GET("/entries", statusHandler.ListEntries)
		v1.GET("/history", statusHandler.ListHistory)
	}

	return r
}
