package router

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sellersaathi/copilot-api/pkg/ai"
	"github.com/sellersaathi/copilot-api/pkg/config"
	"github.com/sellersaathi/copilot-api/pkg/redis"
)

// Deps is everything the HTTP layer needs. Limiter may be nil, in which
// case generation routes are not rate limited.
type Deps struct {
	Config  *config.Config
	Copilot *ai.Copilot
	Limiter *redis.Limiter
}

// NewEngine builds the gin engine with middleware and every route.
func NewEngine(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID())
	if d.Config.Log.Requests {
		router.Use(RequestLogger())
	}
	router.Use(cors.New(corsConfig(d.Config.HTTP.CORSOrigins)))

	h := NewHandler(d.Copilot, d.Config.HTTP.MaxUploadSizeBytes)
	InitializeRoutes(router, h, d)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", HeaderAPIKey, HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", HeaderRequestID, "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func InitializeRoutes(router *gin.Engine, h *Handler, d Deps) {
	limited := RateLimit(d.Limiter)

	router.GET("/", h.Welcome)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		secured := api.Group("")
		secured.Use(APIKey(d.Config.HTTP.APIKeyHash))
		{
			secured.POST("/chat", limited, h.Chat)

			planner := secured.Group("/planner")
			{
				planner.GET("/full-report", limited, h.GetPlannerReport)
				planner.GET("/festivals", h.GetFestivals)
			}

			trends := secured.Group("/trends")
			{
				trends.GET("/full-trends-report", limited, h.GetTrendsReport)
			}

			listing := secured.Group("/listing")
			{
				listing.POST("", limited, h.GenerateListing)
				listing.POST("/improve", limited, h.ImproveListing)
				listing.POST("/translate", limited, h.TranslateListing)
			}
		}
	}
}
