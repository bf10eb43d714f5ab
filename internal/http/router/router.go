package router

import (
	"html/template"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/rossfreedman/rally/internal/config"
	"github.com/rossfreedman/rally/internal/http/handlers"
	"github.com/rossfreedman/rally/internal/http/middleware"
	"github.com/rossfreedman/rally/internal/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Escrow       *handlers.EscrowHandler
	SavedLineups *handlers.SavedLineupHandler
	Mobile       *handlers.MobileHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens middleware.AccessTokenParser,
	limitStore limiter.Store,
	m *metrics.Metrics,
	pages *template.Template,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware(m))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.SetHTMLTemplate(pages)

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	publicLimit := middleware.RateLimitMiddleware(limitStore, "escrow", cfg.RateLimitLimit, cfg.RateLimitPeriod)

	mobile := r.Group("/mobile")
	mobile.Use(h.Mobile.Recover(), publicLimit)
	{
		mobile.GET("/lineup-escrow-opposing/:token", h.Mobile.Opposing)
		mobile.GET("/lineup-escrow-view/:token", h.Mobile.View)
	}

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limitStore, "auth", 5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	// Escrow links are opened by captains without an account.
	publicEscrow := api.Group("/lineup-escrow")
	publicEscrow.Use(publicLimit)
	{
		publicEscrow.POST("/submit", h.Escrow.Submit)
		publicEscrow.GET("/view/:token", h.Escrow.View)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/profile", h.Auth.Me)

		protected.POST("/lineup-escrow/create", h.Escrow.Create)
		protected.GET("/lineup-escrow/my", h.Escrow.ListMine)

		protected.GET("/saved-lineups", h.SavedLineups.List)
		protected.POST("/saved-lineups", h.SavedLineups.Save)
		protected.GET("/saved-lineups/:id", h.SavedLineups.Get)
		protected.PUT("/saved-lineups", h.SavedLineups.Update)
		protected.DELETE("/saved-lineups", h.SavedLineups.Delete)
		protected.PUT("/saved-lineups/:id", h.SavedLineups.Update)
		protected.DELETE("/saved-lineups/:id", h.SavedLineups.Delete)
	}

	return r
}
