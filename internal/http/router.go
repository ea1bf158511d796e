// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"atlas/internal/http/handlers"
	"atlas/internal/http/middleware"
	"atlas/internal/infra"
	"atlas/internal/service"
	"atlas/internal/stream"
)

// RouterDeps wires the router. Verifier and Limiter are optional.
type RouterDeps struct {
	Planner     *service.TripPlanner
	Driver      *stream.Driver
	Verifier    infra.TokenVerifier
	Limiter     *middleware.RateLimiter
	CORSOrigins []string
	TurnTimeout time.Duration
	Logger      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger), middleware.CORS(deps.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware(logger))
	}
	if deps.Verifier != nil {
		api.Use(middleware.Auth(deps.Verifier))
	}

	chatHandler := handlers.NewChatHandler(deps.Planner, deps.TurnTimeout, logger)
	api.POST("/chat", chatHandler.Chat)
	api.POST("/pois/search", chatHandler.SearchPOIs)
	api.POST("/plan", chatHandler.Plan)

	streamHandler := handlers.NewStreamHandler(deps.Driver, deps.TurnTimeout, logger)
	api.GET("/ws/chat", streamHandler.Chat)

	return r
}
