// README: API gateway; builds the gin engine and registers routes.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tabi/internal/http/handlers"
	"tabi/internal/http/middleware"
)

type ServerDeps struct {
	Planner    handlers.Planner
	Logger     *zap.Logger
	SessionTTL time.Duration
}

type Server struct {
	chat       *handlers.ChatHandler
	logger     *zap.Logger
	sessionTTL time.Duration
}

func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:       handlers.NewChatHandler(deps.Planner),
		logger:     logger,
		sessionTTL: deps.SessionTTL,
	}
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(s.logger), middleware.Logging(s.logger))

	chat := r.Group("/chat", middleware.Session(s.sessionTTL))
	chat.POST("", s.chat.Chat)
	chat.POST("/reset", s.chat.Reset)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
