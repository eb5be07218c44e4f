// README: API gateway; registers HTTP routes and delegates to the core.
package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"statusbot/internal/chat"
	"statusbot/internal/http/middleware"
	"statusbot/internal/modules/order"
)

type ServerDeps struct {
	Orders     *order.Service
	Chat       *chat.Router
	AdminToken string
	Log        *zap.Logger
}

type Server struct {
	orders     *order.Service
	chat       *chat.Router
	adminToken string
	log        *zap.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{
		orders:     deps.Orders,
		chat:       deps.Chat,
		adminToken: deps.AdminToken,
		log:        deps.Log,
	}
}

func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(s.log))
	r.Use(middleware.Recovery(s.log))

	r.POST("/api/messages", s.HandleMessage)
	r.GET("/api/orders/:id", s.HandleGetOrder)
	r.GET("/api/actors/:id/orders", s.HandleActorOrders)

	admin := r.Group("/api/admin", middleware.AdminAuth(s.adminToken))
	admin.GET("/stats", s.HandleStats)
	admin.GET("/history", s.HandleHistory)
	admin.POST("/reset", s.HandleReset)
	admin.POST("/orders/:id/undo", s.HandleUndo)

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	return r
}
