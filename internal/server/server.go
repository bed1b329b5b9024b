package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridrelay/tictactoe/internal/api/controller"
	"github.com/gridrelay/tictactoe/internal/hub"
)

var tracer = otel.Tracer("server")

// Server exposes the websocket relay endpoint and the REST API on one
// gin engine.
type Server struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

// NewServer wires the routes.
func NewServer(h *hub.Hub, users *controller.UserController, stats *controller.StatsController) *Server {
	s := &Server{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ws", s.handleWebSocket)

	api := engine.Group("/api")
	{
		api.POST("/register", users.Register)
		api.POST("/login", users.Login)
		api.POST("/guest", users.GuestLogin)
		api.GET("/stats", stats.Snapshot)
	}

	s.engine = engine
	return s
}

// Engine returns the underlying gin engine for http.Server wiring.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// handleWebSocket upgrades the connection and hands it to the relay.
// The relay owns the connection from here on; this handler blocks for
// its lifetime.
func (s *Server) handleWebSocket(c *gin.Context) {
	_, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upgrade connection")
		span.End()
		return
	}

	clientID := uuid.New().String()
	span.SetAttributes(attribute.String("client.id", clientID))
	span.End()

	// Blocks until the connection drops.
	s.hub.HandleConnection(clientID, conn)
}
