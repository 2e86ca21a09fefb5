// Package http exposes the relay over HTTP: room creation, the websocket
// join endpoint, and a health probe.
package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/config"
	"github.com/Lesoorub/SecureChat/internal/relay"
)

// NewServer builds the HTTP server with all routes attached.
func NewServer(registry *relay.Registry, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	handlers := NewChatHandlers(registry, cfg, logger)
	router.POST("/chat/create", handlers.CreateRoom)
	router.GET("/chat/join", handlers.Join)
	router.GET("/health", healthHandler)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	_, _ = fmt.Fprint(c.Writer, "ok")
}
