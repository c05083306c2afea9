package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gochat/pkg/auth"
	"gochat/pkg/config"
	"gochat/pkg/health"
	"gochat/pkg/logger"
	"gochat/pkg/presence"
	"gochat/pkg/storage"
	"gochat/pkg/uploads"
)

// Server wires the HTTP surface, the connection registry and the
// persistence layers together.
type Server struct {
	config   *config.ServerConfig
	store    storage.Store
	registry *presence.Registry
	uploads  *uploads.Store
	tokens   *auth.TokenService
	health   *health.Monitor
	log      *logger.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
	serverMu   sync.Mutex
	started    bool
	startedMu  sync.Mutex
}

// NewServer creates a server instance from loaded configuration.
func NewServer(cfg *config.ServerConfig) (*Server, error) {
	store, err := storage.NewStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	uploadStore, err := uploads.NewStore(cfg.GetUploadsDir(), cfg.Uploads.MaxSizeKB)
	if err != nil {
		store.Close()
		return nil, err
	}

	srv := &Server{
		config:   cfg,
		store:    store,
		registry: presence.NewRegistry(),
		uploads:  uploadStore,
		tokens:   auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		health:   health.NewMonitor(),
		log:      logger.Get().With("component", "server"),
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     srv.checkOrigin,
	}
	return srv, nil
}

// Start builds the router and serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.startedMu.Lock()
	if s.started {
		s.startedMu.Unlock()
		return nil
	}
	s.started = true
	s.startedMu.Unlock()

	router := s.buildRouter()

	s.log.InfoWith("server starting", "address", s.config.Address)

	if s.config.TLS.Enabled {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}

		server := &http.Server{
			Addr:      s.config.Address,
			Handler:   router,
			TLSConfig: tlsConfig,
		}

		s.serverMu.Lock()
		s.httpServer = server
		s.serverMu.Unlock()

		return server.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
	}

	server := &http.Server{
		Addr:    s.config.Address,
		Handler: router,
	}

	s.serverMu.Lock()
	s.httpServer = server
	s.serverMu.Unlock()

	return server.ListenAndServe()
}

// buildRouter assembles the gin router with every route the server exposes.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(CORSMiddleware())

	// WebSocket endpoint for chat clients
	router.GET("/ws", s.ginHandleWebSocket)

	// Account and history API
	router.POST("/api/register", s.handleRegister)
	router.POST("/api/login", s.handleLogin)
	router.POST("/api/logout", s.handleLogout)
	router.GET("/api/profile", s.handleProfile)
	router.GET("/api/people", s.handlePeople)
	router.GET("/api/messages/:userId", s.handleMessages)
	router.GET("/api/health", s.handleHealth)

	// Stored attachments are served as-is
	router.Static(s.config.Uploads.PublicRoute, s.uploads.Dir())

	return router
}

// Shutdown stops accepting requests, closes every live connection and
// releases the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.InfoWith("initiating graceful shutdown")

	s.startedMu.Lock()
	s.started = false
	s.startedMu.Unlock()

	s.serverMu.Lock()
	httpServer := s.httpServer
	s.serverMu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.log.ErrorWithErr("error shutting down HTTP server", err)
			httpServer.Close()
		}
	}

	for _, client := range s.registry.All() {
		s.registry.Deregister(client.ID())
		client.Close()
	}

	if err := s.store.Close(); err != nil {
		s.log.ErrorWithErr("error closing store", err)
	}

	s.log.InfoWith("graceful shutdown complete")
	return nil
}

// CORSMiddleware handles CORS headers for browser clients
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
