package http_server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videomeet/internal/http/analyticshandler"
	"videomeet/internal/http/authhandler"
	"videomeet/internal/http/userhandler"
	"videomeet/internal/services/analytics"
	"videomeet/internal/services/directory"
	"videomeet/internal/ws"
)

type Options struct {
	ListenPort uint16
	JwtSecret  []byte
	JwtTTL     time.Duration
}

type httpServer struct {
	opts         Options
	srv          http.Server
	ln           net.Listener
	db           *sql.DB
	directorySvc directory.IDirectoryService
	analyticsSvc analytics.IAnalyticsService
	wsSrv        *ws.WsServer
	ctx          context.Context
}

func NewHttpServer(
	ctx context.Context,
	opts Options,
	wsSrv *ws.WsServer,
	db *sql.DB,
	directorySvc directory.IDirectoryService,
	analyticsSvc analytics.IAnalyticsService,
) *httpServer {
	return &httpServer{
		opts:         opts,
		wsSrv:        wsSrv,
		db:           db,
		directorySvc: directorySvc,
		analyticsSvc: analyticsSvc,
		ctx:          ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.opts.ListenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	h.srv = http.Server{
		Handler: h.buildRouter(),
	}

	return h.srv.Serve(h.ln)
}

func (h *httpServer) buildRouter() *gin.Engine {
	routerEngine := gin.New()
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	routerEngine.GET("/", h.root)
	routerEngine.GET("/health", h.health)

	// websocket signaling endpoint
	routerEngine.GET("/ws", h.wsSrv.Handle)

	// REST API
	authhandler.New(h.directorySvc, h.opts.JwtSecret, h.opts.JwtTTL).Register(routerEngine)
	userhandler.New(h.directorySvc, h.opts.JwtSecret).Register(routerEngine)
	analyticshandler.New(h.analyticsSvc, h.opts.JwtSecret).Register(routerEngine)

	routerEngine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": fmt.Sprintf("Route %s %s not found", c.Request.Method, c.Request.URL.Path),
		})
	})
	return routerEngine
}

func (h *httpServer) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "running",
		"message":   "Video Conference API Server",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": gin.H{
			"health": "/health",
			"auth":   "/api/auth/login",
			"users":  "/api/users",
			"ws":     "/ws",
			"analytics": gin.H{
				"meetings": "/api/analytics/meetings",
				"activity": "/api/analytics/activity",
			},
		},
	})
}

func (h *httpServer) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}

	if ctx.Err() == context.DeadlineExceeded {
		zap.L().Error("http_dispose", zap.Error(errors.New("shutdown timed out")))
	}

	return nil
}
