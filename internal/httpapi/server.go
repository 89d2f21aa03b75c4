package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tyemirov/claimrelay/internal/service"
)

const (
	contextKeyRequestID = "request_id"
	headerRequestID     = "X-Request-ID"
	defaultTimeout      = 5 * time.Second
	defaultMultipartMem = 32 << 20
)

// Config captures all inputs required to construct the HTTP server.
type Config struct {
	ListenAddr           string
	StaticRoot           string
	AllowedOrigins       []string
	TrustedProxies       []string
	RelayService         service.RelayService
	Logger               *slog.Logger
	MaxMultipartMemory   int64
	SubmitRatePerMin     int
	ReadHeaderTimeout    time.Duration
	ShutdownGraceTimeout time.Duration
}

// Server hosts the claim submission endpoint and, optionally, the static form.
type Server struct {
	config     Config
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires Gin, middleware, and handlers for the relay.
func NewServer(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return nil, errors.New("httpapi: listen address is required")
	}
	if cfg.RelayService == nil {
		return nil, errors.New("httpapi: relay service is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("httpapi: logger is required")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	// ClientIP keys the submit limiter; forwarded headers count only from these proxies.
	if proxyError := engine.SetTrustedProxies(cfg.TrustedProxies); proxyError != nil {
		return nil, fmt.Errorf("httpapi: trusted proxies: %w", proxyError)
	}
	multipartMemory := pickInt64(cfg.MaxMultipartMemory, defaultMultipartMem)
	engine.MaxMultipartMemory = multipartMemory
	engine.Use(gin.Recovery())
	engine.Use(requestIdentifier())
	engine.Use(requestLogger(cfg.Logger))
	engine.Use(buildCORS(cfg.AllowedOrigins))

	healthHandler := func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	engine.GET("/healthz", healthHandler)
	engine.GET("/health", healthHandler)

	handler := newSubmissionHandler(cfg.RelayService, multipartMemory, cfg.Logger)
	submitHandlers := []gin.HandlerFunc{}
	if cfg.SubmitRatePerMin > 0 {
		limiter := newClientRateLimiter(cfg.SubmitRatePerMin, time.Now)
		submitHandlers = append(submitHandlers, rateLimitMiddleware(limiter, cfg.Logger))
	}
	submitHandlers = append(submitHandlers, handler.submitClaim)
	engine.POST("/submit", submitHandlers...)

	if cfg.StaticRoot != "" {
		engine.NoRoute(staticFallback(filepath.Clean(cfg.StaticRoot)))
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: pickDuration(cfg.ReadHeaderTimeout, defaultTimeout),
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		logger:     cfg.Logger,
	}, nil
}

// Handler exposes the routed engine.
func (server *Server) Handler() http.Handler {
	return server.httpServer.Handler
}

// Start begins serving HTTP traffic.
func (server *Server) Start() error {
	server.logger.Info("HTTP server listening", "address", server.config.ListenAddr)
	err := server.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully terminates the HTTP server.
func (server *Server) Shutdown(ctx context.Context) error {
	timeout := pickDuration(server.config.ShutdownGraceTimeout, defaultTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return server.httpServer.Shutdown(ctx)
}

func requestIdentifier() gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		requestID := strings.TrimSpace(contextGin.GetHeader(headerRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		contextGin.Set(contextKeyRequestID, requestID)
		contextGin.Header(headerRequestID, requestID)
		contextGin.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		started := time.Now()
		contextGin.Next()
		logger.Info(
			"http_request_completed",
			"request_id", contextGin.GetString(contextKeyRequestID),
			"method", contextGin.Request.Method,
			"path", contextGin.Request.URL.Path,
			"status", contextGin.Writer.Status(),
			"client_ip", contextGin.ClientIP(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}

func buildCORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", headerRequestID},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

func staticFallback(root string) gin.HandlerFunc {
	fileServer := http.FileServer(gin.Dir(root, false))
	return func(contextGin *gin.Context) {
		method := contextGin.Request.Method
		if method != http.MethodGet && method != http.MethodHead {
			contextGin.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "not found"})
			return
		}
		fileServer.ServeHTTP(contextGin.Writer, contextGin.Request)
	}
}

func pickDuration(candidate time.Duration, fallback time.Duration) time.Duration {
	if candidate <= 0 {
		return fallback
	}
	return candidate
}

func pickInt64(candidate int64, fallback int64) int64 {
	if candidate <= 0 {
		return fallback
	}
	return candidate
}
