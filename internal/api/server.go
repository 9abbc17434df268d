package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civilmastersolution/cms-backend/internal/metrics"
	"github.com/civilmastersolution/cms-backend/internal/service/chat"
	"github.com/civilmastersolution/cms-backend/internal/storage"
	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// LeadNotifier sends the auto-reply and operator notification for an
// inbound inquiry.
type LeadNotifier interface {
	SendLeadAutoReply(ctx context.Context, lead *models.Lead) error
	SendLeadNotification(ctx context.Context, lead *models.Lead) error
}

// Stores bundles the content-store dependencies of the server.
type Stores struct {
	Partnerships *storage.PartnershipStore
	Customers    *storage.CustomerStore
	Products     *storage.ProductStore
	Projects     *storage.ProjectStore
	News         *storage.NewsStore
	Articles     *storage.ArticleStore
	Leads        *storage.LeadStore
	Admins       *storage.AdminStore
}

// Server is the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger

	// Services
	chat     *chat.Service
	stores   Stores
	notifier LeadNotifier

	// Configuration
	host string
	port int

	// Readiness state (atomic for thread-safe access)
	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHost sets the server host
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithLeadNotifier sets the auto-reply sender for inbound inquiries
func WithLeadNotifier(n LeadNotifier) Option {
	return func(s *Server) {
		s.notifier = n
	}
}

// New creates a new API server
func New(chatSvc *chat.Service, stores Stores, opts ...Option) *Server {
	s := &Server{
		logger: slog.Default(),
		chat:   chatSvc,
		stores: stores,
		host:   "0.0.0.0",
		port:   8080,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRouter()
	return s
}

// SetReady sets the server readiness state
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	s.logger.Info("server readiness changed", slog.Bool("ready", ready))
}

// IsReady returns whether the server is ready to accept traffic
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// setupRouter configures the Gin router
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add middleware
	router.Use(s.requestIDMiddleware())
	router.Use(s.metricsMiddleware())
	router.Use(s.bodySizeLimitMiddleware(1 << 20)) // 1MB limit
	router.Use(s.loggingMiddleware())
	router.Use(s.recoveryMiddleware())

	// Health and readiness endpoints
	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Chatbot: POST only, anything else on the path is 405
		v1.POST("/chat", s.handleChat)
		v1.Match([]string{"GET", "PUT", "PATCH", "DELETE", "HEAD"}, "/chat", s.handleChatMethodNotAllowed)

		// Public content reads
		v1.GET("/partnerships", s.handleListPartnerships)
		v1.GET("/partnerships/:id", s.handleGetPartnership)
		v1.GET("/customers", s.handleListCustomers)
		v1.GET("/customers/:id", s.handleGetCustomer)
		v1.GET("/products", s.handleListProducts)
		v1.GET("/products/:id", s.handleGetProduct)
		v1.GET("/projects", s.handleListProjects)
		v1.GET("/projects/favorites", s.handleListFavoriteProjects)
		v1.GET("/projects/:id", s.handleGetProject)
		v1.GET("/news", s.handleListNews)
		v1.GET("/news/:id", s.handleGetNews)
		v1.GET("/articles", s.handleListArticles)
		v1.GET("/articles/:id", s.handleGetArticle)

		// Public lead intake
		v1.POST("/leads", s.handleCreateLead)

		// Back-office mutations
		admin := v1.Group("/admin", s.adminAuthMiddleware())
		{
			admin.POST("/partnerships", s.handleCreatePartnership)
			admin.PUT("/partnerships/:id", s.handleUpdatePartnership)
			admin.DELETE("/partnerships/:id", s.handleDeletePartnership)

			admin.POST("/customers", s.handleCreateCustomer)
			admin.PUT("/customers/:id", s.handleUpdateCustomer)
			admin.DELETE("/customers/:id", s.handleDeleteCustomer)

			admin.POST("/products", s.handleCreateProduct)
			admin.PUT("/products/:id", s.handleUpdateProduct)
			admin.DELETE("/products/:id", s.handleDeleteProduct)

			admin.POST("/projects", s.handleCreateProject)
			admin.PUT("/projects/:id", s.handleUpdateProject)
			admin.PUT("/projects/:id/favorite", s.handleSetProjectFavorite)
			admin.DELETE("/projects/:id", s.handleDeleteProject)

			admin.POST("/news", s.handleCreateNews)
			admin.PUT("/news/:id", s.handleUpdateNews)
			admin.DELETE("/news/:id", s.handleDeleteNews)

			admin.POST("/articles", s.handleCreateArticle)
			admin.PUT("/articles/:id", s.handleUpdateArticle)
			admin.DELETE("/articles/:id", s.handleDeleteArticle)

			admin.GET("/leads", s.handleListLeads)
			admin.PUT("/leads/:id/status", s.handleUpdateLeadStatus)
		}
	}

	s.router = router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("starting API server", slog.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Middleware

// validRequestIDRegex allows alphanumeric, dots, underscores, and hyphens up to 128 chars.
var validRequestIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

func isValidRequestID(id string) bool {
	return id != "" && validRequestIDRegex.MatchString(id)
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if !isValidRequestID(requestID) {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the matched route pattern for consistent path labels
		// This prevents high cardinality from path parameters like /products/:id
		path := c.FullPath()
		if path == "" {
			// Fallback for unmatched routes (404s)
			path = "unmatched"
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("request_id", c.GetString("request_id")),
			slog.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				s.logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("stack", stack),
					slog.String("request_id", c.GetString("request_id")))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:     "internal server error",
					RequestID: c.GetString("request_id"),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

func (s *Server) bodySizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
