package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hangoutz/config"
	"hangoutz/internal/handler"
	"hangoutz/internal/middleware"
	"hangoutz/internal/transport/httpdto"
	"hangoutz/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	onShutdown []func()
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Event        *handler.EventHandler
	Conversation *handler.ConversationHandler
	Message      *handler.MessageHandler
	AI           *handler.AIHandler
	Upload       *handler.UploadHandler
}

// Dependencies are the cross-cutting pieces the router needs besides the
// handlers. RateLimiter is nil when Redis is disabled.
type Dependencies struct {
	Verifier    middleware.TokenVerifier
	RateLimiter middleware.RateLimiter
	WebSocket   gin.HandlerFunc
	HealthCheck func(ctx context.Context) error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// OnShutdown registers fn to run after the HTTP server has stopped.
func (s *Server) OnShutdown(fn func()) {
	s.onShutdown = append(s.onShutdown, fn)
}

func (s *Server) SetupRoutes(h *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSAllowedOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if deps.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.HealthCheck(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("database unavailable", "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy", "timestamp": time.Now().UTC()}))
	})

	if deps.WebSocket != nil {
		s.engine.GET("/ws", deps.WebSocket)
	}

	requireAuth := middleware.AuthMiddleware(deps.Verifier)
	optionalAuth := middleware.OptionalAuthMiddleware(deps.Verifier)
	var otpLimit, messageLimit gin.HandlerFunc = passthrough, passthrough
	if deps.RateLimiter != nil {
		otpLimit = middleware.OTPRateLimitMiddleware(deps.RateLimiter)
		messageLimit = middleware.MessageRateLimitMiddleware(deps.RateLimiter)
	}

	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/send-otp", otpLimit, h.Auth.SendOTP)
		auth.POST("/verify-otp", otpLimit, h.Auth.VerifyOTP)
	}

	users := api.Group("/users")
	{
		users.GET("", optionalAuth, h.User.List)
		users.GET("/:id", optionalAuth, h.User.Get)
		users.PUT("/:id", requireAuth, h.User.Update)
		users.DELETE("/:id", requireAuth, h.User.Delete)
		users.POST("/:id/verify", requireAuth, h.User.Verify)
		users.POST("/:id/block/:targetId", requireAuth, h.User.Block)
		users.DELETE("/:id/block/:targetId", requireAuth, h.User.Unblock)
	}

	evts := api.Group("/events")
	{
		evts.GET("", optionalAuth, h.Event.List)
		evts.GET("/user/:userId", optionalAuth, h.Event.ListByUser)
		evts.GET("/:id", optionalAuth, h.Event.Get)
		evts.POST("", requireAuth, h.Event.Create)
		evts.PUT("/:id", requireAuth, h.Event.Update)
		evts.DELETE("/:id", requireAuth, h.Event.Delete)
		evts.POST("/:id/join", requireAuth, h.Event.Join)
		evts.POST("/:id/leave", requireAuth, h.Event.Leave)
	}

	conversations := api.Group("/conversations", requireAuth)
	{
		conversations.GET("", h.Conversation.List)
		conversations.POST("", h.Conversation.Create)
		conversations.GET("/:id", h.Conversation.Get)
		conversations.DELETE("/:id", h.Conversation.Delete)
		conversations.PUT("/:id/read", h.Conversation.MarkRead)
	}

	messages := api.Group("/messages", requireAuth)
	{
		messages.GET("/:conversationId", h.Message.List)
		messages.POST("", messageLimit, h.Message.Send)
		messages.DELETE("/:id", h.Message.Delete)
		messages.PUT("/:id/read", h.Message.MarkRead)
	}

	ai := api.Group("/ai", requireAuth)
	{
		ai.POST("/moderate", h.AI.Moderate)
		ai.POST("/chat", h.AI.Chat)
	}

	upload := api.Group("/upload", requireAuth)
	{
		upload.POST("/image", h.Upload.UploadImage)
		upload.POST("/images", h.Upload.UploadImages)
		upload.DELETE("/:filename", h.Upload.Delete)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("Route not found", "NOT_FOUND"))
	})
}

func passthrough(c *gin.Context) {
	c.Next()
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	for _, fn := range s.onShutdown {
		fn()
	}
	if err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
