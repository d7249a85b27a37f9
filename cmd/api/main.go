package main

import (
	"context"
	"time"

	"hangoutz/config"
	"hangoutz/internal/events"
	"hangoutz/internal/handler"
	"hangoutz/internal/proxy"
	"hangoutz/internal/redis"
	"hangoutz/internal/repository"
	"hangoutz/internal/repository/memory"
	"hangoutz/internal/server"
	"hangoutz/internal/services"
	"hangoutz/internal/storage"
	"hangoutz/internal/websocket"
	"hangoutz/pkg/database"
	"hangoutz/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := openStore(cfg, l)

	var (
		otpStore    services.OTPStore = memory.NewOTPStore()
		userCache   services.UserCache
		presence    websocket.PresenceTracker
		rateLimiter *redis.RateLimiter
		redisBridge *websocket.RedisBridge
	)

	hub := websocket.NewHub(websocket.NewLogger(l.Logger))
	var broadcaster events.Broadcaster = hub
	var online handler.PresenceReader = hub

	if cfg.RedisEnabled {
		client, err := redis.Connect(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			l.Fatalf("❌ %v", err)
		}
		defer client.Close()

		otpStore = redis.NewOTPStore(client)
		userCache = redis.NewUserCache(client, 5*time.Minute)
		presenceStore := redis.NewPresenceStore(client, 5*time.Minute)
		presence = presenceStore
		online = presenceStore
		rateLimiter = redis.NewRateLimiter(client, redis.RateLimitConfig{
			OTPLimit:      cfg.RateLimitOTPPerMin,
			OTPWindow:     time.Minute,
			MessageLimit:  cfg.RateLimitMessagesPerMin,
			MessageWindow: time.Minute,
		})

		if cfg.RealtimeDriver == "redis" {
			broadcaster = events.NewRedisBroadcaster(redis.NewPublisher(client), events.NewRoomChannelResolver(), l.Logger)
			redisBridge = websocket.NewRedisBridge(redis.NewSubscriber(client), hub, websocket.NewLogger(l.Logger))
		}
		l.Infof("✅ Redis connected at %s:%s (realtime driver: %s)", cfg.RedisHost, cfg.RedisPort, cfg.RealtimeDriver)
	} else if cfg.RealtimeDriver == "redis" {
		l.Warnf("REALTIME_DRIVER=redis needs REDIS_ENABLED=true, falling back to local delivery")
	}

	var objectStorage services.ObjectStorage
	if cfg.UploadsEnabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			l.Fatalf("❌ %v", err)
		}
		objectStorage = s3Client
	} else {
		l.Warnf("S3 is not configured, upload endpoints will answer 503")
	}

	access := proxy.NewAccessControl(store.Conversations())

	authService := services.NewAuthService(store, otpStore, services.NewLogOTPSender(l.Named("otp").Logger), userCache, cfg)
	userService := services.NewUserService(store, access, userCache)
	eventService := services.NewEventService(store, access, broadcaster, cfg.EventStickyCancelled, l.Named("events").Logger)
	conversationService := services.NewConversationService(store, access)
	messageService := services.NewMessageService(store, access, broadcaster, l.Named("messages").Logger)
	uploadService := services.NewUploadService(objectStorage, l.Named("uploads").Logger)

	gateway := websocket.NewGateway(hub, authService, websocket.Options{
		Broadcaster:   broadcaster,
		Authorizer:    access,
		Presence:      presence,
		Activity:      userService,
		RestrictRooms: cfg.WSRestrictRooms,
		Logger:        websocket.NewLogger(l.Logger),
	})

	if redisBridge != nil {
		go func() {
			if err := redisBridge.Run(ctx); err != nil && ctx.Err() == nil {
				l.Logger.Error("redis bridge stopped", zap.Error(err))
			}
		}()
	}

	srv := server.New(cfg, l)
	deps := server.Dependencies{
		Verifier:    authService,
		WebSocket:   gateway.Handle,
		HealthCheck: store.Ping,
	}
	if rateLimiter != nil {
		deps.RateLimiter = rateLimiter
	}
	srv.SetupRoutes(&server.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService, online),
		Event:        handler.NewEventHandler(eventService),
		Conversation: handler.NewConversationHandler(conversationService),
		Message:      handler.NewMessageHandler(messageService),
		AI:           handler.NewAIHandler(),
		Upload:       handler.NewUploadHandler(uploadService),
	}, deps)
	srv.OnShutdown(cancel)
	srv.OnShutdown(func() {
		l.Infof("closing %d websocket connections", hub.ClientCount())
		hub.Shutdown()
	})

	if err := srv.Start(); err != nil {
		l.Errorf("server stopped with error: %v", err)
	}
}

// openStore returns the postgres store, or the in-memory store when
// DB_DRIVER=memory.
func openStore(cfg *config.Config, l *logger.Logger) repository.Store {
	if cfg.DBDriver == "memory" {
		l.Warnf("Using the in-memory store, data is lost on restart")
		return memory.NewStore()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		l.Fatalf("❌ %v", err)
	}
	if err := database.Migrate(); err != nil {
		l.Fatalf("❌ Migration failed: %v", err)
	}
	l.Infof("✅ Database connection established")
	return repository.NewStore(db)
}
