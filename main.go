package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"social-service/internal/auth"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/directory"
	"social-service/internal/handlers"
	"social-service/internal/middleware"
	"social-service/internal/notifications"
	"social-service/internal/observability"
	"social-service/internal/presence"
	"social-service/internal/rabbitmq"
	"social-service/internal/realtime"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("setup tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DB, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	broker, err := realtime.NewBroker(redisClient, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer broker.Close()

	tracker := presence.NewRedisTracker(redisClient, cfg.Presence.KeyPrefix, cfg.Presence.KeyTTL, logger)

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
	defer auditPublisher.Close()
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit.social", cfg.Tracing.ServiceName, cfg.Tracing.Environment, logger)

	var wsEvents observability.Publisher
	if pub, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange); err != nil {
		logger.Warn("ws event publishing disabled", zap.Error(err))
	} else {
		wsEvents = pub
		defer pub.Close()
	}

	profileRepo := repositories.NewProfileRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	socialRepo := repositories.NewSocialRepo(database)

	dir := directory.New(profileRepo, logger)
	aggregator := notifications.NewAggregator(socialRepo, dir, notifications.DefaultLookback)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	hub := ws.NewHub(wsEvents, logger)
	listenCtx, stopListening := context.WithCancel(ctx)
	defer stopListening()
	go broker.Listen(listenCtx, hub, tracker)

	authHandler := handlers.NewAuthHandler(profileRepo, tokens, logger)
	profileHandler := handlers.NewProfileHandler(profileRepo, dir)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, dir, broker, logger)
	socialHandler := handlers.NewSocialHandler(socialRepo, dir, broker, audit, logger)
	notificationHandler := handlers.NewNotificationHandler(aggregator, logger)
	adminHandler := handlers.NewAdminHandler(profileRepo, audit)

	conversationWS := ws.NewConversationWSHandler(hub, conversationRepo, tokens)
	feedWS := ws.NewFeedWSHandler(hub, tokens)
	presenceWS := ws.NewPresenceWSHandler(hub, tracker, broker, tokens, cfg.Presence.HeartbeatInterval, logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", middleware.RequestTimeout(cfg.Server.RequestTimeout))
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/", middleware.AuthMiddleware(tokens, profileRepo))

	protected.GET("/me", profileHandler.Me)
	protected.PUT("/me", profileHandler.UpdateMe)
	protected.GET("/users", profileHandler.BulkUsers)
	protected.GET("/users/search", profileHandler.SearchUsers)
	protected.GET("/users/:user_id", profileHandler.GetUser)

	protected.GET("/conversations", conversationHandler.ListConversations)
	protected.POST("/conversations/start", conversationHandler.StartConversation)
	protected.GET("/conversations/:conversation_id/messages", conversationHandler.GetMessages)
	protected.POST("/conversations/:conversation_id/messages", conversationHandler.SendMessage)
	protected.POST("/conversations/:conversation_id/read", conversationHandler.MarkRead)

	protected.POST("/users/:user_id/follow", socialHandler.Follow)
	protected.DELETE("/users/:user_id/follow", socialHandler.Unfollow)
	protected.GET("/users/:user_id/followers", socialHandler.ListFollowers)
	protected.GET("/users/:user_id/following", socialHandler.ListFollowing)
	protected.GET("/users/:user_id/relationship", socialHandler.Relationship)

	protected.POST("/friend-requests", socialHandler.SendFriendRequest)
	protected.POST("/friend-requests/:request_id/accept", socialHandler.AcceptFriendRequest)
	protected.POST("/friend-requests/:request_id/reject", socialHandler.RejectFriendRequest)

	protected.GET("/notifications", notificationHandler.Feed)

	admin := protected.Group("/admin", middleware.RequireModerator())
	admin.PUT("/users/:user_id/role", adminHandler.SetRole)
	admin.PUT("/users/:user_id/block", adminHandler.SetBlocked)

	router.GET("/ws/conversations/:conversation_id", conversationWS.Handle)
	router.GET("/ws/feed", feedWS.Handle)
	router.GET("/ws/presence", presenceWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.Debug)

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
