package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"prato-rinaldo/internal/auth"
	"prato-rinaldo/internal/cache"
	"prato-rinaldo/internal/config"
	"prato-rinaldo/internal/database"
	"prato-rinaldo/internal/events"
	"prato-rinaldo/internal/handlers"
	"prato-rinaldo/internal/jobs"
	"prato-rinaldo/internal/mail"
	"prato-rinaldo/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Optional Redis feed cache
	var feedCache *cache.FeedCache
	if cfg.Redis.Addr != "" {
		client, err := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Redis unavailable, feed cache disabled: %v", err)
		} else {
			feedCache = cache.NewFeedCache(client)
			log.Printf("Feed cache enabled (%s)", cfg.Redis.Addr)
		}
	}

	// Optional Kafka activity stream
	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if producer != nil {
		defer producer.Close()
		log.Printf("Activity events enabled (%v)", cfg.Kafka.Brokers)
	}

	// Moderation mail notifications (nil when SMTP is not configured)
	mailer := mail.New(cfg.SMTP)

	// Initialize services
	db := database.GetDB()
	authService := services.NewAuthService(db)
	gamificationService := services.NewGamificationService(db)
	userService := services.NewUserService(db, gamificationService)
	moderationService := services.NewModerationService(db, mailer)
	proposalService := services.NewProposalService(db, producer, feedCache)
	feedService := services.NewFeedService(db, feedCache)
	eventService := services.NewEventService(db, producer, feedCache)
	marketplaceService := services.NewMarketplaceService(db, moderationService, producer, feedCache)
	announcementService := services.NewAnnouncementService(db, feedCache)
	forumService := services.NewForumService(db, producer)
	messageService := services.NewMessageService(db)

	// Seed the built-in badge catalogue for the default community
	if err := gamificationService.SeedDefaultBadges(cfg.App.DefaultTenant); err != nil {
		log.Printf("Failed to seed badges: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.App.DefaultTenant)
	userHandler := handlers.NewUserHandler(userService, authService)
	proposalHandler := handlers.NewProposalHandler(proposalService, authService)
	feedHandler := handlers.NewFeedHandler(feedService, authService, cfg.App.DefaultTenant)
	eventHandler := handlers.NewEventHandler(eventService, authService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService, authService)
	announcementHandler := handlers.NewAnnouncementHandler(announcementService, authService)
	forumHandler := handlers.NewForumHandler(forumService, authService)
	messageHandler := handlers.NewMessageHandler(messageService, authService)
	moderationHandler := handlers.NewModerationHandler(moderationService, authService)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService, authService)

	// Badge worker consumes activity events and hands out badges
	var badgeWorker *jobs.BadgeWorker
	if len(cfg.Kafka.Brokers) > 0 {
		reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		badgeWorker = jobs.NewBadgeWorker(db, reader, gamificationService)
		go badgeWorker.Start()
		log.Println("Badge worker started")
	}

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"https://pratorinaldo.it",
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	authProtected := router.Group("/api/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.Me)
	}

	// Public routes: anonymous visitors see the public side of the
	// community, verified residents get more when they send a token
	public := router.Group("/api")
	public.Use(auth.OptionalAuthMiddleware())
	{
		public.GET("/feed/public", feedHandler.Public)
		public.GET("/feed", feedHandler.Private)
		public.GET("/feed/items/:type/:id", feedHandler.Item)

		public.GET("/proposals", proposalHandler.List)
		public.GET("/proposals/roadmap", proposalHandler.Roadmap)
		public.GET("/proposals/categories", proposalHandler.ListCategories)
		public.GET("/proposals/:id", proposalHandler.Get)
		public.GET("/proposals/:id/comments", proposalHandler.ListComments)
		public.GET("/proposals/:id/history", proposalHandler.History)

		public.GET("/events", eventHandler.List)
		public.GET("/events/:id", eventHandler.Get)

		public.GET("/marketplace", marketplaceHandler.List)
		public.GET("/marketplace/:id", marketplaceHandler.Get)

		public.GET("/announcements", announcementHandler.List)
		public.GET("/announcements/:id", announcementHandler.Get)

		public.GET("/forum/categories", forumHandler.ListCategories)
		public.GET("/forum/categories/:id/threads", forumHandler.ListThreads)
		public.GET("/forum/threads/:id", forumHandler.GetThread)
		public.GET("/forum/threads/:id/posts", forumHandler.ListPosts)

		public.GET("/badges", gamificationHandler.ListBadges)
		public.GET("/leaderboard", gamificationHandler.Leaderboard)
		public.GET("/users/:id", userHandler.GetProfile)
		public.GET("/users/:id/badges", gamificationHandler.UserBadges)
		public.GET("/users/:id/points", gamificationHandler.UserPoints)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.PUT("/users/me", userHandler.UpdateProfile)
		api.GET("/users/me/bacheca", userHandler.Bacheca)

		api.POST("/proposals", proposalHandler.Create)
		api.PUT("/proposals/:id", proposalHandler.Update)
		api.DELETE("/proposals/:id", proposalHandler.Delete)
		api.PATCH("/proposals/:id/status", proposalHandler.UpdateStatus)
		api.POST("/proposals/:id/vote", proposalHandler.Vote)
		api.POST("/proposals/:id/comments", proposalHandler.CreateComment)
		api.DELETE("/proposals/comments/:commentId", proposalHandler.DeleteComment)

		api.POST("/events", eventHandler.Create)
		api.PUT("/events/:id", eventHandler.Update)
		api.POST("/events/:id/publish", eventHandler.Publish)
		api.POST("/events/:id/cancel", eventHandler.Cancel)
		api.POST("/events/:id/rsvp", eventHandler.Rsvp)
		api.GET("/events/:id/attendees", eventHandler.Attendees)

		api.GET("/marketplace/mine", marketplaceHandler.MyListings)
		api.POST("/marketplace", marketplaceHandler.Create)
		api.PUT("/marketplace/:id", marketplaceHandler.Update)
		api.POST("/marketplace/:id/sold", marketplaceHandler.MarkSold)
		api.DELETE("/marketplace/:id", marketplaceHandler.Delete)

		api.POST("/forum/categories/:id/threads", forumHandler.CreateThread)
		api.POST("/forum/threads/:id/posts", forumHandler.CreatePost)
		api.PATCH("/forum/threads/:id/pin", forumHandler.SetPinned)
		api.PATCH("/forum/threads/:id/lock", forumHandler.SetLocked)
		api.DELETE("/forum/threads/:id", forumHandler.DeleteThread)
		api.DELETE("/forum/posts/:id", forumHandler.DeletePost)

		api.GET("/messages", messageHandler.Conversations)
		api.GET("/messages/unread-count", messageHandler.UnreadCount)
		api.GET("/messages/:peerId", messageHandler.Conversation)
		api.POST("/messages", messageHandler.Send)

		api.POST("/moderation/report", moderationHandler.Report)
	}

	// Admin routes (protected; role checks live in the services)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	{
		admin.GET("/users", userHandler.ListUsers)
		admin.POST("/users/:id/approve", userHandler.ApproveResident)
		admin.POST("/users/:id/reject", userHandler.RejectResident)
		admin.PUT("/users/:id/role", userHandler.SetAdminRole)

		admin.GET("/moderation", moderationHandler.ListQueue)
		admin.GET("/moderation/mine", moderationHandler.MyItems)
		admin.GET("/moderation/:id", moderationHandler.GetItem)
		admin.GET("/moderation/:id/log", moderationHandler.ActionLog)
		admin.POST("/moderation/:id/approve", moderationHandler.Approve)
		admin.POST("/moderation/:id/reject", moderationHandler.Reject)
		admin.POST("/moderation/:id/assign", moderationHandler.Assign)

		admin.POST("/announcements", announcementHandler.Create)
		admin.PUT("/announcements/:id", announcementHandler.Update)
		admin.PATCH("/announcements/:id/pin", announcementHandler.SetPinned)
		admin.DELETE("/announcements/:id", announcementHandler.Delete)

		admin.POST("/proposal-categories", proposalHandler.CreateCategory)
		admin.DELETE("/proposal-categories/:id", proposalHandler.DeleteCategory)

		admin.POST("/forum/categories", forumHandler.CreateCategory)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if badgeWorker != nil {
		badgeWorker.Stop()
	}

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
