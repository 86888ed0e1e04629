package router

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/puretrustgold/puretrust-api/config"
	"github.com/puretrustgold/puretrust-api/database"
	"github.com/puretrustgold/puretrust-api/handlers"
	analytics_handlers "github.com/puretrustgold/puretrust-api/handlers/analytics"
	appointment_handlers "github.com/puretrustgold/puretrust-api/handlers/appointment"
	auth_handlers "github.com/puretrustgold/puretrust-api/handlers/auth"
	blog_handlers "github.com/puretrustgold/puretrust-api/handlers/blog"
	chat_handlers "github.com/puretrustgold/puretrust-api/handlers/chat"
	contact_handlers "github.com/puretrustgold/puretrust-api/handlers/contact"
	transport_handlers "github.com/puretrustgold/puretrust-api/handlers/transport"
	"github.com/puretrustgold/puretrust-api/livefeed"
	"github.com/puretrustgold/puretrust-api/services"
	"github.com/puretrustgold/puretrust-api/services/spaces"
	"github.com/puretrustgold/puretrust-api/utils/auth"
	"github.com/puretrustgold/puretrust-api/utils/cache"
	"github.com/puretrustgold/puretrust-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "puretrust-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
		redisCache = nil
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	feed := setupFeed(env, redisCache)

	var spacesClient *spaces.SpacesClient
	if env.DO_SPACES_KEY != "" {
		spacesClient, err = spaces.NewSpacesClient(spaces.SpacesConfig{
			AccessKey: env.DO_SPACES_KEY,
			SecretKey: env.DO_SPACES_SECRET,
			Bucket:    env.DO_SPACES_BUCKET,
			Region:    env.DO_SPACES_REGION,
			Endpoint:  env.DO_SPACES_ENDPOINT,
			CDNURL:    env.DO_SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to initialize Spaces client: %v. Attachment uploads will be disabled.", err)
			spacesClient = nil
		}
	} else {
		log.Println("Warning: DO_SPACES_KEY not set. Attachment uploads will be disabled.")
	}

	emailService := services.NewEmailService()
	chatService := services.NewChatService(db, feed, spacesClient)
	blogService := services.NewBlogService(db)
	analyticsService := services.NewAnalyticsService(db)
	auditService := services.NewAuditService(db)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	chatHandler := chat_handlers.NewChatHandler(db, chatService, feed, auditService)
	appointmentHandler := appointment_handlers.NewAppointmentHandler(db, emailService, spacesClient, auditService)
	contactHandler := contact_handlers.NewContactHandler(db, emailService, auditService)
	transportHandler := transport_handlers.NewTransportHandler(db, emailService, auditService)
	blogHandler := blog_handlers.NewBlogHandler(blogService, auditService)
	analyticsHandler := analytics_handlers.NewAnalyticsHandler(analyticsService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes
	authGroup := api.Group("/auth")

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Get("/verify", authMiddleware.Required(), authHandler.Verify)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Chat routes
	chat := api.Group("/chat")
	chat.Post("/sessions", chatHandler.OpenSession)                                           // Public: open or resume a session
	chat.Get("/sessions", authMiddleware.Required(), chatHandler.ListSessions)                // Operator: list open sessions
	chat.Get("/sessions/:id", authMiddleware.Required(), chatHandler.GetSession)              // Operator: session detail
	chat.Patch("/sessions/:id/status", authMiddleware.Required(), chatHandler.UpdateStatus)   // Operator: change status
	chat.Post("/sessions/:id/read", authMiddleware.Required(), chatHandler.MarkRead)          // Operator: mark visitor messages read
	chat.Post("/sessions/:id/reply", authMiddleware.Required(), chatHandler.SendAdminMessage) // Operator: reply
	chat.Get("/sessions/:id/messages", chatHandler.GetMessages)                               // Public: transcript
	chat.Post("/sessions/:id/messages", chatHandler.SendMessage)                              // Public: visitor message
	chat.Post("/sessions/:id/attachments", chatHandler.UploadAttachment)                      // Public: file upload
	chat.Get("/sessions/:id/stream", chatHandler.StreamMessages)                              // Public: live message stream (SSE)

	// Appointment routes
	appointments := api.Group("/appointments")
	appointments.Post("/", appointmentHandler.Create)                                              // Public: book a showroom visit
	appointments.Get("/", authMiddleware.Required(), appointmentHandler.List)                      // Operator: list bookings
	appointments.Patch("/:id/status", authMiddleware.Required(), appointmentHandler.UpdateStatus) // Operator: confirm/cancel

	// Contact routes
	contact := api.Group("/contact")
	contact.Post("/", contactHandler.Create)                                        // Public: contact form
	contact.Get("/", authMiddleware.Required(), contactHandler.List)                // Operator: inbox
	contact.Post("/:id/read", authMiddleware.Required(), contactHandler.MarkRead)   // Operator: mark read
	contact.Post("/:id/reply", authMiddleware.Required(), contactHandler.Reply)     // Operator: email reply

	// Secure transport routes
	transport := api.Group("/transport-requests")
	transport.Post("/", transportHandler.Create)                                              // Public: request armored pickup
	transport.Get("/", authMiddleware.Required(), transportHandler.List)                      // Operator: list requests
	transport.Patch("/:id/status", authMiddleware.Required(), transportHandler.UpdateStatus) // Operator: update status

	// Blog routes
	blog := api.Group("/blog")
	blog.Get("/", blogHandler.List)                                           // Public: published articles
	blog.Get("/:slug", blogHandler.GetBySlug)                                 // Public: article by slug
	blog.Post("/", authMiddleware.Required(), blogHandler.Create)             // Operator: create article
	blog.Put("/:id", authMiddleware.Required(), blogHandler.Update)           // Operator: update article
	blog.Delete("/:id", authMiddleware.Required(), blogHandler.Delete)        // Operator: delete article

	// Back office dashboard
	admin := api.Group("/admin", authMiddleware.Required())
	admin.Get("/dashboard", analyticsHandler.Dashboard)
}

// setupFeed selects the live feed transport. Redis shares the cache
// connection when available, Postgres reuses the database DSN, and
// memory is the single-process fallback. The broker serves both sides:
// the chat service publishes into it and the stream handler subscribes.
func setupFeed(env *config.EnvironmentVariable, redisCache *cache.RedisCache) livefeed.Broker {
	switch env.FEED_DRIVER {
	case "redis":
		if redisCache != nil {
			return livefeed.NewRedisBroker(redisCache.Client())
		}
		broker, err := livefeed.NewRedisBrokerFromURL(context.Background(), env.REDIS_URL)
		if err == nil {
			return broker
		}
		log.Printf("Warning: Failed to connect live feed to Redis: %v. Falling back to in-process feed.", err)
	case "postgres":
		broker, err := livefeed.NewPostgresBroker(env.DSN())
		if err == nil {
			return broker
		}
		log.Printf("Warning: Failed to start Postgres live feed: %v. Falling back to in-process feed.", err)
	}
	return livefeed.NewMemoryBroker()
}
