package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"cashflow/internal/auth"
	"cashflow/internal/config"
	"cashflow/internal/database"
	"cashflow/internal/handlers"
	"cashflow/internal/logger"
	"cashflow/internal/middleware"
	"cashflow/internal/ratelimit"
	"cashflow/internal/services"
	"cashflow/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "cashflow/internal/docs" // Import swagger docs
)

// @title           CashFlow Manager API
// @version         1.0
// @description     Secure personal finance transaction tracking API.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Rate limit counters live in Redis when configured so limits hold
	// across replicas; otherwise an in-process store is used.
	var store ratelimit.Store
	if appConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
		})
		store = ratelimit.NewRedisStore(rdb)
		log.Infof("Rate limiting backed by Redis at %s", appConfig.RedisAddr)
	} else {
		store = ratelimit.NewMemoryStore()
		log.Info("Rate limiting backed by in-process store")
	}
	limiter := ratelimit.New(store)

	// Locally issued HS256 tokens are always accepted for login/register.
	// When a JWKS URL is configured, provider-issued tokens are verified
	// against the published key set instead.
	issuer := auth.NewHMACVerifier(appConfig.JWTSecret, appConfig.JWTExpirationDur)
	var verifier auth.Verifier = issuer
	if appConfig.JWKSURL != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(context.Background(), appConfig.JWKSURL, appConfig.JWKSAPIKey)
		if err != nil {
			return fmt.Errorf("failed to initialize JWKS verifier: %w", err)
		}
		verifier = jwksVerifier
		log.Infof("Token verification via JWKS at %s", appConfig.JWKSURL)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, issuer, limiter)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService, limiter)
	healthHandler := handlers.NewHealthHandler(dbManager)

	production := appConfig.Env == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.SecurityHeaders(production))
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(corsMiddleware(appConfig.AllowedOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", healthHandler.Health)

	// Public routes
	authRoutes := router.Group("/auth")
	authRoutes.POST("/register", middleware.RateLimit(limiter, ratelimit.ClassRegister), authHandler.Register)
	authRoutes.POST("/login", middleware.RateLimit(limiter, ratelimit.ClassLogin), authHandler.Login)

	// Protected routes
	protected := router.Group("/")
	protected.Use(middleware.Auth(verifier))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/me", authHandler.UpdateMe)
	protected.POST("/auth/change-password", authHandler.ChangePassword)

	transactions := protected.Group("/transactions")
	transactions.Use(middleware.RateLimit(limiter, ratelimit.ClassTransactions))
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.GET("/summary", middleware.RateLimit(limiter, ratelimit.ClassSummary), transactionHandler.GetSummary)
	protected.GET("/categories", middleware.RateLimit(limiter, ratelimit.ClassDefault), transactionHandler.GetCategories)

	log.Infof("Starting CashFlow Manager API on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Vary", "Origin")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
