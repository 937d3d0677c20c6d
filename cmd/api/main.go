package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "taxengine/api/swagger" // swagger docs
	"taxengine/internal/database"
	"taxengine/internal/handler"
	"taxengine/internal/middleware"
	"taxengine/internal/repository"
	"taxengine/internal/service"
	"taxengine/internal/vies"
	"taxengine/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           VAT Classification & Rate Resolution API
// @version         1.0
// @description     Classifies sales into tax zones, resolves rates and decomposes gross amounts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	cfg := engineConfigFromEnv()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	classRepo := repository.NewTaxClassRepository(db)
	rateRepo := repository.NewTaxRateRepository(db)
	ossRepo := repository.NewOSSDestinationRepository(db)
	exemptionRepo := repository.NewExemptionRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	txManager := repository.NewTransactionManager(db)

	viesClient := vies.NewClient(os.Getenv("VIES_URL"), viesTimeoutFromEnv())

	verifier := service.NewVerificationService(viesClient, verificationRepo, wsHub, cfg)
	classifier := service.NewClassifier(classRepo, ossRepo, exemptionRepo, verifier, cfg)
	resolver := service.NewRateResolver(rateRepo, cfg)
	taxService := service.NewTaxService(classifier, resolver, cfg)
	configService := service.NewConfigService(db, classRepo, rateRepo, ossRepo, exemptionRepo, txManager, wsHub)
	auditService := service.NewAuditService(db)
	verificationQueries := service.NewVerificationQueryService(verificationRepo)

	// Initialize Handlers
	taxHandler := handler.NewTaxHandler(taxService)
	configHandler := handler.NewConfigHandler(configService)
	verificationHandler := handler.NewVerificationHandler(verificationQueries)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	taxHandler.RegisterRoutes(router.Group(""))
	configHandler.RegisterRoutes(router.Group(""))
	verificationHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// engineConfigFromEnv assembles the jurisdiction configuration. Every value
// has a reference-deployment default so a bare dev environment still runs.
func engineConfigFromEnv() service.Config {
	cfg := service.Config{
		HomeCountry: os.Getenv("TAX_HOME_COUNTRY"),
		Language:    os.Getenv("TAX_LANGUAGE"),
	}

	if raw := os.Getenv("TAX_DEFAULT_RATE"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			log.Fatalf("Invalid TAX_DEFAULT_RATE %q: %v", raw, err)
		}
		cfg.DefaultRatePercent = rate
	}

	if raw := os.Getenv("TAX_EU_COUNTRIES"); raw != "" {
		for _, country := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(country); trimmed != "" {
				cfg.EUCountries = append(cfg.EUCountries, trimmed)
			}
		}
	}

	if raw := os.Getenv("TAX_MIN_VAT_LENGTH"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid TAX_MIN_VAT_LENGTH %q: %v", raw, err)
		}
		cfg.MinVATNumberLength = n
	}

	if raw := os.Getenv("TAX_BATCH_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid TAX_BATCH_CONCURRENCY %q: %v", raw, err)
		}
		cfg.BatchConcurrency = n
	}

	return cfg.WithDefaults()
}

func viesTimeoutFromEnv() time.Duration {
	raw := os.Getenv("VIES_TIMEOUT_SECONDS")
	if raw == "" {
		return vies.DefaultTimeout
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		log.Printf("Invalid VIES_TIMEOUT_SECONDS %q, using default", raw)
		return vies.DefaultTimeout
	}
	return time.Duration(seconds) * time.Second
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
