package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"tour-session-system/handlers"
	"tour-session-system/middleware"
	"tour-session-system/models"
	"tour-session-system/services"
	"tour-session-system/utils"
	"tour-session-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024, // challenge photos
	})

	// Only gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if os.Getenv("R2_BUCKET_NAME") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — challenge photo uploads disabled")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.TourTemplate{},
		&models.TourStop{},
		&models.TourChallenge{},
		&models.Session{},
		&models.Team{},
		&models.ChallengeProgress{},
		&models.PubGolfStop{},
		&models.BingoCard{},
		&models.AchievementRule{},
		&models.UnlockRecord{},
		&models.UserProgress{},
		&models.PlayHistoryRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	tokenServiceURL := os.Getenv("TOKEN_SERVICE_URL")
	if tokenServiceURL == "" {
		log.Fatal("TOKEN_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("TOUR_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("TOUR_SERVICE_TOKEN environment variable not set")
	}

	progressionService := services.NewProgressionService(db)
	achievementService := services.NewAchievementService(db, progressionService)
	teamService := services.NewTeamService(db, achievementService)
	tokenClient := services.NewTokenClient(tokenServiceURL, serviceToken)
	sessionService := services.NewSessionService(db, teamService, tokenClient)
	scoringService := services.NewScoringService(db, achievementService)
	pubGolfService := services.NewPubGolfService(db, achievementService)
	lifecycleService := services.NewLifecycleService(db, achievementService)

	if err := achievementService.SeedRules(); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ttlMin, _ := strconv.Atoi(os.Getenv("WAITING_SESSION_TTL_MINUTES")); ttlMin > 0 {
		sweeper := workers.NewSessionSweeper(db, lifecycleService, time.Duration(ttlMin)*time.Minute)
		sweeper.Start()
	}

	handlers.SetupSessionRoutes(app, sessionService, teamService, lifecycleService)
	handlers.SetupScoringRoutes(app, scoringService, pubGolfService)
	handlers.SetupAchievementRoutes(app, achievementService, progressionService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Achievement catalog seeded")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
