package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/adhyankumar740-cloud/Game/internal/config"
	"github.com/adhyankumar740-cloud/Game/internal/database"
	"github.com/adhyankumar740-cloud/Game/internal/handlers"
	"github.com/adhyankumar740-cloud/Game/internal/middleware"
	"github.com/adhyankumar740-cloud/Game/internal/repositories"
	"github.com/adhyankumar740-cloud/Game/internal/services"
	"github.com/adhyankumar740-cloud/Game/pkg/logger"
	"github.com/adhyankumar740-cloud/Game/telegram"
	"github.com/joho/godotenv"
)

const sweepInterval = time.Minute

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.AppEnv)
	defer logger.Sync()

	logger.Info("Starting Quiz & Hustle Bot...")

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	if err := database.SeedQuestions(db); err != nil {
		logger.Warn("Failed to seed questions", "error", err)
	}

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize bot", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories
	valueRepo := repositories.NewBotValueRepository(db, cfg.LeaseSecret)
	userRepo := repositories.NewUserRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	questionRepo := repositories.NewQuestionRepository(db)

	// Services
	trivia := services.NewFallbackSource(
		services.NewOpenTDBSource(cfg.TriviaAPIURL),
		services.NewBankSource(questionRepo),
	)
	minDelay, maxDelay := cfg.BroadcastDelayRange()
	broadcastSvc := services.NewBroadcastService(ctx, valueRepo, chatRepo, trivia, bot, services.BroadcastConfig{
		Cooldown:   cfg.QuizCooldown(),
		LeaseTTL:   cfg.QuizLockTTL(),
		OpenPeriod: cfg.QuizOpenPeriod(),
		MinDelay:   minDelay,
		MaxDelay:   maxDelay,
	})
	hustleSvc := services.NewHustleService(ctx, valueRepo, userRepo, services.NewRandomWordAPI(cfg.WordAPIURL), bot, cfg.HustleTimeout())
	imageSvc := services.NewImageService(services.ImageConfig{
		PexelsURL:      cfg.PexelsAPIURL,
		PexelsKey:      cfg.PexelsAPIKey,
		StableHordeURL: cfg.StableHordeURL,
		StableHordeKey: cfg.StableHordeKey,
	})
	limiter := middleware.NewRateLimiter(cfg.CommandRateLimit, time.Minute)

	handlerMgr := handlers.NewHandlerManager(
		cfg,
		userRepo,
		chatRepo,
		valueRepo,
		broadcastSvc,
		services.NewQuizResolver(valueRepo, userRepo, bot),
		hustleSvc,
		services.NewSpamGuard(userRepo, bot, cfg.SpamMessageLimit, cfg.SpamTimeWindow(), cfg.SpamBlockDuration()),
		imageSvc,
		services.NewOwnerBroadcaster(chatRepo, bot, cfg.OwnerBroadcastRate),
		services.NewScoreExporter(userRepo),
		limiter,
	)

	// Clean up whatever a previous process left behind before taking updates
	sweeper := services.NewSweeper(valueRepo, hustleSvc, limiter, sweepInterval)
	sweeper.Sweep(ctx)
	if err := sweeper.Start(ctx); err != nil {
		logger.Fatal("Failed to start sweeper", err)
	}

	if err := bot.Start(ctx, handlerMgr); err != nil {
		logger.Fatal("Failed to start receiving updates", err)
	}

	logger.Info("Bot started successfully", "env", cfg.AppEnv, "webhook", cfg.UseWebhook())

	<-ctx.Done()

	logger.Info("Shutting down gracefully...")
	bot.Stop()
	sweeper.Stop()
	handlerMgr.Wait()
	broadcastSvc.Wait()
	hustleSvc.Wait()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Bot stopped")
}
