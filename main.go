// Package main is the entry point for the sushi bill Telegram bot and its
// brand dashboard API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"gitlab.com/yelinaung/sushi-bot/internal/admin"
	"gitlab.com/yelinaung/sushi-bot/internal/bot"
	"gitlab.com/yelinaung/sushi-bot/internal/catalog"
	"gitlab.com/yelinaung/sushi-bot/internal/config"
	"gitlab.com/yelinaung/sushi-bot/internal/database"
	"gitlab.com/yelinaung/sushi-bot/internal/exchange"
	"gitlab.com/yelinaung/sushi-bot/internal/history"
	"gitlab.com/yelinaung/sushi-bot/internal/logger"
	"gitlab.com/yelinaung/sushi-bot/internal/repository"
	"gitlab.com/yelinaung/sushi-bot/internal/storage"
	"gitlab.com/yelinaung/sushi-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("sushi-bot %s (commit: %s, built: %s)\n", version, commit, date)
			return
		case "token":
			if err := printToken(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	if err := logger.InitHashSalt(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize hash salt")
	}

	cfg.Telemetry.ServiceVersion = version
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	var objects catalog.ObjectStore
	if cfg.StorageEnabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to configure logo storage")
		}
		objects = s3Store
	}

	brands := catalog.NewService(repository.NewBrandRepository(pool), objects)
	seeded, err := brands.Seed(ctx)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed brand templates")
	}

	meals := history.NewService(
		repository.NewMealRepository(pool),
		exchange.NewStaticService(cfg.ExchangeRates, time.Now()),
	)

	logger.Log.Info().Int("seeded_brands", seeded).Msg("Database initialized successfully")

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup

	if cfg.AdminHTTPAddr != "" {
		server := admin.NewServer(admin.Config{
			Addr:        cfg.AdminHTTPAddr,
			JWTSecret:   cfg.AdminJWTSecret,
			CORSOrigins: cfg.AdminCORSOrigins,
		}, brands)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				logger.Log.Error().Err(err).Msg("Admin server stopped")
				cancel()
			}
		}()
	}

	if cfg.BotEnabled {
		telegramBot, err := bot.New(cfg, repository.NewUserRepository(pool), brands, meals)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create bot")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			telegramBot.Start(ctx)
		}()
	}

	wg.Wait()
}

// printToken mints a dashboard token for the admin user id in args.
func printToken(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sushi-bot token <telegram-user-id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is not set")
	}
	if !cfg.IsAdmin(userID) {
		return fmt.Errorf("user %d is not listed in ADMIN_USER_IDS", userID)
	}

	token, err := admin.IssueToken(cfg.AdminJWTSecret, userID, true, admin.DefaultTokenTTL, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
