package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"warelay/internal/entities"
	"warelay/internal/infrastructure"
	"warelay/internal/interfaces"
	"warelay/internal/interfaces/http"
	"warelay/internal/repository"
	"warelay/internal/usecases"
)

func main() {
	// Load .env file (optional, real env wins)
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using process environment")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Connect to PostgreSQL. Without DATABASE_URL the relay still answers
	// webhooks, it just has no memory: first contact is decided per event.
	var pool *pgxpool.Pool
	var pgClient *infrastructure.PostgresClient
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		var err error
		pgClient, err = infrastructure.NewPostgresClient(dsn)
		if err != nil {
			logger.Warn("database unavailable, running degraded", "error", err)
		} else {
			pool = pgClient.Pool
			defer pgClient.Close()
		}
	} else {
		logger.Warn("DATABASE_URL not set, running degraded")
	}

	// Initialize Repositories
	store := repository.NewMessageRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool)
	configRepo := repository.NewConfigRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)

	// WhatsApp Cloud API sender, template resolved from config per send
	cloudClient := infrastructure.NewWhatsAppCloudClient(
		os.Getenv("ACCESS_TOKEN"),
		os.Getenv("PHONE_NUMBER_ID"),
		os.Getenv("GRAPH_API_BASE"),
		logger,
	)
	cloudClient.Template = func() infrastructure.TemplateConfig {
		return infrastructure.TemplateConfig{
			Name:     configRepo.GetConfigOr(repository.ConfigTemplateName, usecases.DefaultTemplateName),
			Language: configRepo.GetConfigOr(repository.ConfigTemplateLanguage, usecases.DefaultTemplateLanguage),
		}
	}

	geminiClient := infrastructure.NewGeminiClient(
		os.Getenv("GEMINI_API_KEY"),
		os.Getenv("GEMINI_MODEL"),
		"",
		logger,
	)

	welcome := func() string {
		return configRepo.GetConfigOr(repository.ConfigWelcomeText, infrastructure.DefaultWelcome)
	}

	senders := map[string]interfaces.Messenger{
		entities.ChannelWhatsApp: cloudClient,
	}

	messageService := usecases.NewMessageService(store, geminiClient, senders, configRepo, usageRepo, logger)

	// Operator API
	authUsecase := usecases.NewAuthUsecase(userRepo, os.Getenv("JWT_SECRET"))
	if err := authUsecase.EnsureAdmin("root", "root"); err != nil {
		logger.Warn("failed to ensure admin user", "error", err)
	}
	dashboardUsecase := usecases.NewDashboardUsecase(configRepo, usageRepo, store)
	authMiddleware := http.NewMiddleware(os.Getenv("JWT_SECRET"))

	// Telegram channel (optional)
	var telegramRelay *infrastructure.TelegramRelay
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		tg, err := infrastructure.NewTelegramRelay(token, logger)
		if err != nil {
			logger.Warn("telegram disabled", "error", err)
		} else {
			tg.Events = messageService.HandleEvents
			tg.Welcome = welcome
			senders[entities.ChannelTelegram] = tg
			tg.Start()
			telegramRelay = tg
			fmt.Println("Telegram Bot Connected")
		}
	} else {
		fmt.Println("Telegram disabled (Token missing)")
	}

	// Linked-device WhatsApp channel (optional)
	var deviceClient *infrastructure.WhatsAppDeviceClient
	if dbPath := os.Getenv("WA_DEVICE_DB"); dbPath != "" {
		dc, err := infrastructure.NewWhatsAppDeviceClient(dbPath, logger)
		if err != nil {
			logger.Warn("whatsapp device channel disabled", "error", err)
		} else {
			dc.Events = messageService.HandleEvents
			dc.Welcome = welcome
			if err := dc.Connect(); err != nil {
				logger.Warn("whatsapp device connect failed", "error", err)
			} else {
				senders[entities.ChannelWhatsmeow] = dc
				deviceClient = dc
			}
		}
	}

	handler := http.NewHandler(messageService, store, os.Getenv("VERIFY_TOKEN"), logger)
	adminHandler := http.NewAdminHandler(authUsecase, dashboardUsecase, store, deviceClient)

	// Setup HTTP server
	r := gin.Default()
	http.SetupRoutes(r, handler, adminHandler, authMiddleware)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &nethttp.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: r,
	}
	go func() {
		fmt.Println("HTTP Server listening on :" + port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			fmt.Printf("FAILED to start HTTP Server: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Let in-flight replies finish before tearing transports down.
	messageService.Flush()
	if telegramRelay != nil {
		telegramRelay.Stop()
	}
	if deviceClient != nil {
		deviceClient.Disconnect()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
}
