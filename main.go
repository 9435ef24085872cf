package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/yellownote-be/internal/api"
	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/config"
	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/isdelr/yellownote-be/internal/logger"
	"github.com/isdelr/yellownote-be/internal/monitoring"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/isdelr/yellownote-be/internal/telegram"
	"github.com/isdelr/yellownote-be/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	port := pflag.IntP("port", "p", 0, "HTTP port (overrides config and PORT)")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.ServerPort = *port
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db, cfg.SessionTTL)
	boardService := services.NewBoardService(db)
	noteService := services.NewNoteService(db, hub)
	chatService := services.NewChatService(db, hub)

	bot := telegram.NewBot(chatService, newSender(cfg))
	tickets := auth.NewTicketIssuer(ticketKey(cfg), cfg.TicketTTL)

	// Background jobs
	janitor, err := monitoring.NewSessionJanitor(sessionService, cfg.SessionCleanupSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure session janitor")
	}
	janitor.Start()

	sampler := monitoring.NewStatSampler(cfg.StatsInterval, hub)
	go sampler.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:         userService,
		Sessions:      sessionService,
		Boards:        boardService,
		Notes:         noteService,
		Hub:           hub,
		Tickets:       tickets,
		Bot:           bot,
		Stats:         sampler,
		CORSOrigin:    cfg.CORSOrigin,
		WebhookSecret: cfg.TelegramWebhookSecret,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sampler.Stop()
	janitor.Stop()
	hub.Stop()

	log.Info().Msg("Server exiting")
}

// newSender returns a Bot API sender, or a logging stand-in when no token is
// configured or the API cannot be reached at startup.
func newSender(cfg *config.Config) telegram.Sender {
	if cfg.TelegramToken == "" {
		log.Warn().Msg("TELEGRAM_TOKEN is not set; chat replies will only be logged")
		return telegram.LogSender{}
	}
	sender, err := telegram.NewAPISender(cfg.TelegramToken, cfg.TelegramAPIEndpoint)
	if err != nil {
		log.Error().Err(err).Msg("Telegram API unavailable; chat replies will only be logged")
		return telegram.LogSender{}
	}
	return sender
}

// ticketKey returns the configured ticket secret or a random per-process key.
func ticketKey(cfg *config.Config) []byte {
	if cfg.TicketSecret != "" {
		return []byte(cfg.TicketSecret)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate websocket ticket key")
	}
	log.Warn().Msg("TICKET_SECRET is not set; using a random key, tickets will not survive restarts")
	return key
}
