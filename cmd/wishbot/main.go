package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/wishbot/internal/api"
	"github.com/Kerhoff/wishbot/internal/config"
	"github.com/Kerhoff/wishbot/internal/handlers"
	"github.com/Kerhoff/wishbot/internal/repository/sqlstore"
	"github.com/Kerhoff/wishbot/internal/service"
	"github.com/Kerhoff/wishbot/internal/telegram"
	"github.com/Kerhoff/wishbot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.WithField("mode", cfg.RunMode).Info("Starting wishbot...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	store := sqlstore.New(db.DB)

	// Telegram
	botAPI, err := telegram.NewBotAPI(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}
	sender := telegram.NewThrottledSender(botAPI, cfg.SendInterval, cfg.SendBurst)

	// Service layer
	svc := service.New(store, telegram.NewNotifier(sender), l)

	router := telegram.NewRouter(l, svc)
	handlers.Register(router, svc, l)

	bot := telegram.NewBot(botAPI, sender, router, l, cfg.RequestTimeout)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if l.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	apiServer := api.NewServer(bot, store, cfg.WebhookSecret, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("HTTP server error: %v", err)
			stop()
		}
	}()

	switch cfg.RunMode {
	case config.RunModeWebhook:
		if err := bot.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			l.Fatalf("Failed to register webhook: %v", err)
		}
	case config.RunModeLongpoll:
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
				stop()
			}
		}()
	}

	l.Info("wishbot started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}

	l.Info("wishbot stopped")
}
