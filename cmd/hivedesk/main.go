package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hivedesk/hivedesk/internal/chain"
	"github.com/hivedesk/hivedesk/internal/config"
	"github.com/hivedesk/hivedesk/internal/conversation"
	"github.com/hivedesk/hivedesk/internal/database"
	"github.com/hivedesk/hivedesk/internal/inbound"
	"github.com/hivedesk/hivedesk/internal/mail"
	"github.com/hivedesk/hivedesk/internal/mailbox"
	"github.com/hivedesk/hivedesk/internal/outbound"
	"github.com/hivedesk/hivedesk/internal/ratelimit"
	"github.com/hivedesk/hivedesk/internal/store/postgres"
	"github.com/hivedesk/hivedesk/internal/web"
	"github.com/hivedesk/hivedesk/internal/web/handlers"
	"github.com/hivedesk/hivedesk/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Stores
	messageStore := postgres.NewMessageStore(db)
	addressStore := postgres.NewMailboxAddressStore(db)
	integrationStore := postgres.NewIntegrationStore(db)

	// Services
	resolver := chain.NewResolver(messageStore)
	chainService := chain.NewService(messageStore)
	mailboxService := mailbox.NewService(addressStore)
	inboundService := inbound.NewService(integrationStore, resolver, chainService)
	conversationService := conversation.NewService(messageStore, mailboxService)

	var sender mail.Sender
	if cfg.SMTPEnabled {
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	} else {
		sender = &mail.NoopSender{}
	}
	outboundService := outbound.NewService(integrationStore, resolver, chainService, mailboxService, sender)

	// Rate limiter for webhook deliveries
	limiter := ratelimit.NewLimiter(cfg.WebhookRateRPS, cfg.WebhookRateBurst)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(inboundService, cfg.MaxBodyBytes)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	outboundHandler := handlers.NewOutboundHandler(outboundService)

	// Router
	router := web.NewRouter(web.RouterDeps{
		WebhookHandler:      webhookHandler,
		ConversationHandler: conversationHandler,
		OutboundHandler:     outboundHandler,
		Integrations:        integrationStore,
		Limiter:             limiter,
	})

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("HiveDesk mail service starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
