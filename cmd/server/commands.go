package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medicine_chatbot/internal/config"
	"medicine_chatbot/internal/handlers"
	"medicine_chatbot/internal/middleware"
	"medicine_chatbot/internal/migrations"
	"medicine_chatbot/internal/redis"
	"medicine_chatbot/internal/services"
	"medicine_chatbot/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(config.Load())
		},
	}
}

func migrateCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := context.Background()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()
			if st.gorm == nil {
				log.Println("Document store indexes ensured")
				return nil
			}
			return migrations.RunMigrations(st.gorm, reset)
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every table before migrating")
	return cmd
}

func seedAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if username == "" {
				username = cfg.AdminUsername
			}
			if password == "" {
				password = cfg.AdminPassword
			}
			ctx := context.Background()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()
			tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
			users := services.NewUserService(st.users, st.admins, tokens, nil, nil)
			return migrations.SeedAdmin(ctx, users, username, password)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username (default ADMIN_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default ADMIN_PASSWORD)")
	return cmd
}

func runServe(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)
	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	whatsappClient := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
	dispatcher := newDispatcher(cfg, whatsappClient)
	dispatcher.Start()

	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())
	notifier := services.NewNotificationService(dispatcher, cfg.AdminEmail, whatsappClient.Configured())
	userService := services.NewUserService(st.users, st.admins, tokens, notifier, nil)
	transactionService := services.NewTransactionService(st.txs, st.users, notifier, services.TransactionConfig{
		EditWindow: cfg.EditWindow(),
		Doctors:    cfg.Doctors,
	}, nil)
	feedService := services.NewAdminFeedService(st.users, nil)
	chatService := services.NewChatService(redisClient, userService, transactionService, cfg.Doctors, cfg.SessionTTL(), nil)

	if err := migrations.SeedAdmin(ctx, userService, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Printf("Warning: Failed to seed admin: %v", err)
	}

	deps := handlers.RouterDeps{
		Tokens:      tokens,
		Origins:     cfg.Origins(),
		Auth:        handlers.NewAuthHandler(userService),
		Users:       handlers.NewUserHandler(userService, transactionService),
		Transaction: handlers.NewTransactionHandler(transactionService),
		Admin:       handlers.NewAdminHandler(feedService, transactionService),
		Chat:        handlers.NewChatHandler(chatService),
	}
	if whatsappClient.Configured() {
		deps.WhatsApp = handlers.NewWhatsAppHandler(chatService, whatsappClient)
	}
	router := handlers.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: HTTP shutdown: %v", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Printf("Warning: notifications not drained: %v", err)
	}
	log.Println("Server stopped")
	return nil
}
