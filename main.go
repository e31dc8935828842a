// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petopia-api/config"
	"petopia-api/controllers"
	"petopia-api/middleware"
	"petopia-api/routes"
	"petopia-api/services"
	"petopia-api/store"
	"petopia-api/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, dotenv, err := config.Load()
	log := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if !dotenv {
		log.Info("No .env file found. Proceeding with environment variables.")
	}
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Persistence
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := st.Close(closeCtx); err != nil {
			log.WithError(err).Error("failed to close store")
		}
	}()

	// Token revocation
	var revoker utils.TokenRevoker = utils.NewMemoryRevoker()
	if cfg.RedisURL != "" {
		redisRevoker, err := utils.NewRedisRevoker(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer redisRevoker.Close()
		revoker = redisRevoker
	} else {
		log.Warn("REDIS_URL not set, logouts are only remembered by this process")
	}

	// Domain events
	var events utils.EventPublisher = utils.NoopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := utils.NewNatsPublisher(cfg.NatsURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to nats")
		}
		defer natsPublisher.Close()
		events = natsPublisher
	}

	// Initialize EmailService
	mailer, err := utils.NewMailer(cfg.Email, log)
	if err != nil {
		log.WithError(err).Fatal("failed to configure email")
	}
	emailService := utils.NewEmailService(mailer, cfg.Email.AdminAddress, log)

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Initialize services and controllers
	authService := services.NewAuthService(st, tokens, revoker, services.AuthOptions{
		DefaultAvatar: cfg.DefaultAvatar,
		IsAdminEmail:  cfg.IsAdminEmail,
	}, log)
	timeout := cfg.RequestTimeout
	ctrls := routes.Controllers{
		Users:     controllers.NewUserController(authService, log, timeout),
		Carts:     controllers.NewCartController(services.NewCartService(st, log), log, timeout),
		Addresses: controllers.NewAddressController(services.NewAddressService(st, log), log, timeout),
		Orders:    controllers.NewOrderController(services.NewOrderService(st, emailService, events, log), log, timeout),
		Admin:     controllers.NewAdminController(services.NewAdminService(st, log), log, timeout),
		Feedback:  controllers.NewFeedbackController(services.NewFeedbackService(st, emailService, events, log), cfg.FeedbackRedirect, log, timeout),
	}

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, ctrls, middleware.NewAuthenticator(tokens, revoker, log))

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestLogger(log)(cors(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver, "email": cfg.Email.Provider}).Info("Server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("STORE_DRIVER=memory, data is lost on restart")
		return store.NewMemoryStore(), nil
	}

	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	mongoStore := store.NewMongoStore(client, cfg.MongoDatabase)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		_ = mongoStore.Close(ctx)
		return nil, err
	}
	log.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
	return mongoStore, nil
}
