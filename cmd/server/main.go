package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"

	"deskhub/internal/api"
	"deskhub/internal/auth"
	"deskhub/internal/config"
	"deskhub/internal/db"
	"deskhub/internal/repository"
	"deskhub/internal/service"
)

func main() {
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	var cache repository.AvailabilityCache = repository.NoopAvailabilityCache{}
	if cfg.Redis.URL != "" {
		client, err := repository.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		cache = repository.NewRedisAvailabilityCache(client, cfg.Redis.AvailabilityTTL)
	} else {
		log.Println("WARNING: REDIS_URL not set, availability is not cached")
	}

	stripe.Key = cfg.Stripe.SecretKey
	if stripe.Key == "" {
		log.Println("WARNING: STRIPE_SECRET_KEY not set, checkout will fail")
	}

	spaceRepo := repository.NewSpaceRepository(conn)
	bookingRepo := repository.NewBookingRepository(conn)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	availabilitySvc := service.NewAvailabilityService(spaceRepo, bookingRepo, cache)
	sender := service.NewSenderService(service.SenderConfig{
		SendGridAPIKey:   cfg.SendGrid.APIKey,
		FromEmail:        cfg.SendGrid.FromEmail,
		FromName:         cfg.SendGrid.FromName,
		TwilioAccountSID: cfg.Twilio.AccountSID,
		TwilioAuthToken:  cfg.Twilio.AuthToken,
		TwilioFromNumber: cfg.Twilio.FromNumber,
	})
	payments := service.NewStripeService(cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL, cfg.Stripe.SessionTTL)
	bookingSvc := service.NewBookingService(spaceRepo, bookingRepo, availabilitySvc, payments, sender)
	spaceSvc := service.NewSpaceService(spaceRepo, availabilitySvc)
	accountSvc := service.NewAccountService(repository.NewAccountRepository(conn), tokens)
	adminSvc := service.NewAdminService(bookingSvc)
	jobSvc := service.NewJobService(repository.NewJobRepository(conn), availabilitySvc, cfg.Jobs.PendingTTL)

	if cfg.Admin.Email != "" {
		if err := accountSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalf("Failed to create admin account: %v", err)
		}
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Jobs.ExpirePendingEvery, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := jobSvc.ExpireStalePending(jobCtx); err != nil {
			log.Printf("Error: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule pending booking expiry: %v", err)
	}
	c.Start()
	defer c.Stop()

	router := api.NewRouter(api.Handlers{
		Auth:     api.NewAuthHandler(accountSvc),
		Spaces:   api.NewSpaceHandler(spaceSvc, availabilitySvc),
		Bookings: api.NewBookingHandler(bookingSvc),
		Admin:    api.NewAdminHandler(adminSvc),
		Stripe:   api.NewStripeWebhookHandler(cfg.Stripe.WebhookSecret, bookingSvc),
	}, tokens)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handlers.CombinedLoggingHandler(os.Stdout, cors(router)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
