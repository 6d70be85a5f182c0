package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/bookings"
	"ms-marketplace/internal/bookings/booking_api"
	bookingdb "ms-marketplace/internal/bookings/db"
	"ms-marketplace/internal/cache"
	"ms-marketplace/internal/config"
	"ms-marketplace/internal/database/migrations"
	"ms-marketplace/internal/kafka"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/payments"
	paymentdb "ms-marketplace/internal/payments/db"
	"ms-marketplace/internal/payments/payment_api"
	"ms-marketplace/internal/stats"
	"ms-marketplace/internal/stats/stats_api"
	"ms-marketplace/internal/tickets"
	ticketdb "ms-marketplace/internal/tickets/db"
	"ms-marketplace/internal/tickets/ticket_api"
	"ms-marketplace/internal/users"
	userdb "ms-marketplace/internal/users/db"
	"ms-marketplace/internal/users/user_api"
	"ms-marketplace/internal/utils"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectCache(ctx context.Context, cfg *config.Config, log *logger.Logger) *cache.Cache {
	redisClient, err := cache.Connect(ctx, cfg.Redis.Addr)
	if err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis unavailable, continuing without cache: %v", err))
		return nil
	}
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return cache.New(redisClient, cfg.Redis.CacheTTL)
}

func connectKafka(cfg *config.Config, log *logger.Logger) *kafka.Producer {
	if !cfg.Kafka.Enabled {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
		return &kafka.Producer{}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
	producer := kafka.NewProducer(cfg.Kafka.Brokers)

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	return producer
}

func runMigrations(bunDB *bun.DB, log *logger.Logger) {
	opts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		opts.MigrationsDir = dir
	}
	if seed, err := strconv.ParseBool(os.Getenv("SEED_DATA")); err == nil {
		opts.SeedData = seed
	}

	runner := migrations.NewRunner(bunDB, opts)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied successfully")
}

func healthHandler(bunDB *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			utils.Respond(w, http.StatusServiceUnavailable, "database unreachable", nil)
			return
		}
		utils.Respond(w, http.StatusOK, "ok", map[string]string{"status": "up"})
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Marketplace Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("CONFIG", "JWT_SECRET not set")
	}

	ctx := context.Background()

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	runMigrations(bunDB, log)

	appCache := connectCache(ctx, cfg, log)
	producer := connectKafka(cfg, log)
	defer producer.Close()

	gateway, err := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.Currency, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userStore := &userdb.DB{Bun: bunDB}
	ticketStore := &ticketdb.DB{Bun: bunDB}
	bookingStore := &bookingdb.DB{Bun: bunDB}
	paymentStore := &paymentdb.DB{Bun: bunDB}

	userService := users.NewUserService(userStore, producer, log)
	ticketService := tickets.NewTicketService(ticketStore, userStore, producer, appCache, log)
	bookingService := bookings.NewBookingService(bookingStore, producer, log)
	paymentService := payments.NewPaymentService(paymentStore, bookingStore, ticketStore, gateway, producer, log)
	statsService := stats.NewService(bunDB, appCache)

	userHandler := user_api.NewHandler(userService, tokens, log)
	ticketHandler := ticket_api.NewHandler(ticketService, log)
	bookingHandler := booking_api.NewHandler(bookingService, log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	statsHandler := stats_api.NewHandler(statsService, log)

	guard := auth.NewGuard(userStore)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		utils.Respond(w, http.StatusNotFound, "route not found", nil)
	})

	// --- Public Routes ---
	r.Post("/jwt", userHandler.IssueToken)
	r.Post("/users", userHandler.Register)
	r.Get("/tickets", ticketHandler.SearchTickets)
	r.Get("/tickets/advertised", ticketHandler.AdvertisedTickets)
	r.Get("/tickets/latest", ticketHandler.LatestTickets)
	r.Get("/tickets/{id}", ticketHandler.GetTicket)
	r.Get("/public-stats", statsHandler.PublicStats)
	r.Get("/locations", statsHandler.Locations)
	r.Get("/health", healthHandler(bunDB))
	log.Info("ROUTER", "Public routes registered")

	// --- Authenticated Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens))

		r.Get("/users/{email}", userHandler.GetUser)
		r.Get("/users/role/{email}", userHandler.GetRole)
		r.Patch("/users/{email}", userHandler.UpdateProfile)
		r.Put("/users/{email}", userHandler.UpdateProfile)

		r.Post("/bookings", bookingHandler.CreateBooking)
		r.Get("/bookings/user/{email}", bookingHandler.UserBookings)
		r.Patch("/bookings/cancel/{id}", bookingHandler.CancelBooking)
		r.Get("/bookings/qr/{id}", bookingHandler.BookingQR)

		r.Post("/create-payment-intent", paymentHandler.CreatePaymentIntent)
		r.Post("/payments", paymentHandler.RecordPayment)
		r.Get("/payments/{email}", paymentHandler.UserPayments)

		r.Get("/user/stats/{email}", statsHandler.UserStats)
		log.Info("AUTH", "JWT middleware applied to authenticated routes")

		// --- Vendor Routes ---
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireVendor())

			r.Post("/tickets", ticketHandler.CreateTicket)
			r.Get("/tickets/vendor/{email}", ticketHandler.VendorTickets)
			r.Patch("/tickets/{id}", ticketHandler.UpdateTicket)
			r.Delete("/tickets/{id}", ticketHandler.DeleteTicket)

			r.Get("/bookings/vendor/{email}", bookingHandler.VendorBookings)
			r.Patch("/bookings/accept/{id}", bookingHandler.AcceptBooking)
			r.Patch("/bookings/reject/{id}", bookingHandler.RejectBooking)

			r.Get("/vendor/stats/{email}", statsHandler.VendorStats)
			log.Info("ROUTER", "Vendor routes registered")
		})

		// --- Admin Routes ---
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAdmin())

			r.Get("/users", userHandler.ListUsers)
			r.Patch("/users/role/{id}", userHandler.SetRole)
			r.Patch("/users/fraud/{id}", userHandler.FlagFraud)
			r.Delete("/users/{id}", userHandler.DeleteUser)

			r.Get("/admin/tickets", ticketHandler.AdminListTickets)
			r.Patch("/admin/tickets/status/{id}", ticketHandler.SetStatus)
			r.Patch("/admin/tickets/advertise/{id}", ticketHandler.SetAdvertised)
			r.Delete("/admin/tickets/{id}", ticketHandler.AdminDeleteTicket)

			r.Get("/admin/payments", paymentHandler.AdminPayments)
			r.Get("/admin/stats", statsHandler.AdminStats)
			log.Info("ROUTER", "Admin routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Marketplace Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Marketplace Service shutdown complete")
	}
}
