package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/clinicflow/clinicflow/internal/handlers"
	"github.com/clinicflow/clinicflow/internal/journal"
	"github.com/clinicflow/clinicflow/internal/outbox"
	"github.com/clinicflow/clinicflow/internal/storage"
	"github.com/clinicflow/clinicflow/libs/config"
	"github.com/clinicflow/clinicflow/libs/db"
	"github.com/clinicflow/clinicflow/libs/httpx"
	"github.com/clinicflow/clinicflow/libs/kafkax"
	otelx "github.com/clinicflow/clinicflow/libs/otel"
	"github.com/clinicflow/clinicflow/libs/runtime"
)

func newClassifier() *journal.Classifier {
	c := journal.NewClassifier()
	if raw := config.String("JOURNAL_FUZZY_THRESHOLD", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 && v < 1 {
			c.FuzzyThreshold = v
		}
	}
	if v := config.Int("JOURNAL_LATE_AFTER_MINUTES", 0); v > 0 {
		c.LateAfterMinutes = v
	}
	return c
}

func main() {
	service := config.String("SERVICE_NAME", "clinic-server")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	loc := time.Local
	if tz := config.String("CLINIC_TIMEZONE", ""); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		} else {
			logger.Warn("invalid CLINIC_TIMEZONE, using local", "tz", tz)
		}
	}

	appointmentsRepo := storage.NewAppointmentRepository(pool)
	directoryRepo := storage.NewDirectoryRepository(pool)
	usersRepo := storage.NewUserRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtSecret, config.Duration("ACCESS_TOKEN_TTL", 12*time.Hour))
	appointmentHandler := handlers.NewAppointmentHandler(appointmentsRepo, directoryRepo, outboxRepo, newClassifier(), logger, loc)
	directoryHandler := handlers.NewDirectoryHandler(directoryRepo, logger)
	userHandler := handlers.NewUserHandler(usersRepo)

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	protect := handlers.RequireAuth(jwtSecret)
	protected := func(h http.HandlerFunc) http.Handler { return protect(h) }

	mux.HandleFunc("/api/v1/login", authHandler.Login)
	mux.Handle("/api/v1/me", protected(authHandler.Me))
	mux.Handle("/api/v1/slots", protected(appointmentHandler.Slots))
	mux.Handle("/api/v1/appointments", protected(appointmentHandler.Collection))
	mux.Handle("/api/v1/appointments/{id}", protected(appointmentHandler.Item))
	mux.Handle("/api/v1/centers", protected(directoryHandler.Centers))
	mux.Handle("/api/v1/clinics", protected(directoryHandler.Clinics))
	mux.Handle("/api/v1/doctors", protected(directoryHandler.Doctors))
	mux.Handle("/api/v1/services", protected(directoryHandler.Services))
	mux.Handle("/api/v1/payment-methods", protected(directoryHandler.PaymentMethods))
	mux.Handle("/api/v1/search/patients", protected(appointmentHandler.SearchPatients))
	mux.Handle("/api/v1/users", protected(userHandler.Create))

	rateLimit := rateLimitMiddleware(logger)
	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 30*time.Second)),
		rateLimit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "clinic-server")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// rateLimitMiddleware prefers the shared Redis window when REDIS_ADDR is set
// so several replicas count together; otherwise it falls back to the
// per-process limiter.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT", 120)
	window := config.Duration("RATE_LIMIT_WINDOW", time.Minute)

	addr := strings.TrimSpace(config.String("REDIS_ADDR", ""))
	if addr == "" {
		return httpx.NewRateLimiter(limit, window).Middleware()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return httpx.NewRedisRateLimiter(rdb, limit, window, "clinic").Middleware(logger, true)
}
