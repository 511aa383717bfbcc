package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qtrack/clinic-api/internal/config"
	"github.com/qtrack/clinic-api/internal/email"
	appointmenth "github.com/qtrack/clinic-api/internal/handler/appointment"
	authh "github.com/qtrack/clinic-api/internal/handler/auth"
	healthh "github.com/qtrack/clinic-api/internal/handler/health"
	invoiceh "github.com/qtrack/clinic-api/internal/handler/invoice"
	medicineh "github.com/qtrack/clinic-api/internal/handler/medicine"
	patienth "github.com/qtrack/clinic-api/internal/handler/patient"
	prescriptionh "github.com/qtrack/clinic-api/internal/handler/prescription"
	queueh "github.com/qtrack/clinic-api/internal/handler/queue"
	staffh "github.com/qtrack/clinic-api/internal/handler/staff"
	"github.com/qtrack/clinic-api/internal/middleware"
	"github.com/qtrack/clinic-api/internal/repository/postgres"
	"github.com/qtrack/clinic-api/internal/router"
	appointmentService "github.com/qtrack/clinic-api/internal/service/appointment"
	authService "github.com/qtrack/clinic-api/internal/service/auth"
	directoryService "github.com/qtrack/clinic-api/internal/service/directory"
	eventService "github.com/qtrack/clinic-api/internal/service/event"
	invoiceService "github.com/qtrack/clinic-api/internal/service/invoice"
	medicineService "github.com/qtrack/clinic-api/internal/service/medicine"
	prescriptionService "github.com/qtrack/clinic-api/internal/service/prescription"
	queueService "github.com/qtrack/clinic-api/internal/service/queue"
	staffService "github.com/qtrack/clinic-api/internal/service/staff"
	pkgauth "github.com/qtrack/clinic-api/pkg/auth"
	redisbroker "github.com/qtrack/clinic-api/pkg/messaging/redis"
	"github.com/qtrack/clinic-api/pkg/metrics"
	"github.com/qtrack/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Log)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	brokerLogger := log.With().Str("component", "broker").Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("clinic", "api")

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	medicineRepo := postgres.NewMedicineRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		ExpiryHours:   cfg.JWT.ExpiryHours,
		RefreshHours:  cfg.JWT.RefreshHours,
	})

	var emailSvc email.Service = &email.NoopService{}
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			BaseURL:  cfg.SMTP.BaseURL,
		})
	}

	eventSvc := eventService.NewService(outboxRepo)
	directorySvc := directoryService.NewService(appointmentRepo, cfg.Directory.SnapshotTTL)
	queueSvc := queueService.NewService(appointmentRepo, eventSvc, m)
	appointmentSvc := appointmentService.NewService(appointmentRepo, staffRepo, directorySvc)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentRepo)
	medicineSvc := medicineService.NewService(medicineRepo)
	invoiceSvc := invoiceService.NewService(invoiceRepo)
	staffSvc := staffService.NewService(staffRepo)
	authSvc := authService.NewService(staffRepo, tokenRepo, jwtSvc, security.NewBcryptHasher(cfg.Security.BcryptCost), emailSvc)

	// Router
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	handlers := router.Handlers{
		Auth:         authh.NewHandler(authSvc),
		Appointment:  appointmenth.NewHandler(appointmentSvc),
		Queue:        queueh.NewHandler(queueSvc, broker, m),
		Patient:      patienth.NewHandler(directorySvc),
		Prescription: prescriptionh.NewHandler(prescriptionSvc),
		Medicine:     medicineh.NewHandler(medicineSvc),
		Invoice:      invoiceh.NewHandler(invoiceSvc),
		Staff:        staffh.NewHandler(staffSvc),
		Health:       healthh.NewHandler(db),
	}

	routerCfg := router.Config{
		Mode:           cfg.Server.Mode,
		AllowedOrigins: cfg.Security.AllowedOrigins,
		MetricsPrefix:  "clinic_api",
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimitRPS = cfg.RateLimit.RequestsPerSecond
		routerCfg.RateLimitBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(authMiddleware, handlers, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}
