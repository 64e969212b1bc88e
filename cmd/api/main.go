package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/bootstrap"
	"github.com/sangkips/fixdesk-api/internal/config"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/cache"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/pdf"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/storage"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/handler"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/middleware"
	"github.com/sangkips/fixdesk-api/internal/presentation/http/routes"
	"github.com/sangkips/fixdesk-api/internal/worker"
	"github.com/sangkips/fixdesk-api/pkg/breaker"
	"github.com/sangkips/fixdesk-api/pkg/printer"
	"github.com/sangkips/fixdesk-api/pkg/utils"
)

func main() {
	cfg := config.Load()
	bootstrap.SetupLogger(cfg)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	cal, err := service.NewCalendar(cfg.POS.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("zone", cfg.POS.Timezone).Msg("invalid POS_TIMEZONE")
	}

	// Redis is optional: without it events are only logged and the daily
	// close runs without a cross-replica lock.
	var rdb *redis.Client
	var events event.Publisher = service.LogPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err = cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		events = worker.NewDispatcher(rdb)
	}

	store := bootstrap.NewStore(db)
	pos := service.NewPOS(store, cal, events)

	thermalPrinter, err := printer.New(printer.Config{
		Type:         cfg.Printer.Type,
		DevicePath:   cfg.Printer.DevicePath,
		Address:      cfg.Printer.Address,
		DialTimeout:  cfg.Printer.DialTimeout,
		WriteTimeout: cfg.Printer.WriteTimeout,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize printer, printing disabled")
		thermalPrinter = printer.Discard{}
		cfg.Printer.Type = "none"
	}
	defer thermalPrinter.Close()
	printerService := service.NewPrinterService(
		thermalPrinter,
		breaker.New("printer", breaker.Config{}),
		store.Receipts,
		store.Locations,
		cfg.Printer.Type,
		cfg.POS.ReceiptWidth,
		cal.Zone,
	)

	var archive service.ReportArchive
	if cfg.Archive.Bucket != "" {
		s3Archive, err := storage.NewS3Archive(ctx, storage.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			Bucket:    cfg.Archive.Bucket,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Prefix:    cfg.Archive.Prefix,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize report archive")
		}
		archive = s3Archive
	}
	exportService := service.NewReportExportService(
		store.Reports,
		store.Locations,
		pdf.RenderDailyReport,
		archive,
		breaker.New("archive", breaker.Config{}),
		cal.Zone,
	)

	var pool *worker.Pool
	if rdb != nil {
		pool = worker.NewPool(rdb, worker.PoolConfig{
			Workers:     cfg.Worker.Count,
			MaxAttempts: cfg.Worker.MaxAttempts,
			BaseBackoff: cfg.Worker.BaseBackoff,
		})
		worker.RegisterHandlers(pool, printerService, exportService)
		pool.Start(ctx)
	}

	if cfg.POS.DailyCloseEnabled {
		scheduler, err := worker.NewScheduler(pos.Sessions, rdb, worker.SchedulerConfig{
			At:   cfg.POS.DailyCloseAt,
			Zone: cal.Zone,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid daily close schedule")
		}
		scheduler.Start(ctx)
	}

	if err := handler.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	handlers := &routes.Handlers{
		Session: handler.NewSessionHandler(pos.Sessions, pos.Reports, exportService),
		Receipt: handler.NewReceiptHandler(pos),
		Printer: handler.NewPrinterHandler(printerService),
		Admin:   handler.NewAdminHandler(pos.Sessions),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:  jwtManager,
		Cfg:         cfg,
		RateLimiter: middleware.NewTenantRateLimiter(ctx, middleware.RateLimiterConfigFrom(&cfg.RateLimit)),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if pool != nil {
		pool.Wait()
	}
	log.Info().Msg("server stopped")
}
