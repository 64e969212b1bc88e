package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sangkips/fixdesk-api/internal/application/service"
	"github.com/sangkips/fixdesk-api/internal/bootstrap"
	"github.com/sangkips/fixdesk-api/internal/cli"
	"github.com/sangkips/fixdesk-api/internal/config"
	"github.com/sangkips/fixdesk-api/internal/domain/event"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/cache"
	"github.com/sangkips/fixdesk-api/internal/infrastructure/pdf"
	"github.com/sangkips/fixdesk-api/internal/worker"
	"github.com/sangkips/fixdesk-api/pkg/breaker"
)

func main() {
	cmd := cli.NewRootCommand(open)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// open wires the POS services against the configured database. With Redis
// configured, events go to the same queue the API workers consume.
func open(ctx context.Context) (*cli.Backend, func(), error) {
	cfg := config.Load()
	bootstrap.SetupLogger(cfg)

	cal, err := service.NewCalendar(cfg.POS.Timezone)
	if err != nil {
		return nil, nil, err
	}
	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	release := func() { _ = sqlDB.Close() }

	var events event.Publisher = service.LogPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			release()
			return nil, nil, err
		}
		events = worker.NewDispatcher(rdb)
		release = func() {
			_ = rdb.Close()
			_ = sqlDB.Close()
		}
	}

	store := bootstrap.NewStore(db)
	pos := service.NewPOS(store, cal, events)
	exports := service.NewReportExportService(store.Reports, store.Locations, pdf.RenderDailyReport, nil, breaker.New("archive", breaker.Config{}), cal.Zone)

	return &cli.Backend{
		Closer:  pos.Sessions,
		Reports: pos.Reports,
		Exports: exports,
	}, release, nil
}
