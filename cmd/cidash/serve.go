package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/blankon/cidash/internal/dashboard/server"
	"github.com/blankon/cidash/internal/dashboard/usecase"
	logEndpoint "github.com/blankon/cidash/internal/logarchive/endpoint"
	logRepo "github.com/blankon/cidash/internal/logarchive/repo"
	logService "github.com/blankon/cidash/internal/logarchive/service"
	"github.com/blankon/cidash/internal/notification"
	"github.com/blankon/cidash/internal/queue"
	"github.com/blankon/cidash/internal/statuscache"
	"github.com/blankon/cidash/internal/storage"
)

func serveCommand(c *cli.Context) (err error) {
	cfg := cidashConfig
	if listen := c.String("listen"); listen != "" {
		cfg.Dashboard.Listen = listen
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Prepare workdir
	err = os.MkdirAll(cfg.Storage.Workdir, 0755)
	if err != nil {
		return err
	}
	log.Println(cfg.Storage.Workdir)

	db, err := storage.NewDB(cfg.Storage.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()
	snapshots := storage.NewSnapshotStore(db, cfg.Storage.MaxSnapshots)
	actions := storage.NewActionStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache usecase.StatusCache
	if cfg.Redis != "" {
		statusCache, err := statuscache.New(ctx, cfg.Redis, cfg.Dashboard.StatusCacheTTL.Duration)
		if err != nil {
			log.Printf("Failed to initialize status cache: %v\n", err)
			log.Println("Continuing without status cache...")
		} else {
			defer statusCache.Close()
			cache = statusCache
			log.Println("Status cache initialized successfully")
		}
	}

	notifier := notification.NewNotifier(cfg.Notification.WebhookURL)
	policy := queue.ParsePolicy(cfg.Dashboard.RemainingPolicy)
	forTenant := func(tenant string) *usecase.DashboardUsecase {
		tenantClient := client.WithTenant(tenant)
		return usecase.NewDashboardUsecase(usecase.Deps{
			Tenant: tenant,
			API:    tenantClient,
			Admin: func(token string) usecase.AdminAPI {
				return tenantClient.WithToken(token)
			},
			Snapshots:    snapshots,
			Actions:      actions,
			Cache:        cache,
			Notifier:     notifier,
			Policy:       policy,
			WebsocketURL: cfg.API.WebsocketURL,
		})
	}

	root := forTenant("")
	tenants := server.NewTenants(ctx, func(tenant string) (*usecase.DashboardUsecase, error) {
		return forTenant(tenant), nil
	}, root.LoadTenants, cfg.Dashboard.RefreshInterval.Duration)
	if cfg.API.Tenant != "" {
		if _, err = tenants.Get(ctx, cfg.API.Tenant); err != nil {
			return err
		}
	}

	logs := logEndpoint.NewLogHTTPEndpoint(
		logService.NewLogService(
			logRepo.NewFileRepo(cfg.Storage.LogDir())))

	srv, err := server.New(root, tenants, logs, version)
	if err != nil {
		return err
	}
	defer notifier.Wait()
	return srv.ListenAndServe(ctx, cfg.Dashboard.Listen)
}
