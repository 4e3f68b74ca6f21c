package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/catalog"
	"github.com/mamadbah2/stockkeeper/internal/config"
	"github.com/mamadbah2/stockkeeper/internal/departments"
	"github.com/mamadbah2/stockkeeper/internal/movement"
	"github.com/mamadbah2/stockkeeper/internal/repository/mongodb"
	"github.com/mamadbah2/stockkeeper/internal/repository/sheets"
	"github.com/mamadbah2/stockkeeper/internal/scheduler"
	"github.com/mamadbah2/stockkeeper/internal/server/handlers"
	"github.com/mamadbah2/stockkeeper/internal/server/router"
	notificationsvc "github.com/mamadbah2/stockkeeper/internal/service/notifications"
	reportingsvc "github.com/mamadbah2/stockkeeper/internal/service/reporting"
	"github.com/mamadbah2/stockkeeper/pkg/clients/inventory"
	whatsappclient "github.com/mamadbah2/stockkeeper/pkg/clients/whatsapp"
	"github.com/mamadbah2/stockkeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	inventoryClient := inventory.NewClient(cfg.InventoryAPI)

	productStore := catalog.NewStore(inventoryClient, baseLogger.Named("catalog"))
	unsubscribe := productStore.Subscribe(func(s catalog.Snapshot) {
		baseLogger.Debug("product cache published", zap.Uint64("version", s.Version), zap.Int("products", len(s.Products)))
	})
	defer unsubscribe()
	if _, err := productStore.Refresh(startupCtx); err != nil {
		baseLogger.Warn("initial product load failed, starting with an empty catalog", zap.Error(err))
	}

	directory := departments.NewDirectory(inventoryClient, cfg.Departments.CacheTTL, baseLogger.Named("departments"))
	directory.Load(startupCtx)

	mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	channels := []notificationsvc.Channel{notificationsvc.NewInboxChannel(mongoRepo)}
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		channels = append(channels, notificationsvc.NewWhatsAppChannel(whatsClient, cfg.WhatsApp.Recipients))
		baseLogger.Info("whatsapp push notifications enabled", zap.Int("recipients", len(cfg.WhatsApp.Recipients)))
	} else {
		baseLogger.Warn("whatsapp token missing, push notifications disabled")
	}
	notifier := notificationsvc.NewService(baseLogger.Named("svc.notifications"), channels...)

	recorders := []movement.Recorder{mongoRepo}
	var digest scheduler.DigestBuilder
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		loc, _ := time.LoadLocation(cfg.Scheduling.Timezone)
		reportingSvc := reportingsvc.NewService(sheetsRepo, loc, baseLogger.Named("svc.reporting"))
		recorders = append(recorders, reportingSvc)
		digest = reportingSvc
	} else {
		baseLogger.Warn("sheets ledger not configured, daily digest disabled")
	}

	submitter := movement.NewSubmitter(inventoryClient, productStore, directory, notifier, baseLogger.Named("svc.movement"), recorders...)
	sessions := movement.NewSessionManager(submitter, productStore, cfg.Session.StockManager)

	engine := router.New(
		handlers.NewDraftHandler(sessions, baseLogger.Named("handlers.drafts")),
		handlers.NewInventoryHandler(productStore, directory, inventoryClient, mongoRepo, notifier, baseLogger.Named("handlers.inventory")),
		baseLogger.Named("router"),
	)

	sched, err := scheduler.NewScheduler(cfg.Scheduling, productStore, directory, sessions, digest, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Register(); err != nil {
		baseLogger.Fatal("failed to register scheduled jobs", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
