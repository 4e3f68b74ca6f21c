package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockkeeper/internal/catalog"
	"github.com/mamadbah2/stockkeeper/internal/config"
	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// CatalogRefresher reloads the product cache.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (catalog.Snapshot, error)
}

// DirectoryRefresher reloads the department directory.
type DirectoryRefresher interface {
	Refresh(ctx context.Context) []models.DisplayDepartment
}

// DraftPruner drops drafts nobody touched for a while.
type DraftPruner interface {
	PruneIdle(maxIdle time.Duration) int
}

// DigestBuilder summarizes a day of movements.
type DigestBuilder interface {
	DailyDigest(ctx context.Context, day time.Time) (string, error)
}

// Publisher delivers a notification on every channel.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	cfg       config.SchedulingConfig
	catalog   CatalogRefresher
	directory DirectoryRefresher
	drafts    DraftPruner
	digest    DigestBuilder
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. digest may be nil when no
// ledger is configured; the digest job is then not registered.
func NewScheduler(cfg config.SchedulingConfig, cat CatalogRefresher, directory DirectoryRefresher, drafts DraftPruner, digest DigestBuilder, publisher Publisher, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		cfg:       cfg,
		catalog:   cat,
		directory: directory,
		drafts:    drafts,
		digest:    digest,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Register adds every configured job. Invalid expressions are returned.
func (s *Scheduler) Register() error {
	jobs := []struct {
		name string
		spec string
		run  func()
		skip bool
	}{
		{"catalog refresh", s.cfg.CatalogRefresh, s.refreshCatalog, s.catalog == nil},
		{"department refresh", s.cfg.DepartmentRefresh, s.refreshDepartments, s.directory == nil},
		{"draft pruning", s.cfg.DraftPrune, s.pruneDrafts, s.drafts == nil || s.cfg.DraftMaxIdle <= 0},
		{"daily digest", s.cfg.DigestSchedule, s.sendDailyDigest, s.digest == nil || s.publisher == nil},
	}

	for _, job := range jobs {
		if job.skip || job.spec == "" {
			s.logger.Info("scheduled job disabled", zap.String("job", job.name))
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
		s.logger.Info("scheduled job registered", zap.String("job", job.name), zap.String("spec", job.spec))
	}
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) refreshCatalog() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap, err := s.catalog.Refresh(ctx)
	if err != nil {
		s.logger.Error("scheduled catalog refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("catalog refreshed", zap.Uint64("version", snap.Version), zap.Int("products", len(snap.Products)))
}

func (s *Scheduler) refreshDepartments() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps := s.directory.Refresh(ctx)
	s.logger.Debug("departments refreshed", zap.Int("departments", len(deps)))
}

func (s *Scheduler) pruneDrafts() {
	if n := s.drafts.PruneIdle(s.cfg.DraftMaxIdle); n > 0 {
		s.logger.Info("idle drafts discarded", zap.Int("drafts", n), zap.Duration("max_idle", s.cfg.DraftMaxIdle))
	}
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	body, err := s.digest.DailyDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate daily digest", zap.Error(err))
		return
	}

	err = s.publisher.Publish(ctx, models.Notification{
		Kind:  models.NotificationDigest,
		Title: "Daily stock digest",
		Body:  body,
	})
	if err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent successfully")
	}
}
