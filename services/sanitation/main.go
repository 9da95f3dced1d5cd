package sanitation

import (
	"fmt"
	"time"

	"varsearch/api/models"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Purgeable is a cache the sanitation service empties on a schedule.
type Purgeable interface {
	Purge()
}

type (
	SanitationService struct {
		Initialized bool
		Config      *models.Config

		interval  time.Duration
		caches    []Purgeable
		scheduler *gocron.Scheduler
		logger    *zap.Logger
	}
)

func NewSanitationService(cfg *models.Config, logger *zap.Logger, caches ...Purgeable) (*SanitationService, error) {
	interval, err := time.ParseDuration(cfg.Reference.CachePurgeInterval)
	if err != nil {
		return nil, fmt.Errorf("reference cache purge interval: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("reference cache purge interval must be positive, got %s", interval)
	}

	return &SanitationService{
		Config:    cfg,
		interval:  interval,
		caches:    caches,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}, nil
}

// Init schedules the periodic purge of reference caches so gene summaries
// follow reindexing of the genes index. Calling it twice is a no-op.
func (ss *SanitationService) Init() error {
	if ss.Initialized {
		return nil
	}

	// the first run happens one interval from now, not at startup
	_, err := ss.scheduler.Every(ss.interval).StartAt(time.Now().Add(ss.interval)).Do(ss.purge)
	if err != nil {
		return fmt.Errorf("schedule reference cache purge: %w", err)
	}
	ss.scheduler.StartAsync()

	ss.Initialized = true
	ss.logger.Info("sanitation service initialized", zap.Duration("interval", ss.interval))
	return nil
}

func (ss *SanitationService) purge() {
	ss.logger.Info("running reference cache purge", zap.Int("caches", len(ss.caches)))
	for _, c := range ss.caches {
		c.Purge()
	}
}

func (ss *SanitationService) Stop() {
	ss.scheduler.Stop()
}
