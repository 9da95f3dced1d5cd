package liftover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"varsearch/api/metrics"
	"varsearch/api/models"
	"varsearch/api/models/constants"
	"varsearch/api/models/constants/chromosome"
	genomeBuild "varsearch/api/models/constants/genome-build"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

type Coordinate struct {
	Chrom string
	Pos   int64
}

// Loader opens the chain data at source, a local path or an http(s) URL.
type Loader func(ctx context.Context, source string) (io.ReadCloser, error)

type lazyConverter struct {
	once   sync.Once
	source string
	conv   *Converter
}

// Service converts coordinates between GRCh37 and GRCh38. Each direction's
// converter is built on first use; a failed build is logged and the
// direction stays unavailable for the life of the process.
type Service struct {
	enabled    bool
	loader     Loader
	logger     *zap.Logger
	converters map[constants.GenomeBuild]*lazyConverter
}

func NewService(cfg *models.Config, logger *zap.Logger) *Service {
	retries := cfg.Liftover.FetchRetries
	if retries < 0 {
		retries = 0
	}
	client := &http.Client{Timeout: 5 * time.Minute}
	return NewServiceWithLoader(cfg, logger, func(ctx context.Context, source string) (io.ReadCloser, error) {
		return openChain(ctx, client, source, uint64(retries))
	})
}

func NewServiceWithLoader(cfg *models.Config, logger *zap.Logger, loader Loader) *Service {
	return &Service{
		enabled: cfg.Liftover.Enabled,
		loader:  loader,
		logger:  logger,
		converters: map[constants.GenomeBuild]*lazyConverter{
			genomeBuild.GRCh37: {source: cfg.Liftover.Grch37ToGrch38Chain},
			genomeBuild.GRCh38: {source: cfg.Liftover.Grch38ToGrch37Chain},
		},
	}
}

// Convert lifts a position from the given build to the other one. false
// means the coordinate is unknown in the target build.
func (s *Service) Convert(ctx context.Context, from constants.GenomeBuild, chrom string, pos int64) (Coordinate, bool) {
	if s == nil {
		return Coordinate{}, false
	}
	target := string(genomeBuild.Other(from))

	lc, ok := s.converters[from]
	if !s.enabled || !ok {
		metrics.LiftoverTotal.WithLabelValues(target, "unavailable").Inc()
		return Coordinate{}, false
	}

	lc.once.Do(func() {
		// the first caller's cancellation must not poison every later caller
		lc.conv = s.build(context.WithoutCancel(ctx), from, lc.source)
	})
	if lc.conv == nil {
		metrics.LiftoverTotal.WithLabelValues(target, "unavailable").Inc()
		return Coordinate{}, false
	}

	name, lifted, ok := lc.conv.Convert(chromosome.Normalize(chrom), pos)
	if !ok {
		metrics.LiftoverTotal.WithLabelValues(target, "unmapped").Inc()
		return Coordinate{}, false
	}
	metrics.LiftoverTotal.WithLabelValues(target, "mapped").Inc()
	return Coordinate{Chrom: chromosome.Normalize(name), Pos: lifted}, true
}

func (s *Service) build(ctx context.Context, from constants.GenomeBuild, source string) *Converter {
	fields := []zap.Field{
		zap.String("from", string(from)),
		zap.String("to", string(genomeBuild.Other(from))),
		zap.String("source", source),
	}

	if source == "" {
		s.logger.Warn("liftover unavailable: no chain configured", fields...)
		return nil
	}

	start := time.Now()
	rc, err := s.loader(ctx, source)
	if err != nil {
		s.logger.Warn("liftover unavailable", append(fields, zap.Error(err))...)
		return nil
	}
	defer rc.Close()

	conv, err := ParseChain(rc)
	if err != nil {
		s.logger.Warn("liftover unavailable", append(fields, zap.Error(err))...)
		return nil
	}

	s.logger.Info("liftover ready", append(fields, zap.Duration("took", time.Since(start)))...)
	return conv
}

func openChain(ctx context.Context, client *http.Client, source string, retries uint64) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	var body io.ReadCloser
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return err
		}
		res, err := client.Do(req)
		if err != nil {
			return err
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return fmt.Errorf("fetch %s: got %s", source, res.Status)
		}
		body = res.Body
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}
