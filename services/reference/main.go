package reference

import (
	"context"
	"fmt"

	"varsearch/api/metrics"
	"varsearch/api/models"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type GeneSource interface {
	GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error)
}

// cached entries keep absences too so unknown genes are not refetched
type entry struct {
	gene *models.GeneSummary
}

type (
	ReferenceService struct {
		source GeneSource
		cache  *ristretto.Cache
		group  singleflight.Group
		logger *zap.Logger
	}
)

func NewReferenceService(cfg *models.Config, source GeneSource, logger *zap.Logger) (*ReferenceService, error) {
	maxGenes := cfg.Reference.CacheMaxGenes
	if maxGenes <= 0 {
		maxGenes = 100000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxGenes * 10,
		MaxCost:     maxGenes,
		BufferItems: 64,
		// cost counts genes, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create gene cache: %w", err)
	}

	return &ReferenceService{
		source: source,
		cache:  cache,
		logger: logger,
	}, nil
}

// GetGeneSummary returns the summary for geneId, or nil when the gene is
// unknown. Concurrent misses for one gene share a single lookup.
func (rs *ReferenceService) GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error) {
	if cached, ok := rs.cache.Get(geneId); ok {
		metrics.ReferenceCacheTotal.WithLabelValues("hit").Inc()
		return cached.(entry).gene, nil
	}
	metrics.ReferenceCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := rs.group.Do(geneId, func() (interface{}, error) {
		gene, err := rs.source.GetGeneSummary(ctx, geneId)
		if err != nil {
			return nil, err
		}
		rs.cache.Set(geneId, entry{gene: gene}, 1)
		return gene, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.GeneSummary), nil
}

// Purge drops every cached gene.
func (rs *ReferenceService) Purge() {
	rs.cache.Clear()
	rs.logger.Info("gene summary cache purged")
}

// Wait blocks until buffered cache writes are applied.
func (rs *ReferenceService) Wait() {
	rs.cache.Wait()
}

func (rs *ReferenceService) Close() {
	rs.cache.Close()
}
