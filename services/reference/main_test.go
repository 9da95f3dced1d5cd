package reference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"varsearch/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSource struct {
	calls int32
	delay time.Duration
	genes map[string]*models.GeneSummary
	err   error
}

func (s *countingSource) GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error) {
	atomic.AddInt32(&s.calls, 1)
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return s.genes[geneId], nil
}

func newTestService(t *testing.T, source GeneSource) *ReferenceService {
	rs, err := NewReferenceService(&models.Config{}, source, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(rs.Close)
	return rs
}

func TestReferenceService(t *testing.T) {
	brca2 := &models.GeneSummary{GeneId: "ENSG00000139618", Symbol: "BRCA2"}

	t.Run("should serve repeat lookups from the cache", func(t *testing.T) {
		source := &countingSource{genes: map[string]*models.GeneSummary{brca2.GeneId: brca2}}
		rs := newTestService(t, source)

		gene, err := rs.GetGeneSummary(context.Background(), brca2.GeneId)
		require.NoError(t, err)
		assert.Equal(t, "BRCA2", gene.Symbol)
		rs.Wait()

		gene, err = rs.GetGeneSummary(context.Background(), brca2.GeneId)
		require.NoError(t, err)
		assert.Equal(t, "BRCA2", gene.Symbol)
		assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	})

	t.Run("should cache unknown genes as absent", func(t *testing.T) {
		source := &countingSource{}
		rs := newTestService(t, source)

		gene, err := rs.GetGeneSummary(context.Background(), "ENSG0")
		require.NoError(t, err)
		assert.Nil(t, gene)
		rs.Wait()

		gene, err = rs.GetGeneSummary(context.Background(), "ENSG0")
		require.NoError(t, err)
		assert.Nil(t, gene)
		assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	})

	t.Run("should not cache failures", func(t *testing.T) {
		source := &countingSource{err: errors.New("index unavailable")}
		rs := newTestService(t, source)

		_, err := rs.GetGeneSummary(context.Background(), brca2.GeneId)
		assert.Error(t, err)
		rs.Wait()
		_, err = rs.GetGeneSummary(context.Background(), brca2.GeneId)
		assert.Error(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
	})

	t.Run("should collapse concurrent misses", func(t *testing.T) {
		source := &countingSource{
			delay: 50 * time.Millisecond,
			genes: map[string]*models.GeneSummary{brca2.GeneId: brca2},
		}
		rs := newTestService(t, source)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				gene, err := rs.GetGeneSummary(context.Background(), brca2.GeneId)
				assert.NoError(t, err)
				assert.Equal(t, "BRCA2", gene.Symbol)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	})

	t.Run("should refetch after a purge", func(t *testing.T) {
		source := &countingSource{genes: map[string]*models.GeneSummary{brca2.GeneId: brca2}}
		rs := newTestService(t, source)

		_, err := rs.GetGeneSummary(context.Background(), brca2.GeneId)
		require.NoError(t, err)
		rs.Wait()

		rs.Purge()
		_, err = rs.GetGeneSummary(context.Background(), brca2.GeneId)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&source.calls))
	})
}
