package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"varsearch/api/models/indexes"
	esRepo "varsearch/api/repositories/elasticsearch"
)

// VariantStore keeps variant documents in process, keyed by physical index
// name, and scans them with the same contract as the Elasticsearch
// repository.
type VariantStore struct {
	mu      sync.RWMutex
	indices map[string][]map[string]interface{}
}

func NewVariantStore() *VariantStore {
	return &VariantStore{indices: map[string][]map[string]interface{}{}}
}

func (s *VariantStore) Index(indexName string, docs ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices[indexName] = append(s.indices[indexName], docs...)
}

func (s *VariantStore) Scan(ctx context.Context, req esRepo.ScanRequest) (esRepo.Cursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := req.Query
	if req.VariantId != "" {
		query = query.WithFilter(esRepo.Term(indexes.FieldVariantId, req.VariantId))
	}

	s.mu.RLock()
	var matched []map[string]interface{}
	for name, docs := range s.indices {
		// <dataset>* wildcard
		if !strings.HasPrefix(name, req.Dataset.IndexName) {
			continue
		}
		for _, doc := range docs {
			if query.Matches(doc) {
				matched = append(matched, doc)
			}
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return xposOf(matched[i]) < xposOf(matched[j])
	})

	return &sliceCursor{hits: matched, limit: req.Limit}, nil
}

func xposOf(doc map[string]interface{}) float64 {
	switch v := doc[indexes.FieldXpos].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

type sliceCursor struct {
	hits         []map[string]interface{}
	pos          int
	current      map[string]interface{}
	limit        int
	limitReached bool
	closed       bool
	err          error
}

func (c *sliceCursor) Next(ctx context.Context) bool {
	if c.closed || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}
	if c.pos >= len(c.hits) {
		c.current = nil
		return false
	}
	if c.limit > 0 && c.pos >= c.limit {
		c.limitReached = true
		c.closed = true
		c.current = nil
		return false
	}
	c.current = c.hits[c.pos]
	c.pos++
	return true
}

func (c *sliceCursor) Hit() map[string]interface{} { return c.current }

func (c *sliceCursor) Err() error { return c.err }

func (c *sliceCursor) LimitReached() bool { return c.limitReached }

func (c *sliceCursor) Close(ctx context.Context) error {
	c.closed = true
	c.current = nil
	return nil
}
