package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"varsearch/api/metrics"
	"varsearch/api/models"
	"varsearch/api/models/indexes"

	"github.com/Jeffail/gabs"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"go.uber.org/zap"
)

const (
	defaultScrollBatchSize = 500
	defaultScrollKeepAlive = time.Minute
)

// ScanRequest describes one scan of a dataset's variant indices.
type ScanRequest struct {
	Dataset models.Dataset
	Query   Query
	// VariantId narrows the scan to one chrom-pos-ref-alt identity.
	VariantId string
	// Limit caps the number of hits produced; 0 means unlimited.
	Limit int
}

// Cursor is a forward-only pass over the hits of a scan.
type Cursor interface {
	Next(ctx context.Context) bool
	Hit() map[string]interface{}
	Err() error
	// LimitReached reports that the scan stopped at the request's Limit
	// while more hits were available.
	LimitReached() bool
	Close(ctx context.Context) error
}

type VariantRepository struct {
	es        *elasticsearch.Client
	cfg       *models.Config
	logger    *zap.Logger
	batchSize int
	keepAlive time.Duration
}

func NewVariantRepository(es *elasticsearch.Client, cfg *models.Config, logger *zap.Logger) *VariantRepository {
	repo := &VariantRepository{
		es:        es,
		cfg:       cfg,
		logger:    logger,
		batchSize: cfg.Search.ScrollBatchSize,
		keepAlive: defaultScrollKeepAlive,
	}
	if repo.batchSize <= 0 {
		repo.batchSize = defaultScrollBatchSize
	}
	if ka, err := time.ParseDuration(cfg.Search.ScrollKeepAlive); err == nil && ka > 0 {
		repo.keepAlive = ka
	}
	return repo
}

func VariantIdFor(chrom string, pos int64, ref string, alt string) string {
	return fmt.Sprintf("%s-%d-%s-%s", chrom, pos, ref, alt)
}

// Scan issues the query against the dataset's indices and returns a cursor
// over the matching documents in query order.
func (r *VariantRepository) Scan(ctx context.Context, req ScanRequest) (Cursor, error) {
	query := req.Query
	if req.VariantId != "" {
		query = query.WithFilter(Term(indexes.FieldVariantId, req.VariantId))
	}

	// encode the query
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query.Source()); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	if r.cfg.Debug {
		// view the outbound elasticsearch query
		r.logger.Debug("outbound query",
			zap.String("index", req.Dataset.IndexPattern()),
			zap.String("body", buf.String()))
	}

	start := time.Now()
	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(req.Dataset.IndexPattern()),
		r.es.Search.WithBody(&buf),
		r.es.Search.WithScroll(r.keepAlive),
		r.es.Search.WithSize(r.batchSize),
		r.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Dataset.IndexPattern(), err)
	}

	page, err := readPage(res)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Dataset.IndexPattern(), err)
	}
	metrics.ScanBatchesTotal.Inc()

	r.logger.Info("scan started",
		zap.String("index", req.Dataset.IndexPattern()),
		zap.Int64("total", page.total),
		zap.Duration("took", time.Since(start)))

	return &hitCursor{
		repo:     r,
		scrollId: page.scrollId,
		batch:    page.hits,
		limit:    req.Limit,
		done:     len(page.hits) == 0,
	}, nil
}

type scrollPage struct {
	scrollId string
	total    int64
	hits     []map[string]interface{}
}

func readPage(res *esapi.Response) (scrollPage, error) {
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return scrollPage{}, fmt.Errorf("got '%s': %s", res.Status(), strings.TrimSpace(string(body)))
	}

	parsed, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return scrollPage{}, fmt.Errorf("decode response: %w", err)
	}

	page := scrollPage{}
	if id, ok := parsed.Path("_scroll_id").Data().(string); ok {
		page.scrollId = id
	}
	if total, ok := parsed.Path("hits.total.value").Data().(float64); ok {
		page.total = int64(total)
	}

	hits, err := parsed.Path("hits.hits").Children()
	if err != nil {
		// no hits array at all
		return page, nil
	}
	for _, hit := range hits {
		source, ok := hit.Path("_source").Data().(map[string]interface{})
		if !ok {
			continue
		}
		page.hits = append(page.hits, source)
	}
	return page, nil
}

type hitCursor struct {
	repo     *VariantRepository
	scrollId string
	batch    []map[string]interface{}
	pos      int

	current      map[string]interface{}
	emitted      int
	limit        int
	limitReached bool
	done         bool
	err          error
}

func (c *hitCursor) Next(ctx context.Context) bool {
	if c.done || c.err != nil {
		return false
	}

	if c.pos >= len(c.batch) {
		if !c.fetch(ctx) {
			return false
		}
	}

	if c.limit > 0 && c.emitted >= c.limit {
		// there is at least one more hit we won't hand out
		c.limitReached = true
		c.abandon(ctx)
		return false
	}

	c.current = c.batch[c.pos]
	c.pos++
	c.emitted++
	metrics.HitsScannedTotal.Inc()
	return true
}

func (c *hitCursor) fetch(ctx context.Context) bool {
	if c.scrollId == "" {
		c.done = true
		return false
	}

	r := c.repo
	res, err := r.es.Scroll(
		r.es.Scroll.WithContext(ctx),
		r.es.Scroll.WithScrollID(c.scrollId),
		r.es.Scroll.WithScroll(r.keepAlive),
	)
	if err != nil {
		c.err = fmt.Errorf("scroll: %w", err)
		return false
	}
	page, err := readPage(res)
	if err != nil {
		c.err = fmt.Errorf("scroll: %w", err)
		return false
	}
	metrics.ScanBatchesTotal.Inc()

	if page.scrollId != "" {
		c.scrollId = page.scrollId
	}
	c.batch = page.hits
	c.pos = 0
	if len(c.batch) == 0 {
		c.abandon(ctx)
		return false
	}
	return true
}

// abandon ends the scan and releases the server-side scroll context.
func (c *hitCursor) abandon(ctx context.Context) {
	c.done = true
	c.batch = nil
	c.current = nil
	if err := c.clear(ctx); err != nil {
		c.repo.logger.Warn("failed to clear scroll", zap.Error(err))
	}
}

func (c *hitCursor) clear(ctx context.Context) error {
	if c.scrollId == "" {
		return nil
	}
	scrollId := c.scrollId
	c.scrollId = ""

	r := c.repo
	res, err := r.es.ClearScroll(
		r.es.ClearScroll.WithContext(ctx),
		r.es.ClearScroll.WithScrollID(scrollId),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("clear scroll: got '%s'", res.Status())
	}
	return nil
}

func (c *hitCursor) Hit() map[string]interface{} { return c.current }

func (c *hitCursor) Err() error { return c.err }

func (c *hitCursor) LimitReached() bool { return c.limitReached }

func (c *hitCursor) Close(ctx context.Context) error {
	c.done = true
	c.current = nil
	return c.clear(ctx)
}
