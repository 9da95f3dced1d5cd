package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"varsearch/api/models"

	"github.com/Jeffail/gabs"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const defaultGenesIndex = "genes"

type GeneRepository struct {
	es     *elasticsearch.Client
	cfg    *models.Config
	logger *zap.Logger
	index  string
}

func NewGeneRepository(es *elasticsearch.Client, cfg *models.Config, logger *zap.Logger) *GeneRepository {
	index := cfg.Elasticsearch.GenesIndex
	if index == "" {
		index = defaultGenesIndex
	}
	return &GeneRepository{es: es, cfg: cfg, logger: logger, index: index}
}

// GetGeneSummary returns the gene's summary document, or nil when the
// genes index has no such gene.
func (r *GeneRepository) GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					Term("gene_id", geneId).Source(),
				},
			},
		},
		"size": 1,
	}

	genes, err := r.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("gene %s: %w", geneId, err)
	}
	if len(genes) == 0 {
		return nil, nil
	}
	return &genes[0], nil
}

// wildcard patterns treat only these as special
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// GetGenesBySymbolWildcard matches gene symbols containing term, ordered by
// chromosome then start. term is matched literally.
func (r *GeneRepository) GetGenesBySymbolWildcard(ctx context.Context, term string, chrom string, size int) ([]models.GeneSummary, error) {
	must := []map[string]interface{}{
		{
			"wildcard": map[string]interface{}{
				"symbol": map[string]interface{}{
					"value":            "*" + wildcardEscaper.Replace(term) + "*",
					"case_insensitive": true,
				},
			},
		},
	}
	if chrom != "" {
		must = append(must, Term("chrom", chrom).Source())
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{{
					"bool": map[string]interface{}{"must": must},
				}},
			},
		},
		"size": size,
		"sort": []map[string]interface{}{
			{"chrom": map[string]interface{}{"order": "asc"}},
			{"start": map[string]interface{}{"order": "asc"}},
		},
	}

	return r.search(ctx, query)
}

func (r *GeneRepository) search(ctx context.Context, query map[string]interface{}) ([]models.GeneSummary, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	if r.cfg.Debug {
		r.logger.Debug("outbound query", zap.String("index", r.index), zap.String("body", buf.String()))
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("got '%s': %s", res.Status(), strings.TrimSpace(string(body)))
	}

	parsed, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	hits, err := parsed.Path("hits.hits").Children()
	if err != nil {
		return nil, nil
	}

	genes := make([]models.GeneSummary, 0, len(hits))
	for _, hit := range hits {
		source, ok := hit.Path("_source").Data().(map[string]interface{})
		if !ok {
			continue
		}
		var gene models.GeneSummary
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &gene,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(source); err != nil {
			return nil, fmt.Errorf("decode gene: %w", err)
		}
		genes = append(genes, gene)
	}
	return genes, nil
}
