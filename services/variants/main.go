package variantsService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"varsearch/api/metrics"
	"varsearch/api/models"
	"varsearch/api/models/constants"
	"varsearch/api/models/constants/chromosome"
	familyStatus "varsearch/api/models/constants/family-status"
	esRepo "varsearch/api/repositories/elasticsearch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDatasetNotFound    = errors.New("no variant dataset loaded")
	ErrResultSizeExceeded = errors.New("result size exceeded, refine your filter")
)

// query shapes, used as metric and log labels
const (
	shapeFamily      = "family"
	shapeFamilyGene  = "family_gene"
	shapeSingle      = "single"
	shapeProjectGene = "project_gene"
)

// Dependencies are the collaborators a VariantService reads from.
type Dependencies struct {
	Searcher     Searcher
	Datasets     DatasetLookup
	Individuals  IndividualLookup
	Liftover     Liftover
	Genes        GeneSummaryLookup
	DiseaseGenes DiseaseGeneLookup
	NotesTags    NotesTagsLookup
}

type (
	VariantService struct {
		Config *models.Config

		searcher    Searcher
		datasets    DatasetLookup
		individuals IndividualLookup
		hydrator    *Hydrator
		enricher    *Enricher
		logger      *zap.Logger
	}
)

func NewVariantService(cfg *models.Config, deps Dependencies, logger *zap.Logger) *VariantService {
	return &VariantService{
		Config:      cfg,
		searcher:    deps.Searcher,
		datasets:    deps.Datasets,
		individuals: deps.Individuals,
		hydrator:    NewHydrator(deps.Liftover, logger),
		enricher: NewEnricher(deps.Genes, deps.DiseaseGenes, deps.NotesTags,
			cfg.Search.DiseaseGeneErrorTolerance, logger),
		logger: logger,
	}
}

// GetVariants streams the family's variants matching both filters.
func (vs *VariantService) GetVariants(ctx context.Context, projectId string, familyId string,
	gf models.GenotypeFilter, vf *models.VariantFilter) (*VariantIterator, error) {
	return vs.familySearch(ctx, shapeFamily, projectId, familyId, gf, vf)
}

// GetVariantsInGene is GetVariants restricted to one gene. vf is not modified.
func (vs *VariantService) GetVariantsInGene(ctx context.Context, projectId string, familyId string, geneId string,
	gf models.GenotypeFilter, vf *models.VariantFilter) (*VariantIterator, error) {
	return vs.familySearch(ctx, shapeFamilyGene, projectId, familyId, gf, vf.WithGene(geneId))
}

func (vs *VariantService) familySearch(ctx context.Context, shape string, projectId string, familyId string,
	gf models.GenotypeFilter, vf *models.VariantFilter) (*VariantIterator, error) {
	dataset, err := vs.datasets.GetFamilyDataset(ctx, projectId, familyId)
	if err != nil {
		return nil, fmt.Errorf("dataset for family %s/%s: %w", projectId, familyId, err)
	}
	if dataset == nil {
		return nil, fmt.Errorf("family %s/%s: %w", projectId, familyId, ErrDatasetNotFound)
	}

	individualIds, err := vs.individuals.GetFamilyIndividualIds(ctx, projectId, familyId)
	if err != nil {
		return nil, fmt.Errorf("individuals of family %s/%s: %w", projectId, familyId, err)
	}

	query, err := esRepo.CompileVariantQuery(vf, gf)
	if err != nil {
		return nil, err
	}

	return vs.search(ctx, shape, esRepo.ScanRequest{
		Dataset: *dataset,
		Query:   query,
		Limit:   vs.Config.Search.ResultsLimit,
	}, individualIds, EnrichmentScope{ProjectId: projectId, FamilyId: familyId})
}

// GetSingleVariant looks one variant up by position and alleles. It returns
// nil, nil when the family has no dataset or no such variant is indexed.
func (vs *VariantService) GetSingleVariant(ctx context.Context, projectId string, familyId string,
	xpos int64, ref string, alt string) (*models.Variant, error) {
	dataset, err := vs.datasets.GetFamilyDataset(ctx, projectId, familyId)
	if err != nil {
		return nil, fmt.Errorf("dataset for family %s/%s: %w", projectId, familyId, err)
	}
	if dataset == nil {
		return nil, nil
	}

	chrom, pos, err := chromosome.GetChrPos(xpos)
	if err != nil {
		return nil, err
	}

	individualIds, err := vs.individuals.GetFamilyIndividualIds(ctx, projectId, familyId)
	if err != nil {
		return nil, fmt.Errorf("individuals of family %s/%s: %w", projectId, familyId, err)
	}

	query, err := esRepo.CompileVariantQuery(nil, nil)
	if err != nil {
		return nil, err
	}

	it, err := vs.search(ctx, shapeSingle, esRepo.ScanRequest{
		Dataset:   *dataset,
		Query:     query,
		VariantId: esRepo.VariantIdFor(chrom, pos, ref, alt),
	}, individualIds, EnrichmentScope{ProjectId: projectId, FamilyId: familyId})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	if it.Next(ctx) {
		return it.Variant(), nil
	}
	return nil, it.Err()
}

// GetProjectVariantsInGene collects every variant in the gene carried by
// any individual of the project. It fails with ErrResultSizeExceeded
// rather than return a truncated list.
func (vs *VariantService) GetProjectVariantsInGene(ctx context.Context, projectId string, geneId string,
	vf *models.VariantFilter) ([]*models.Variant, error) {
	dataset, err := vs.datasets.GetProjectDataset(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("dataset for project %s: %w", projectId, err)
	}
	if dataset == nil {
		return nil, fmt.Errorf("project %s: %w", projectId, ErrDatasetNotFound)
	}

	individualIds, err := vs.individuals.GetProjectIndividualIds(ctx, projectId)
	if err != nil {
		return nil, fmt.Errorf("individuals of project %s: %w", projectId, err)
	}

	query, err := esRepo.CompileVariantQuery(vf.WithGene(geneId), nil)
	if err != nil {
		return nil, err
	}

	it, err := vs.search(ctx, shapeProjectGene, esRepo.ScanRequest{
		Dataset: *dataset,
		Query:   query,
		Limit:   vs.Config.Search.ResultsLimit,
	}, individualIds, EnrichmentScope{ProjectId: projectId})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	variants := []*models.Variant{}
	for it.Next(ctx) {
		variants = append(variants, it.Variant())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if it.LimitReached() {
		return nil, ErrResultSizeExceeded
	}
	return variants, nil
}

// GetFamilyStatus reports whether the family has variants indexed.
func (vs *VariantService) GetFamilyStatus(ctx context.Context, projectId string, familyId string) (constants.FamilyStatus, error) {
	dataset, err := vs.datasets.GetFamilyDataset(ctx, projectId, familyId)
	if err != nil {
		return "", err
	}
	if dataset == nil {
		return familyStatus.NotLoaded, nil
	}
	return familyStatus.Loaded, nil
}

// ProjectCollectionIsLoaded reports whether the project-wide dataset used
// by gene searches exists.
func (vs *VariantService) ProjectCollectionIsLoaded(ctx context.Context, projectId string) (bool, error) {
	dataset, err := vs.datasets.GetProjectDataset(ctx, projectId)
	if err != nil {
		return false, err
	}
	return dataset != nil, nil
}

func (vs *VariantService) search(ctx context.Context, shape string, req esRepo.ScanRequest,
	individualIds []string, scope EnrichmentScope) (*VariantIterator, error) {
	scope.SearchId = uuid.New().String()
	logger := vs.logger.With(
		zap.String("search_id", scope.SearchId),
		zap.String("shape", shape),
		zap.String("project", scope.ProjectId),
		zap.String("family", scope.FamilyId),
		zap.String("index", req.Dataset.IndexPattern()))

	start := time.Now()
	cursor, err := vs.searcher.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Dataset.IndexPattern(), err)
	}
	logger.Debug("search started", zap.Int("individuals", len(individualIds)))

	return &VariantIterator{
		hydrator: vs.hydrator,
		enricher: vs.enricher,
		cursor:   cursor,
		hydration: HydrationContext{
			Dataset:       req.Dataset,
			IndividualIds: individualIds,
		},
		batch:  vs.enricher.NewBatch(scope),
		shape:  shape,
		start:  start,
		logger: logger,
	}, nil
}

// VariantIterator is a lazy, forward-only sequence of hydrated, enriched
// variants. It is not safe for concurrent use.
type VariantIterator struct {
	hydrator  *Hydrator
	enricher  *Enricher
	cursor    esRepo.Cursor
	hydration HydrationContext
	batch     *Batch
	shape     string
	start     time.Time
	logger    *zap.Logger

	current *models.Variant
	report  Report
	yielded int
	err     error
	done    bool
}

// Next advances to the next variant, hydrating and enriching it. It
// returns false at the end of the sequence or on a fatal error.
func (it *VariantIterator) Next(ctx context.Context) bool {
	if it.done {
		return false
	}

	for it.cursor.Next(ctx) {
		variant, ok, err := it.hydrator.Hydrate(ctx, it.cursor.Hit(), it.hydration)
		if err != nil {
			metrics.HydrationErrorsTotal.Inc()
			it.err = err
			it.finish()
			return false
		}
		if !ok {
			continue
		}

		it.report = it.enricher.Enrich(ctx, it.batch, variant)
		it.current = variant
		it.yielded++
		return true
	}

	if err := it.cursor.Err(); err != nil {
		it.err = err
	}
	it.finish()
	return false
}

func (it *VariantIterator) Variant() *models.Variant { return it.current }

// Report describes the enrichment of the current variant.
func (it *VariantIterator) Report() Report { return it.report }

func (it *VariantIterator) Err() error { return it.err }

// LimitReached reports that the sequence was cut at the result ceiling.
func (it *VariantIterator) LimitReached() bool { return it.cursor.LimitReached() }

// Close releases the scan. It is safe to call after the sequence ended.
func (it *VariantIterator) Close() error {
	if it.done {
		return nil
	}
	return it.finish()
}

func (it *VariantIterator) finish() error {
	it.done = true
	it.current = nil

	err := it.cursor.Close(context.Background())
	if err != nil {
		it.logger.Warn("failed to release search cursor", zap.Error(err))
	}

	if it.cursor.LimitReached() {
		metrics.ResultLimitReachedTotal.WithLabelValues(it.shape).Inc()
		it.logger.Warn("search truncated at the result limit", zap.Int("yielded", it.yielded))
	}
	metrics.SearchDuration.WithLabelValues(it.shape).Observe(time.Since(it.start).Seconds())
	it.logger.Info("search finished",
		zap.Int("yielded", it.yielded),
		zap.Duration("took", time.Since(it.start)),
		zap.NamedError("cause", it.err))
	return err
}
