package variantsService

import (
	"context"
	"errors"
	"fmt"

	"varsearch/api/metrics"
	"varsearch/api/models"

	"github.com/ahmetb/go-linq"
	"go.uber.org/zap"
)

// ErrToleranceExhausted is reported by the disease gene step once a batch
// has seen more lookup failures than the configured tolerance.
var ErrToleranceExhausted = errors.New("disease gene lookup failure tolerance exhausted")

const defaultDiseaseGeneTolerance = 10

type Step string

const (
	StepGeneNames       Step = "gene_names"
	StepGenes           Step = "genes"
	StepDiseaseGenes    Step = "disease_genes"
	StepFamilyNotesTags Step = "family_notes_tags"
)

type StepResult struct {
	Step Step
	Err  error
}

func (r StepResult) Ok() bool { return r.Err == nil }

// Report lists the enrichment steps run for one variant, in order.
type Report struct {
	Steps []StepResult
}

// Failed returns the steps that degraded.
func (r Report) Failed() []Step {
	var failed []Step
	for _, s := range r.Steps {
		if !s.Ok() {
			failed = append(failed, s.Step)
		}
	}
	return failed
}

// Result returns the outcome of one step, and false if it did not run.
func (r Report) Result(step Step) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}

// EnrichmentScope says whose annotations apply; an empty FamilyId skips
// family notes and tags.
type EnrichmentScope struct {
	ProjectId string
	FamilyId  string
	SearchId  string
}

// Batch carries the state enrichment shares across the variants of one
// result sequence.
type Batch struct {
	scope               EnrichmentScope
	diseaseGeneFailures int
	diseaseGenesOff     bool
}

type Enricher struct {
	genes        GeneSummaryLookup
	diseaseGenes DiseaseGeneLookup
	notesTags    NotesTagsLookup
	tolerance    int
	logger       *zap.Logger
}

func NewEnricher(genes GeneSummaryLookup, diseaseGenes DiseaseGeneLookup, notesTags NotesTagsLookup, tolerance int, logger *zap.Logger) *Enricher {
	if tolerance <= 0 {
		tolerance = defaultDiseaseGeneTolerance
	}
	return &Enricher{
		genes:        genes,
		diseaseGenes: diseaseGenes,
		notesTags:    notesTags,
		tolerance:    tolerance,
		logger:       logger,
	}
}

func (e *Enricher) NewBatch(scope EnrichmentScope) *Batch {
	return &Batch{scope: scope}
}

// Enrich attaches secondary annotations to the variant's extras. A failed
// step leaves its extras entry unset and never fails the variant.
func (e *Enricher) Enrich(ctx context.Context, batch *Batch, v *models.Variant) Report {
	report := Report{}
	record := func(step Step, err error) {
		if err != nil {
			metrics.EnrichmentFailuresTotal.WithLabelValues(string(step)).Inc()
			e.logger.Warn("enrichment step failed",
				zap.String("step", string(step)),
				zap.String("variant", v.VariantId),
				zap.String("project", batch.scope.ProjectId),
				zap.String("family", batch.scope.FamilyId),
				zap.String("search_id", batch.scope.SearchId),
				zap.Error(err))
		}
		report.Steps = append(report.Steps, StepResult{Step: step, Err: err})
	}

	record(StepGeneNames, e.addGeneNames(v))
	record(StepGenes, e.addGenes(ctx, v))
	record(StepDiseaseGenes, e.addDiseaseGenes(ctx, batch, v))
	if batch.scope.FamilyId != "" {
		record(StepFamilyNotesTags, e.addFamilyNotesTags(ctx, batch, v))
	}
	return report
}

func (e *Enricher) addGeneNames(v *models.Variant) error {
	names := map[string]string{}
	for _, tc := range v.Annotation.VepAnnotation {
		if tc.GeneSymbol != "" {
			names[tc.GeneId] = tc.GeneSymbol
		}
	}
	v.SetExtra(models.ExtraGeneNames, names)
	return nil
}

// addGenes summarizes the coding genes, or every overlapped gene when the
// variant touches no coding gene. Unknown genes are left out.
func (e *Enricher) addGenes(ctx context.Context, v *models.Variant) error {
	geneIds := distinctIds(v.CodingGeneIds)
	if len(geneIds) == 0 {
		geneIds = distinctIds(v.GeneIds)
	}

	genes := map[string]models.GeneSummary{}
	for _, geneId := range geneIds {
		summary, err := e.genes.GetGeneSummary(ctx, geneId)
		if err != nil {
			return fmt.Errorf("gene %s: %w", geneId, err)
		}
		if summary != nil {
			genes[geneId] = *summary
		}
	}
	v.SetExtra(models.ExtraGenes, genes)
	return nil
}

func (e *Enricher) addDiseaseGenes(ctx context.Context, batch *Batch, v *models.Variant) error {
	if batch.diseaseGenesOff {
		return ErrToleranceExhausted
	}

	lists := []string{}
	for _, geneId := range distinctIds(v.CodingGeneIds) {
		names, err := e.diseaseGenes.GetDiseaseGeneLists(ctx, batch.scope.ProjectId, geneId)
		if err != nil {
			batch.diseaseGeneFailures++
			if batch.diseaseGeneFailures > e.tolerance {
				batch.diseaseGenesOff = true
				e.logger.Warn("disease gene lookups disabled for the rest of the batch",
					zap.Int("failures", batch.diseaseGeneFailures),
					zap.String("search_id", batch.scope.SearchId))
			}
			return fmt.Errorf("gene %s: %w", geneId, err)
		}
		lists = append(lists, names...)
	}
	v.SetExtra(models.ExtraDiseaseGenes, lists)
	return nil
}

func (e *Enricher) addFamilyNotesTags(ctx context.Context, batch *Batch, v *models.Variant) error {
	scope := batch.scope
	notes, err := e.notesTags.GetVariantNotes(ctx, scope.ProjectId, scope.FamilyId, v.Xpos, v.Ref, v.Alt)
	if err != nil {
		return fmt.Errorf("notes for family %s: %w", scope.FamilyId, err)
	}
	tags, err := e.notesTags.GetVariantTags(ctx, scope.ProjectId, scope.FamilyId, v.Xpos, v.Ref, v.Alt)
	if err != nil {
		return fmt.Errorf("tags for family %s: %w", scope.FamilyId, err)
	}
	if notes == nil {
		notes = []models.VariantNote{}
	}
	if tags == nil {
		tags = []models.VariantTag{}
	}
	v.SetExtra(models.ExtraFamilyNotes, notes)
	v.SetExtra(models.ExtraFamilyTags, tags)
	return nil
}

// distinctIds drops blanks and repeats, keeping first-seen order.
func distinctIds(ids []string) []string {
	var out []string
	linq.From(ids).
		WhereT(func(id string) bool { return id != "" }).
		Distinct().
		ToSlice(&out)
	return out
}
