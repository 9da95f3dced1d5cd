package variantsService

import (
	"context"
	"errors"
	"testing"

	"varsearch/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func annotatedVariant() *models.Variant {
	return &models.Variant{
		Xpos:          1000000100,
		Ref:           "A",
		Alt:           "G",
		VariantId:     "1-100-A-G",
		GeneIds:       []string{"ENSG1", "ENSG2", "ENSG3"},
		CodingGeneIds: []string{"ENSG1", "", "ENSG1", "ENSG2"},
		Annotation: models.Annotation{
			VepAnnotation: []models.TranscriptConsequence{
				{GeneId: "ENSG1", GeneSymbol: "GENE1"},
				{GeneId: "ENSG2", GeneSymbol: "GENE2"},
				{GeneId: "ENSG3"},
			},
		},
	}
}

type enricherFixture struct {
	genes        *fakeGenes
	diseaseGenes *fakeDiseaseGenes
	notesTags    *fakeNotesTags
}

func newEnricherFixture() *enricherFixture {
	return &enricherFixture{
		genes: &fakeGenes{genes: map[string]*models.GeneSummary{
			"ENSG1": {GeneId: "ENSG1", Symbol: "GENE1"},
			"ENSG3": {GeneId: "ENSG3", Symbol: "GENE3"},
		}},
		diseaseGenes: &fakeDiseaseGenes{lists: map[string][]string{
			"ENSG1": {"Cardiomyopathy"},
			"ENSG2": {"Epilepsy", "Intellectual disability"},
		}},
		notesTags: &fakeNotesTags{
			notes: []models.VariantNote{{Note: "segregates", Author: "analyst"}},
			tags:  []models.VariantTag{{Name: "Likely pathogenic", Color: "#d43f3a"}},
		},
	}
}

func (f *enricherFixture) enricher(tolerance int) *Enricher {
	return NewEnricher(f.genes, f.diseaseGenes, f.notesTags, tolerance, zap.NewNop())
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()
	familyScope := EnrichmentScope{ProjectId: "proj1", FamilyId: "fam1"}

	t.Run("should run every step for a family", func(t *testing.T) {
		f := newEnricherFixture()
		e := f.enricher(10)
		v := annotatedVariant()

		report := e.Enrich(ctx, e.NewBatch(familyScope), v)

		require.Len(t, report.Steps, 4)
		assert.Empty(t, report.Failed())

		assert.Equal(t, map[string]string{"ENSG1": "GENE1", "ENSG2": "GENE2"}, v.Extras[models.ExtraGeneNames])

		// coding genes only, each looked up once, unknown ones left out
		assert.Equal(t, []string{"ENSG1", "ENSG2"}, f.genes.calls)
		assert.Equal(t, map[string]models.GeneSummary{"ENSG1": {GeneId: "ENSG1", Symbol: "GENE1"}}, v.Extras[models.ExtraGenes])

		assert.Equal(t, []string{"Cardiomyopathy", "Epilepsy", "Intellectual disability"}, v.Extras[models.ExtraDiseaseGenes])

		assert.Equal(t, []string{"proj1/fam1/1000000100/A/G"}, f.notesTags.keys)
		assert.Equal(t, f.notesTags.notes, v.Extras[models.ExtraFamilyNotes])
		assert.Equal(t, f.notesTags.tags, v.Extras[models.ExtraFamilyTags])
	})

	t.Run("should fall back to every overlapped gene", func(t *testing.T) {
		f := newEnricherFixture()
		e := f.enricher(10)
		v := annotatedVariant()
		v.CodingGeneIds = []string{}

		e.Enrich(ctx, e.NewBatch(familyScope), v)

		assert.Equal(t, []string{"ENSG1", "ENSG2", "ENSG3"}, f.genes.calls)
		assert.Len(t, v.Extras[models.ExtraGenes], 2)
		assert.Equal(t, []string{}, v.Extras[models.ExtraDiseaseGenes])
	})

	t.Run("should skip notes and tags without a family", func(t *testing.T) {
		f := newEnricherFixture()
		e := f.enricher(10)
		v := annotatedVariant()

		report := e.Enrich(ctx, e.NewBatch(EnrichmentScope{ProjectId: "proj1"}), v)

		require.Len(t, report.Steps, 3)
		_, ran := report.Result(StepFamilyNotesTags)
		assert.False(t, ran)
		_, present := v.Extra(models.ExtraFamilyNotes)
		assert.False(t, present)
		assert.Empty(t, f.notesTags.keys)
	})

	t.Run("should isolate a failed gene summary lookup", func(t *testing.T) {
		f := newEnricherFixture()
		f.genes.failing = map[string]bool{"ENSG2": true}
		e := f.enricher(10)
		v := annotatedVariant()

		report := e.Enrich(ctx, e.NewBatch(familyScope), v)

		assert.Equal(t, []Step{StepGenes}, report.Failed())
		_, present := v.Extra(models.ExtraGenes)
		assert.False(t, present)
		_, present = v.Extra(models.ExtraDiseaseGenes)
		assert.True(t, present)
		_, present = v.Extra(models.ExtraFamilyNotes)
		assert.True(t, present)
	})

	t.Run("should isolate a failed notes lookup", func(t *testing.T) {
		f := newEnricherFixture()
		f.notesTags.failing = true
		e := f.enricher(10)
		v := annotatedVariant()

		report := e.Enrich(ctx, e.NewBatch(familyScope), v)

		result, ran := report.Result(StepFamilyNotesTags)
		require.True(t, ran)
		assert.Error(t, result.Err)
		assert.Contains(t, result.Err.Error(), "fam1")
		_, present := v.Extra(models.ExtraFamilyNotes)
		assert.False(t, present)
		_, present = v.Extra(models.ExtraFamilyTags)
		assert.False(t, present)
		_, present = v.Extra(models.ExtraGenes)
		assert.True(t, present)
	})

	t.Run("should stop disease gene lookups past the tolerance", func(t *testing.T) {
		f := newEnricherFixture()
		f.diseaseGenes.failing = true
		e := f.enricher(2)
		batch := e.NewBatch(familyScope)

		// each variant fails on its first coding gene
		for i := 0; i < 3; i++ {
			report := e.Enrich(ctx, batch, annotatedVariant())
			result, _ := report.Result(StepDiseaseGenes)
			require.Error(t, result.Err)
			assert.False(t, errors.Is(result.Err, ErrToleranceExhausted))
		}
		assert.Equal(t, 3, f.diseaseGenes.calls)

		v := annotatedVariant()
		report := e.Enrich(ctx, batch, v)
		result, _ := report.Result(StepDiseaseGenes)
		assert.True(t, errors.Is(result.Err, ErrToleranceExhausted))
		assert.Equal(t, 3, f.diseaseGenes.calls)
		_, present := v.Extra(models.ExtraDiseaseGenes)
		assert.False(t, present)

		// the other steps are unaffected
		_, present = v.Extra(models.ExtraGenes)
		assert.True(t, present)

		// a new batch starts counting again
		report = e.Enrich(ctx, e.NewBatch(familyScope), annotatedVariant())
		result, _ = report.Result(StepDiseaseGenes)
		assert.False(t, errors.Is(result.Err, ErrToleranceExhausted))
		assert.Equal(t, 4, f.diseaseGenes.calls)
	})

	t.Run("should default the tolerance to ten", func(t *testing.T) {
		e := newEnricherFixture().enricher(0)
		assert.Equal(t, 10, e.tolerance)
	})
}
