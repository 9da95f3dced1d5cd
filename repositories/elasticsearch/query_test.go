package elasticsearch

import (
	"encoding/json"
	"errors"
	"testing"

	"varsearch/api/models"
	"varsearch/api/models/constants"
	genotypeState "varsearch/api/models/constants/genotype-state"
	"varsearch/api/models/constants/population"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileVariantQuery(t *testing.T) {
	t.Run("should match hits inside a location range", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Locations: []models.LocationRange{{XStart: 1000, XEnd: 2000}},
		}, nil)
		require.NoError(t, err)

		assert.True(t, q.Matches(map[string]interface{}{"xpos": 1500.0}))
		assert.True(t, q.Matches(map[string]interface{}{"xpos": 2000.0}))
		assert.False(t, q.Matches(map[string]interface{}{"xpos": 500.0}))
	})

	t.Run("should or multiple location ranges", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Locations: []models.LocationRange{{XStart: 1000, XEnd: 2000}, {XStart: 5000, XEnd: 6000}},
		}, nil)
		require.NoError(t, err)

		assert.True(t, q.Matches(map[string]interface{}{"xpos": 5500.0}))
		assert.False(t, q.Matches(map[string]interface{}{"xpos": 3000.0}))
	})

	t.Run("should match has_alt only for carriers", func(t *testing.T) {
		q, err := CompileVariantQuery(nil, models.GenotypeFilter{"NA12878": genotypeState.HasAlt})
		require.NoError(t, err)

		for numAlt, expected := range map[float64]bool{0: false, 1: true, 2: true, -1: false} {
			doc := map[string]interface{}{"NA12878_num_alt": numAlt}
			assert.Equal(t, expected, q.Matches(doc), "num_alt=%v", numAlt)
		}
	})

	t.Run("should compile every genotype token by shape", func(t *testing.T) {
		cases := []struct {
			state    constants.GenotypeState
			kind     PredicateKind
			accepted []float64
			rejected []float64
		}{
			{genotypeState.RefRef, KindTerm, []float64{0}, []float64{1, 2, -1}},
			{genotypeState.RefAlt, KindTerm, []float64{1}, []float64{0, 2, -1}},
			{genotypeState.AltAlt, KindTerm, []float64{2}, []float64{0, 1, -1}},
			{genotypeState.HasRef, KindOr, []float64{0, 1}, []float64{2, -1}},
			{genotypeState.Missing, KindTerm, []float64{-1}, []float64{0, 1, 2}},
			{genotypeState.NotMissing, KindRange, []float64{0, 1, 2}, []float64{-1}},
		}
		for _, c := range cases {
			t.Run(string(c.state), func(t *testing.T) {
				q, err := CompileVariantQuery(nil, models.GenotypeFilter{"i.1": c.state})
				require.NoError(t, err)
				require.Len(t, q.Filters, 1)
				assert.Equal(t, c.kind, q.Filters[0].Kind)

				for _, v := range c.accepted {
					assert.True(t, q.Matches(map[string]interface{}{"i_$dot$_1_num_alt": v}), "%v", v)
				}
				for _, v := range c.rejected {
					assert.False(t, q.Matches(map[string]interface{}{"i_$dot$_1_num_alt": v}), "%v", v)
				}
			})
		}
	})

	t.Run("should fail on an unknown genotype token", func(t *testing.T) {
		_, err := CompileVariantQuery(nil, models.GenotypeFilter{"NA12878": "het"})
		assert.True(t, errors.Is(err, genotypeState.ErrUnknownToken))
	})

	t.Run("should exclude genes", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Genes:        []string{"GENE1"},
			ExcludeGenes: true,
		}, nil)
		require.NoError(t, err)

		assert.False(t, q.Matches(map[string]interface{}{"geneIds": []interface{}{"GENE1", "GENE3"}}))
		assert.True(t, q.Matches(map[string]interface{}{"geneIds": []interface{}{"GENE2"}}))
	})

	t.Run("should include genes", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{Genes: []string{"GENE1"}}, nil)
		require.NoError(t, err)

		assert.True(t, q.Matches(map[string]interface{}{"geneIds": []interface{}{"GENE1", "GENE3"}}))
		assert.False(t, q.Matches(map[string]interface{}{"geneIds": []interface{}{"GENE2"}}))
		assert.False(t, q.Matches(map[string]interface{}{}))
	})

	t.Run("should keep hits missing a population under a frequency ceiling", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			RefFreqs: []models.PopulationFrequency{{Population: population.GnomadGenomes, MaxFreq: 0.01}},
		}, nil)
		require.NoError(t, err)

		assert.True(t, q.Matches(map[string]interface{}{}))
		assert.True(t, q.Matches(map[string]interface{}{"gnomad_genomes_AF": nil}))
		assert.True(t, q.Matches(map[string]interface{}{"gnomad_genomes_AF": 0.001}))
		assert.False(t, q.Matches(map[string]interface{}{"gnomad_genomes_AF": 0.2}))
	})

	t.Run("should fail on an unknown population", func(t *testing.T) {
		_, err := CompileVariantQuery(&models.VariantFilter{
			RefFreqs: []models.PopulationFrequency{{Population: "martians", MaxFreq: 0.01}},
		}, nil)
		assert.True(t, errors.Is(err, population.ErrUnknownPopulation))
	})

	t.Run("should match unannotated hits when intergenic variants are requested", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Consequences: []string{"intergenic_variant"},
		}, nil)
		require.NoError(t, err)

		assert.True(t, q.Matches(map[string]interface{}{}))
		assert.True(t, q.Matches(map[string]interface{}{"transcriptConsequenceTerms": []interface{}{}}))
		assert.True(t, q.Matches(map[string]interface{}{"transcriptConsequenceTerms": []interface{}{"intergenic_variant"}}))
		assert.False(t, q.Matches(map[string]interface{}{"transcriptConsequenceTerms": []interface{}{"missense_variant"}}))
	})

	t.Run("should not match unannotated hits otherwise", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Consequences: []string{"missense_variant", "stop_gained"},
		}, nil)
		require.NoError(t, err)

		assert.False(t, q.Matches(map[string]interface{}{}))
		assert.True(t, q.Matches(map[string]interface{}{"transcriptConsequenceTerms": []interface{}{"stop_gained"}}))
	})

	t.Run("should and every clause", func(t *testing.T) {
		q, err := CompileVariantQuery(&models.VariantFilter{
			Locations: []models.LocationRange{{XStart: 1000, XEnd: 2000}},
			Genes:     []string{"GENE1"},
		}, models.GenotypeFilter{"a": genotypeState.HasAlt})
		require.NoError(t, err)
		require.Len(t, q.Filters, 3)

		doc := map[string]interface{}{"xpos": 1500.0, "geneIds": []interface{}{"GENE1"}, "a_num_alt": 1.0}
		assert.True(t, q.Matches(doc))

		doc["a_num_alt"] = 0.0
		assert.False(t, q.Matches(doc))
	})

	t.Run("should always sort by xpos ascending", func(t *testing.T) {
		q, err := CompileVariantQuery(nil, nil)
		require.NoError(t, err)

		body := q.Source()
		assert.Equal(t, []map[string]interface{}{{"xpos": map[string]interface{}{"order": "asc"}}}, body["sort"])
	})

	t.Run("should sort ascending when no direction is set", func(t *testing.T) {
		q := Query{SortField: "xpos"}

		body := q.Source()
		assert.Equal(t, []map[string]interface{}{{"xpos": map[string]interface{}{"order": "asc"}}}, body["sort"])
	})
}

func TestQuerySource(t *testing.T) {
	q, err := CompileVariantQuery(&models.VariantFilter{
		Locations:    []models.LocationRange{{XStart: 1000, XEnd: 2000}},
		Consequences: []string{"intergenic_variant"},
		Genes:        []string{"GENE1"},
		ExcludeGenes: true,
		RefFreqs:     []models.PopulationFrequency{{Population: population.Topmed, MaxFreq: 0.05}},
	}, models.GenotypeFilter{"_x": genotypeState.HasRef})
	require.NoError(t, err)

	raw, err := json.Marshal(q.Source())
	require.NoError(t, err)

	expected := `{
		"query": {"bool": {"filter": [
			{"bool": {"minimum_should_match": 1, "should": [
				{"term": {"$_x_num_alt": 0}},
				{"term": {"$_x_num_alt": 1}}
			]}},
			{"bool": {"minimum_should_match": 1, "should": [
				{"range": {"xpos": {"gte": 1000, "lte": 2000}}}
			]}},
			{"bool": {"minimum_should_match": 1, "should": [
				{"terms": {"transcriptConsequenceTerms": ["intergenic_variant"]}},
				{"bool": {"must_not": [{"exists": {"field": "transcriptConsequenceTerms"}}]}}
			]}},
			{"bool": {"must_not": [{"terms": {"geneIds": ["GENE1"]}}]}},
			{"bool": {"minimum_should_match": 1, "should": [
				{"range": {"topmed_AF": {"lte": 0.05}}},
				{"bool": {"must_not": [{"exists": {"field": "topmed_AF"}}]}}
			]}}
		]}},
		"sort": [{"xpos": {"order": "asc"}}]
	}`
	assert.JSONEq(t, expected, string(raw))
}

func TestQueryWithFilter(t *testing.T) {
	q, err := CompileVariantQuery(&models.VariantFilter{Genes: []string{"GENE1"}}, nil)
	require.NoError(t, err)

	narrowed := q.WithFilter(Term("variantId", "1-100-A-G"))
	assert.Len(t, q.Filters, 1)
	assert.Len(t, narrowed.Filters, 2)
}
