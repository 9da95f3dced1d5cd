package dtos

import (
	"encoding/json"
	"testing"

	"varsearch/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantSearchRequestDtoLocations(t *testing.T) {
	t.Run("should accept strings and pairs side by side", func(t *testing.T) {
		var dto VariantSearchRequestDto
		require.NoError(t, json.Unmarshal([]byte(
			`{"variantFilter":{"locations":["chr1:100-200", [2000000300, 2000000400]]}}`), &dto))

		_, vf, err := dto.ToFilters()
		require.NoError(t, err)
		assert.Equal(t, []models.LocationRange{
			{XStart: 1000000100, XEnd: 1000000200},
			{XStart: 2000000300, XEnd: 2000000400},
		}, vf.Locations)
	})

	t.Run("should reject a pair of the wrong length", func(t *testing.T) {
		var dto VariantSearchRequestDto
		err := json.Unmarshal([]byte(`{"variantFilter":{"locations":[[1, 2, 3]]}}`), &dto)
		assert.Error(t, err)
	})

	t.Run("should reject other json types", func(t *testing.T) {
		var dto VariantSearchRequestDto
		err := json.Unmarshal([]byte(`{"variantFilter":{"locations":[{"xstart":1}]}}`), &dto)
		assert.Error(t, err)
	})

	t.Run("should reject pairs that do not resolve", func(t *testing.T) {
		for name, body := range map[string]string{
			"reversed":           `{"variantFilter":{"locations":[[1000000200, 1000000100]]}}`,
			"unknown chromosome": `{"variantFilter":{"locations":[[99000000001, 99000000002]]}}`,
		} {
			var dto VariantSearchRequestDto
			require.NoError(t, json.Unmarshal([]byte(body), &dto), name)

			_, _, err := dto.ToFilters()
			assert.Error(t, err, name)
		}
	})

	t.Run("should write locations back in the form they were read", func(t *testing.T) {
		out, err := json.Marshal([]LocationDto{{Text: "chr1:100-200"}, {Pair: []int64{1000000100, 1000000200}}})
		require.NoError(t, err)
		assert.JSONEq(t, `["chr1:100-200", [1000000100, 1000000200]]`, string(out))
	})
}
