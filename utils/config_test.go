package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, 2000, cfg.Search.ResultsLimit)
		assert.Equal(t, 10, cfg.Search.DiseaseGeneErrorTolerance)
		assert.Equal(t, "genes", cfg.Elasticsearch.GenesIndex)
		assert.True(t, cfg.Liftover.Enabled)
	})

	t.Run("should overlay the yaml file", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/test.config.yml")
		require.NoError(t, err)

		assert.True(t, cfg.Debug)
		assert.Equal(t, "5050", cfg.Api.Port)
		assert.Equal(t, "http://elasticsearch:9200", cfg.Elasticsearch.Url)
		assert.Equal(t, 25, cfg.Search.ResultsLimit)
		assert.Equal(t, 3, cfg.Search.DiseaseGeneErrorTolerance)
		assert.False(t, cfg.Liftover.Enabled)
		// untouched by the file
		assert.Equal(t, 500, cfg.Search.ScrollBatchSize)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := LoadConfig("testdata/nope.yml")
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("test", "debug")
	assert.NoError(t, err)

	_, err = NewLogger("mars", "")
	assert.Error(t, err)

	_, err = NewLogger("prod", "loud")
	assert.Error(t, err)
}
