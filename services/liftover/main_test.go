package liftover

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"varsearch/api/models"
	genomeBuild "varsearch/api/models/constants/genome-build"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testChain = `chain 1000 chr1 1000 + 0 300 chr1 2000 + 100 400 1
100 50 50
100

chain 500 chr2 1000 + 0 100 chr5 500 - 0 100 2
100
`

func testConfig() *models.Config {
	cfg := &models.Config{}
	cfg.Liftover.Enabled = true
	cfg.Liftover.Grch37ToGrch38Chain = "hg19ToHg38.over.chain"
	cfg.Liftover.Grch38ToGrch37Chain = "hg38ToHg19.over.chain"
	return cfg
}

func TestParseChain(t *testing.T) {
	conv, err := ParseChain(strings.NewReader(testChain))
	require.NoError(t, err)

	cases := []struct {
		name   string
		chrom  string
		pos    int64
		want   string
		lifted int64
		ok     bool
	}{
		{"first block", "1", 1, "chr1", 101, true},
		{"prefixed chromosome", "chr1", 100, "chr1", 200, true},
		{"second block", "1", 151, "chr1", 251, true},
		{"alignment gap", "1", 120, "", 0, false},
		{"reverse strand", "2", 10, "chr5", 491, true},
		{"unknown chromosome", "3", 10, "", 0, false},
		{"past the chain", "1", 900, "", 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			name, lifted, ok := conv.Convert(c.chrom, c.pos)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, name)
			assert.Equal(t, c.lifted, lifted)
		})
	}
}

func TestParseChainOverlappingChains(t *testing.T) {
	const primary = `chain 1000 chr1 3000 + 0 2000 chr1 3000 + 0 2000 1
1000 100 100
900

`
	const alt = `chain 50 chr1 3000 + 10 15 chr1_alt 100 + 0 5 2
5

`

	t.Run("should find a block enclosing a nested chain", func(t *testing.T) {
		conv, err := ParseChain(strings.NewReader(primary + alt))
		require.NoError(t, err)

		cases := []struct {
			pos    int64
			want   string
			lifted int64
			ok     bool
		}{
			{501, "chr1", 501, true},
			{12, "chr1", 12, true},
			{1500, "chr1", 1500, true},
			{1050, "", 0, false},
		}
		for _, c := range cases {
			name, lifted, ok := conv.Convert("1", c.pos)
			assert.Equal(t, c.ok, ok, "pos %d", c.pos)
			assert.Equal(t, c.want, name, "pos %d", c.pos)
			assert.Equal(t, c.lifted, lifted, "pos %d", c.pos)
		}
	})

	t.Run("should prefer the chain listed first", func(t *testing.T) {
		conv, err := ParseChain(strings.NewReader(alt + primary))
		require.NoError(t, err)

		name, lifted, ok := conv.Convert("1", 12)
		assert.True(t, ok)
		assert.Equal(t, "chr1_alt", name)
		assert.Equal(t, int64(2), lifted)

		name, lifted, ok = conv.Convert("1", 501)
		assert.True(t, ok)
		assert.Equal(t, "chr1", name)
		assert.Equal(t, int64(501), lifted)
	})
}

func TestParseChainGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(testChain))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	conv, err := ParseChain(&buf)
	require.NoError(t, err)

	_, lifted, ok := conv.Convert("1", 1)
	assert.True(t, ok)
	assert.Equal(t, int64(101), lifted)
}

func TestParseChainRejectsGarbage(t *testing.T) {
	_, err := ParseChain(strings.NewReader("100 50 50\n"))
	assert.Error(t, err)

	_, err = ParseChain(strings.NewReader(""))
	assert.Error(t, err)
}

func TestServiceConvert(t *testing.T) {
	t.Run("should lift over in both directions", func(t *testing.T) {
		var sources []string
		svc := NewServiceWithLoader(testConfig(), zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
			sources = append(sources, source)
			return io.NopCloser(strings.NewReader(testChain)), nil
		})

		coord, ok := svc.Convert(context.Background(), genomeBuild.GRCh37, "1", 1)
		require.True(t, ok)
		assert.Equal(t, Coordinate{Chrom: "1", Pos: 101}, coord)

		_, ok = svc.Convert(context.Background(), genomeBuild.GRCh38, "chr2", 10)
		require.True(t, ok)

		assert.Equal(t, []string{"hg19ToHg38.over.chain", "hg38ToHg19.over.chain"}, sources)
	})

	t.Run("should stay unavailable after a failed construction", func(t *testing.T) {
		var calls int32
		svc := NewServiceWithLoader(testConfig(), zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("network unreachable")
		})

		for i := 0; i < 3; i++ {
			_, ok := svc.Convert(context.Background(), genomeBuild.GRCh37, "1", 1)
			assert.False(t, ok)
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("should build each converter once under concurrent first use", func(t *testing.T) {
		var calls int32
		svc := NewServiceWithLoader(testConfig(), zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
			atomic.AddInt32(&calls, 1)
			return io.NopCloser(strings.NewReader(testChain)), nil
		})

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := svc.Convert(context.Background(), genomeBuild.GRCh37, "1", 1)
				assert.True(t, ok)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("should not load anything when disabled", func(t *testing.T) {
		cfg := testConfig()
		cfg.Liftover.Enabled = false
		svc := NewServiceWithLoader(cfg, zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
			t.Fatal("loader called")
			return nil, nil
		})

		_, ok := svc.Convert(context.Background(), genomeBuild.GRCh37, "1", 1)
		assert.False(t, ok)
	})

	t.Run("should report unknown builds as unavailable", func(t *testing.T) {
		svc := NewServiceWithLoader(testConfig(), zap.NewNop(), func(ctx context.Context, source string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(testChain)), nil
		})

		_, ok := svc.Convert(context.Background(), genomeBuild.Unknown, "1", 1)
		assert.False(t, ok)
	})
}

func TestOpenChain(t *testing.T) {
	t.Run("should read a local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.over.chain")
		require.NoError(t, os.WriteFile(path, []byte(testChain), 0o644))

		rc, err := openChain(context.Background(), http.DefaultClient, path, 0)
		require.NoError(t, err)
		defer rc.Close()

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, testChain, string(body))
	})

	t.Run("should retry a failing download", func(t *testing.T) {
		var hits int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(testChain))
		}))
		defer server.Close()

		rc, err := openChain(context.Background(), server.Client(), server.URL+"/hg19ToHg38.over.chain", 3)
		require.NoError(t, err)
		defer rc.Close()

		conv, err := ParseChain(rc)
		require.NoError(t, err)
		_, _, ok := conv.Convert("1", 1)
		assert.True(t, ok)
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("should give up after the retry budget", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := openChain(context.Background(), server.Client(), server.URL+"/missing.chain", 0)
		assert.Error(t, err)
	})
}
