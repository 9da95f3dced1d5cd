package variantsService

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"varsearch/api/metrics"
	"varsearch/api/models"
	"varsearch/api/models/constants"
	genomeBuild "varsearch/api/models/constants/genome-build"
	"varsearch/api/models/indexes"
	"varsearch/api/utils"

	"go.uber.org/zap"
)

// ErrInvalidNumAlt marks a genotype whose alt allele count is not one of
// -1, 0, 1 or 2.
var ErrInvalidNumAlt = errors.New("invalid num_alt")

const noCall = -1

type HydrationContext struct {
	Dataset models.Dataset
	// IndividualIds are the individuals whose genotypes are reconstructed.
	IndividualIds []string
}

type Hydrator struct {
	liftover Liftover
	logger   *zap.Logger
}

func NewHydrator(liftover Liftover, logger *zap.Logger) *Hydrator {
	return &Hydrator{liftover: liftover, logger: logger}
}

// Hydrate rebuilds the variant a hit describes. It reports false, with no
// error, when none of the individuals carries the alt allele.
func (h *Hydrator) Hydrate(ctx context.Context, hit map[string]interface{}, hc HydrationContext) (*models.Variant, bool, error) {
	nv, err := Normalize(hit)
	if err != nil {
		return nil, false, err
	}

	filterStatus := "pass"
	if len(nv.Filters) > 0 {
		filterStatus = strings.Join(nv.Filters, ",")
	}

	genotypes := make(map[string]models.Genotype, len(hc.IndividualIds))
	carried := false
	for _, individualId := range hc.IndividualIds {
		gt, err := genotypeFor(nv, utils.EncodeFieldName(individualId))
		if err != nil {
			return nil, false, fmt.Errorf("variant %s, individual %s: %w", nv.VariantId, individualId, err)
		}
		gt.FilterStatus = filterStatus
		if gt.NumAlt > 0 {
			carried = true
		}
		genotypes[individualId] = gt
	}
	if !carried {
		metrics.HitsSkippedTotal.Inc()
		return nil, false, nil
	}

	variant := &models.Variant{
		Xpos:          nv.Xpos,
		Chr:           nv.Contig,
		Pos:           nv.Start,
		PosEnd:        nv.End,
		Ref:           nv.Ref,
		Alt:           nv.Alt,
		VariantId:     nv.VariantId,
		VarType:       varType(nv.Ref, nv.Alt),
		Genotypes:     genotypes,
		GeneIds:       nv.GeneIds,
		CodingGeneIds: nv.CodingGeneIds,
		DbFreqs:       nv.Freqs,
		Annotation: models.Annotation{
			AnnotationTags:       nv.TranscriptConsequenceTerms,
			GeneIds:              nv.GeneIds,
			CodingGeneIds:        nv.CodingGeneIds,
			VepAnnotation:        nv.TranscriptConsequences,
			VepConsequence:       nv.MainTranscriptConsequence,
			VepGroup:             nv.MainTranscriptConsequence,
			WorstVepIndexPerGene: map[string]int{},
			CaddPhred:            nv.CaddPhred,
			DannScore:            nv.DannScore,
			RevelScore:           nv.RevelScore,
			MpcScore:             nv.MpcScore,
			Freqs:                nv.Freqs,
		},
	}
	// transcript consequences are sorted worst first
	if nv.MainTranscriptGeneId != "" {
		variant.Annotation.WorstVepIndexPerGene[nv.MainTranscriptGeneId] = 0
	}

	grch37, grch38 := h.coordinates(ctx, hc.Dataset.GenomeBuild, nv)
	variant.SetExtra(models.ExtraGenomeVersion, string(hc.Dataset.GenomeBuild))
	variant.SetExtra(models.ExtraGrch37Coords, grch37)
	variant.SetExtra(models.ExtraGrch38Coords, grch38)
	variant.SetExtra(models.ExtraOrigAltAlleles, nv.OriginalAltAlleles)

	return variant, true, nil
}

// coordinates returns the GRCh37 and GRCh38 chrom-pos-ref-alt strings; the
// native build's is the hit's variant id and the other is lifted over, or
// empty when it cannot be.
func (h *Hydrator) coordinates(ctx context.Context, build constants.GenomeBuild, nv indexes.NormalizedVariant) (string, string) {
	lifted := ""
	if h.liftover != nil {
		if c, ok := h.liftover.Convert(ctx, build, nv.Contig, nv.Start); ok {
			lifted = fmt.Sprintf("%s-%d-%s-%s", c.Chrom, c.Pos, nv.Ref, nv.Alt)
		}
	}

	switch build {
	case genomeBuild.GRCh37:
		return nv.VariantId, lifted
	case genomeBuild.GRCh38:
		return lifted, nv.VariantId
	default:
		return "", ""
	}
}

func genotypeFor(nv indexes.NormalizedVariant, prefix string) (models.Genotype, error) {
	numAlt, err := readNumAlt(nv.Samples[prefix+indexes.SuffixNumAlt])
	if err != nil {
		return models.Genotype{}, err
	}

	gt := models.Genotype{
		NumAlt:          numAlt,
		AlleleBalance:   sampleFloat(nv.Samples, prefix+indexes.SuffixAlleleBal),
		AlleleDepth:     sampleString(nv.Samples, prefix+indexes.SuffixAlleleDepth),
		Depth:           sampleFloat(nv.Samples, prefix+indexes.SuffixDepth),
		GenotypeQuality: sampleFloat(nv.Samples, prefix+indexes.SuffixGenotypeQ),
	}

	switch numAlt {
	case 0:
		gt.Alleles = []string{nv.Ref, nv.Ref}
	case 1:
		gt.Alleles = []string{nv.Ref, nv.Alt}
	case 2:
		gt.Alleles = []string{nv.Alt, nv.Alt}
	case noCall:
		gt.Alleles = []string{}
	default:
		return models.Genotype{}, fmt.Errorf("%w: %d", ErrInvalidNumAlt, numAlt)
	}
	return gt, nil
}

func readNumAlt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case nil:
		return noCall, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidNumAlt, v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumAlt, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidNumAlt, raw)
}

func sampleFloat(samples map[string]interface{}, key string) *float64 {
	switch v := samples[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func sampleString(samples map[string]interface{}, key string) *string {
	raw, ok := samples[key]
	if !ok || raw == nil {
		return nil
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		s = strings.Join(parts, ",")
	default:
		s = fmt.Sprint(v)
	}
	return &s
}

func varType(ref string, alt string) string {
	if len(ref) == len(alt) {
		return models.VarTypeSnp
	}
	return models.VarTypeIndel
}
