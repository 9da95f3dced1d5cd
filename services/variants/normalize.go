package variantsService

import (
	"encoding/json"
	"fmt"
	"strings"

	"varsearch/api/models"
	"varsearch/api/models/constants/chromosome"
	"varsearch/api/models/indexes"
	esRepo "varsearch/api/repositories/elasticsearch"

	"github.com/mitchellh/mapstructure"
)

// Normalize decodes a raw hit and resolves every optional field: absent
// frequencies and scores read 0, absent coverage reads -1.
func Normalize(source map[string]interface{}) (indexes.NormalizedVariant, error) {
	var doc indexes.VariantDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &doc,
	})
	if err != nil {
		return indexes.NormalizedVariant{}, err
	}
	if err := decoder.Decode(source); err != nil {
		return indexes.NormalizedVariant{}, fmt.Errorf("decode hit: %w", err)
	}

	nv := indexes.NormalizedVariant{
		Contig:    doc.Contig,
		Start:     doc.Start,
		Ref:       doc.Ref,
		Alt:       doc.Alt,
		Xpos:      doc.Xpos,
		VariantId: doc.VariantId,
		Filters:   nonNil(doc.Filters),

		TranscriptConsequenceTerms: nonNil(doc.TranscriptConsequenceTerms),
		GeneIds:                    nonNil(doc.GeneIds),
		CodingGeneIds:              nonNil(doc.CodingGeneIds),
		MainTranscriptConsequence:  stringOr(doc.MainTranscriptConsequence, ""),
		MainTranscriptGeneId:       stringOr(doc.MainTranscriptGeneId, ""),

		CaddPhred:  floatOr(doc.CaddPhred, 0),
		DannScore:  floatOr(doc.DannScore, 0),
		RevelScore: floatOr(doc.RevelScore, 0),
		MpcScore:   floatOr(doc.MpcScore, 0),

		Samples: doc.Samples,
	}
	if nv.Samples == nil {
		nv.Samples = map[string]interface{}{}
	}

	// position fields fall back to xpos
	if nv.Contig == "" || nv.Start == 0 {
		chrom, pos, err := chromosome.GetChrPos(nv.Xpos)
		if err != nil {
			return indexes.NormalizedVariant{}, fmt.Errorf("hit without a position: %w", err)
		}
		if nv.Contig == "" {
			nv.Contig = chrom
		}
		if nv.Start == 0 {
			nv.Start = pos
		}
	}
	if nv.Xpos == 0 {
		xpos, err := chromosome.GetXpos(nv.Contig, nv.Start)
		if err != nil {
			return indexes.NormalizedVariant{}, fmt.Errorf("hit without a position: %w", err)
		}
		nv.Xpos = xpos
	}

	nv.End = nv.Start
	if doc.End != nil {
		nv.End = *doc.End
	} else if len(nv.Ref) > 1 {
		nv.End = nv.Start + int64(len(nv.Ref)) - 1
	}

	if nv.VariantId == "" {
		nv.VariantId = esRepo.VariantIdFor(chromosome.Normalize(nv.Contig), nv.Start, nv.Ref, nv.Alt)
	}

	// alleles of the original multi-allelic record, as chrom-pos-ref-alt
	nv.OriginalAltAlleles = make([]string, 0, len(doc.OriginalAltAlleles))
	for _, a := range doc.OriginalAltAlleles {
		parts := strings.Split(a, "-")
		nv.OriginalAltAlleles = append(nv.OriginalAltAlleles, parts[len(parts)-1])
	}

	consequences, err := decodeTranscriptConsequences(doc.SortedTranscriptConsequences)
	if err != nil {
		return indexes.NormalizedVariant{}, err
	}
	nv.TranscriptConsequences = consequences

	nv.Freqs = models.PopulationFrequencies{
		G1kAF:                 floatOr(doc.G1kAF, 0),
		G1kPopmaxAF:           floatOr(doc.G1kPopmaxAF, 0),
		ExacAC:                floatOr(doc.ExacACAdj, 0),
		ExacAF:                exacAlleleFrequency(doc),
		ExacPopmaxAF:          floatOr(doc.ExacPopmaxAF, 0),
		TopmedAF:              floatOr(doc.TopmedAF, 0),
		GnomadExomesAC:        floatOr(doc.GnomadExomesAC, 0),
		GnomadExomesHom:       floatOr(doc.GnomadExomesHom, 0),
		GnomadExomesAF:        floatOr(doc.GnomadExomesAF, 0),
		GnomadExomesPopmaxAF:  floatOr(doc.GnomadExomesPopmaxAF, 0),
		GnomadGenomesAC:       floatOr(doc.GnomadGenomesAC, 0),
		GnomadGenomesHom:      floatOr(doc.GnomadGenomesHom, 0),
		GnomadGenomesAF:       floatOr(doc.GnomadGenomesAF, 0),
		GnomadGenomesPopmaxAF: floatOr(doc.GnomadGenomesPopmaxAF, 0),
		GnomadExomeCoverage:   floatOr(doc.GnomadExomeCoverage, -1),
		GnomadGenomeCoverage:  floatOr(doc.GnomadGenomeCoverage, -1),
	}

	return nv, nil
}

// exacAlleleFrequency prefers the stored frequency and otherwise derives it
// from the adjusted allele count and number.
func exacAlleleFrequency(doc indexes.VariantDocument) float64 {
	if doc.ExacAF != nil {
		return *doc.ExacAF
	}
	an := floatOr(doc.ExacANAdj, 0)
	if an <= 0 {
		return 0
	}
	return floatOr(doc.ExacACAdj, 0) / an
}

// sortedTranscriptConsequences is indexed as a JSON string; older indices
// carry it as a nested array.
func decodeTranscriptConsequences(raw interface{}) ([]models.TranscriptConsequence, error) {
	var items interface{}
	switch v := raw.(type) {
	case nil:
		return []models.TranscriptConsequence{}, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []models.TranscriptConsequence{}, nil
		}
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			return nil, fmt.Errorf("decode transcript consequences: %w", err)
		}
	default:
		items = v
	}

	consequences := []models.TranscriptConsequence{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &consequences,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode transcript consequences: %w", err)
	}
	return consequences, nil
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func stringOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
