package models

import (
	"fmt"

	"varsearch/api/models/constants"
	"varsearch/api/models/constants/chromosome"
)

// LocationRange is an inclusive interval on the xpos axis.
type LocationRange struct {
	XStart int64 `json:"xstart"`
	XEnd   int64 `json:"xend"`
}

func LocationRangeFromString(text string) (LocationRange, error) {
	chrom, start, end, err := chromosome.ParseLocus(text)
	if err != nil {
		return LocationRange{}, err
	}
	xstart, err := chromosome.GetXpos(chrom, start)
	if err != nil {
		return LocationRange{}, fmt.Errorf("location %q: %w", text, err)
	}
	xend, err := chromosome.GetXpos(chrom, end)
	if err != nil {
		return LocationRange{}, fmt.Errorf("location %q: %w", text, err)
	}
	if xend < xstart {
		return LocationRange{}, fmt.Errorf("location %q: end before start", text)
	}
	return LocationRange{XStart: xstart, XEnd: xend}, nil
}

// LocationRangeFromXpos checks an already-resolved [xstart, xend] pair.
func LocationRangeFromXpos(xstart int64, xend int64) (LocationRange, error) {
	if _, _, err := chromosome.GetChrPos(xstart); err != nil {
		return LocationRange{}, err
	}
	if _, _, err := chromosome.GetChrPos(xend); err != nil {
		return LocationRange{}, err
	}
	if xend < xstart {
		return LocationRange{}, fmt.Errorf("location [%d, %d]: end before start", xstart, xend)
	}
	return LocationRange{XStart: xstart, XEnd: xend}, nil
}

type PopulationFrequency struct {
	Population constants.Population `json:"population"`
	MaxFreq    float64              `json:"maxFreq"`
}

type VariantFilter struct {
	Locations    []LocationRange       `json:"locations,omitempty"`
	Consequences []string              `json:"consequences,omitempty"`
	Genes        []string              `json:"genes,omitempty"`
	ExcludeGenes bool                  `json:"excludeGenes,omitempty"`
	RefFreqs     []PopulationFrequency `json:"refFreqs,omitempty"`
}

// Copy returns a deep copy; a nil filter copies to an empty one.
func (vf *VariantFilter) Copy() *VariantFilter {
	if vf == nil {
		return &VariantFilter{}
	}
	return &VariantFilter{
		Locations:    append([]LocationRange(nil), vf.Locations...),
		Consequences: append([]string(nil), vf.Consequences...),
		Genes:        append([]string(nil), vf.Genes...),
		ExcludeGenes: vf.ExcludeGenes,
		RefFreqs:     append([]PopulationFrequency(nil), vf.RefFreqs...),
	}
}

// WithGene returns a copy of the filter with geneId added to its gene list.
// An exclusion list is replaced by an inclusion of geneId alone.
func (vf *VariantFilter) WithGene(geneId string) *VariantFilter {
	modified := vf.Copy()
	if modified.ExcludeGenes {
		modified.ExcludeGenes = false
		modified.Genes = []string{geneId}
		return modified
	}
	for _, g := range modified.Genes {
		if g == geneId {
			return modified
		}
	}
	modified.Genes = append(modified.Genes, geneId)
	return modified
}

// GenotypeFilter maps an individual id to the genotype state it must be in.
type GenotypeFilter map[string]constants.GenotypeState
