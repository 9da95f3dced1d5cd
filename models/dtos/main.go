package dtos

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"varsearch/api/models"
	"varsearch/api/models/constants"
)

// -- requests

type VariantSearchRequestDto struct {
	GenotypeFilter map[string]constants.GenotypeState `json:"genotypeFilter"`
	VariantFilter  *VariantFilterDto                  `json:"variantFilter"`
}

// VariantFilterDto is models.VariantFilter with locations written either
// as "chr:start-end" strings or as resolved [xstart, xend] pairs.
type VariantFilterDto struct {
	Locations    []LocationDto                `json:"locations"`
	Consequences []string                     `json:"consequences"`
	Genes        []string                     `json:"genes"`
	ExcludeGenes bool                         `json:"excludeGenes"`
	RefFreqs     []models.PopulationFrequency `json:"refFreqs"`
}

func (dto VariantSearchRequestDto) ToFilters() (models.GenotypeFilter, *models.VariantFilter, error) {
	var gf models.GenotypeFilter
	if len(dto.GenotypeFilter) > 0 {
		gf = models.GenotypeFilter(dto.GenotypeFilter)
	}
	if dto.VariantFilter == nil {
		return gf, nil, nil
	}

	vf := &models.VariantFilter{
		Consequences: dto.VariantFilter.Consequences,
		Genes:        dto.VariantFilter.Genes,
		ExcludeGenes: dto.VariantFilter.ExcludeGenes,
		RefFreqs:     dto.VariantFilter.RefFreqs,
	}
	for _, loc := range dto.VariantFilter.Locations {
		lr, err := loc.ToLocationRange()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid location %s: %w", loc, err)
		}
		vf.Locations = append(vf.Locations, lr)
	}
	return gf, vf, nil
}

// LocationDto is one element of VariantFilterDto.Locations.
type LocationDto struct {
	Text string
	Pair []int64
}

func (l *LocationDto) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []int64
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("location pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("location pair needs exactly two positions, got %d", len(pair))
		}
		*l = LocationDto{Pair: pair}
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("location must be a string or an [xstart, xend] pair: %w", err)
	}
	*l = LocationDto{Text: text}
	return nil
}

func (l LocationDto) MarshalJSON() ([]byte, error) {
	if l.Pair != nil {
		return json.Marshal(l.Pair)
	}
	return json.Marshal(l.Text)
}

func (l LocationDto) ToLocationRange() (models.LocationRange, error) {
	if l.Pair != nil {
		if len(l.Pair) != 2 {
			return models.LocationRange{}, fmt.Errorf("location pair needs exactly two positions, got %d", len(l.Pair))
		}
		return models.LocationRangeFromXpos(l.Pair[0], l.Pair[1])
	}
	return models.LocationRangeFromString(l.Text)
}

func (l LocationDto) String() string {
	if l.Pair != nil {
		return fmt.Sprint(l.Pair)
	}
	return fmt.Sprintf("%q", l.Text)
}

// -- responses

type VariantsResponseDto struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Count   int               `json:"count"`
	Results []*models.Variant `json:"results"`
}

type GenesResponseDto struct {
	Status  int                  `json:"status"`
	Message string               `json:"message"`
	Term    string               `json:"term"`
	Count   int                  `json:"count"`
	Results []models.GeneSummary `json:"results"`
}

type FamilyStatusResponseDto struct {
	ProjectId string                 `json:"projectId"`
	FamilyId  string                 `json:"familyId"`
	Status    constants.FamilyStatus `json:"status"`
}

type ProjectStatusResponseDto struct {
	ProjectId string `json:"projectId"`
	Loaded    bool   `json:"loaded"`
}

// StreamTrailerDto is the last line of an NDJSON variant stream.
type StreamTrailerDto struct {
	Count        int    `json:"count"`
	LimitReached bool   `json:"limitReached"`
	Error        string `json:"error,omitempty"`
}

// -- errors

type GeneralErrorResponseDto struct {
	Status    int            `json:"status,omitempty"`
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors,omitempty"`
}

type GeneralError struct {
	Message string `json:"message"`
}
