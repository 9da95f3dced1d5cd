package population

import (
	"errors"
	"fmt"
	"sort"

	"varsearch/api/models/constants"
)

const (
	G1k                 constants.Population = "1kg_wgs_phase3"
	G1kPopmax           constants.Population = "1kg_wgs_phase3_popmax"
	Exac                constants.Population = "exac_v3"
	ExacPopmax          constants.Population = "exac_v3_popmax"
	Topmed              constants.Population = "topmed"
	GnomadExomes        constants.Population = "gnomad_exomes"
	GnomadExomesPopmax  constants.Population = "gnomad_exomes_popmax"
	GnomadGenomes       constants.Population = "gnomad_genomes"
	GnomadGenomesPopmax constants.Population = "gnomad_genomes_popmax"

	// gnomAD v2 release names used by older saved searches
	GnomadExomes2        constants.Population = "gnomad-exomes2"
	GnomadExomes2Popmax  constants.Population = "gnomad-exomes2_popmax"
	GnomadGenomes2       constants.Population = "gnomad-genomes2"
	GnomadGenomes2Popmax constants.Population = "gnomad-genomes2_popmax"
)

var ErrUnknownPopulation = errors.New("unknown reference population")

// index field holding each population's allele frequency
var frequencyFields = map[constants.Population]string{
	G1k:                  "g1k_AF",
	G1kPopmax:            "g1k_POPMAX_AF",
	Exac:                 "exac_AF",
	ExacPopmax:           "exac_AF_POPMAX",
	Topmed:               "topmed_AF",
	GnomadExomes:         "gnomad_exomes_AF",
	GnomadExomesPopmax:   "gnomad_exomes_AF_POPMAX",
	GnomadGenomes:        "gnomad_genomes_AF",
	GnomadGenomesPopmax:  "gnomad_genomes_AF_POPMAX",
	GnomadExomes2:        "gnomad_exomes_AF",
	GnomadExomes2Popmax:  "gnomad_exomes_AF_POPMAX",
	GnomadGenomes2:       "gnomad_genomes_AF",
	GnomadGenomes2Popmax: "gnomad_genomes_AF_POPMAX",
}

func FrequencyField(pop constants.Population) (string, error) {
	field, ok := frequencyFields[pop]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPopulation, string(pop))
	}
	return field, nil
}

func Known() []constants.Population {
	pops := make([]constants.Population, 0, len(frequencyFields))
	for p := range frequencyFields {
		pops = append(pops, p)
	}
	sort.Slice(pops, func(i, j int) bool { return pops[i] < pops[j] })
	return pops
}
