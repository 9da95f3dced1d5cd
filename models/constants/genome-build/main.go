package genomeBuild

import (
	"strings"

	"varsearch/api/models/constants"
)

const (
	Unknown constants.GenomeBuild = "Unknown"

	GRCh37 constants.GenomeBuild = "37"
	GRCh38 constants.GenomeBuild = "38"
)

func CastToGenomeBuild(text string) constants.GenomeBuild {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "37", "grch37", "hg19":
		return GRCh37
	case "38", "grch38", "hg38":
		return GRCh38
	default:
		return Unknown
	}
}

func IsKnownGenomeBuild(text string) bool {
	// attempt to cast to a genome build and
	// return if unknown
	return CastToGenomeBuild(text) != Unknown
}

// Other returns the build coordinates are lifted over to.
func Other(build constants.GenomeBuild) constants.GenomeBuild {
	switch build {
	case GRCh37:
		return GRCh38
	case GRCh38:
		return GRCh37
	default:
		return Unknown
	}
}

// UcscName maps a build to the assembly name used in UCSC chain file names.
func UcscName(build constants.GenomeBuild) string {
	switch build {
	case GRCh37:
		return "hg19"
	case GRCh38:
		return "hg38"
	default:
		return ""
	}
}
