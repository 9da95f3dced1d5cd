package indexes

import "varsearch/api/models"

// Field names of the variant index documents.
const (
	FieldXpos                  = "xpos"
	FieldVariantId             = "variantId"
	FieldContig                = "contig"
	FieldStart                 = "start"
	FieldTranscriptConsequence = "transcriptConsequenceTerms"
	FieldGeneIds               = "geneIds"
	FieldCodingGeneIds         = "codingGeneIds"
)

// Per-individual genotype fields are named <encoded individual id><suffix>.
const (
	SuffixNumAlt      = "_num_alt"
	SuffixAlleleBal   = "_ab"
	SuffixAlleleDepth = "_ad"
	SuffixDepth       = "_dp"
	SuffixGenotypeQ   = "_gq"
)

// NoConsequenceTerm is requested to match variants VEP left unannotated.
const NoConsequenceTerm = "intergenic_variant"

// VariantDocument is the _source of a variant index hit. Pointer fields
// may be absent or null; per-individual fields land in Samples.
type VariantDocument struct {
	Contig    string   `mapstructure:"contig"`
	Start     int64    `mapstructure:"start"`
	End       *int64   `mapstructure:"end"`
	Ref       string   `mapstructure:"ref"`
	Alt       string   `mapstructure:"alt"`
	Xpos      int64    `mapstructure:"xpos"`
	VariantId string   `mapstructure:"variantId"`
	Filters   []string `mapstructure:"filters"`

	TranscriptConsequenceTerms   []string    `mapstructure:"transcriptConsequenceTerms"`
	GeneIds                      []string    `mapstructure:"geneIds"`
	CodingGeneIds                []string    `mapstructure:"codingGeneIds"`
	SortedTranscriptConsequences interface{} `mapstructure:"sortedTranscriptConsequences"`
	MainTranscriptConsequence    *string     `mapstructure:"mainTranscript_major_consequence"`
	MainTranscriptGeneId         *string     `mapstructure:"mainTranscript_gene_id"`
	OriginalAltAlleles           []string    `mapstructure:"originalAltAlleles"`

	CaddPhred  *float64 `mapstructure:"cadd_PHRED"`
	DannScore  *float64 `mapstructure:"dbnsfp_DANN_score"`
	RevelScore *float64 `mapstructure:"dbnsfp_REVEL_score"`
	MpcScore   *float64 `mapstructure:"mpc_MPC"`

	G1kAF                 *float64 `mapstructure:"g1k_AF"`
	G1kPopmaxAF           *float64 `mapstructure:"g1k_POPMAX_AF"`
	ExacACAdj             *float64 `mapstructure:"exac_AC_Adj"`
	ExacANAdj             *float64 `mapstructure:"exac_AN_Adj"`
	ExacAF                *float64 `mapstructure:"exac_AF"`
	ExacPopmaxAF          *float64 `mapstructure:"exac_AF_POPMAX"`
	TopmedAF              *float64 `mapstructure:"topmed_AF"`
	GnomadExomesAC        *float64 `mapstructure:"gnomad_exomes_AC"`
	GnomadExomesHom       *float64 `mapstructure:"gnomad_exomes_HOM"`
	GnomadExomesAF        *float64 `mapstructure:"gnomad_exomes_AF"`
	GnomadExomesPopmaxAF  *float64 `mapstructure:"gnomad_exomes_AF_POPMAX"`
	GnomadGenomesAC       *float64 `mapstructure:"gnomad_genomes_AC"`
	GnomadGenomesHom      *float64 `mapstructure:"gnomad_genomes_HOM"`
	GnomadGenomesAF       *float64 `mapstructure:"gnomad_genomes_AF"`
	GnomadGenomesPopmaxAF *float64 `mapstructure:"gnomad_genomes_AF_POPMAX"`
	GnomadExomeCoverage   *float64 `mapstructure:"gnomad_exome_coverage"`
	GnomadGenomeCoverage  *float64 `mapstructure:"gnomad_genome_coverage"`

	Samples map[string]interface{} `mapstructure:",remain"`
}

// NormalizedVariant is a VariantDocument with every optional field
// resolved to a value, so hydration never checks for presence.
type NormalizedVariant struct {
	Contig    string
	Start     int64
	End       int64
	Ref       string
	Alt       string
	Xpos      int64
	VariantId string
	Filters   []string

	TranscriptConsequenceTerms []string
	GeneIds                    []string
	CodingGeneIds              []string
	TranscriptConsequences     []models.TranscriptConsequence
	MainTranscriptConsequence  string
	MainTranscriptGeneId       string
	OriginalAltAlleles         []string

	CaddPhred  float64
	DannScore  float64
	RevelScore float64
	MpcScore   float64

	Freqs models.PopulationFrequencies

	Samples map[string]interface{}
}
