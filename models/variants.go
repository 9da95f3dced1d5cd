package models

const (
	VarTypeSnp   = "snp"
	VarTypeIndel = "indel"
)

// extras keys
const (
	ExtraGenomeVersion  = "genome_version"
	ExtraGrch37Coords   = "grch37_coords"
	ExtraGrch38Coords   = "grch38_coords"
	ExtraOrigAltAlleles = "orig_alt_alleles"
	ExtraGeneNames      = "gene_names"
	ExtraGenes          = "genes"
	ExtraDiseaseGenes   = "disease_genes"
	ExtraFamilyNotes    = "family_notes"
	ExtraFamilyTags     = "family_tags"
)

// Variant is one variant at one position, reconstructed from a search hit.
type Variant struct {
	Xpos          int64                  `json:"xpos"`
	Chr           string                 `json:"chr"`
	Pos           int64                  `json:"pos"`
	PosEnd        int64                  `json:"pos_end"`
	Ref           string                 `json:"ref"`
	Alt           string                 `json:"alt"`
	VariantId     string                 `json:"variant_id"`
	VarType       string                 `json:"vartype"`
	Genotypes     map[string]Genotype    `json:"genotypes"`
	Annotation    Annotation             `json:"annotation"`
	GeneIds       []string               `json:"gene_ids"`
	CodingGeneIds []string               `json:"coding_gene_ids"`
	DbFreqs       PopulationFrequencies  `json:"db_freqs"`
	Extras        map[string]interface{} `json:"extras"`
}

func (v *Variant) SetExtra(key string, value interface{}) {
	if v.Extras == nil {
		v.Extras = map[string]interface{}{}
	}
	v.Extras[key] = value
}

func (v *Variant) Extra(key string) (interface{}, bool) {
	value, ok := v.Extras[key]
	return value, ok
}

// Genotype is one individual's call. Nil metrics were absent from the hit.
type Genotype struct {
	Alleles         []string `json:"alleles"`
	NumAlt          int      `json:"num_alt"`
	AlleleBalance   *float64 `json:"allele_balance"`
	AlleleDepth     *string  `json:"allele_depth"`
	Depth           *float64 `json:"depth"`
	GenotypeQuality *float64 `json:"genotype_quality"`
	FilterStatus    string   `json:"filter_status"`
}

type TranscriptConsequence struct {
	GeneId           string   `json:"gene_id" mapstructure:"gene_id"`
	GeneSymbol       string   `json:"gene_symbol,omitempty" mapstructure:"gene_symbol"`
	TranscriptId     string   `json:"transcript_id,omitempty" mapstructure:"transcript_id"`
	Biotype          string   `json:"biotype,omitempty" mapstructure:"biotype"`
	MajorConsequence string   `json:"major_consequence,omitempty" mapstructure:"major_consequence"`
	ConsequenceTerms []string `json:"consequence_terms,omitempty" mapstructure:"consequence_terms"`
	HgvsC            string   `json:"hgvsc,omitempty" mapstructure:"hgvsc"`
	HgvsP            string   `json:"hgvsp,omitempty" mapstructure:"hgvsp"`
}

type Annotation struct {
	AnnotationTags          []string                `json:"annotation_tags"`
	GeneIds                 []string                `json:"gene_ids"`
	CodingGeneIds           []string                `json:"coding_gene_ids"`
	VepAnnotation           []TranscriptConsequence `json:"vep_annotation"`
	VepConsequence          string                  `json:"vep_consequence"`
	VepGroup                string                  `json:"vep_group"`
	WorstVepAnnotationIndex int                     `json:"worst_vep_annotation_index"`
	WorstVepIndexPerGene    map[string]int          `json:"worst_vep_index_per_gene"`

	CaddPhred  float64 `json:"cadd_phred"`
	DannScore  float64 `json:"dann_score"`
	RevelScore float64 `json:"revel_score"`
	MpcScore   float64 `json:"mpc_score"`

	Freqs PopulationFrequencies `json:"freqs"`
}

// PopulationFrequencies are always set: absent frequencies read 0,
// absent coverage reads -1.
type PopulationFrequencies struct {
	G1kAF                 float64 `json:"1kg_wgs_AF"`
	G1kPopmaxAF           float64 `json:"1kg_wgs_popmax_AF"`
	ExacAC                float64 `json:"exac_v3_AC"`
	ExacAF                float64 `json:"exac_v3_AF"`
	ExacPopmaxAF          float64 `json:"exac_v3_popmax_AF"`
	TopmedAF              float64 `json:"topmed_AF"`
	GnomadExomesAC        float64 `json:"gnomad_exomes_AC"`
	GnomadExomesHom       float64 `json:"gnomad_exomes_Hom"`
	GnomadExomesAF        float64 `json:"gnomad_exomes_AF"`
	GnomadExomesPopmaxAF  float64 `json:"gnomad_exomes_popmax_AF"`
	GnomadGenomesAC       float64 `json:"gnomad_genomes_AC"`
	GnomadGenomesHom      float64 `json:"gnomad_genomes_Hom"`
	GnomadGenomesAF       float64 `json:"gnomad_genomes_AF"`
	GnomadGenomesPopmaxAF float64 `json:"gnomad_genomes_popmax_AF"`
	GnomadExomeCoverage   float64 `json:"gnomad_exome_coverage"`
	GnomadGenomeCoverage  float64 `json:"gnomad_genome_coverage"`
}

// reference data attached by enrichment

type GeneSummary struct {
	GeneId      string `json:"gene_id" mapstructure:"gene_id"`
	Symbol      string `json:"symbol" mapstructure:"symbol"`
	Chrom       string `json:"chrom" mapstructure:"chrom"`
	Start       int64  `json:"start" mapstructure:"start"`
	End         int64  `json:"end" mapstructure:"end"`
	Biotype     string `json:"biotype,omitempty" mapstructure:"biotype"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	OmimId      string `json:"omim_id,omitempty" mapstructure:"omim_id"`
}

type VariantNote struct {
	Note      string `json:"note"`
	Author    string `json:"user"`
	DateSaved string `json:"date_saved"`
}

type VariantTag struct {
	Name      string `json:"tag"`
	Color     string `json:"color"`
	Author    string `json:"user"`
	DateSaved string `json:"date_saved"`
}
