package constants

/*
Defines a set of base level
constants and enums to be used
throughout the variant search
service and its repositories.
*/
type GenomeBuild string
type GenotypeState string
type Population string
type SortDirection string
type FamilyStatus string
