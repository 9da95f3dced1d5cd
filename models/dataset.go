package models

import (
	"varsearch/api/models/constants"
)

// Dataset names the index a project's or family's variants live in
// and the genome build they were called against.
type Dataset struct {
	IndexName   string                `json:"indexName"`
	GenomeBuild constants.GenomeBuild `json:"genomeVersion"`
}

// IndexPattern covers every physical index the dataset was sharded into.
func (d Dataset) IndexPattern() string {
	return d.IndexName + "*"
}
