package variantsService

import (
	"context"

	"varsearch/api/models"
	"varsearch/api/models/constants"
	esRepo "varsearch/api/repositories/elasticsearch"
	"varsearch/api/services/liftover"
)

// Searcher runs a compiled query against a dataset's variant indices.
type Searcher interface {
	Scan(ctx context.Context, req esRepo.ScanRequest) (esRepo.Cursor, error)
}

// DatasetLookup resolves where a family's or project's variants are
// indexed. A nil dataset means nothing is loaded.
type DatasetLookup interface {
	GetFamilyDataset(ctx context.Context, projectId string, familyId string) (*models.Dataset, error)
	GetProjectDataset(ctx context.Context, projectId string) (*models.Dataset, error)
}

type IndividualLookup interface {
	GetFamilyIndividualIds(ctx context.Context, projectId string, familyId string) ([]string, error)
	GetProjectIndividualIds(ctx context.Context, projectId string) ([]string, error)
}

type GeneSummaryLookup interface {
	GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error)
}

// DiseaseGeneLookup names the project's gene lists that contain geneId.
type DiseaseGeneLookup interface {
	GetDiseaseGeneLists(ctx context.Context, projectId string, geneId string) ([]string, error)
}

type NotesTagsLookup interface {
	GetVariantNotes(ctx context.Context, projectId string, familyId string, xpos int64, ref string, alt string) ([]models.VariantNote, error)
	GetVariantTags(ctx context.Context, projectId string, familyId string, xpos int64, ref string, alt string) ([]models.VariantTag, error)
}

type Liftover interface {
	Convert(ctx context.Context, from constants.GenomeBuild, chrom string, pos int64) (liftover.Coordinate, bool)
}
