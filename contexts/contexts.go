package contexts

import (
	"context"

	"varsearch/api/models"
	variantsService "varsearch/api/services/variants"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

type (
	GeneSearcher interface {
		GetGenesBySymbolWildcard(ctx context.Context, term string, chrom string, size int) ([]models.GeneSummary, error)
	}

	GeneSummaries interface {
		GetGeneSummary(ctx context.Context, geneId string) (*models.GeneSummary, error)
	}

	// "Helper" Context to pass into routes that need
	//  the search services and other variables
	VarsearchContext struct {
		echo.Context
		Config         *models.Config
		ZapLogger      *zap.Logger
		VariantService *variantsService.VariantService
		GeneSearcher   GeneSearcher
		GeneSummaries  GeneSummaries

		// request parameters validated by middleware
		ProjectId string
		FamilyId  string
		GeneId    string
		Xpos      int64
		Ref       string
		Alt       string
	}
)
