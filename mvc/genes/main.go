package genes

import (
	"fmt"
	"net/http"
	"strconv"

	"varsearch/api/contexts"
	"varsearch/api/models/constants/chromosome"
	"varsearch/api/models/dtos"
	"varsearch/api/models/dtos/errors"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

const (
	defaultSize = 25
	maxSize     = 1000
)

func GenesGetBySymbolWildcard(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)

	// Name search term
	term := c.QueryParam("term")

	// Chromosome search term, already validated
	chrom := ""
	if chromQP := c.QueryParam("chromosome"); len(chromQP) > 0 {
		chrom = chromosome.Normalize(chromQP)
	}

	// Size
	size := defaultSize
	if sizeQP := c.QueryParam("size"); len(sizeQP) > 0 {
		if parsed, err := strconv.Atoi(sizeQP); err == nil && parsed > 0 {
			size = parsed
		}
	}
	if size > maxSize {
		size = maxSize
	}

	gc.ZapLogger.Debug("gene wildcard search",
		zap.String("term", term), zap.String("chromosome", chrom), zap.Int("size", size))

	genes, err := gc.GeneSearcher.GetGenesBySymbolWildcard(c.Request().Context(), term, chrom, size)
	if err != nil {
		gc.ZapLogger.Error("gene search failed", zap.String("term", term), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errors.CreateSimpleInternalServerError("gene search failed"))
	}

	return c.JSON(http.StatusOK, dtos.GenesResponseDto{
		Term:    term,
		Count:   len(genes),
		Results: genes,
		Status:  200,
		Message: "Success",
	})
}

func GetGeneSummary(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)

	gene, err := gc.GeneSummaries.GetGeneSummary(c.Request().Context(), gc.GeneId)
	if err != nil {
		gc.ZapLogger.Error("gene lookup failed", zap.String("gene", gc.GeneId), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errors.CreateSimpleInternalServerError("gene lookup failed"))
	}
	if gene == nil {
		return c.JSON(http.StatusNotFound, errors.CreateSimpleNotFound(fmt.Sprintf("gene %s not found", gc.GeneId)))
	}

	return c.JSON(http.StatusOK, gene)
}
