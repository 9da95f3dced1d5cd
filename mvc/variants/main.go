package variants

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"net/http"

	"varsearch/api/contexts"
	"varsearch/api/models"
	genotypeState "varsearch/api/models/constants/genotype-state"
	"varsearch/api/models/constants/population"
	"varsearch/api/models/dtos"
	"varsearch/api/models/dtos/errors"
	variantsService "varsearch/api/services/variants"

	"github.com/labstack/echo"
	"go.uber.org/zap"
)

const mimeNDJSON = "application/x-ndjson"

// SearchFamilyVariants streams the family's matching variants as
// newline-delimited JSON, ending with a trailer line.
func SearchFamilyVariants(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)
	gf, vf, err := bindSearchRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	it, err := gc.VariantService.GetVariants(c.Request().Context(), gc.ProjectId, gc.FamilyId, gf, vf)
	if err != nil {
		return respondError(gc, err)
	}
	return streamVariants(gc, it)
}

func SearchFamilyGeneVariants(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)
	gf, vf, err := bindSearchRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	it, err := gc.VariantService.GetVariantsInGene(c.Request().Context(), gc.ProjectId, gc.FamilyId, gc.GeneId, gf, vf)
	if err != nil {
		return respondError(gc, err)
	}
	return streamVariants(gc, it)
}

func GetSingleVariant(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)

	variant, err := gc.VariantService.GetSingleVariant(c.Request().Context(), gc.ProjectId, gc.FamilyId, gc.Xpos, gc.Ref, gc.Alt)
	if err != nil {
		return respondError(gc, err)
	}
	if variant == nil {
		return c.JSON(http.StatusNotFound, errors.CreateSimpleNotFound(
			fmt.Sprintf("variant %d-%s-%s not found in family %s", gc.Xpos, gc.Ref, gc.Alt, gc.FamilyId)))
	}
	return c.JSON(http.StatusOK, variant)
}

func SearchProjectGeneVariants(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)
	_, vf, err := bindSearchRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	variants, err := gc.VariantService.GetProjectVariantsInGene(c.Request().Context(), gc.ProjectId, gc.GeneId, vf)
	if err != nil {
		return respondError(gc, err)
	}
	return c.JSON(http.StatusOK, dtos.VariantsResponseDto{
		Status:  200,
		Message: "Success",
		Count:   len(variants),
		Results: variants,
	})
}

func GetFamilyStatus(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)

	status, err := gc.VariantService.GetFamilyStatus(c.Request().Context(), gc.ProjectId, gc.FamilyId)
	if err != nil {
		return respondError(gc, err)
	}
	return c.JSON(http.StatusOK, dtos.FamilyStatusResponseDto{
		ProjectId: gc.ProjectId,
		FamilyId:  gc.FamilyId,
		Status:    status,
	})
}

func GetProjectStatus(c echo.Context) error {
	gc := c.(*contexts.VarsearchContext)

	loaded, err := gc.VariantService.ProjectCollectionIsLoaded(c.Request().Context(), gc.ProjectId)
	if err != nil {
		return respondError(gc, err)
	}
	return c.JSON(http.StatusOK, dtos.ProjectStatusResponseDto{ProjectId: gc.ProjectId, Loaded: loaded})
}

// an empty body is an unfiltered search
func bindSearchRequest(c echo.Context) (models.GenotypeFilter, *models.VariantFilter, error) {
	var dto dtos.VariantSearchRequestDto
	if err := json.NewDecoder(c.Request().Body).Decode(&dto); err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("malformed search request: %w", err)
	}
	return dto.ToFilters()
}

func streamVariants(gc *contexts.VarsearchContext, it *variantsService.VariantIterator) error {
	defer it.Close()

	res := gc.Response()
	res.Header().Set(echo.HeaderContentType, mimeNDJSON)
	res.WriteHeader(http.StatusOK)

	ctx := gc.Request().Context()
	enc := json.NewEncoder(res)
	count := 0
	for it.Next(ctx) {
		if err := enc.Encode(it.Variant()); err != nil {
			// client went away
			gc.ZapLogger.Warn("variant stream interrupted", zap.Int("sent", count), zap.Error(err))
			return nil
		}
		count++
		res.Flush()
	}

	trailer := dtos.StreamTrailerDto{Count: count, LimitReached: it.LimitReached()}
	if err := it.Err(); err != nil {
		gc.ZapLogger.Error("variant stream failed", zap.Int("sent", count), zap.Error(err))
		trailer.Error = err.Error()
	}
	return enc.Encode(trailer)
}

func respondError(gc *contexts.VarsearchContext, err error) error {
	switch {
	case goerrors.Is(err, variantsService.ErrDatasetNotFound):
		return gc.JSON(http.StatusNotFound, errors.CreateSimpleNotFound(err.Error()))
	case goerrors.Is(err, variantsService.ErrResultSizeExceeded):
		return gc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(variantsService.ErrResultSizeExceeded.Error()))
	case goerrors.Is(err, genotypeState.ErrUnknownToken),
		goerrors.Is(err, population.ErrUnknownPopulation):
		return gc.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
	}

	gc.ZapLogger.Error("request failed", zap.String("path", gc.Path()), zap.Error(err))
	return gc.JSON(http.StatusInternalServerError, errors.CreateSimpleInternalServerError("something went wrong, please contact the administrator"))
}
