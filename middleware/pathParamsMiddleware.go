package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"varsearch/api/contexts"
	"varsearch/api/models/dtos/errors"

	"github.com/labstack/echo"
)

// project, family and individual ids as the curation app issues them
var validId = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

var validGeneId = regexp.MustCompile(`^ENSG\d{11}$`)

/*
Echo middleware to ensure a valid `project` path parameter was provided
*/
func MandateProjectPathParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		project := c.Param("project")
		if !validId.MatchString(project) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid project %q", project)))
		}

		// forward a validated value down the pipeline
		gc := c.(*contexts.VarsearchContext)
		gc.ProjectId = project

		return next(gc)
	}
}

func MandateFamilyPathParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		family := c.Param("family")
		if !validId.MatchString(family) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid family %q", family)))
		}

		gc := c.(*contexts.VarsearchContext)
		gc.FamilyId = family

		return next(gc)
	}
}

/*
Echo middleware to ensure the `gene` path parameter is an Ensembl gene id
*/
func MandateGenePathParam(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gene := c.Param("gene")
		if !validGeneId.MatchString(gene) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid gene %s - please provide an Ensembl gene id (e.g. ENSG00000139618)", gene)))
		}

		gc := c.(*contexts.VarsearchContext)
		gc.GeneId = gene

		return next(gc)
	}
}
