package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"varsearch/api/contexts"
	"varsearch/api/models/constants/chromosome"
	"varsearch/api/models/dtos/errors"

	"github.com/labstack/echo"
)

var validAllele = regexp.MustCompile(`^[ACGTN]+$|^\*$`)

/*
Echo middleware to ensure the `xpos`, `ref` and `alt` path parameters
describe a variant
*/
func MandateVariantCoordinatesPathParams(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		xpos, err := strconv.ParseInt(c.Param("xpos"), 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid xpos %s", c.Param("xpos"))))
		}
		if _, _, err := chromosome.GetChrPos(xpos); err != nil {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(err.Error()))
		}

		ref := strings.ToUpper(c.Param("ref"))
		alt := strings.ToUpper(c.Param("alt"))
		if !validAllele.MatchString(ref) || !validAllele.MatchString(alt) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid alleles %s/%s", c.Param("ref"), c.Param("alt"))))
		}

		gc := c.(*contexts.VarsearchContext)
		gc.Xpos = xpos
		gc.Ref = ref
		gc.Alt = alt

		return next(gc)
	}
}
