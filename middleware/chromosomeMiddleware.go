package middleware

import (
	"fmt"
	"net/http"

	"varsearch/api/models/constants/chromosome"
	"varsearch/api/models/dtos/errors"

	"github.com/labstack/echo"
)

/*
Echo middleware to ensure a `chromosome` HTTP query parameter is valid if provided
*/
func ValidateOptionalChromosomeAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		chromQP := c.QueryParam("chromosome")
		if len(chromQP) > 0 && !chromosome.IsValidHumanChromosome(chromQP) {
			return c.JSON(http.StatusBadRequest, errors.CreateSimpleBadRequest(
				fmt.Sprintf("invalid chromosome %s - please provide one of 1-22, X, Y or M", chromQP)))
		}

		return next(c)
	}
}
