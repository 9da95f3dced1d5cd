package main

import (
	"varsearch/api/contexts"
	vam "varsearch/api/middleware"
	"varsearch/api/models"
	"varsearch/api/mvc/genes"
	serviceInfo "varsearch/api/mvc/service-info"
	"varsearch/api/mvc/variants"
	variantsService "varsearch/api/services/variants"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type serverDependencies struct {
	variants      *variantsService.VariantService
	geneSearcher  contexts.GeneSearcher
	geneSummaries contexts.GeneSummaries
}

func newServer(cfg *models.Config, logger *zap.Logger, deps serverDependencies) *echo.Echo {
	// Instantiate Server
	e := echo.New()
	e.HideBanner = true

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	// -- Override handlers with the custom context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &contexts.VarsearchContext{
				Context:        c,
				Config:         cfg,
				ZapLogger:      logger,
				VariantService: deps.variants,
				GeneSearcher:   deps.geneSearcher,
				GeneSummaries:  deps.geneSummaries,
			}
			return h(cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfo.GetWelcome)

	// -- Service Info
	e.GET("/service-info", serviceInfo.GetServiceInfo)

	// -- Metrics
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// -- Variants
	e.POST("/projects/:project/families/:family/variants/search", variants.SearchFamilyVariants,
		// middleware
		vam.MandateProjectPathParam,
		vam.MandateFamilyPathParam)
	e.POST("/projects/:project/families/:family/genes/:gene/variants/search", variants.SearchFamilyGeneVariants,
		// middleware
		vam.MandateProjectPathParam,
		vam.MandateFamilyPathParam,
		vam.MandateGenePathParam)
	e.GET("/projects/:project/families/:family/variants/:xpos/:ref/:alt", variants.GetSingleVariant,
		// middleware
		vam.MandateProjectPathParam,
		vam.MandateFamilyPathParam,
		vam.MandateVariantCoordinatesPathParams)
	e.POST("/projects/:project/genes/:gene/variants/search", variants.SearchProjectGeneVariants,
		// middleware
		vam.MandateProjectPathParam,
		vam.MandateGenePathParam)

	// -- Loading status
	e.GET("/projects/:project/status", variants.GetProjectStatus,
		vam.MandateProjectPathParam)
	e.GET("/projects/:project/families/:family/status", variants.GetFamilyStatus,
		vam.MandateProjectPathParam,
		vam.MandateFamilyPathParam)

	// -- Genes
	e.GET("/genes/search", genes.GenesGetBySymbolWildcard,
		// middleware
		vam.ValidateOptionalChromosomeAttribute)
	e.GET("/genes/:gene", genes.GetGeneSummary,
		vam.MandateGenePathParam)

	return e
}
