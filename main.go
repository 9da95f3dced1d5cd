package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"varsearch/api/metrics"
	"varsearch/api/repositories/elasticsearch"
	"varsearch/api/repositories/postgres"
	"varsearch/api/services/liftover"
	"varsearch/api/services/reference"
	"varsearch/api/services/sanitation"
	variantsService "varsearch/api/services/variants"
	"varsearch/api/utils"

	"go.uber.org/zap"
)

func main() {
	// Gather configuration: defaults, environment, then the optional file
	cfg, err := utils.LoadConfig(os.Getenv("VARSEARCH_CONFIG_FILE"))
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	logger, err := utils.NewLogger(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("using configuration",
		zap.Bool("debug", cfg.Debug),
		zap.String("elasticsearch_url", cfg.Elasticsearch.Url),
		zap.String("elasticsearch_username", cfg.Elasticsearch.Username),
		zap.String("genes_index", cfg.Elasticsearch.GenesIndex),
		zap.Int("results_limit", cfg.Search.ResultsLimit),
		zap.Int("scroll_batch_size", cfg.Search.ScrollBatchSize),
		zap.Int("disease_gene_error_tolerance", cfg.Search.DiseaseGeneErrorTolerance),
		zap.Bool("liftover_enabled", cfg.Liftover.Enabled),
		zap.String("reference_cache_purge_interval", cfg.Reference.CachePurgeInterval),
		zap.String("port", cfg.Api.Port))

	metrics.Register()

	// Service Connections:
	// -- Elasticsearch
	es, err := utils.CreateEsConnection(cfg, nil, logger)
	if err != nil {
		logger.Fatal("failed to create elasticsearch client", zap.Error(err))
	}
	// -- Postgres
	pg, err := postgres.NewRepository(context.Background(), cfg.Postgres.Dsn, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pg.Close()

	// Service Singletons
	geneRepo := elasticsearch.NewGeneRepository(es, cfg, logger)
	rs, err := reference.NewReferenceService(cfg, geneRepo, logger)
	if err != nil {
		logger.Fatal("failed to create reference service", zap.Error(err))
	}
	defer rs.Close()

	ss, err := sanitation.NewSanitationService(cfg, logger, rs)
	if err != nil {
		logger.Fatal("failed to create sanitation service", zap.Error(err))
	}
	if err := ss.Init(); err != nil {
		logger.Fatal("failed to start sanitation service", zap.Error(err))
	}
	defer ss.Stop()

	vs := variantsService.NewVariantService(cfg, variantsService.Dependencies{
		Searcher:     elasticsearch.NewVariantRepository(es, cfg, logger),
		Datasets:     pg,
		Individuals:  pg,
		Liftover:     liftover.NewService(cfg, logger),
		Genes:        rs,
		DiseaseGenes: pg,
		NotesTags:    pg,
	}, logger)

	e := newServer(cfg, logger, serverDependencies{
		variants:      vs,
		geneSearcher:  geneRepo,
		geneSummaries: rs,
	})

	// Run
	go func() {
		if err := e.Start(":" + cfg.Api.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
