package app

import (
	"context"
	"fmt"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/database"
	"talent-match/internal/database/migration"
	dbpostgres "talent-match/internal/database/postgres"
	"talent-match/internal/delivery/http/handler"
	v1 "talent-match/internal/delivery/http/routes/v1"
	"talent-match/internal/domain/matching"
	"talent-match/internal/infrastructure/cache"
	"talent-match/internal/repository"
	"talent-match/internal/usecase"

	"go.uber.org/zap"
)

// Container owns every long-lived dependency of the server and closes them
// in reverse order.
type Container struct {
	Config   config.Config
	Logger   *zap.Logger
	DB       database.DB
	Cache    *cache.Redis
	Taxonomy *usecase.TaxonomySnapshot
	Matching *usecase.Matching
}

func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, DB: db}

	runner := migration.Runner{Dir: cfg.App.MigrationsDir, Logger: logger.Named("migration")}
	if _, err := runner.Run(ctx, db); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	ontology := matching.DefaultOntology()
	if cfg.Matching.OntologyFile != "" {
		ontology, err = matching.LoadOntology(cfg.Matching.OntologyFile)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("load position ontology: %w", err)
		}
		logger.Info("position ontology loaded", zap.String("file", cfg.Matching.OntologyFile))
	}

	c.Cache = cache.NewRedis(ctx, cfg.Redis, logger)

	c.Taxonomy = usecase.NewTaxonomySnapshot(repository.NewPostgresTaxonomyRepository(db), cfg.Matching.TaxonomyTTL, logger)
	if _, err := c.Taxonomy.Current(ctx); err != nil {
		// The snapshot retries on the next request; an empty taxonomy table
		// is not fatal at boot.
		logger.Warn("initial taxonomy load failed", zap.Error(err))
	}

	c.Matching, err = usecase.NewMatchingUsecase(
		c.Taxonomy,
		repository.NewPostgresCandidateRepository(db),
		repository.NewPostgresJobRepository(db),
		c.Cache,
		logger,
		usecase.MatchingOptions{
			Ontology: ontology,
			Weights: matching.Weights{
				Skill:     cfg.Matching.WeightSkill,
				Education: cfg.Matching.WeightEducation,
				Position:  cfg.Matching.WeightPosition,
			},
			Workers:        cfg.Matching.Workers,
			CacheTTL:       cfg.Redis.TTL,
			RequestTimeout: cfg.Matching.RequestTimeout,
		},
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("matching usecase: %w", err)
	}

	return c, nil
}

func (c *Container) Handlers() (*handler.HealthHandler, v1.Handlers) {
	return handler.NewHealthHandler(c.DB), v1.Handlers{
		Match:    handler.NewMatchHandler(c.Matching),
		Taxonomy: handler.NewTaxonomyHandler(c.Taxonomy, c.Cache, c.Logger),
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
