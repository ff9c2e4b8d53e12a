package main

import (
	"fmt"

	"github.com/zombar/seoaudit"
	"github.com/zombar/seoaudit/batch"
	"github.com/zombar/seoaudit/config"
	"github.com/zombar/seoaudit/db"
	"github.com/zombar/seoaudit/keywords"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/metadata"
	"github.com/zombar/seoaudit/metrics"
	"github.com/zombar/seoaudit/ollama"
	"github.com/zombar/seoaudit/render"
)

// auditors holds the scoring pipeline with and without augmentation.
// augmenting is nil when augmentation is disabled.
type auditors struct {
	plain      *seoaudit.Auditor
	augmenting *seoaudit.Auditor
}

// pick returns the augmenting auditor when it exists and was asked for
func (a auditors) pick(augment bool) *seoaudit.Auditor {
	if augment && a.augmenting != nil {
		return a.augmenting
	}
	return a.plain
}

func newAuditors(cfg *config.Config, m *metrics.Metrics, log logger.Logger) auditors {
	generator := metadata.NewGenerator(cfg.Site, keywords.New(), log.With(logger.String("component", "metadata")))
	scoreLog := log.With(logger.String("component", "scorer"))

	a := auditors{
		plain: seoaudit.NewAuditor(generator, seoaudit.NewScorer(nil, scoreLog), log),
	}
	if cfg.Augment.Enabled {
		client := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Ollama.Timeout)
		augmenter := ollama.NewAugmenter(client, cfg.Ollama, cfg.Augment, m, log.With(logger.String("component", "augmenter")))
		a.augmenting = seoaudit.NewAuditor(generator, seoaudit.NewScorer(augmenter, scoreLog), log)
	}
	return a
}

// app is the fully wired batch pipeline
type app struct {
	db       *db.DB
	metrics  *metrics.Metrics
	auditors auditors
	runner   *batch.Runner
}

func newApp(cfg *config.Config, log logger.Logger) (*app, error) {
	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()
	auds := newAuditors(cfg, m, log)
	renderer := render.NewRenderer(render.Config{
		OutputDir: cfg.Batch.OutputDir,
		BaseURL:   cfg.Site.BaseURL,
	}, log.With(logger.String("component", "render")))

	runner := batch.NewRunner(database, database, auds.pick(true), renderer, cfg.Batch, m,
		log.With(logger.String("component", "batch")))

	return &app{
		db:       database,
		metrics:  m,
		auditors: auds,
		runner:   runner,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
