// cmd/insights/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/autopo-insights/internal/cache"
	"github.com/andresuchdata/autopo-insights/internal/catalog"
	"github.com/andresuchdata/autopo-insights/internal/config"
	"github.com/andresuchdata/autopo-insights/internal/insights"
	"github.com/andresuchdata/autopo-insights/internal/metrics"
	"github.com/andresuchdata/autopo-insights/internal/service"
	"github.com/andresuchdata/autopo-insights/pkg/logger"
)

type stateKey struct{}

// appState is built in Before and torn down in After.
type appState struct {
	cfg      *config.Config
	svc      *service.InsightsService
	cache    cache.ReportCache
	db       *sqlx.DB
	registry *prometheus.Registry
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("insights failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "insights",
		Usage: "Forecasts, pricing, anomalies and lookups over an inventory snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "CSV or JSON snapshot file",
				EnvVars: []string{"CATALOG_PATH"},
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "Postgres connection string; used when --catalog is empty",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "table",
				Usage:   "Inventory table read from Postgres",
				EnvVars: []string{"CATALOG_TABLE"},
			},
			&cli.StringFlag{
				Name:    "rules",
				Usage:   "YAML rule pack overriding the built-in tables",
				EnvVars: []string{"INSIGHTS_RULES_PATH"},
			},
			&cli.Int64Flag{
				Name:    "seed",
				Usage:   "Seed for the adjustment estimator",
				EnvVars: []string{"INSIGHTS_SEED"},
			},
			&cli.StringFlag{
				Name:    "estimator",
				Usage:   "Adjustment estimator: seeded or midpoint",
				EnvVars: []string{"INSIGHTS_ESTIMATOR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "pushgateway",
				Usage:   "Prometheus Pushgateway URL; metrics are pushed after the command",
				EnvVars: []string{"PUSHGATEWAY_URL"},
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent JSON output",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{Name: "report", Usage: "Forecasts, pricing and anomalies for the whole snapshot", Action: runReport},
			{Name: "forecast", Usage: "Demand forecast per item", Action: runForecast},
			{Name: "pricing", Usage: "Stock-driven price suggestions", Action: runPricing},
			{Name: "anomalies", Usage: "Stock and pricing anomaly findings", Action: runAnomalies},
			{Name: "search", Usage: "Search the snapshot", ArgsUsage: "QUERY", Action: runSearch},
			{Name: "recommend", Usage: "Same-category recommendations", ArgsUsage: "ITEM_ID", Action: runRecommend},
			{
				Name:      "classify",
				Usage:     "Infer a category from a name and description",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Item description"},
				},
				Action: runClassify,
			},
			{Name: "intent", Usage: "Interpret a typed or spoken command", ArgsUsage: "TRANSCRIPT", Action: runIntent},
			{Name: "invalidate-cache", Usage: "Drop every cached report", Action: runInvalidateCache},
		},
	}
}

func setup(c *cli.Context) error {
	cfg := *config.Load()
	applyFlags(c, &cfg)

	logger.SetLevel(cfg.Log.Level)
	logger.SetJSON(cfg.Log.JSON)

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	log := logger.Log
	opts.Logger = &log

	engine, err := insights.NewEngine(opts)
	if err != nil {
		return err
	}

	state := &appState{cfg: &cfg, registry: prometheus.NewRegistry()}
	if err := metrics.Register(state.registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	source, err := openSource(c.Context, &cfg, state)
	if err != nil {
		return err
	}

	state.cache, err = cache.NewReportCache(c.Context, cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("report cache unavailable, continuing without it")
		state.cache = cache.NewNoopReportCache()
	}

	state.svc = service.NewInsightsService(source, engine, state.cache, service.Settings{
		Fingerprint: fmt.Sprintf("%+v|%+v", cfg.Insights, *opts.Rules),
		Timeout:     cfg.Timeout(),
		Logger:      &log,
	})

	c.Context = context.WithValue(c.Context, stateKey{}, state)
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("catalog") {
		cfg.Catalog.Path = c.String("catalog")
	}
	if c.IsSet("db-url") {
		cfg.Catalog.DatabaseURL = c.String("db-url")
	}
	if c.IsSet("table") {
		cfg.Catalog.Table = c.String("table")
	}
	if c.IsSet("rules") {
		cfg.Insights.RulesPath = c.String("rules")
	}
	if c.IsSet("seed") {
		cfg.Insights.Seed = c.Int64("seed")
	}
	if c.IsSet("estimator") {
		cfg.Insights.Estimator = c.String("estimator")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("pushgateway") {
		cfg.Metrics.PushgatewayURL = c.String("pushgateway")
	}
}

func openSource(ctx context.Context, cfg *config.Config, state *appState) (catalog.Source, error) {
	switch {
	case cfg.Catalog.Path != "":
		return catalog.NewFileSource(cfg.Catalog.Path), nil
	case cfg.Catalog.DatabaseURL != "":
		if err := catalog.ValidateTable(cfg.Catalog.Table); err != nil {
			return nil, err
		}
		db, err := catalog.OpenPostgres(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, err
		}
		source, err := catalog.NewPostgresSource(db, cfg.Catalog.Table)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		state.db = db
		return source, nil
	default:
		return nil, catalog.ErrNoSource
	}
}

func teardown(c *cli.Context) error {
	state, ok := c.Context.Value(stateKey{}).(*appState)
	if !ok || state == nil {
		return nil
	}

	if state.db != nil {
		if err := state.db.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("close catalog database")
		}
	}

	if url := state.cfg.Metrics.PushgatewayURL; url != "" {
		err := push.New(url, state.cfg.Metrics.JobName).
			Gatherer(state.registry).
			PushContext(c.Context)
		if err != nil {
			return fmt.Errorf("push metrics: %w", err)
		}
		logger.Log.Debug().Str("url", url).Msg("metrics pushed")
	}
	return nil
}
