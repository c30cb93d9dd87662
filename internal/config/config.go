// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/autopo-insights/internal/insights"
)

type Config struct {
	Log      LogConfig
	Insights InsightsConfig
	Catalog  CatalogConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
}

type LogConfig struct {
	Level string
	JSON  bool
}

type InsightsConfig struct {
	Estimator                 string // "seeded" or "midpoint"
	Seed                      int64
	Workers                   int
	TimeoutSeconds            int
	RulesPath                 string
	ForecastHorizonDays       int
	ForecastPeriodDays        int
	SmoothingFraction         float64
	RecommendTopN             int
	SearchMinCorrectionLength int
	CurrencyDecimals          int
}

type CatalogConfig struct {
	Path        string
	DatabaseURL string
	Table       string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

type MetricsConfig struct {
	PushgatewayURL string
	JobName        string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the process environment once and returns the shared config.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper builds a config from v after applying defaults and environment binding.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  v.GetBool("LOG_JSON"),
		},
		Insights: InsightsConfig{
			Estimator:                 strings.ToLower(v.GetString("INSIGHTS_ESTIMATOR")),
			Seed:                      v.GetInt64("INSIGHTS_SEED"),
			Workers:                   v.GetInt("INSIGHTS_WORKERS"),
			TimeoutSeconds:            v.GetInt("INSIGHTS_TIMEOUT_SECONDS"),
			RulesPath:                 v.GetString("INSIGHTS_RULES_PATH"),
			ForecastHorizonDays:       v.GetInt("FORECAST_HORIZON_DAYS"),
			ForecastPeriodDays:        v.GetInt("FORECAST_PERIOD_DAYS"),
			SmoothingFraction:         v.GetFloat64("FORECAST_SMOOTHING_FRACTION"),
			RecommendTopN:             v.GetInt("RECOMMEND_TOP_N"),
			SearchMinCorrectionLength: v.GetInt("SEARCH_MIN_CORRECTION_LENGTH"),
			CurrencyDecimals:          v.GetInt("CURRENCY_DECIMALS"),
		},
		Catalog: CatalogConfig{
			Path:        v.GetString("CATALOG_PATH"),
			DatabaseURL: v.GetString("DATABASE_URL"),
			Table:       v.GetString("CATALOG_TABLE"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			ReportTTLSeconds: v.GetInt("CACHE_REPORT_TTL_SECONDS"),
		},
		Metrics: MetricsConfig{
			PushgatewayURL: v.GetString("PUSHGATEWAY_URL"),
			JobName:        v.GetString("PUSHGATEWAY_JOB"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("INSIGHTS_ESTIMATOR", "seeded")
	v.SetDefault("INSIGHTS_SEED", 1)
	v.SetDefault("INSIGHTS_WORKERS", 0)
	v.SetDefault("INSIGHTS_TIMEOUT_SECONDS", 30)
	v.SetDefault("INSIGHTS_RULES_PATH", "")
	v.SetDefault("FORECAST_HORIZON_DAYS", 60)
	v.SetDefault("FORECAST_PERIOD_DAYS", 30)
	v.SetDefault("FORECAST_SMOOTHING_FRACTION", 0.3)
	v.SetDefault("RECOMMEND_TOP_N", 3)
	v.SetDefault("SEARCH_MIN_CORRECTION_LENGTH", 3)
	v.SetDefault("CURRENCY_DECIMALS", 2)
	v.SetDefault("CATALOG_PATH", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("CATALOG_TABLE", "inventory_items")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_REPORT_TTL_SECONDS", 300)
	v.SetDefault("PUSHGATEWAY_URL", "")
	v.SetDefault("PUSHGATEWAY_JOB", "inventory_insights")
}

// Timeout bounds a single report evaluation; zero means no deadline.
func (c *Config) Timeout() time.Duration {
	if c.Insights.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Insights.TimeoutSeconds) * time.Second
}

// ReportTTL is how long a cached report stays valid.
func (c *Config) ReportTTL() time.Duration {
	return time.Duration(c.Cache.ReportTTLSeconds) * time.Second
}

// EngineOptions maps the configuration onto engine options, loading the rule
// pack from RulesPath when one is set.
func (c *Config) EngineOptions() (insights.Options, error) {
	opts := insights.DefaultOptions()

	rules, err := insights.LoadRulePack(c.Insights.RulesPath)
	if err != nil {
		return insights.Options{}, err
	}
	opts.Rules = &rules

	switch c.Insights.Estimator {
	case "", "seeded":
		opts.Estimator = insights.NewSeededEstimator(c.Insights.Seed)
	case "midpoint":
		opts.Estimator = insights.MidpointEstimator()
	default:
		return insights.Options{}, fmt.Errorf("unknown estimator %q", c.Insights.Estimator)
	}

	if c.Insights.Workers > 0 {
		opts.Workers = c.Insights.Workers
	}
	if c.Insights.ForecastHorizonDays > 0 {
		opts.Forecast.HorizonDays = c.Insights.ForecastHorizonDays
	}
	if c.Insights.ForecastPeriodDays > 0 {
		opts.Forecast.PeriodDays = c.Insights.ForecastPeriodDays
	}
	if f := c.Insights.SmoothingFraction; f > 0 && f <= 1 {
		opts.Forecast.SmoothingFraction = f
	}
	if c.Insights.RecommendTopN > 0 {
		opts.Recommend.TopN = c.Insights.RecommendTopN
	}
	if c.Insights.SearchMinCorrectionLength > 0 {
		opts.Search.MinCorrectionLength = c.Insights.SearchMinCorrectionLength
	}
	if c.Insights.CurrencyDecimals >= 0 {
		opts.Pricing.CurrencyDecimals = c.Insights.CurrencyDecimals
	}

	return opts, nil
}
