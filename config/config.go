package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL    string
	ProxyURL   string
	DBPath     string
	LogLevel   string
	Storage    StorageConfig
	Postgres   PostgresConfig
	Scheduler  SchedulerConfig
	Crawler    CrawlerConfig
	Categories map[string]*CategoryConfig
}

// StorageConfig configures the S3-compatible object store the canonical
// records are written to.
type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: DO Spaces, R2, OCI compat, etc.
	AccessKeyID     string
	SecretAccessKey string
}

type PostgresConfig struct {
	URL string // optional record mirror; empty disables it
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

type CrawlerConfig struct {
	MinPageDelay time.Duration // randomized inter-page sleep lower bound
	MaxPageDelay time.Duration // upper bound
	PagePause    time.Duration // short fixed pause after every page
	Cooldown     time.Duration // pause after a payload extraction failure
}

// CategoryConfig is one property category to crawl, loaded from
// config/categories/*.yaml.
type CategoryConfig struct {
	ID                 string `yaml:"id"`
	Name               string `yaml:"name"`
	PathSlug           string `yaml:"path_slug"` // URL segment, e.g. "dom"
	Enabled            bool   `yaml:"enabled"`
	InvestmentStartURL string `yaml:"investment_start_url"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:  getEnv("TARGET_BASE_URL", "https://www.otodom.pl"),
		ProxyURL: os.Getenv("SCRAPE_PROXY_URL"),
		DBPath:   getEnv("DB_PATH", "crawler.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Storage: StorageConfig{
			Bucket:          os.Getenv("STORAGE_BUCKET"),
			Region:          getEnv("STORAGE_REGION", "eu-central-1"),
			Endpoint:        os.Getenv("STORAGE_ENDPOINT"),
			AccessKeyID:     os.Getenv("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("STORAGE_SECRET_ACCESS_KEY"),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Crawler: CrawlerConfig{
			MinPageDelay: getEnvDuration("PAGE_DELAY_MIN", 5*time.Second),
			MaxPageDelay: getEnvDuration("PAGE_DELAY_MAX", 10*time.Second),
			PagePause:    getEnvDuration("PAGE_PAUSE", 1*time.Second),
			Cooldown:     getEnvDuration("EXTRACT_COOLDOWN", 20*time.Second),
		},
		Categories: make(map[string]*CategoryConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadCategoryConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadCategoryConfigs() error {
	configDir := "config/categories"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(configDir, entry.Name()))
		if err != nil {
			return err
		}

		var cat CategoryConfig
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return err
		}

		c.Categories[cat.ID] = &cat
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
