package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath      string
	DatabaseURL string // when set, Postgres is used instead of SQLite
	LogPath     string
	RefreshCron string
	ProxyURL    string
	Fetcher     FetcherConfig
	Archive     ArchiveConfig
}

// FetcherConfig selects and tunes the fetch backend. Defaults come from the
// environment; config/fetcher.yaml overrides them when present.
type FetcherConfig struct {
	Backend       string `yaml:"backend"` // api or browser
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"api_key"`
	Currency      string `yaml:"currency"`
	Locale        string `yaml:"locale"`
	StateSelector string `yaml:"state_selector"`
	TimeoutMS     int    `yaml:"timeout_ms"`
	Headless      *bool  `yaml:"headless"`
}

// ArchiveConfig controls where raw payload dumps go. Dir alone means local
// files; a bucket switches to S3-compatible storage.
type ArchiveConfig struct {
	Dir             string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

const fetcherConfigPath = "config/fetcher.yaml"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "listings.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogPath:     getEnv("LOG_PATH", "bnbtrack.log"),
		RefreshCron: os.Getenv("REFRESH_CRON"),
		ProxyURL:    os.Getenv("PROXY_URL"),
		Fetcher: FetcherConfig{
			Backend:       getEnv("FETCHER", "api"),
			Endpoint:      os.Getenv("FETCHER_ENDPOINT"),
			APIKey:        os.Getenv("FETCHER_API_KEY"),
			Currency:      getEnv("CURRENCY", "SGD"),
			Locale:        getEnv("LOCALE", "en"),
			StateSelector: getEnv("STATE_SELECTOR", "script#data-deferred-state-0"),
			TimeoutMS:     getEnvInt("FETCH_TIMEOUT_MS", 30000),
		},
		Archive: ArchiveConfig{
			Dir:             os.Getenv("ARCHIVE_DIR"),
			Bucket:          os.Getenv("ARCHIVE_S3_BUCKET"),
			Region:          getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("ARCHIVE_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_S3_SECRET_ACCESS_KEY"),
		},
	}

	if err := cfg.loadFetcherConfig(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFetcherConfig overlays config/fetcher.yaml onto the env defaults.
// A missing file is fine.
func (c *Config) loadFetcherConfig() error {
	data, err := os.ReadFile(fetcherConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file FetcherConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Backend != "" {
		c.Fetcher.Backend = file.Backend
	}
	if file.Endpoint != "" {
		c.Fetcher.Endpoint = file.Endpoint
	}
	if file.APIKey != "" {
		c.Fetcher.APIKey = file.APIKey
	}
	if file.Currency != "" {
		c.Fetcher.Currency = file.Currency
	}
	if file.Locale != "" {
		c.Fetcher.Locale = file.Locale
	}
	if file.StateSelector != "" {
		c.Fetcher.StateSelector = file.StateSelector
	}
	if file.TimeoutMS > 0 {
		c.Fetcher.TimeoutMS = file.TimeoutMS
	}
	if file.Headless != nil {
		c.Fetcher.Headless = file.Headless
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
