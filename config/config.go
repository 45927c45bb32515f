package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gvsturm-ai/rental-hunter/models"
	"github.com/gvsturm-ai/rental-hunter/storage"
)

const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	Criteria    models.SearchCriteria
	Telegram    TelegramConfig
	Scheduler   SchedulerConfig
	Archive     storage.ArchiveConfig
	DBPath      string
	DatabaseURL string // when set, dedup state lives in Postgres instead of SQLite
	HTTPTimeout time.Duration
	ProxyURL    string
	UserAgent   string
	Sites       map[string]*SiteConfig
}

type TelegramConfig struct {
	BotToken string
	ChatIDs  []string
}

type SchedulerConfig struct {
	Cron     string
	Interval time.Duration
}

type SiteConfig struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Endpoints  map[string]string `yaml:"endpoints"`
	RegionID   int               `yaml:"region_id"`
	RegionType int               `yaml:"region_type"`
	MaxResults int               `yaml:"max_results"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Criteria: models.SearchCriteria{
			City:         getEnv("HUNT_CITY", "St Petersburg"),
			State:        getEnv("HUNT_STATE", "FL"),
			LocationSlug: getEnv("HUNT_LOCATION_SLUG", "st-petersburg-fl"),
			MinSqFt:      getEnvInt("MIN_SQFT", 1500),
			MaxPrice:     getEnvInt("MAX_RENT", 7000),
			AllowedTypes: []models.PropertyType{models.PropertyHouse},
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatIDs:  splitList(os.Getenv("TELEGRAM_CHAT_ID")),
		},
		Scheduler: SchedulerConfig{
			Cron:     os.Getenv("SCAN_CRON"),
			Interval: 5 * time.Minute,
		},
		Archive: storage.ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Region:          getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("ARCHIVE_PREFIX", "pages"),
		},
		DBPath:      getEnv("DB_PATH", "listings.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPTimeout: 30 * time.Second,
		ProxyURL:    os.Getenv("HTTP_PROXY_URL"),
		UserAgent:   getEnv("USER_AGENT", DefaultUserAgent),
		Sites:       defaultSites(),
	}

	if interval := os.Getenv("SCAN_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid SCAN_INTERVAL %q: %w", interval, err)
		}
		cfg.Scheduler.Interval = d
	}

	if timeout := os.Getenv("HTTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q: %w", timeout, err)
		}
		cfg.HTTPTimeout = d
	}

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ArchiveEnabled reports whether page archival is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Bucket != ""
}

// RequireTelegram fails when the notification secrets are missing.
// Checked at startup, not per scan.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if len(c.Telegram.ChatIDs) == 0 {
		return fmt.Errorf("TELEGRAM_CHAT_ID is not set")
	}
	return nil
}

// loadSiteConfigs overlays config/sites/*.yaml onto the built-in site
// definitions. The directory is optional.
func (c *Config) loadSiteConfigs() error {
	configDir := "config/sites"
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

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if site.ID == "" {
			return fmt.Errorf("site config %s has no id", path)
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

func defaultSites() map[string]*SiteConfig {
	return map[string]*SiteConfig{
		"realtor": {
			ID:   "realtor",
			Name: "Realtor.com",
			Endpoints: map[string]string{
				"search": "https://www.realtor.com/apartments",
				"detail": "https://www.realtor.com/realestateandhomes-detail",
			},
			MaxResults: 100,
		},
		"zillow": {
			ID:   "zillow",
			Name: "Zillow",
			Endpoints: map[string]string{
				"search": "https://www.zillow.com",
			},
			MaxResults: 100,
		},
		"redfin": {
			ID:   "redfin",
			Name: "Redfin",
			Endpoints: map[string]string{
				"gis":    "https://www.redfin.com/stingray/api/gis",
				"search": "https://www.redfin.com/city/17193/FL/St-Petersburg/apartments-for-rent/filter/property-type=house,min-sqft=1500,max-price=7000",
			},
			RegionID:   17193, // St. Petersburg, FL
			RegionType: 6,     // city
			MaxResults: 100,
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
