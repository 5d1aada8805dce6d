package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the immutable process configuration. It is loaded once at startup
// and passed to components at construction; nothing mutates it afterwards.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	VK            VKConfig            `mapstructure:"vk"`
	Detector      DetectorConfig      `mapstructure:"detector"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Storage       StorageConfig       `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	URL             string        `mapstructure:"url"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

type VKConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Version           string        `mapstructure:"version"`
	AccessToken       string        `mapstructure:"access_token"`
	GroupToken        string        `mapstructure:"group_token"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

type DetectorConfig struct {
	TextSimilarityThreshold float64       `mapstructure:"text_similarity_threshold"`
	ImageHammingThreshold   int           `mapstructure:"image_hamming_threshold"`
	MinTextLength           int           `mapstructure:"min_text_length"`
	ImageFetchTimeout       time.Duration `mapstructure:"image_fetch_timeout"`
}

type MonitoringConfig struct {
	IntervalHours       int           `mapstructure:"interval_hours"`
	RunOnStart          bool          `mapstructure:"run_on_start"`
	MaxSourcesPerRun    int           `mapstructure:"max_sources_per_run"`
	MaxPostsPerSource   int           `mapstructure:"max_posts_per_source"`
	MaxCandidateSources int           `mapstructure:"max_candidate_sources"`
	SourcePause         time.Duration `mapstructure:"source_pause"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
}

type NotificationsConfig struct {
	MaxPerRecipientPerDay int `mapstructure:"max_per_recipient_per_day"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/antiplag.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("vk.base_url", "https://api.vk.com/method")
	v.SetDefault("vk.version", "5.131")
	v.SetDefault("vk.requests_per_second", 3.0)
	v.SetDefault("vk.max_retries", 3)
	v.SetDefault("vk.retry_delay", time.Second)
	v.SetDefault("vk.request_timeout", 10*time.Second)
	v.SetDefault("detector.text_similarity_threshold", 0.70)
	v.SetDefault("detector.image_hamming_threshold", 10)
	v.SetDefault("detector.min_text_length", 20)
	v.SetDefault("detector.image_fetch_timeout", 10*time.Second)
	v.SetDefault("monitoring.interval_hours", 3)
	v.SetDefault("monitoring.run_on_start", false)
	v.SetDefault("monitoring.max_sources_per_run", 10)
	v.SetDefault("monitoring.max_posts_per_source", 20)
	v.SetDefault("monitoring.max_candidate_sources", 10)
	v.SetDefault("monitoring.source_pause", time.Second)
	v.SetDefault("monitoring.confidence_threshold", 0.70)
	v.SetDefault("notifications.max_per_recipient_per_day", 10)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "antiplag-evidence")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("vk.access_token", "VK_ACCESS_TOKEN")
	v.BindEnv("vk.group_token", "VK_GROUP_TOKEN")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
