// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the working directory and a few ancestors so
// the binary and tests behave the same.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env overrides for credentials that
// are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.AI.APIKey == "" {
		if val := os.Getenv("AI_API_KEY"); val != "" {
			cfg.AI.APIKey = val
		}
	}

	if cfg.Sources.Adzuna.AppID == "" {
		if val := os.Getenv("ADZUNA_APP_ID"); val != "" {
			cfg.Sources.Adzuna.AppID = val
		}
	}
	if cfg.Sources.Adzuna.AppKey == "" {
		if val := os.Getenv("ADZUNA_APP_KEY"); val != "" {
			cfg.Sources.Adzuna.AppKey = val
		}
	}

	if cfg.Sources.Naukri.APIKey == "" {
		if val := os.Getenv("NAUKRI_API_KEY"); val != "" {
			cfg.Sources.Naukri.APIKey = val
		}
	}

	if cfg.Integrations.Zoho.APIKey == "" {
		if val := os.Getenv("ZOHO_CRM_API_KEY"); val != "" {
			cfg.Integrations.Zoho.APIKey = val
		}
	}
	if cfg.Integrations.Zoho.OAuthToken == "" {
		if val := os.Getenv("ZOHO_CRM_OAUTH_TOKEN"); val != "" {
			cfg.Integrations.Zoho.OAuthToken = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.PostingIndex == "" {
		cfg.Database.Elasticsearch.PostingIndex = "job-postings"
	}

	// Source defaults
	if cfg.Sources.MinPoolSize == 0 {
		cfg.Sources.MinPoolSize = 3
	}
	if cfg.Sources.NavDelayMS == 0 {
		cfg.Sources.NavDelayMS = 2000
	}
	if cfg.Sources.TimeoutMS == 0 {
		cfg.Sources.TimeoutMS = 20000
	}
	if cfg.Sources.Browser.UserAgent == "" {
		cfg.Sources.Browser.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}

	// AI defaults
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-1.5-flash"
	}
	if cfg.AI.MinIntervalMS == 0 {
		cfg.AI.MinIntervalMS = 4000
	}
	if cfg.AI.DailyCeiling == 0 {
		cfg.AI.DailyCeiling = 50
	}
	if cfg.AI.TimeoutMS == 0 {
		cfg.AI.TimeoutMS = 60000
	}

	// Pipeline defaults
	if cfg.Pipeline.PerRunCap == 0 {
		cfg.Pipeline.PerRunCap = 3
	}
	if cfg.Pipeline.OverFetchLimit == 0 {
		cfg.Pipeline.OverFetchLimit = 15
	}

	// Scheduler defaults
	if cfg.Scheduler.DailySpec == "" {
		cfg.Scheduler.DailySpec = "0 9 * * *"
	}
	if cfg.Scheduler.InterUserDelayMS == 0 {
		cfg.Scheduler.InterUserDelayMS = 5000
	}
	if cfg.Scheduler.LockTTLMinutes == 0 {
		cfg.Scheduler.LockTTLMinutes = 60
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields. Missing required
// credentials at startup are fatal; there is no fallback before any
// external identity exists.
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}

	if cfg.Artifacts.Enabled && cfg.Artifacts.Bucket == "" {
		return fmt.Errorf("artifacts.bucket is required when artifacts are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
