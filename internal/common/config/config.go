// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Sources       SourcesConfig      `mapstructure:"sources"`
	AI            AIConfig           `mapstructure:"ai"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Artifacts     ArtifactsConfig    `mapstructure:"artifacts"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Integrations  IntegrationConfig  `mapstructure:"integrations"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	PostingIndex string   `mapstructure:"posting_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Discovery sources ---

// SourcesConfig configures the tiered job-source aggregator. A tier-1
// source with missing credentials silently yields zero results.
type SourcesConfig struct {
	MinPoolSize  int `mapstructure:"min_pool_size"`  // below this, tier 2 kicks in
	NavDelayMS   int `mapstructure:"nav_delay_ms"`   // politeness delay between navigations
	TimeoutMS    int `mapstructure:"timeout_ms"`     // per external call

	Adzuna struct {
		AppID   string `mapstructure:"app_id"`
		AppKey  string `mapstructure:"app_key"`
		Country string `mapstructure:"country"`
	} `mapstructure:"adzuna"`

	Naukri struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"naukri"`

	Remotive struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"remotive"`

	Browser struct {
		Enabled   bool   `mapstructure:"enabled"`
		TargetURL string `mapstructure:"target_url"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"browser"`
}

// --- AI gateway ---
type AIConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	MinIntervalMS int    `mapstructure:"min_interval_ms"`
	DailyCeiling  int    `mapstructure:"daily_ceiling"`
	TimeoutMS     int    `mapstructure:"timeout_ms"`
}

// --- Pipeline / scheduler ---
type PipelineConfig struct {
	PerRunCap      int `mapstructure:"per_run_cap"`      // batch budget per user
	OverFetchLimit int `mapstructure:"over_fetch_limit"` // aggregator limit per search
}

type SchedulerConfig struct {
	DailySpec        string `mapstructure:"daily_spec"`        // cron spec, e.g. "0 9 * * *"
	AcceleratedSpec  string `mapstructure:"accelerated_spec"`  // optional testing spec
	InterUserDelayMS int    `mapstructure:"inter_user_delay_ms"`
	LockTTLMinutes   int    `mapstructure:"lock_ttl_minutes"`
}

// --- Artifact store ---
type ArtifactsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bucket  string `mapstructure:"bucket"`
	Region  string `mapstructure:"region"`
	Prefix  string `mapstructure:"prefix"`
}

// NotificationConfig holds settings for the notifier.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// IntegrationConfig holds settings for optional external integrations.
type IntegrationConfig struct {
	Zoho struct {
		Enabled    bool   `mapstructure:"enabled"`
		APIKey     string `mapstructure:"api_key"`
		OAuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
