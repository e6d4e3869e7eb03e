package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Zoho       ZohoConfig
	Storefront StorefrontConfig
	Storage    StorageConfig
	Scheduler  SchedulerConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds connection settings for the storefront database.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
}

// RedisConfig holds Redis connection settings. Redis backs the shared token
// store and the sync idempotency guard; leave Host empty to run without it.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ZohoConfig holds Zoho Books credentials and business terms.
type ZohoConfig struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	OrganizationID string

	APIBaseURL      string
	AccountsBaseURL string
	TimeoutSeconds  int

	TokenCachePath     string // file token store; ignored when Redis is set
	RetainerPercentage int
	SalespersonName    string
	SendEstimateEmail  bool
}

// StorefrontConfig holds the storefront GraphQL admin API settings used by
// the attribute import.
type StorefrontConfig struct {
	GraphQLURL string
	Email      string
	Password   string
}

// StorageConfig holds object storage settings for product media.
type StorageConfig struct {
	Backend   string // s3 or local
	Bucket    string
	Region    string
	Endpoint  string // custom S3 endpoint (MinIO etc), empty for AWS
	AccessKey string // static credentials; empty uses the SDK default chain
	SecretKey string
	LocalDir  string // root directory for the local backend
}

// SchedulerConfig holds background worker settings.
type SchedulerConfig struct {
	SyncWorkers       int
	SyncQueueSize     int
	JobHistorySize    int
	ReconcileEnabled  bool
	ReconcileInterval time.Duration
}

// Load reads configuration from config.toml and the environment.
// Priority (highest to lowest): ZSYNC_-prefixed environment variables
// (e.g. ZSYNC_ZOHO_CLIENT_SECRET), config.toml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars carry the load.
	}

	v.SetEnvPrefix("ZSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Zoho: ZohoConfig{
			ClientID:           v.GetString("zoho.client_id"),
			ClientSecret:       v.GetString("zoho.client_secret"),
			RefreshToken:       v.GetString("zoho.refresh_token"),
			OrganizationID:     v.GetString("zoho.organization_id"),
			APIBaseURL:         v.GetString("zoho.api_base_url"),
			AccountsBaseURL:    v.GetString("zoho.accounts_base_url"),
			TimeoutSeconds:     v.GetInt("zoho.timeout_seconds"),
			TokenCachePath:     v.GetString("zoho.token_cache_path"),
			RetainerPercentage: v.GetInt("zoho.retainer_percentage"),
			SalespersonName:    v.GetString("zoho.salesperson_name"),
			SendEstimateEmail:  v.GetBool("zoho.send_estimate_email"),
		},
		Storefront: StorefrontConfig{
			GraphQLURL: v.GetString("storefront.graphql_url"),
			Email:      v.GetString("storefront.email"),
			Password:   v.GetString("storefront.password"),
		},
		Storage: StorageConfig{
			Backend:   v.GetString("storage.backend"),
			Bucket:    v.GetString("storage.bucket"),
			Region:    v.GetString("storage.region"),
			Endpoint:  v.GetString("storage.endpoint"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			LocalDir:  v.GetString("storage.local_dir"),
		},
		Scheduler: SchedulerConfig{
			SyncWorkers:       v.GetInt("scheduler.sync_workers"),
			SyncQueueSize:     v.GetInt("scheduler.sync_queue_size"),
			JobHistorySize:    v.GetInt("scheduler.job_history_size"),
			ReconcileEnabled:  v.GetBool("scheduler.reconcile_enabled"),
			ReconcileInterval: v.GetDuration("scheduler.reconcile_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults fills in defaults for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "zoho-sync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "saleor"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "saleor"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}

	if cfg.Zoho.TokenCachePath == "" {
		cfg.Zoho.TokenCachePath = "zoho_token.json"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "media"
	}

	if cfg.Scheduler.SyncWorkers == 0 {
		cfg.Scheduler.SyncWorkers = 4
	}
	if cfg.Scheduler.SyncQueueSize == 0 {
		cfg.Scheduler.SyncQueueSize = 100
	}
	if cfg.Scheduler.JobHistorySize == 0 {
		cfg.Scheduler.JobHistorySize = 200
	}
	if cfg.Scheduler.ReconcileInterval == 0 {
		cfg.Scheduler.ReconcileInterval = 15 * time.Minute
	}
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Storage.Backend != "local" && c.Storage.Backend != "s3" {
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.backend is s3")
	}

	if c.App.Env == "production" {
		if c.Zoho.ClientID == "" || c.Zoho.ClientSecret == "" || c.Zoho.RefreshToken == "" {
			return fmt.Errorf("zoho credentials (client_id, client_secret, refresh_token) are required in production")
		}
		if c.Zoho.OrganizationID == "" {
			return fmt.Errorf("zoho.organization_id is required in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}
	return nil
}

// DSN returns the database connection string with escaped values.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address, or "" when Redis is not configured.
func (r *RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
