// Package config loads and validates site configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Site      SiteConfig      `mapstructure:"site"`
	Auth      AuthConfig      `mapstructure:"auth"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	DB        DBConfig        `mapstructure:"db"`
	Sanity    SanityConfig    `mapstructure:"sanity"`
	ChatKit   ChatKitConfig   `mapstructure:"chatkit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Visitor   VisitorConfig   `mapstructure:"visitor"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// SiteConfig describes the public website.
type SiteConfig struct {
	Name           string `mapstructure:"name"`
	BaseURL        string `mapstructure:"base_url"`
	GuidesPageSize int    `mapstructure:"guides_page_size"`
	IndexThreshold int    `mapstructure:"index_threshold"`
}

// AuthConfig guards the admin routes.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures outbound HTTP clients.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// SupabaseConfig points at the PostgREST API of the Supabase project.
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
	Schema     string `mapstructure:"schema"`
}

// DBConfig controls direct Postgres access. When DSN is set it takes
// precedence over the Supabase REST API.
type DBConfig struct {
	DSN                    string `mapstructure:"dsn"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// SanityConfig addresses the Sanity content lake.
type SanityConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Dataset    string `mapstructure:"dataset"`
	APIVersion string `mapstructure:"api_version"`
	Token      string `mapstructure:"token"`
	UseCDN     bool   `mapstructure:"use_cdn"`
}

// ChatKitConfig configures the hosted AI agent session API.
type ChatKitConfig struct {
	APIKey     string `mapstructure:"api_key"`
	WorkflowID string `mapstructure:"workflow_id"`
	BaseURL    string `mapstructure:"base_url"`
	ScriptURL  string `mapstructure:"script_url"`
}

// CacheConfig selects the content cache backend.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// StorageConfig sets the blob store used for sitemap exports.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// VisitorConfig controls anonymous visitor identification.
type VisitorConfig struct {
	CookieName    string `mapstructure:"cookie_name"`
	CookieMaxDays int    `mapstructure:"cookie_max_days"`
	CookieSecure  bool   `mapstructure:"cookie_secure"`
	IPSalt        string `mapstructure:"ip_salt"`
}

// RateLimitConfig bounds per-visitor request rates on costly endpoints.
type RateLimitConfig struct {
	ChatSessionsPerMinute float64 `mapstructure:"chat_sessions_per_minute"`
	ChatSessionBurst      int     `mapstructure:"chat_session_burst"`
	TrackPerSecond        float64 `mapstructure:"track_per_second"`
	TrackBurst            int     `mapstructure:"track_burst"`
}

// TelemetryConfig controls tracing export.
type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Version     string  `mapstructure:"version"`
	ProjectID   string  `mapstructure:"project_id"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VISITMAKKAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Cloud Run injects PORT.
	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("site.name", "Visit Makkah")
	v.SetDefault("site.base_url", "http://localhost:8080")
	v.SetDefault("site.guides_page_size", 24)
	v.SetDefault("site.index_threshold", 50)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "visitmakkah/1.0 (+https://visitmakkah.com)")
	v.SetDefault("supabase.schema", "public")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("sanity.dataset", "production")
	v.SetDefault("sanity.api_version", "2024-01-01")
	v.SetDefault("sanity.use_cdn", true)
	v.SetDefault("chatkit.base_url", "https://api.openai.com")
	v.SetDefault("chatkit.script_url", "https://cdn.platform.openai.com/deployments/chatkit/chatkit.js")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.key_prefix", "visitmakkah:")
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_dir", "public")
	v.SetDefault("visitor.cookie_name", "vm_vid")
	v.SetDefault("visitor.cookie_max_days", 365)
	v.SetDefault("visitor.cookie_secure", true)
	v.SetDefault("ratelimit.chat_sessions_per_minute", 6)
	v.SetDefault("ratelimit.chat_session_burst", 3)
	v.SetDefault("ratelimit.track_per_second", 2)
	v.SetDefault("ratelimit.track_burst", 10)
	v.SetDefault("logging.development", false)
	v.SetDefault("telemetry.service_name", "visitmakkah")
	v.SetDefault("telemetry.version", "dev")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute http(s) URL")
	}
	if c.Site.GuidesPageSize <= 0 {
		return fmt.Errorf("site.guides_page_size must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, none")
	}
	switch c.Storage.Backend {
	case "memory":
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set when storage.backend is local")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend must be one of memory, local, gcs")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	if c.Supabase.URL != "" && c.Supabase.ServiceKey == "" {
		return fmt.Errorf("supabase.service_key must be set when supabase.url is set")
	}
	if c.Visitor.CookieName == "" {
		return fmt.Errorf("visitor.cookie_name must be set")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1]")
	}
	return nil
}

// UpstreamTimeout converts the outbound HTTP timeout into a duration.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout is the per-request handler budget.
func (c Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the content cache entry lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// UsesPostgres reports whether repositories should talk to Postgres directly.
func (c Config) UsesPostgres() bool { return c.DB.DSN != "" }

// UsesSupabaseREST reports whether repositories should use the PostgREST API.
func (c Config) UsesSupabaseREST() bool { return c.DB.DSN == "" && c.Supabase.URL != "" }
