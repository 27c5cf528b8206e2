package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Storefront StorefrontConfig
	Render     RenderConfig
	Report     ReportConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// StorefrontConfig holds settings for the upstream storefront API that
// serves the raw order and supplier-batch streams.
type StorefrontConfig struct {
	BaseURL string
	Token   string // bearer token forwarded to the storefront API
	Timeout time.Duration
}

// RenderConfig holds chart rasterization settings.
type RenderConfig struct {
	Timeout   time.Duration
	RemoteURL string // optional remote Chrome instance
	NoSandbox bool   // required when running as root in containers
	Width     int    // viewport width for chart regions, px
	Height    int    // viewport height for chart regions, px
}

// ReportConfig holds financial report settings.
type ReportConfig struct {
	Title          string
	CurrencyPrefix string // e.g. "Rs" for LKR amounts
	TopProducts    int
	DefaultDays    int    // default window size when no range is given
	Timezone       string // IANA name for calendar-day bucketing
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with BUYNEST_ prefix (e.g., BUYNEST_STOREFRONT_TOKEN)
// 2. config.toml
// 3. Built-in defaults
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
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BUYNEST")
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
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Storefront: StorefrontConfig{
			BaseURL: v.GetString("storefront.base_url"),
			Token:   v.GetString("storefront.token"),
			Timeout: v.GetDuration("storefront.timeout"),
		},
		Render: RenderConfig{
			Timeout:   v.GetDuration("render.timeout"),
			RemoteURL: v.GetString("render.remote_url"),
			NoSandbox: v.GetBool("render.no_sandbox"),
			Width:     v.GetInt("render.width"),
			Height:    v.GetInt("render.height"),
		},
		Report: ReportConfig{
			Title:          v.GetString("report.title"),
			CurrencyPrefix: v.GetString("report.currency_prefix"),
			TopProducts:    v.GetInt("report.top_products"),
			DefaultDays:    v.GetInt("report.default_days"),
			Timezone:       v.GetString("report.timezone"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "buynest-backend"
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
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// PDF export holds the connection while Chrome renders chart regions.
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Storefront.Timeout == 0 {
		cfg.Storefront.Timeout = 10 * time.Second
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Render.Width == 0 {
		cfg.Render.Width = 1200
	}
	if cfg.Render.Height == 0 {
		cfg.Render.Height = 500
	}
	if cfg.Report.Title == "" {
		cfg.Report.Title = "BuyNest Financial Summary"
	}
	if cfg.Report.CurrencyPrefix == "" {
		cfg.Report.CurrencyPrefix = "Rs"
	}
	if cfg.Report.TopProducts == 0 {
		cfg.Report.TopProducts = 10
	}
	if cfg.Report.DefaultDays == 0 {
		cfg.Report.DefaultDays = 14
	}
	if cfg.Report.Timezone == "" {
		cfg.Report.Timezone = "Local"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Report.TopProducts < 0 {
		return fmt.Errorf("report.top_products cannot be negative")
	}
	if c.Report.DefaultDays <= 0 {
		return fmt.Errorf("report.default_days must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("report.timezone is invalid: %w", err)
	}

	if c.App.Env == "production" {
		if c.Storefront.BaseURL == "" {
			return fmt.Errorf("storefront.base_url is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Location resolves the configured report timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Report.Timezone)
}
