package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the lead dashboard.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Clients   ClientsConfig   `yaml:"clients"`
	Auth      AuthConfig      `yaml:"auth"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP, gRPC health and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	GRPCAddress     string        `yaml:"grpcAddress"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups integrations with upstream services.
type ClientsConfig struct {
	Backend BackendClientConfig `yaml:"backend"`
}

// BackendClientConfig configures access to the lead backend API. BaseURL is shared by
// every call.
type BackendClientConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig drives the route guard.
type AuthConfig struct {
	CookieName     string        `yaml:"cookieName"`
	LoginPath      string        `yaml:"loginPath"`
	LandingPath    string        `yaml:"landingPath"`
	ProtectedPaths []string      `yaml:"protectedPaths"`
	PublicPrefixes []string      `yaml:"publicPrefixes"`
	CookieMaxAge   time.Duration `yaml:"cookieMaxAge"`
	SecureCookie   bool          `yaml:"secureCookie"`
}

// DashboardConfig controls list sizes.
type DashboardConfig struct {
	PageSize    int `yaml:"pageSize"`
	RecentLeads int `yaml:"recentLeads"`
}

// SessionsConfig controls where mounted view state lives.
type SessionsConfig struct {
	CookieName string        `yaml:"cookieName"`
	TTL        time.Duration `yaml:"ttl"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig controls the optional Redis-backed view store.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("LEAD_DASHBOARD_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Clients.Backend.BaseURL) == "" {
		errs = append(errs, errors.New("clients.backend.baseURL is required"))
	}
	if c.Dashboard.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.pageSize must be positive, got %d", c.Dashboard.PageSize))
	}
	if c.Dashboard.RecentLeads <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.recentLeads must be positive, got %d", c.Dashboard.RecentLeads))
	}
	if c.Auth.CookieName == "" {
		errs = append(errs, errors.New("auth.cookieName is required"))
	}
	if !strings.HasPrefix(c.Auth.LoginPath, "/") || !strings.HasPrefix(c.Auth.LandingPath, "/") {
		errs = append(errs, errors.New("auth.loginPath and auth.landingPath must be absolute paths"))
	}
	if c.Sessions.Redis.Enabled && c.Sessions.Redis.Addr == "" {
		errs = append(errs, errors.New("sessions.redis.addr is required when redis is enabled"))
	}
	return errors.Join(errs...)
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":3000",
			MetricsAddress:  ":2112",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Backend: BackendClientConfig{
				BaseURL: "http://localhost:8000/api/v1",
				Timeout: 30 * time.Second,
			},
		},
		Auth: AuthConfig{
			CookieName:     "token",
			LoginPath:      "/login",
			LandingPath:    "/dashboard",
			ProtectedPaths: []string{"/dashboard", "/leads", "/scoring", "/settings"},
			PublicPrefixes: []string{"/api", "/static", "/healthz", "/metrics", "/favicon.ico"},
			CookieMaxAge:   24 * time.Hour,
		},
		Dashboard: DashboardConfig{PageSize: 10, RecentLeads: 5},
		Sessions: SessionsConfig{
			CookieName: "lead_dashboard_sid",
			TTL:        30 * time.Minute,
			Redis: RedisConfig{
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 500 * time.Millisecond,
				MaxRetries:   2,
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEAD_DASHBOARD_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_GRPC_ADDRESS"); v != "" {
		cfg.Server.GRPCAddress = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_BACKEND_URL"); v != "" {
		cfg.Clients.Backend.BaseURL = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.Backend.Timeout = d
		}
	}
	if v := os.Getenv("LEAD_DASHBOARD_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dashboard.PageSize = n
		}
	}
	if v := os.Getenv("LEAD_DASHBOARD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("LEAD_DASHBOARD_SECURE_COOKIE"); v != "" {
		cfg.Auth.SecureCookie = isTrue(v)
	}
	if v := os.Getenv("LEAD_DASHBOARD_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = d
		}
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_ENABLED"); v != "" {
		cfg.Sessions.Redis.Enabled = isTrue(v)
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_ADDR"); v != "" {
		cfg.Sessions.Redis.Addr = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_USERNAME"); v != "" {
		cfg.Sessions.Redis.Username = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_PASSWORD"); v != "" {
		cfg.Sessions.Redis.Password = v
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.Redis.DB = db
		}
	}
	if v := os.Getenv("LEAD_DASHBOARD_REDIS_TLS"); isTrue(v) {
		cfg.Sessions.Redis.TLS = true
	}
}

func isTrue(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
