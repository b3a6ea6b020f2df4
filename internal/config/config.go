// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"httpmsgutils/internal/cookie"
	"httpmsgutils/internal/proxyscheme"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/httpmsg/config.toml",
	"configs/config.toml",
}

// reservedRoutes are served by the application and cannot host metrics.
var reservedRoutes = []string{"/healthz", "/status", "/whoami", "/session"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config     string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host       string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port       int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	LogLevel   string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	TrustProxy *bool  `kong:"help='Trust forwarded scheme/port headers (overrides config).',env='TRUST_PROXY'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Cookie   CookieConfig   `toml:"cookie"`
	Transmit TransmitConfig `toml:"transmit"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8000); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ProxyConfig controls forwarded scheme and port detection.
type ProxyConfig struct {
	TrustForwarded bool        `toml:"trust_forwarded"`
	DetectPort     bool        `toml:"detect_port"`
	PortFallback   string      `toml:"port_fallback"` // keep | remove | port
	FallbackPort   int         `toml:"fallback_port"`
	HTTPSRules     []HTTPSRule `toml:"https_rules"`
	PortKeys       []string    `toml:"port_keys"`
}

// HTTPSRule is one forwarded signal that marks a request as HTTPS.
type HTTPSRule struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// CookieConfig describes the session cookie issued by the service.
type CookieConfig struct {
	Name          string `toml:"name"`
	Path          string `toml:"path"`
	Domain        string `toml:"domain"`
	Secure        bool   `toml:"secure"`
	HTTPOnly      bool   `toml:"http_only"`
	SameSite      string `toml:"same_site"`
	MaxAgeSeconds int    `toml:"max_age_seconds"` // 0 = session cookie
}

// TransmitConfig controls how responses are written out.
type TransmitConfig struct {
	FullStatusLine bool  `toml:"full_status_line"`
	RewindBody     *bool `toml:"rewind_body"` // nil means enabled
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/httpmsg/config.toml then configs/config.toml.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil, fmt.Errorf("config: no config file found (searched %v)", configSearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.filePath = path
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.TrustProxy != nil {
		c.Proxy.TrustForwarded = *cli.TrustProxy
	}
}

func (c *Config) validate() error {
	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Proxy detection tables.
	if _, err := proxyscheme.ParseFallback(c.Proxy.PortFallback, c.Proxy.FallbackPort); err != nil {
		return fmt.Errorf("proxy.port_fallback: %w", err)
	}
	for i, r := range c.Proxy.HTTPSRules {
		if r.Key == "" || r.Value == "" {
			return fmt.Errorf("proxy.https_rules[%d] needs both key and value", i)
		}
	}
	for i, k := range c.Proxy.PortKeys {
		if k == "" {
			return fmt.Errorf("proxy.port_keys[%d] is empty", i)
		}
	}

	// Cookie.
	switch c.Cookie.SameSite {
	case "", cookie.SameSiteNone, cookie.SameSiteLax, cookie.SameSiteStrict:
		// valid
	default:
		return fmt.Errorf("cookie.same_site must be one of: None, Lax, Strict; got %q", c.Cookie.SameSite)
	}
	if c.Cookie.MaxAgeSeconds < 0 {
		return fmt.Errorf("cookie.max_age_seconds must be non-negative; got %d", c.Cookie.MaxAgeSeconds)
	}
	if strings.ContainsAny(c.Cookie.Name, " \t;,=") {
		return fmt.Errorf("cookie.name contains a separator character: %q", c.Cookie.Name)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key. Setting port=0 in
// the config file therefore results in the default port (8000).
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 1024 * 1024 // 1 MB
	}
	if c.Proxy.PortFallback == "" {
		c.Proxy.PortFallback = "remove"
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "session"
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/"
	}
	if c.Transmit.RewindBody == nil {
		rewind := true
		c.Transmit.RewindBody = &rewind
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Fallback returns the configured port fallback. Validation guarantees it parses.
func (c *ProxyConfig) Fallback() proxyscheme.Fallback {
	f, err := proxyscheme.ParseFallback(c.PortFallback, c.FallbackPort)
	if err != nil {
		return proxyscheme.KeepPort
	}
	return f
}

// Rules converts the configured HTTPS rules; nil means "use the defaults".
func (c *ProxyConfig) Rules() []proxyscheme.Rule {
	if len(c.HTTPSRules) == 0 {
		return nil
	}
	rules := make([]proxyscheme.Rule, len(c.HTTPSRules))
	for i, r := range c.HTTPSRules {
		rules[i] = proxyscheme.Rule{Key: r.Key, Value: r.Value}
	}
	return rules
}

// Keys returns the configured port keys; nil means "use the defaults".
func (c *ProxyConfig) Keys() []string {
	if len(c.PortKeys) == 0 {
		return nil
	}
	return c.PortKeys
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
