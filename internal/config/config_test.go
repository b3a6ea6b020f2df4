package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"httpmsgutils/internal/proxyscheme"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// writeConfig writes data to a config.toml in a fresh temp dir and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[proxy]
trust_forwarded = true
detect_port = true
port_fallback = "port"
fallback_port = 8443
port_keys = ["HTTP_X_FORWARDED_PORT", "HTTP_X_ORIGINAL_PORT"]

[[proxy.https_rules]]
key = "HTTP_X_FORWARDED_PROTO"
value = "https"

[[proxy.https_rules]]
key = "HTTP_CLOUDFRONT_FORWARDED_PROTO"
value = "https"

[cookie]
name = "sid"
domain = "example.com"
secure = true
http_only = true
same_site = "Lax"
max_age_seconds = 3600

[transmit]
full_status_line = true
rewind_body = false

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if !cfg.Proxy.TrustForwarded || !cfg.Proxy.DetectPort {
		t.Errorf("Proxy = %+v, want trust_forwarded and detect_port", cfg.Proxy)
	}
	if got := cfg.Proxy.Fallback(); got != proxyscheme.Port(8443) {
		t.Errorf("Proxy.Fallback() = %v, want 8443", got)
	}
	wantRules := []proxyscheme.Rule{
		{Key: "HTTP_X_FORWARDED_PROTO", Value: "https"},
		{Key: "HTTP_CLOUDFRONT_FORWARDED_PROTO", Value: "https"},
	}
	if got := cfg.Proxy.Rules(); !slices.Equal(got, wantRules) {
		t.Errorf("Proxy.Rules() = %v, want %v", got, wantRules)
	}
	if got := cfg.Proxy.Keys(); !slices.Equal(got, []string{"HTTP_X_FORWARDED_PORT", "HTTP_X_ORIGINAL_PORT"}) {
		t.Errorf("Proxy.Keys() = %v", got)
	}
	if cfg.Cookie.Name != "sid" || cfg.Cookie.SameSite != "Lax" || cfg.Cookie.MaxAgeSeconds != 3600 {
		t.Errorf("Cookie = %+v", cfg.Cookie)
	}
	if cfg.Cookie.Path != "/" {
		t.Errorf("Cookie.Path = %q, want default %q", cfg.Cookie.Path, "/")
	}
	if !cfg.Transmit.FullStatusLine {
		t.Error("Transmit.FullStatusLine = false, want true")
	}
	if cfg.Transmit.RewindBody == nil || *cfg.Transmit.RewindBody {
		t.Error("Transmit.RewindBody should be an explicit false")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "# empty\n")

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default Server.Port = %d, want %d", cfg.Server.Port, 8000)
	}
	if cfg.Server.BodyMaxBytes != 1024*1024 {
		t.Errorf("default Server.BodyMaxBytes = %d, want %d", cfg.Server.BodyMaxBytes, 1024*1024)
	}
	if cfg.Proxy.TrustForwarded {
		t.Error("default Proxy.TrustForwarded should be false")
	}
	if got := cfg.Proxy.Fallback(); got != proxyscheme.RemovePort {
		t.Errorf("default Proxy.Fallback() = %v, want remove", got)
	}
	if cfg.Proxy.Rules() != nil || cfg.Proxy.Keys() != nil {
		t.Error("empty rule tables should defer to the resolver defaults")
	}
	if cfg.Cookie.Name != "session" {
		t.Errorf("default Cookie.Name = %q, want %q", cfg.Cookie.Name, "session")
	}
	if cfg.Transmit.RewindBody == nil || !*cfg.Transmit.RewindBody {
		t.Error("default Transmit.RewindBody should be true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("default Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")

	_, err := Load(cliWithPath(path))
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8000

[proxy]
trust_forwarded = true

[log]
level = "info"
`)

	trust := false
	cli := &CLI{
		Config:     path,
		Host:       "127.0.0.1",
		Port:       3000,
		LogLevel:   "debug",
		TrustProxy: &trust,
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q (CLI override)", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want %d (CLI override)", cfg.Server.Port, 3000)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (CLI override)", cfg.Log.Level, "debug")
	}
	if cfg.Proxy.TrustForwarded {
		t.Error("Proxy.TrustForwarded = true, want false (CLI override)")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"log level", "[log]\nlevel = \"verbose\"\n", "log.level"},
		{"log format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"negative port", "[server]\nport = -1\n", "server.port"},
		{"port too large", "[server]\nport = 70000\n", "server.port"},
		{"negative body", "[server]\nbody_max_bytes = -1\n", "body_max_bytes"},
		{"rate limit zero", "[server.rate_limit]\nenabled = true\nrequests_per_second = 0\n", "requests_per_second"},
		{"unknown fallback", "[proxy]\nport_fallback = \"drop\"\n", "port_fallback"},
		{"fallback port missing", "[proxy]\nport_fallback = \"port\"\n", "port_fallback"},
		{"fallback port range", "[proxy]\nport_fallback = \"port\"\nfallback_port = 65536\n", "port_fallback"},
		{"rule without value", "[[proxy.https_rules]]\nkey = \"HTTPS\"\n", "https_rules[0]"},
		{"empty port key", "[proxy]\nport_keys = [\"HTTP_X_FORWARDED_PORT\", \"\"]\n", "port_keys[1]"},
		{"same site", "[cookie]\nsame_site = \"lax\"\n", "cookie.same_site"},
		{"negative max age", "[cookie]\nmax_age_seconds = -1\n", "max_age_seconds"},
		{"cookie name separator", "[cookie]\nname = \"a;b\"\n", "cookie.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(cliWithPath(writeConfig(t, tt.data)))
			if err == nil {
				t.Fatalf("Load() expected error mentioning %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_RateLimitConfig_Enabled(t *testing.T) {
	path := writeConfig(t, `
[server.rate_limit]
enabled = true
requests_per_second = 50.0
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Server.RateLimit.Enabled {
		t.Error("expected RateLimit.Enabled = true")
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 50.0 {
		t.Errorf("RateLimit.RequestsPerSecond = %v, want 50.0", cfg.Server.RateLimit.RequestsPerSecond)
	}
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("# test"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if !strings.Contains(buf.String(), "readable by group/others") {
		t.Errorf("expected permission warning, got: %q", buf.String())
	}
}

func TestWarnPermissions_Strict(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := writeConfig(t, "# test")

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	if buf.Len() != 0 {
		t.Errorf("expected no warning for 0600 file, got: %q", buf.String())
	}
}

func TestFindConfigInPaths(t *testing.T) {
	path1 := writeConfig(t, "# one")
	path2 := writeConfig(t, "# two")

	if got := findConfigInPaths([]string{path1, path2}); got != path1 {
		t.Errorf("findConfigInPaths() = %q, want first match %q", got, path1)
	}
	if got := findConfigInPaths([]string{"/nonexistent/a.toml", path2}); got != path2 {
		t.Errorf("findConfigInPaths() = %q, want %q", got, path2)
	}
	if got := findConfigInPaths([]string{"/nonexistent/a.toml", "/nonexistent/b.toml"}); got != "" {
		t.Errorf("findConfigInPaths() = %q, want empty", got)
	}
}

func TestLoad_MetricsPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"no leading slash", "metrics", "metrics.path"},
		{"whoami", "/whoami", "conflicts"},
		{"session sub", "/session/metrics", "conflicts"},
		{"healthz", "/healthz", "conflicts"},
		{"status", "/status", "conflicts"},
		{"custom", "/custom-metrics", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "[metrics]\nenabled = true\npath = \""+tt.path+"\"\n")
			cfg, err := Load(cliWithPath(path))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if cfg.Metrics.Path != tt.path {
					t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, tt.path)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MetricsDisabledSkipsPathValidation(t *testing.T) {
	path := writeConfig(t, "[metrics]\nenabled = false\npath = \"bad-no-slash\"\n")

	if _, err := Load(cliWithPath(path)); err != nil {
		t.Fatalf("Load() error = %v; disabled metrics should skip path validation", err)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 3000}
	want := "127.0.0.1:3000"
	if got := sc.Addr(); got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}
