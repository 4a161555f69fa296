// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, persistence, observability, and the trust settings (trusted
// origins, admin identities, quotas, sanitizer limits) that are handed to the
// request-trust components at construction time.
package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Quota is a fixed-window request budget.
type Quota struct {
	MaxRequests int
	Window      time.Duration
}

// TrustConfig groups everything the request-trust layer consumes. It is
// immutable after Load returns.
type TrustConfig struct {
	AdminEmails       []string // ADMIN_EMAILS
	TrustedHostnames  []string // TRUSTED_HOSTNAMES, trusted over https
	TrustedDevPorts   []int    // TRUSTED_DEV_PORTS, trusted as http://localhost:<port>
	PreviewHostSuffix string   // PREVIEW_HOST_SUFFIX, e.g. "vercel.app"
	ExtraOrigins      []string // TRUSTED_ORIGINS
	// TrustedProxies lists the reverse proxies (IPs or CIDRs) whose
	// X-Forwarded-For is believed when deriving the client address. Empty
	// means none: the TCP peer is the client.
	TrustedProxies []string // TRUSTED_PROXIES

	AIQuota  Quota // AI_RATE_LIMIT_MAX / AI_RATE_LIMIT_WINDOW
	APIQuota Quota // API_RATE_LIMIT_MAX / API_RATE_LIMIT_WINDOW

	InstructionsMaxLength   int // INSTRUCTIONS_MAX_LENGTH
	JobDescriptionMaxLength int // JOB_DESCRIPTION_MAX_LENGTH

	AttachmentsDir string // ATTACHMENTS_DIR
}

// OIDCConfig configures bearer ID-token verification for admin routes.
type OIDCConfig struct {
	IssuerURL string // OIDC_ISSUER_URL
	ClientID  string // OIDC_CLIENT_ID
}

// Enabled reports whether admin authentication can be performed.
func (o OIDCConfig) Enabled() bool { return o.IssuerURL != "" && o.ClientID != "" }

// LLMConfig configures the hosted generative-AI backend.
type LLMConfig struct {
	APIKey   string        // LLM_API_KEY
	Model    string        // LLM_MODEL
	Endpoint string        // LLM_ENDPOINT
	Timeout  time.Duration // LLM_TIMEOUT
}

// RendererConfig points at the HTML-to-PDF conversion service.
type RendererConfig struct {
	URL     string        // RENDERER_URL, e.g. "http://gotenberg:3000"
	Timeout time.Duration // RENDERER_TIMEOUT
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Persistence
	DBPath   string // SQLite path
	RedisURL string // optional shared rate-limit store

	Trust    TrustConfig
	OIDC     OIDCConfig
	LLM      LLMConfig
	Renderer RendererConfig
	Security SecurityConfig
	OTEL     OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none
// are given) into the process environment without overriding variables that
// are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		DBPath:   getenv("DB_PATH", "portfolio.db"),
		RedisURL: getenv("REDIS_URL", ""),

		Trust: TrustConfig{
			AdminEmails:       lowerAll(splitCSV(getenv("ADMIN_EMAILS", ""))),
			TrustedHostnames:  lowerAll(splitCSV(getenv("TRUSTED_HOSTNAMES", ""))),
			PreviewHostSuffix: strings.ToLower(strings.TrimSpace(getenv("PREVIEW_HOST_SUFFIX", ""))),
			ExtraOrigins:      splitCSV(getenv("TRUSTED_ORIGINS", "")),
			TrustedProxies:    splitCSV(getenv("TRUSTED_PROXIES", "")),

			AIQuota: Quota{
				MaxRequests: getint("AI_RATE_LIMIT_MAX", 10),
				Window:      getdur("AI_RATE_LIMIT_WINDOW", time.Hour),
			},
			APIQuota: Quota{
				MaxRequests: getint("API_RATE_LIMIT_MAX", 120),
				Window:      getdur("API_RATE_LIMIT_WINDOW", time.Minute),
			},

			InstructionsMaxLength:   getint("INSTRUCTIONS_MAX_LENGTH", 1000),
			JobDescriptionMaxLength: getint("JOB_DESCRIPTION_MAX_LENGTH", 10000),

			AttachmentsDir: getenv("ATTACHMENTS_DIR", "public"),
		},

		OIDC: OIDCConfig{
			IssuerURL: getenv("OIDC_ISSUER_URL", ""),
			ClientID:  getenv("OIDC_CLIENT_ID", ""),
		},

		LLM: LLMConfig{
			APIKey:   getenv("LLM_API_KEY", ""),
			Model:    getenv("LLM_MODEL", "gemini-2.0-flash"),
			Endpoint: getenv("LLM_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout:  getdur("LLM_TIMEOUT", 60*time.Second),
		},

		Renderer: RendererConfig{
			URL:     strings.TrimRight(getenv("RENDERER_URL", ""), "/"),
			Timeout: getdur("RENDERER_TIMEOUT", 30*time.Second),
		},

		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "portfolio-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	ports, err := parsePorts(getenv("TRUSTED_DEV_PORTS", "3000"))
	if err != nil {
		return cfg, err
	}
	cfg.Trust.TrustedDevPorts = ports

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Trust.PreviewHostSuffix = strings.TrimPrefix(cfg.Trust.PreviewHostSuffix, ".")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Trust.AIQuota.MaxRequests < 1 || cfg.Trust.AIQuota.Window <= 0 {
		return cfg, errors.New("AI_RATE_LIMIT_MAX must be >= 1 and AI_RATE_LIMIT_WINDOW > 0")
	}
	if cfg.Trust.APIQuota.MaxRequests < 1 || cfg.Trust.APIQuota.Window <= 0 {
		return cfg, errors.New("API_RATE_LIMIT_MAX must be >= 1 and API_RATE_LIMIT_WINDOW > 0")
	}
	if cfg.Trust.InstructionsMaxLength < 1 || cfg.Trust.JobDescriptionMaxLength < 1 {
		return cfg, errors.New("INSTRUCTIONS_MAX_LENGTH and JOB_DESCRIPTION_MAX_LENGTH must be >= 1")
	}
	if strings.ContainsAny(cfg.Trust.PreviewHostSuffix, ":/*") {
		return cfg, errors.New("PREVIEW_HOST_SUFFIX must be a bare hostname suffix")
	}
	for _, h := range cfg.Trust.TrustedHostnames {
		if strings.ContainsAny(h, ":/*") {
			return cfg, errors.New("TRUSTED_HOSTNAMES must contain bare hostnames")
		}
	}
	for _, o := range cfg.Trust.ExtraOrigins {
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			return cfg, errors.New("TRUSTED_ORIGINS entries must look like scheme://host[:port]")
		}
	}
	for _, p := range cfg.Trust.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return cfg, errors.New("TRUSTED_PROXIES entries must be IP addresses or CIDRs")
			}
		}
	}
	if strings.TrimSpace(cfg.Trust.AttachmentsDir) == "" {
		return cfg, errors.New("ATTACHMENTS_DIR must not be empty")
	}
	if (cfg.OIDC.IssuerURL == "") != (cfg.OIDC.ClientID == "") {
		return cfg, errors.New("OIDC_ISSUER_URL and OIDC_CLIENT_ID must be set together")
	}
	if cfg.OIDC.Enabled() && len(cfg.Trust.AdminEmails) == 0 {
		return cfg, errors.New("ADMIN_EMAILS must not be empty when OIDC is configured")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.Renderer.URL != "" {
		u, err := url.Parse(cfg.Renderer.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return cfg, errors.New("RENDERER_URL must be an http(s) URL")
		}
	}
	if cfg.Renderer.Timeout <= 0 {
		return cfg, errors.New("RENDERER_TIMEOUT must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func lowerAll(in []string) []string {
	for i, s := range in {
		in[i] = strings.ToLower(s)
	}
	return in
}

// parsePorts parses a CSV list of TCP ports. Every entry must be in 1..65535.
func parsePorts(s string) ([]int, error) {
	raw := splitCSV(s)
	out := make([]int, 0, len(raw))
	for _, p := range raw {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, errors.New("TRUSTED_DEV_PORTS must be a comma-separated list of ports (1-65535)")
		}
		out = append(out, n)
	}
	return out, nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
