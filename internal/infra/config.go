package infra

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"possessher/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	PublicURL          string
	BackendBaseURL     string
	BackendTimeout     time.Duration
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseJWTSecret  string
	AuthTimeout        time.Duration
	DatabaseURL        string
	CookieSecret       string
	StateDir           string
	StaticDir          string
	GeoIPDBPath        string
	DefaultLocale      string
	Variant            domain.Variant
	ImageHostAllowlist []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	VisitorIdleTTL     time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "3000"),
		PublicURL:         strings.TrimRight(getEnv("PUBLIC_URL", "https://possessher-ai.vercel.app"), "/"),
		BackendBaseURL:    strings.TrimRight(os.Getenv("BACKEND_BASE_URL"), "/"),
		BackendTimeout:    time.Second * time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 60)),
		SupabaseURL:       strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		AuthTimeout:       time.Second * time.Duration(getEnvInt("AUTH_TIMEOUT_SECONDS", 10)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		CookieSecret:      os.Getenv("COOKIE_SECRET"),
		StateDir:          os.Getenv("STATE_DIR"),
		StaticDir:         getEnv("STATIC_DIR", "./public"),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		VisitorIdleTTL:    time.Minute * time.Duration(getEnvInt("VISITOR_IDLE_TTL_MINUTES", 120)),
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required")
	}
	if cfg.CookieSecret == "" {
		return nil, fmt.Errorf("COOKIE_SECRET is required")
	}

	upsell, ok := domain.ParseUpsellMode(os.Getenv("UPSELL_MODE"))
	if !ok {
		return nil, fmt.Errorf("unsupported UPSELL_MODE %q", os.Getenv("UPSELL_MODE"))
	}
	cfg.Variant = domain.Variant{
		Upsell:          upsell,
		UpgradeURL:      strings.TrimSpace(os.Getenv("UPGRADE_URL")),
		IncludeReferral: getEnvBool("INCLUDE_REFERRAL", true),
		IncludeEmail:    getEnvBool("INCLUDE_EMAIL", true),
	}
	if upsell == domain.UpsellExternalLink && cfg.Variant.UpgradeURL == "" {
		return nil, fmt.Errorf("UPGRADE_URL is required when UPSELL_MODE=external-link")
	}

	allow, err := buildImageHostAllowlist(cfg.BackendBaseURL, os.Getenv("IMAGE_SOURCE_HOST_ALLOWLIST"))
	if err != nil {
		return nil, err
	}
	cfg.ImageHostAllowlist = allow

	return cfg, nil
}

// buildImageHostAllowlist merges the backend host with any explicitly listed
// hosts, returning a sorted, de-duplicated list.
func buildImageHostAllowlist(backendURL, extra string) ([]string, error) {
	parsed, err := url.Parse(backendURL)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is invalid: %q", backendURL)
	}
	seen := map[string]struct{}{strings.ToLower(parsed.Hostname()): {}}
	for _, host := range strings.Split(extra, ",") {
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
