package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  It is built once at startup and passed by value
// to the components that need it; nothing reads the environment after Load.
type Config struct {
	Env        string // application environment (e.g. "dev", "prod")
	Port       string // HTTP port to listen on
	DBDriver   string // "mysql" or "sqlite"
	DBUser     string // database username
	DBPass     string // database password (optional)
	DBHost     string // database host address
	DBPort     string // database port number
	DBName     string // database name
	DBPath     string // sqlite file path
	JWTSecret  string // secret used to sign session tokens
	BcryptCost int    // bcrypt cost for password hashing
	MaxUsers   int    // upper bound on simultaneously active users

	CronSecret     string   // bearer secret for the keep-alive probe; empty disables it
	LegacyUsername string   // username accepted by the legacy cookie fallback; empty disables it
	PublicPrefixes []string // path prefixes that bypass the session gate
	LoginPath      string   // where unauthenticated page requests are redirected
	LogLevel       string   // zap level name
	StaticDir      string   // optional directory served under /static
	UserCacheTTL   time.Duration

	AMQPURL              string
	AuditConsumerEnabled bool
	AuditLogDir          string

	RateLimit RateLimitConfig
	Cache     CacheConfig
	Redis     RedisConfig
}

// DefaultPublicPrefixes is the allow-list used when PUBLIC_PATH_PREFIXES is unset.
var DefaultPublicPrefixes = []string{
	"/api/auth/login",
	"/api/auth/signup",
	"/api/auth/logout",
	"/api/cron/",
	"/healthz",
	"/static/",
	"/login",
}

// Secure reports whether cookies should carry the Secure attribute.
func (c Config) Secure() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Load reads configuration values from environment variables and returns a
// Config.  Every missing required variable is collected so the caller can
// report them all at once and refuse to start.
func Load() (Config, error) {
	l := &loader{}
	cfg := Config{
		Env:        getenv("APP_ENV", "dev"),
		Port:       getenv("APP_PORT", "8080"),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBPass:     os.Getenv("DB_PASS"),
		JWTSecret:  l.must("JWT_SECRET"),
		BcryptCost: l.intOr("BCRYPT_COST", 12),
		MaxUsers:   l.intOr("MAX_USERS", 5),

		CronSecret:     os.Getenv("CRON_SECRET"),
		LegacyUsername: os.Getenv("AUTH_LEGACY_USERNAME"),
		PublicPrefixes: parseList(os.Getenv("PUBLIC_PATH_PREFIXES"), DefaultPublicPrefixes),
		LoginPath:      getenv("LOGIN_PATH", "/login"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		StaticDir:      os.Getenv("STATIC_DIR"),
		UserCacheTTL:   envDur("USER_CACHE_TTL", 30*time.Second),

		AMQPURL:              amqpURL(),
		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
		AuditLogDir:          getenv("AUDIT_LOG_DIR", "logs"),

		RateLimit: LoadRateLimitConfig(),
		Cache:     LoadCacheConfig(),
		Redis:     LoadRedisConfig(),
	}

	switch cfg.DBDriver {
	case "mysql":
		cfg.DBUser = l.must("DB_USER")
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = l.must("DB_PORT")
		cfg.DBName = l.must("DB_NAME")
	case "sqlite":
		cfg.DBPath = l.must("DB_PATH")
	default:
		l.invalid = append(l.invalid, fmt.Sprintf("DB_DRIVER=%q (want mysql or sqlite)", cfg.DBDriver))
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		l.invalid = append(l.invalid, fmt.Sprintf("BCRYPT_COST=%d (want 4..31)", cfg.BcryptCost))
	}
	if cfg.MaxUsers < 1 {
		l.invalid = append(l.invalid, fmt.Sprintf("MAX_USERS=%d (want >= 1)", cfg.MaxUsers))
	}

	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loader accumulates problems instead of exiting on the first one.
type loader struct {
	missing []string
	invalid []string
}

// must retrieves the value of a required environment variable and records
// it as missing when unset or empty.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.missing = append(l.missing, key)
		return ""
	}
	return v
}

// intOr is like envInt but records a malformed value instead of silently
// falling back to the default.
func (l *loader) intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.invalid = append(l.invalid, fmt.Sprintf("%s=%q (not an int)", key, s))
		return def
	}
	return n
}

func (l *loader) err() error {
	var parts []string
	if len(l.missing) > 0 {
		parts = append(parts, "missing required env var(s): "+strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		parts = append(parts, "invalid env var(s): "+strings.Join(l.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(parts, "; "))
}

func amqpURL() string {
	if u := os.Getenv("RABBITMQ_URL"); u != "" {
		return u
	}
	return os.Getenv("AMQP_URL")
}

func parseList(s string, def []string) []string {
	if strings.TrimSpace(s) == "" {
		out := make([]string, len(def))
		copy(out, def)
		return out
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
