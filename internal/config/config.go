package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	ProxyHeader      string
	DatabaseURL      string
	RedisURL         string
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPassword    string
	Neo4jDatabase    string
	QueryTimeout     time.Duration
	QueryMaxRows     int
	ProgressCacheTTL time.Duration
	SeedStatusTTL    time.Duration
	SeedEnabled      bool
	SeedToken        string
	AllowedOrigins   []string
	RunRateLimit     int
	RunRateWindow    time.Duration
	NATSURL          string
	NATSSubjectBase  string
}

var defaultOrigins = []string{
	"https://namoryx.github.io",
	"http://127.0.0.1:5500",
	"http://localhost:5500",
	"http://127.0.0.1:5173",
	"http://localhost:5173",
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AllowedOriginsHeader renders the CORS origin list for the fiber middleware.
func (c Config) AllowedOriginsHeader() string {
	return strings.Join(c.AllowedOrigins, ",")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CYPHERQUEST")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Cypher Quest API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("query.timeout", "10s")
	v.SetDefault("query.max_rows", 1000)
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("seed.status_ttl", "30s")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("cors.allowed_origins", strings.Join(defaultOrigins, ","))
	v.SetDefault("run.rate_limit", 30)
	v.SetDefault("run.rate_window", "1m")
	v.SetDefault("nats.subject_base", "cypherquest")

	queryTimeout, err := parseDuration(v, "query.timeout", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	progressTTL, err := parseDuration(v, "progress.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	seedTTL, err := parseDuration(v, "seed.status_ttl", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "run.rate_window", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		ProxyHeader:      strings.TrimSpace(v.GetString("app.proxy_header")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		Neo4jURI:         v.GetString("neo4j.uri"),
		Neo4jUser:        v.GetString("neo4j.user"),
		Neo4jPassword:    v.GetString("neo4j.password"),
		Neo4jDatabase:    v.GetString("neo4j.database"),
		QueryTimeout:     queryTimeout,
		QueryMaxRows:     v.GetInt("query.max_rows"),
		ProgressCacheTTL: progressTTL,
		SeedStatusTTL:    seedTTL,
		SeedEnabled:      v.GetBool("seed.enabled"),
		SeedToken:        v.GetString("seed.token"),
		AllowedOrigins:   splitList(v.GetString("cors.allowed_origins")),
		RunRateLimit:     v.GetInt("run.rate_limit"),
		RunRateWindow:    rateWindow,
		NATSURL:          v.GetString("nats.url"),
		NATSSubjectBase:  strings.Trim(v.GetString("nats.subject_base"), "."),
	}

	var missing []string
	for key, value := range map[string]string{
		"CYPHERQUEST_NEO4J_URI":      cfg.Neo4jURI,
		"CYPHERQUEST_NEO4J_USER":     cfg.Neo4jUser,
		"CYPHERQUEST_NEO4J_PASSWORD": cfg.Neo4jPassword,
		"CYPHERQUEST_DATABASE_URL":   cfg.DatabaseURL,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if cfg.SeedEnabled && cfg.SeedToken == "" {
		return Config{}, fmt.Errorf("seed token must be provided when seeding is enabled")
	}

	if cfg.QueryMaxRows <= 0 {
		cfg.QueryMaxRows = 1000
	}

	if cfg.RunRateLimit <= 0 {
		cfg.RunRateLimit = 30
	}

	if cfg.Neo4jDatabase == "" {
		cfg.Neo4jDatabase = "neo4j"
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return fallback, nil
	}

	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
