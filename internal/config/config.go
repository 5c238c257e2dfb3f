package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service configuration, read from the environment
// (optionally seeded from a .env file by the caller).
type Config struct {
	Server     ServerConfig
	Directory  DirectoryConfig
	Cache      CacheConfig
	Geo        GeoConfig
	Directions DirectionsConfig
	Sessions   SessionConfig
	Events     EventsConfig
}

type ServerConfig struct {
	Port              string
	CorsOrigins       []string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DirectoryConfig selects the business directory backend.
// Backend is one of "http", "postgres", "sqlite", "mongo" or "memory".
type DirectoryConfig struct {
	Backend       string
	BaseURL       string
	APIKey        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	SqlitePath    string
	SeedPath      string
	ResultLimit   int
	NearRadiusKm  float64
}

type CacheConfig struct {
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

type GeoConfig struct {
	IPLocatorURL    string
	ExplicitTimeout time.Duration
	ProbeTimeout    time.Duration
	DefaultLat      float64
	DefaultLng      float64
	GazetteerPath   string
}

type DirectionsConfig struct {
	ProviderURL string
}

type SessionConfig struct {
	IdleTTL time.Duration
}

// EventsConfig enables discovery event publication when NATSURL is set.
type EventsConfig struct {
	NATSURL        string
	SubjectPrefix  string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Port:              Get("PORT", "8080"),
			CorsOrigins:       getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			ReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Directory: DirectoryConfig{
			Backend:       strings.ToLower(Get("DIRECTORY_BACKEND", "memory")),
			BaseURL:       Get("DIRECTORY_URL", ""),
			APIKey:        Get("DIRECTORY_API_KEY", ""),
			DatabaseURL:   Get("DATABASE_URL", ""),
			MongoURI:      Get("MONGODB_URI", ""),
			MongoDatabase: Get("MONGODB_DATABASE", "directory"),
			SqlitePath:    Get("DB_PATH", "data/directory.db"),
			SeedPath:      Get("SEED_PATH", "data/seeds/businesses.json"),
			ResultLimit:   getInt("DIRECTORY_RESULT_LIMIT", 60),
			NearRadiusKm:  getFloat("DIRECTORY_NEAR_RADIUS_KM", 5),
		},
		Cache: CacheConfig{
			RedisAddr: Get("REDIS_ADDR", ""),
			RedisDB:   getInt("REDIS_DB", 0),
			TTL:       getDuration("SEARCH_CACHE_TTL", 2*time.Minute),
		},
		Geo: GeoConfig{
			IPLocatorURL:    Get("GEO_IP_LOCATOR_URL", "http://ip-api.com/json/"),
			ExplicitTimeout: getDuration("GEO_EXPLICIT_TIMEOUT", 8*time.Second),
			ProbeTimeout:    getDuration("GEO_PROBE_TIMEOUT", 4*time.Second),
			DefaultLat:      getFloat("MAP_DEFAULT_LAT", 4.7110),
			DefaultLng:      getFloat("MAP_DEFAULT_LNG", -74.0721),
			GazetteerPath:   Get("GAZETTEER_PATH", ""),
		},
		Directions: DirectionsConfig{
			ProviderURL: Get("DIRECTIONS_URL", "https://www.google.com/maps/dir/?api=1"),
		},
		Sessions: SessionConfig{
			IdleTTL: getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		},
		Events: EventsConfig{
			NATSURL:        Get("NATS_URL", ""),
			SubjectPrefix:  Get("EVENTS_SUBJECT_PREFIX", "directory.discovery"),
			MaxReconnects:  getInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getDuration("NATS_RECONNECT_WAIT", time.Second),
			ConnectTimeout: getDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
	}

	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	switch cfg.Directory.Backend {
	case "http":
		if strings.TrimSpace(cfg.Directory.BaseURL) == "" {
			return fmt.Errorf("config: DIRECTORY_URL is required for the http backend")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Directory.DatabaseURL) == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
		}
	case "mongo":
		if strings.TrimSpace(cfg.Directory.MongoURI) == "" {
			return fmt.Errorf("config: MONGODB_URI is required for the mongo backend")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown DIRECTORY_BACKEND %q", cfg.Directory.Backend)
	}

	if cfg.Directory.ResultLimit < 1 || cfg.Directory.ResultLimit > 500 {
		return fmt.Errorf("config: DIRECTORY_RESULT_LIMIT must be between 1 and 500")
	}
	if cfg.Geo.ExplicitTimeout <= 0 || cfg.Geo.ExplicitTimeout >= 10*time.Second {
		return fmt.Errorf("config: GEO_EXPLICIT_TIMEOUT must be positive and under 10s")
	}
	if cfg.Geo.ProbeTimeout <= 0 {
		return fmt.Errorf("config: GEO_PROBE_TIMEOUT must be positive")
	}

	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(Get(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(Get(key, "")); err == nil {
		return v
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	v := Get(key, "")
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
