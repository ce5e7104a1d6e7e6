package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Search   SearchConfig
	Geocoder GeocoderConfig
	Agent    AgentConfig
	Pipeline PipelineConfig
	Snapshot SnapshotConfig
	Logging  LoggingConfig
	Debug    bool
}

type ServerConfig struct {
	Host string
	Port int
}

type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

type SearchConfig struct {
	APIKey   string
	URL      string
	Engine   string
	Country  string
	Language string
	Domains  []string
	Results  int
	Timeout  time.Duration
}

type GeocoderConfig struct {
	URL               string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

type AgentConfig struct {
	MaxIterations int
}

type PipelineConfig struct {
	Workers        int
	RequestTimeout time.Duration
}

type SnapshotConfig struct {
	Dir    string // empty disables file snapshots
	DBPath string // empty disables the sqlite run log
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 3001),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", os.Getenv("OPEN_AI_KEY")),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.9),
			MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 512),
			Timeout:     getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:  getEnvInt("OPENAI_MAX_RETRIES", 2),
		},
		Search: SearchConfig{
			APIKey:   getEnv("SERPAPI_API_KEY", ""),
			URL:      getEnv("SERPAPI_URL", "https://serpapi.com/search.json"),
			Engine:   getEnv("SEARCH_ENGINE", "google"),
			Country:  getEnv("SEARCH_COUNTRY", "us"),
			Language: getEnv("SEARCH_LANGUAGE", "en"),
			Domains:  getEnvList("SEARCH_DOMAINS", []string{"ndtv.com", "bbc.in", "thehindu.com"}),
			Results:  getEnvInt("SEARCH_RESULTS", 5),
			Timeout:  getEnvDuration("SEARCH_TIMEOUT", 15*time.Second),
		},
		Geocoder: GeocoderConfig{
			URL:               getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnv("GEOCODER_USER_AGENT", "disaster-scout"),
			RequestsPerSecond: getEnvFloat("GEOCODER_RPS", 1),
			Timeout:           getEnvDuration("GEOCODER_TIMEOUT", 10*time.Second),
		},
		Agent: AgentConfig{
			MaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", 8),
		},
		Pipeline: PipelineConfig{
			Workers:        getEnvInt("PIPELINE_WORKERS", 1),
			RequestTimeout: getEnvDuration("PIPELINE_REQUEST_TIMEOUT", 5*time.Minute),
		},
		Snapshot: SnapshotConfig{
			Dir:    getEnv("SNAPSHOT_DIR", "./data"),
			DBPath: getEnv("SNAPSHOT_DB_PATH", "./data/runs.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Debug: getEnvBool("DEBUG", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("openai max retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent max iterations must be at least 1")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1")
	}
	if c.Geocoder.RequestsPerSecond <= 0 {
		return fmt.Errorf("geocoder requests per second must be positive")
	}

	return nil
}

// RequireCredentials reports missing API keys. Debug mode never calls the
// upstream services, so it is checked separately from validate.
func (c *Config) RequireCredentials() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Search.APIKey == "" {
		missing = append(missing, "SERPAPI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, ignoring blank entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
