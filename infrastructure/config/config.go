package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds daemon-wide infrastructure configuration loaded from the
// environment, as opposed to domain/config.DomainConfig's business
// constants.
type Config struct {
	// Server configuration
	Port        int
	Environment string

	// MongoDB configuration
	MongoURI    string
	MongoDBName string

	// Embedder configuration
	VoyageAPIKey string
	VoyageMock   bool
	VoyageModel  string

	// LLM configuration
	LLMEndpoint string
	LLMModel    string

	// Authentication
	MemoryAPIKey string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// fileOverlay mirrors Config's fields as a YAML document, read before env
// vars so a checked-in base config can be overridden per-deployment without
// editing it. Every field is a pointer so an absent key in the file leaves
// the corresponding env var/default untouched.
type fileOverlay struct {
	Port          *int    `yaml:"port"`
	Environment   *string `yaml:"environment"`
	MongoURI      *string `yaml:"mongoUri"`
	MongoDBName   *string `yaml:"mongoDbName"`
	VoyageAPIKey  *string `yaml:"voyageApiKey"`
	VoyageMock    *bool   `yaml:"voyageMock"`
	VoyageModel   *string `yaml:"voyageModel"`
	LLMEndpoint   *string `yaml:"llmEndpoint"`
	LLMModel      *string `yaml:"llmModel"`
	MemoryAPIKey  *string `yaml:"memoryApiKey"`
	LogLevel      *string `yaml:"logLevel"`
	EnableMetrics *bool   `yaml:"enableMetrics"`
	EnableCORS    *bool   `yaml:"enableCors"`
}

// LoadConfig loads configuration from an optional CONFIG_FILE YAML overlay
// followed by environment variables, which always win over the file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("MEMORY_DAEMON_PORT", 7751),
		Environment: getEnv("ENVIRONMENT", "development"),

		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGODB_DB_NAME", "openclaw_memory"),

		VoyageAPIKey: getEnv("VOYAGE_API_KEY", ""),
		VoyageMock:   getEnvBool("VOYAGE_MOCK", false),
		VoyageModel:  getEnv("VOYAGE_MODEL", "voyage-3"),

		LLMEndpoint: getEnv("LLM_ENDPOINT", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),

		MemoryAPIKey: getEnv("MEMORY_API_KEY", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFileOverlay(cfg, path); err != nil {
			return nil, fmt.Errorf("loading CONFIG_FILE: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFileOverlay fills any Config field the caller did not set via an
// environment variable from the YAML file at path. Only fields explicitly
// present in the file are considered, so an overlay with just a handful of
// keys never clobbers the rest of the env-derived config. A missing file is
// an error: CONFIG_FILE being set signals intent, so a typo'd path should
// fail loudly rather than silently fall back to defaults.
func applyFileOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	if overlay.Port != nil && os.Getenv("MEMORY_DAEMON_PORT") == "" {
		cfg.Port = *overlay.Port
	}
	if overlay.Environment != nil && os.Getenv("ENVIRONMENT") == "" {
		cfg.Environment = *overlay.Environment
	}
	if overlay.MongoURI != nil && os.Getenv("MONGODB_URI") == "" {
		cfg.MongoURI = *overlay.MongoURI
	}
	if overlay.MongoDBName != nil && os.Getenv("MONGODB_DB_NAME") == "" {
		cfg.MongoDBName = *overlay.MongoDBName
	}
	if overlay.VoyageAPIKey != nil && os.Getenv("VOYAGE_API_KEY") == "" {
		cfg.VoyageAPIKey = *overlay.VoyageAPIKey
	}
	if overlay.VoyageMock != nil && os.Getenv("VOYAGE_MOCK") == "" {
		cfg.VoyageMock = *overlay.VoyageMock
	}
	if overlay.VoyageModel != nil && os.Getenv("VOYAGE_MODEL") == "" {
		cfg.VoyageModel = *overlay.VoyageModel
	}
	if overlay.LLMEndpoint != nil && os.Getenv("LLM_ENDPOINT") == "" {
		cfg.LLMEndpoint = *overlay.LLMEndpoint
	}
	if overlay.LLMModel != nil && os.Getenv("LLM_MODEL") == "" {
		cfg.LLMModel = *overlay.LLMModel
	}
	if overlay.MemoryAPIKey != nil && os.Getenv("MEMORY_API_KEY") == "" {
		cfg.MemoryAPIKey = *overlay.MemoryAPIKey
	}
	if overlay.LogLevel != nil && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = *overlay.LogLevel
	}
	if overlay.EnableMetrics != nil && os.Getenv("ENABLE_METRICS") == "" {
		cfg.EnableMetrics = *overlay.EnableMetrics
	}
	if overlay.EnableCORS != nil && os.Getenv("ENABLE_CORS") == "" {
		cfg.EnableCORS = *overlay.EnableCORS
	}
	return nil
}

// Load is an alias for LoadConfig for backwards compatibility.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks that required configuration is present for the selected
// environment.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.Environment == "production" {
		if !c.VoyageMock && c.VoyageAPIKey == "" {
			return fmt.Errorf("VOYAGE_API_KEY is required in production unless VOYAGE_MOCK is set")
		}
		if c.MemoryAPIKey == "" {
			return fmt.Errorf("MEMORY_API_KEY is required in production")
		}
	}
	return nil
}

// IsDevelopment reports whether the daemon is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the daemon is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
