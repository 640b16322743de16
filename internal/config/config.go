package config

import (
	"os"
)

// Config is the immutable process configuration. It is built once in main and
// passed into constructors; nothing below main reads the environment.
type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	DatabaseURL string

	// Model client
	AnthropicAPIKey string
	DefaultModel    string

	// SQL warehouse
	WarehouseHost     string
	WarehouseHTTPPath string
	WarehouseToken    string
	WarehouseCatalog  string

	// Search index
	QdrantHost   string
	QdrantPort   string
	QdrantAPIKey string
	QdrantUseTLS bool

	// Embeddings endpoint used for vector queries
	EmbeddingsURL    string
	EmbeddingsAPIKey string
	EmbeddingsModel  string

	// Logging
	LogDir string

	Debug bool
}

// Load builds the configuration from the environment.
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "claude-haiku-4-5-20251001"),

		WarehouseHost:     getEnv("WAREHOUSE_HOSTNAME", ""),
		WarehouseHTTPPath: getEnv("WAREHOUSE_HTTP_PATH", ""),
		WarehouseToken:    getEnv("WAREHOUSE_TOKEN", ""),
		WarehouseCatalog:  getEnv("WAREHOUSE_CATALOG", ""),

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnv("QDRANT_PORT", "6334"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS: getEnv("QDRANT_USE_TLS", "false") == "true",

		EmbeddingsURL:    getEnv("EMBEDDINGS_URL", ""),
		EmbeddingsAPIKey: getEnv("EMBEDDINGS_API_KEY", ""),
		EmbeddingsModel:  getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),

		LogDir: getEnv("LOG_DIR", ""),

		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
