package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	VectorDB  VectorDBConfig   `json:"vectordb"`
	AI        AIConfig         `json:"ai"`
	Files     FilesConfig      `json:"files"`
	Templates TemplatesConfig  `json:"templates"`
	Auth      AuthConfig       `json:"auth"`
	Jobs      JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type VectorDBConfig struct {
	Provider string      `json:"provider"`
	Distance string      `json:"distance"`
	Data     interface{} `json:"data"`
}

type ModelConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generation      ModelConfig `json:"generation"`
	Embedding       ModelConfig `json:"embedding"`
	EmbeddingDim    int         `json:"embedding_dim"`
	MaxInputChars   int         `json:"max_input_chars"`
	MaxOutputTokens int         `json:"max_output_tokens"`
	Temperature     float64     `json:"temperature"`
	TimeoutSeconds  int         `json:"timeout_seconds"`
	EmbedCacheSize  int         `json:"embed_cache_size"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type FilesConfig struct {
	Store               FileStoreConfig `json:"store"`
	SupportedTypes      []string        `json:"supported_types"`
	MaxSizeMB           int             `json:"max_size_mb"`
	DefaultChunkSize    int             `json:"default_chunk_size"`
	DefaultChunkOverlap int             `json:"default_chunk_overlap"`
}

type TemplatesConfig struct {
	PrimaryLocale  string `json:"primary_locale"`
	FallbackLocale string `json:"fallback_locale"`
}

type AuthConfig struct {
	JWTSecret    string `json:"jwt_secret"`
	TTLHours     int    `json:"ttl_hours"`
	AdminUser    string `json:"admin_user"`
	AdminPassByc string `json:"admin_password_bcrypt"`
}

type JobsConfig struct {
	VectorGCSpec string `json:"vector_gc_spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}
	if cfg.Auth.AdminUser == "" || cfg.Auth.AdminPassByc == "" {
		return nil, fmt.Errorf("auth.admin_user and auth.admin_password_bcrypt are required")
	}
	if cfg.Auth.TTLHours == 0 {
		cfg.Auth.TTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.VectorDB.Provider == "" {
		return nil, fmt.Errorf("vectordb.provider is required")
	}
	if cfg.VectorDB.Distance == "" {
		cfg.VectorDB.Distance = "cosine"
	}
	if cfg.AI.Embedding.Provider == "" || cfg.AI.Embedding.Model == "" {
		return nil, fmt.Errorf("ai.embedding provider/model are required")
	}
	if cfg.AI.EmbeddingDim <= 0 {
		return nil, fmt.Errorf("ai.embedding_dim is required")
	}
	if cfg.AI.Generation.Provider == "" || cfg.AI.Generation.Model == "" {
		return nil, fmt.Errorf("ai.generation provider/model are required")
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 3000
	}
	if cfg.AI.MaxOutputTokens == 0 {
		cfg.AI.MaxOutputTokens = 1024
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.15
	}
	if cfg.Files.Store.Type == "" {
		cfg.Files.Store.Type = "local"
	}
	if len(cfg.Files.SupportedTypes) == 0 {
		cfg.Files.SupportedTypes = []string{"text/plain", "text/markdown", "application/pdf"}
	}
	if cfg.Files.MaxSizeMB == 0 {
		cfg.Files.MaxSizeMB = 20
	}
	if cfg.Files.DefaultChunkSize == 0 {
		cfg.Files.DefaultChunkSize = 512
	}
	if cfg.Files.DefaultChunkOverlap == 0 {
		cfg.Files.DefaultChunkOverlap = 64
	}
	if cfg.Templates.PrimaryLocale == "" {
		cfg.Templates.PrimaryLocale = "en"
	}
	if cfg.Templates.FallbackLocale == "" {
		cfg.Templates.FallbackLocale = "en"
	}
	return &cfg, nil
}
