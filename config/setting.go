package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type serverConfig struct {
	Port        int    `koanf:"port" validate:"required,min=1,max=65535"`
	Mode        string `koanf:"mode" validate:"required,oneof=debug release"`
	Concurrency int    `koanf:"concurrency" validate:"required,min=1"`
	BodyLimit   int    `koanf:"body_limit" validate:"required,min=1"`
	AppName     string `koanf:"app_name" validate:"required"`
}

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
	Fatal LogLevel = "fatal"
	Panic LogLevel = "panic"
)

type Module string

const (
	ModuleVectorStore Module = "vectorstore"
	ModuleIngest      Module = "ingest"
	ModuleDatabase    Module = "database"
	ModuleOpenAI      Module = "openai"
	ModuleStorage     Module = "storage"
	ModuleCors        Module = "cors"
	ModuleServer      Module = "server"
	ModuleSetting     Module = "setting"
	ModuleChat        Module = "chat"
	ModuleDocument    Module = "document"
	ModuleMessage     Module = "message"
	ModuleQuery       Module = "query"
	ModuleHealth      Module = "health"
)

type databaseConfig struct {
	Host         string   `koanf:"host" validate:"required"`
	Port         int      `koanf:"port" validate:"required"`
	User         string   `koanf:"user" validate:"required"`
	Password     string   `koanf:"password"`
	Name         string   `koanf:"name" validate:"required"`
	MaxIdleConns int      `koanf:"max_idle_conns" validate:"required,min=1"`
	MaxOpenConns int      `koanf:"max_open_conns" validate:"required,min=1"`
	MaxLifetime  int      `koanf:"max_lifetime" validate:"required,min=1"`
	Replicas     []string `koanf:"replicas"`
	AutoMigrate  bool     `koanf:"auto_migrate"`
}

type openaiConfig struct {
	Key               string  `koanf:"key"`
	BaseURL           string  `koanf:"base_url" validate:"omitempty,url"`
	Model             string  `koanf:"model" validate:"required"`
	EmbeddingModel    string  `koanf:"embedding_model" validate:"required"`
	EmbeddingBaseURL  string  `koanf:"embedding_base_url" validate:"omitempty,url"`
	EmbeddingBatch    int     `koanf:"embedding_batch" validate:"required,min=1,max=2048"`
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`
	Temperature       float64 `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens         int     `koanf:"max_tokens" validate:"gte=0"`
}

type CorsConfig struct {
	AllowOrigins     []string `koanf:"allow_origins" validate:"required"`
	AllowMethods     []string `koanf:"allow_methods" validate:"required"`
	AllowHeaders     []string `koanf:"allow_headers" validate:"required"`
	AllowCredentials bool     `koanf:"allow_credentials"`
}

type vectorStoreConfig struct {
	Type   string       `koanf:"type" validate:"required,oneof=milvus qdrant memory"`
	Milvus milvusConfig `koanf:"milvus"`
	Qdrant qdrantConfig `koanf:"qdrant"`
}

type milvusConfig struct {
	Address         string          `koanf:"address" validate:"required"`
	SearchEf        int             `koanf:"search_ef" validate:"required,min=1"`
	IndexHNSWConfig indexHNSWConfig `koanf:"index_hnsw_config"`
}

type indexHNSWConfig struct {
	MetricType     string `koanf:"metric_type" validate:"required,oneof=L2 IP COSINE"`
	M              int    `koanf:"m" validate:"required,min=2"`
	EfConstruction int    `koanf:"ef_construction" validate:"required,min=1"`
}

type qdrantConfig struct {
	Address string `koanf:"address" validate:"required"`
}

type storageConfig struct {
	Type     string   `koanf:"type" validate:"required,oneof=local s3"`
	LocalDir string   `koanf:"local_dir" validate:"required"`
	S3       s3Config `koanf:"s3"`
}

type s3Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region" validate:"required"`
	UseSSL    bool   `koanf:"use_ssl"`
	Bucket    string `koanf:"bucket" validate:"required"`
}

type ingestConfig struct {
	ChunkSize     int     `koanf:"chunk_size" validate:"required,min=1"`
	ChunkOverlap  int     `koanf:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	AvgWordLen    int     `koanf:"avg_word_len" validate:"required,min=1"`
	HeaderRatio   float64 `koanf:"header_ratio" validate:"gte=0,lt=0.5"`
	FooterRatio   float64 `koanf:"footer_ratio" validate:"gte=0,lt=0.5"`
	XTolerance    float64 `koanf:"x_tolerance" validate:"gte=0"`
	YTolerance    float64 `koanf:"y_tolerance" validate:"gte=0"`
	TimeoutSecond int     `koanf:"timeout_second" validate:"required,min=1"`
}

type queryConfig struct {
	DefaultK        int `koanf:"default_k" validate:"required,min=1,max=64"`
	MaxContextChars int `koanf:"max_context_chars" validate:"required,min=1"`
	EmbedTimeoutMs  int `koanf:"embed_timeout_ms" validate:"required,min=1"`
	SearchTimeoutMs int `koanf:"search_timeout_ms" validate:"required,min=1"`
	LLMTimeoutMs    int `koanf:"llm_timeout_ms" validate:"required,min=1"`
}

// Config is the root application configuration.
type Config struct {
	Server      serverConfig      `koanf:"server"`
	Database    databaseConfig    `koanf:"database"`
	OpenAI      openaiConfig      `koanf:"openai"`
	LogLevel    LogLevel          `koanf:"log_level" validate:"oneof=debug info warn error fatal panic"`
	Dns         string            `koanf:"dns"`
	Storage     storageConfig     `koanf:"storage"`
	Cors        CorsConfig        `koanf:"cors"`
	VectorStore vectorStoreConfig `koanf:"vector_store"`
	Ingest      ingestConfig      `koanf:"ingest"`
	Query       queryConfig       `koanf:"query"`
}

func buildMySQLDSN(cfg databaseConfig) string {
	return buildMySQLDSNFor(cfg, cfg.Host)
}

func buildMySQLDSNFor(cfg databaseConfig, host string) string {
	if !strings.Contains(host, ":") {
		host = fmt.Sprintf("%s:%d", host, cfg.Port)
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		host,
		cfg.Name,
	)
}

// ReplicaDSNs returns a DSN per configured read replica host.
func (c *Config) ReplicaDSNs() []string {
	out := make([]string, 0, len(c.Database.Replicas))
	for _, host := range c.Database.Replicas {
		if host = strings.TrimSpace(host); host != "" {
			out = append(out, buildMySQLDSNFor(c.Database, host))
		}
	}
	return out
}

// Default returns the built-in configuration used beneath file and env values.
func Default() Config {
	return Config{
		Server: serverConfig{
			Port:        8000,
			Mode:        "release",
			Concurrency: 256,
			BodyLimit:   50 * 1024 * 1024,
			AppName:     "docchat",
		},
		Database: databaseConfig{
			Host:         "127.0.0.1",
			Port:         3306,
			User:         "root",
			Password:     "",
			Name:         "docchat",
			MaxIdleConns: 5,
			MaxOpenConns: 20,
			MaxLifetime:  30,
			AutoMigrate:  true,
		},
		OpenAI: openaiConfig{
			Model:             "gpt-4o-mini",
			EmbeddingModel:    "text-embedding-3-small",
			EmbeddingBatch:    100,
			RequestsPerSecond: 5,
			Temperature:       0.2,
			MaxTokens:         512,
		},
		LogLevel: Info,
		Storage: storageConfig{
			Type:     "local",
			LocalDir: "storage/documents",
			S3: s3Config{
				Endpoint:  "http://localhost:9000",
				AccessKey: "minioadmin",
				SecretKey: "minioadmin",
				Region:    "us-east-1",
				UseSSL:    false,
				Bucket:    "uploads",
			},
		},
		Cors: CorsConfig{
			AllowOrigins: []string{"http://127.0.0.1:5500", "http://localhost:5500"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		},
		VectorStore: vectorStoreConfig{
			Type: "milvus",
			Milvus: milvusConfig{
				Address:  "localhost:19530",
				SearchEf: 64,
				IndexHNSWConfig: indexHNSWConfig{
					MetricType:     "COSINE",
					M:              16,
					EfConstruction: 200,
				},
			},
			Qdrant: qdrantConfig{
				Address: "localhost:6334",
			},
		},
		Ingest: ingestConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			AvgWordLen:    6,
			HeaderRatio:   0.08,
			FooterRatio:   0.08,
			XTolerance:    1.0,
			YTolerance:    3.0,
			TimeoutSecond: 120,
		},
		Query: queryConfig{
			DefaultK:        5,
			MaxContextChars: 3500,
			EmbedTimeoutMs:  3000,
			SearchTimeoutMs: 2000,
			LLMTimeoutMs:    30000,
		},
	}
}

// Load layers the YAML file at path (optional) and APP_* environment
// variables over Default, then validates the result.
// APP_SERVER__PORT maps to server.port; a single underscore stays inside the key.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%v: load %s: %w", ModuleSetting, path, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%v: load env: %w", ModuleSetting, err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%v: unmarshal: %w", ModuleSetting, err)
	}

	if cfg.Dns == "" {
		cfg.Dns = buildMySQLDSN(cfg.Database)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__", ".")
}

// Validate checks struct tags and reports every failing field at once.
func Validate(cfg *Config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%v: config validation failed: %w", ModuleSetting, err)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v: config validation failed:\n", ModuleSetting))
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf("  • %s: failed '%s' (value: %v)\n", e.Namespace(), e.Tag(), e.Value()))
	}
	return errors.New(strings.TrimRight(sb.String(), "\n"))
}
