package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	Elasticsearch ElasticsearchConfig
	Ai            AIConfig
	Rerank        RerankConfig
	Export        ExportConfig
	Auth          AuthConfig
	Assistant     AssistantConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ContextBackend     string // "memory" or "redis"
}

type DatabaseConfig struct {
	Connection string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	OllamaBaseURL     string
	EmbeddingModel    string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	LLMBaseURL        string
	LLMApiKey         string
}

type RerankConfig struct {
	ApiKey  string
	BaseURL string
	Model   string
}

type ExportConfig struct {
	Dir       string
	PublicURL string
}

type AuthConfig struct {
	JwtSecret string
}

// AssistantConfig holds the tuning knobs of the chat pipeline.
type AssistantConfig struct {
	ExactThreshold   float64       `mapstructure:"exact_threshold"`
	VectorThreshold  float64       `mapstructure:"vector_threshold"`
	VectorTopK       int           `mapstructure:"vector_top_k"`
	RerankTopN       int           `mapstructure:"rerank_top_n"`
	LLMTimeout       time.Duration `mapstructure:"llm_timeout"`
	VectorTimeout    time.Duration `mapstructure:"vector_timeout"`
	RerankTimeout    time.Duration `mapstructure:"rerank_timeout"`
	HandlerTimeout   time.Duration `mapstructure:"handler_timeout"`
	ExternalRetries  int           `mapstructure:"external_retries"`
	ColorCacheTTL    time.Duration `mapstructure:"color_cache_ttl"`
	KnowledgeTTL     time.Duration `mapstructure:"knowledge_ttl"`
	ContextTTL       time.Duration `mapstructure:"context_ttl"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	MaxMessageLength int           `mapstructure:"max_message_length"`
	Hotline          string        `mapstructure:"hotline"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	assistant, err := loadAssistant(getEnv("ASSISTANT_CONFIG_FILE", ""))
	if err != nil {
		log.Printf("Warn: failed to read assistant tuning file: %v (using defaults)", err)
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "assistant.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			ContextBackend:     getEnv("CONTEXT_BACKEND", "memory"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses: getEnvAsList("ELASTICSEARCH_ADDRESSES"),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_PRODUCT_INDEX", "products"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "qwen2.5"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMApiKey:         getEnv("LLM_API_KEY", ""),
		},
		Rerank: RerankConfig{
			ApiKey:  getEnv("COHERE_API_KEY", ""),
			BaseURL: getEnv("RERANK_BASE_URL", "https://api.cohere.com"),
			Model:   getEnv("RERANK_MODEL", "rerank-multilingual-v3.0"),
		},
		Export: ExportConfig{
			Dir:       getEnv("EXPORT_DIR", "./exports"),
			PublicURL: getEnv("EXPORT_PUBLIC_URL", getEnv("APP_BASE_URL", "http://localhost:3000")+"/api/exports"),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Assistant: assistant,
	}
}

func assistantDefaults(v *viper.Viper) {
	v.SetDefault("exact_threshold", 0.8)
	v.SetDefault("vector_threshold", 0.75)
	v.SetDefault("vector_top_k", 50)
	v.SetDefault("rerank_top_n", 10)
	v.SetDefault("llm_timeout", 30*time.Second)
	v.SetDefault("vector_timeout", 5*time.Second)
	v.SetDefault("rerank_timeout", 5*time.Second)
	v.SetDefault("handler_timeout", 75*time.Second)
	v.SetDefault("external_retries", 1)
	v.SetDefault("color_cache_ttl", time.Hour)
	v.SetDefault("knowledge_ttl", 30*time.Minute)
	v.SetDefault("context_ttl", 24*time.Hour)
	v.SetDefault("history_limit", 10)
	v.SetDefault("max_message_length", 5000)
	v.SetDefault("hotline", "1900 1234")
}

// loadAssistant reads the tuning section. Values come from defaults, then the
// optional YAML file, then ASSISTANT_* environment variables.
func loadAssistant(file string) (AssistantConfig, error) {
	v := viper.New()
	assistantDefaults(v)

	v.SetEnvPrefix("ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var readErr error
	if file != "" {
		v.SetConfigFile(file)
		readErr = v.ReadInConfig()
	}

	var cfg AssistantConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, readErr
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
