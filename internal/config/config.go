package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IngestTopic        string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	GoogleCse    string
	GoogleCseId  string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaEmbedModel  string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string

	// Session memory bounds. MaxSessionTurns is the single source of truth
	// for how many exchanges a conversation retains (FIFO).
	MaxSessionTurns int
	SessionTTL      time.Duration
	EvictInterval   time.Duration

	// Context assembly budgets (characters).
	ContextBudgetChars int
	SnippetChars       int
	HistoryAnswerChars int
	AnswerStoreChars   int

	RetrievalTopK     int
	RetrievalTimeout  time.Duration
	GenerationTimeout time.Duration
	WorkerPoolSize    int

	ToolsEnabled bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			IngestTopic:        getEnv("INGEST_CHUNKS_TOPIC_NAME", "INGEST_DOCUMENT_CHUNKS"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GoogleCse:    getEnv("GOOGLE_CSE_API_KEY", ""),
			GoogleCseId:  getEnv("GOOGLE_CSE_ID", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),

			MaxSessionTurns: getEnvAsInt("AI_MAX_SESSION_TURNS", 10),
			SessionTTL:      getEnvAsDuration("AI_SESSION_TTL", 24*time.Hour),
			EvictInterval:   getEnvAsDuration("AI_SESSION_EVICT_INTERVAL", 10*time.Minute),

			ContextBudgetChars: getEnvAsInt("AI_CONTEXT_BUDGET_CHARS", 2400),
			SnippetChars:       getEnvAsInt("AI_SNIPPET_CHARS", 500),
			HistoryAnswerChars: getEnvAsInt("AI_HISTORY_ANSWER_CHARS", 500),
			AnswerStoreChars:   getEnvAsInt("AI_ANSWER_STORE_CHARS", 800),

			RetrievalTopK:     getEnvAsInt("AI_RETRIEVAL_TOP_K", 3),
			RetrievalTimeout:  getEnvAsDuration("AI_RETRIEVAL_TIMEOUT", 10*time.Second),
			GenerationTimeout: getEnvAsDuration("AI_GENERATION_TIMEOUT", 60*time.Second),
			WorkerPoolSize:    getEnvAsInt("AI_WORKER_POOL_SIZE", 3),

			ToolsEnabled: getEnvAsBool("AI_TOOLS_ENABLED", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
