package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Ai      AIConfig
	Dataset DatasetConfig
	Chat    ChatConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
}

type AIConfig struct {
	LLMProvider       string // "ollama", "openai" or "huggingface"
	LLMModel          string // e.g. "llama3.2:latest", "gpt-4o-mini"
	OllamaBaseURL     string
	OpenAIBaseURL     string
	OpenAIAPIKey      string
	HuggingFaceAPIKey string
	// LLMTimeoutSeconds bounds every model call.
	LLMTimeoutSeconds int
}

type DatasetConfig struct {
	// Path to the CSV file loaded at startup. Startup fails without it.
	Path string
	// QueryTimeoutSeconds bounds each statement execution.
	QueryTimeoutSeconds int
}

type ChatConfig struct {
	HistoryWindow       int    // Rounds kept per session
	ReformulationWindow int    // Messages considered when rewriting a question
	RoutingPolicy       string // "keyword" or "prefix"
	AuditTopic          string // In-process topic for answered data questions
	AuditPath           string // TSV file the audit consumer appends to
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "4040"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:4040"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4000,https://mine-dd.github.io"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.2:latest"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),
			LLMTimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
		},
		Dataset: DatasetConfig{
			Path:                getEnv("DATASET_PATH", "data/sample_point_data.csv"),
			QueryTimeoutSeconds: getEnvAsInt("QUERY_TIMEOUT_SECONDS", 10),
		},
		Chat: ChatConfig{
			HistoryWindow:       getEnvAsInt("HISTORY_WINDOW", 5),
			ReformulationWindow: getEnvAsInt("REFORMULATION_WINDOW", 5),
			RoutingPolicy:       getEnv("ROUTING_POLICY", "keyword"),
			AuditTopic:          getEnv("QA_AUDIT_TOPIC", "qa.audit"),
			AuditPath:           getEnv("QA_AUDIT_PATH", "outputs/qa_audit.tsv"),
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
