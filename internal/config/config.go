package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StrategyExact   = "exact"
	StrategyProcess = "process"
	StrategyVector  = "vector"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Function  FunctionConfig
	Knowledge KnowledgeConfig
	Ai        AIConfig
	Client    ClientConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	MonitorLogFilePath string
	CorsAllowedOrigins string
	StaticDir          string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// ProviderConfig describes the realtime session requested from the provider.
type ProviderConfig struct {
	APIKey               string
	BaseURL              string
	Model                string
	Voice                string
	AudioFormat          string
	MaxOutputTokens      int
	Instructions         string
	VADThreshold         float64
	VADPrefixPaddingMs   int
	VADSilenceDurationMs int
	Timeout              time.Duration
}

type FunctionConfig struct {
	Name           string
	Description    string
	Argument       string
	FallbackAnswer string
}

type KnowledgeConfig struct {
	Strategy        string
	File            string
	SearchCommand   string
	SearchArgs      []string
	SearchTimeout   time.Duration
	SearchWorkers   int
	VectorThreshold float64
	VectorTopK      int
	AnswerCacheTTL  time.Duration
}

type AIConfig struct {
	EmbeddingProvider string // "ollama", "gemini" or "jina"
	OllamaBaseURL     string
	OllamaModel       string
	GoogleGemini      string
	Jina              string
}

type ClientConfig struct {
	BackendURL       string
	Transport        string // "webrtc" or "websocket"
	HandshakeTimeout time.Duration
	MicOggFile       string
	SpeakerOggFile   string
	LogFilePath      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			MonitorLogFilePath: getEnv("MONITOR_LOG_FILE_PATH", "logs/monitor.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			StaticDir:          getEnv("STATIC_DIR", "./public"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Provider: ProviderConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			Model:           getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview-2024-12-17"),
			Voice:           getEnv("REALTIME_VOICE", "verse"),
			AudioFormat:     getEnv("REALTIME_AUDIO_FORMAT", "pcm16"),
			MaxOutputTokens: getEnvAsInt("REALTIME_MAX_OUTPUT_TOKENS", 200),
			Instructions: getEnv("REALTIME_INSTRUCTIONS",
				"Eres un asistente de atención al cliente. Solo debes responder preguntas dentro de tu base de conocimientos y no responder temas que no estén en tu base de datos."),
			VADThreshold:         getEnvAsFloat("VAD_THRESHOLD", 0.5),
			VADPrefixPaddingMs:   getEnvAsInt("VAD_PREFIX_PADDING_MS", 300),
			VADSilenceDurationMs: getEnvAsInt("VAD_SILENCE_DURATION_MS", 500),
			Timeout:              getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
		},
		Function: FunctionConfig{
			Name:           getEnv("FUNCTION_NAME", "search_frequent_question"),
			Description:    getEnv("FUNCTION_DESCRIPTION", "Busca una respuesta en la base de datos de preguntas frecuentes"),
			Argument:       getEnv("FUNCTION_ARGUMENT", "pregunta"),
			FallbackAnswer: getEnv("FALLBACK_ANSWER", "Lo siento, no tengo una respuesta para esa pregunta."),
		},
		Knowledge: KnowledgeConfig{
			Strategy:        strings.ToLower(getEnv("KNOWLEDGE_STRATEGY", StrategyExact)),
			File:            getEnv("KNOWLEDGE_FILE", "preguntas.json"),
			SearchCommand:   getEnv("SEARCH_COMMAND", "python3"),
			SearchArgs:      strings.Fields(getEnv("SEARCH_ARGS", "embeddings/buscar_pregunta.py")),
			SearchTimeout:   getEnvAsDuration("SEARCH_TIMEOUT", 10*time.Second),
			SearchWorkers:   getEnvAsInt("SEARCH_WORKERS", 4),
			VectorThreshold: getEnvAsFloat("VECTOR_THRESHOLD", 0.5),
			VectorTopK:      getEnvAsInt("VECTOR_TOP_K", 2),
			AnswerCacheTTL:  getEnvAsDuration("ANSWER_CACHE_TTL", 10*time.Minute),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			GoogleGemini:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:              getEnv("JINA_API_KEY", ""),
		},
		Client: ClientConfig{
			BackendURL:       strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:3000"), "/"),
			Transport:        strings.ToLower(getEnv("CLIENT_TRANSPORT", "webrtc")),
			HandshakeTimeout: getEnvAsDuration("HANDSHAKE_TIMEOUT", 15*time.Second),
			MicOggFile:       getEnv("MIC_OGG_FILE", ""),
			SpeakerOggFile:   getEnv("SPEAKER_OGG_FILE", "respuesta.ogg"),
			LogFilePath:      getEnv("CLIENT_LOG_FILE_PATH", "logs/client.log"),
		},
	}
}

// Validate checks the settings the backend cannot start without.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	switch c.Knowledge.Strategy {
	case StrategyExact:
		if c.Knowledge.File == "" {
			return errors.New("KNOWLEDGE_FILE is required for the exact strategy")
		}
	case StrategyProcess:
		if c.Knowledge.SearchCommand == "" {
			return errors.New("SEARCH_COMMAND is required for the process strategy")
		}
	case StrategyVector:
		if c.Database.Connection == "" {
			return errors.New("DB_CONNECTION_STRING is required for the vector strategy")
		}
	default:
		return fmt.Errorf("unknown KNOWLEDGE_STRATEGY %q", c.Knowledge.Strategy)
	}
	if c.Function.Name == "" || c.Function.Argument == "" {
		return errors.New("FUNCTION_NAME and FUNCTION_ARGUMENT must not be empty")
	}
	return nil
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
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
