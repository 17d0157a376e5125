package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Ingest   IngestConfig
	PDFText  PDFTextConfig
	OCR      OCRConfig
	LLM      LLMConfig
	Workers  WorkerConfig
}

// DatabaseConfig holds database-related configuration.
// When SQLitePath is set it takes precedence over the Postgres DSN.
type DatabaseConfig struct {
	DSN              string
	SQLitePath       string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// IngestConfig holds inbox-watcher configuration.
type IngestConfig struct {
	InboxDir    string
	InitialScan bool
	Debounce    time.Duration
}

// PDFTextConfig holds deterministic text extraction configuration.
type PDFTextConfig struct {
	Pdftotext      string
	Pdfinfo        string
	ExtractTimeout time.Duration
	InfoTimeout    time.Duration
}

// OCRConfig holds vision OCR configuration.
type OCRConfig struct {
	Pdftoppm    string
	DPI         int
	PageTimeout time.Duration
}

// LLMConfig holds completion API configuration. The same credential serves
// both the vision OCR path and the transaction extraction path.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	Temperature float32
	Timeout     time.Duration
}

// WorkerConfig holds background processing configuration.
type WorkerConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			SQLitePath:       getEnv("DB_SQLITE_PATH", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Ingest: IngestConfig{
			InboxDir:    getEnv("INBOX_DIR", "./uploads"),
			InitialScan: getEnvAsBool("INBOX_INITIAL_SCAN", true),
			Debounce:    getEnvAsDuration("INBOX_DEBOUNCE", 500*time.Millisecond),
		},
		PDFText: PDFTextConfig{
			Pdftotext:      getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdfinfo:        getEnv("PDFINFO_BIN", "pdfinfo"),
			ExtractTimeout: getEnvAsDuration("PDFTEXT_TIMEOUT", 60*time.Second),
			InfoTimeout:    getEnvAsDuration("PDFINFO_TIMEOUT", 30*time.Second),
		},
		OCR: OCRConfig{
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			PageTimeout: getEnvAsDuration("OCR_PAGE_TIMEOUT", 60*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			APIKey:      getEnv("GROQ_API_KEY", ""),
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			VisionModel: getEnv("GROQ_VISION_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
			Temperature: getEnvAsFloat32("GROQ_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 45*time.Second),
		},
		Workers: WorkerConfig{
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 10*time.Minute),
		},
	}
}

// Validate validates the loaded configuration.
// A missing LLM credential is deliberately NOT fatal: the extractors
// short-circuit to structured failures instead (recoverable by re-trigger).
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError(CodeConfig, "one of DB_URL or DB_SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.Ingest.InboxDir == "" {
		return NewAppError(CodeConfig, "INBOX_DIR is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
