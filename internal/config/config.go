package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Retrieval RetrievalConfig
	Chunking  ChunkingConfig
	Storage   StorageConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	ChatModel  string
	EmbedModel string
	// MaxOutputTokens bounds answer generation; 0 lets the API decide.
	MaxOutputTokens int
}

type RetrievalConfig struct {
	TopK int
}

type ChunkingConfig struct {
	MaxChunkSize int
	Overlap      int
}

type StorageConfig struct {
	// DataDir holds local reference files (CSV tables) ingested at startup.
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 3001,
			AllowedOrigins: []string{
				"https://diabe-ai-buddy-frontend.onrender.com",
				"http://localhost:5173",
			},
		},
		Gemini: GeminiConfig{
			BaseURL:         "https://generativelanguage.googleapis.com",
			ChatModel:       "gemini-2.0-flash",
			EmbedModel:      "embedding-001",
			MaxOutputTokens: 2048,
		},
		Retrieval: RetrievalConfig{TopK: 3},
		Chunking:  ChunkingConfig{MaxChunkSize: 1000, Overlap: 200},
		Storage:   StorageConfig{DataDir: "./data"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from defaults and DIABUDDY_* environment
// variables. A .env file in the working directory is honored if present.
// The Gemini API key is required; everything else has a usable default.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key. Set it via environment variable DIABUDDY_GEMINI_API_KEY or GEMINI_API_KEY")
	}
	if cfg.Chunking.Overlap >= cfg.Chunking.MaxChunkSize {
		return Config{}, fmt.Errorf("chunk overlap (%d) must be smaller than max chunk size (%d)", cfg.Chunking.Overlap, cfg.Chunking.MaxChunkSize)
	}

	return cfg, nil
}
