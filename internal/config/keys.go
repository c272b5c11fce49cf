package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kStringList
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "DIABUDDY_SERVER_PORT",
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.allowed_origins", typ: kStringList, env: "DIABUDDY_SERVER_ALLOWED_ORIGINS",
		apply: func(cfg *Config, v any) { cfg.Server.AllowedOrigins = v.([]string) },
		extract: func(cfg Config) any { return cfg.Server.AllowedOrigins },
	},
	{
		key: "gemini.base_url", typ: kString, env: "DIABUDDY_GEMINI_BASE_URL",
		apply: func(cfg *Config, v any) { cfg.Gemini.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.BaseURL },
	},
	{
		key: "gemini.api_key", typ: kString, env: "DIABUDDY_GEMINI_API_KEY",
		secret: true,
		apply:  func(cfg *Config, v any) { cfg.Gemini.APIKey = v.(string) },
	},
	{
		// Compatibility with the original deployment's variable name.
		key: "gemini.api_key_compat", typ: kString, env: "GEMINI_API_KEY",
		secret: true,
		apply: func(cfg *Config, v any) {
			if cfg.Gemini.APIKey == "" {
				cfg.Gemini.APIKey = v.(string)
			}
		},
	},
	{
		key: "gemini.chat_model", typ: kString, env: "DIABUDDY_GEMINI_CHAT_MODEL",
		apply: func(cfg *Config, v any) { cfg.Gemini.ChatModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.ChatModel },
	},
	{
		key: "gemini.embed_model", typ: kString, env: "DIABUDDY_GEMINI_EMBED_MODEL",
		apply: func(cfg *Config, v any) { cfg.Gemini.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Gemini.EmbedModel },
	},
	{
		key: "gemini.max_output_tokens", typ: kInt, env: "DIABUDDY_GEMINI_MAX_OUTPUT_TOKENS",
		apply: func(cfg *Config, v any) { cfg.Gemini.MaxOutputTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Gemini.MaxOutputTokens },
	},
	{
		key: "retrieval.top_k", typ: kInt, env: "DIABUDDY_RETRIEVAL_TOP_K",
		apply: func(cfg *Config, v any) { cfg.Retrieval.TopK = v.(int) },
		extract: func(cfg Config) any { return cfg.Retrieval.TopK },
	},
	{
		key: "chunking.max_chunk_size", typ: kInt, env: "DIABUDDY_CHUNK_MAX_SIZE",
		apply: func(cfg *Config, v any) { cfg.Chunking.MaxChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Chunking.MaxChunkSize },
	},
	{
		key: "chunking.overlap", typ: kInt, env: "DIABUDDY_CHUNK_OVERLAP",
		apply: func(cfg *Config, v any) { cfg.Chunking.Overlap = v.(int) },
		extract: func(cfg Config) any { return cfg.Chunking.Overlap },
	},
	{
		key: "storage.data_dir", typ: kString, env: "DIABUDDY_STORAGE_DATA_DIR",
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "DIABUDDY_LOG_LEVEL",
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kStringList:
			parts := strings.Split(raw, ",")
			var list []string
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					list = append(list, p)
				}
			}
			if len(list) > 0 {
				s.apply(cfg, list)
			}
		}
	}
}
