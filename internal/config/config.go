package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CacheConfig configures the instant-answer cache.
type CacheConfig struct {
	// StorePath is the flat JSON file holding all answered questions. The
	// file is the source of truth; the vector index is rebuilt from it.
	StorePath string `yaml:"storePath"`
	// Threshold is the minimum cosine similarity for a cache hit. Tunable;
	// the production deployment runs at 0.85.
	Threshold float64 `yaml:"threshold"`
	// Index selects the vector index backend: "memory" (default) or "milvus".
	Index string `yaml:"index"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "gemini", "openai" or "ollama"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL,omitempty"`
	// CacheSize bounds the embedding memoization cache (entries). 0 disables
	// memoization.
	CacheSize int `yaml:"cacheSize"`
}

// LLMConfig configures the response-generation model.
type LLMConfig struct {
	Provider string `yaml:"provider"` // only "gemini" for now
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	// NGWordPath is the CSV of blocked words and canned replies.
	NGWordPath string `yaml:"ngWordPath"`
	// KnowledgePath / QAPath are the JSON snippet files embedded at build
	// time by the faq_builder and retrieved into the prompt.
	KnowledgePath string `yaml:"knowledgePath"`
	QAPath        string `yaml:"qaPath"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	APIKey       string  `yaml:"apiKey"`
	LanguageCode string  `yaml:"languageCode"` // e.g. "ja-JP"
	VoiceName    string  `yaml:"voiceName"`
	SpeakingRate float64 `yaml:"speakingRate"`
}

// AudioStoreConfig selects where synthesized audio is persisted.
type AudioStoreConfig struct {
	Backend string `yaml:"backend"` // "local" or "minio"
	// Dir is the local directory for the "local" backend.
	Dir string `yaml:"dir"`
}

// MinIOConfig is the object-store connection for the "minio" audio backend.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// MilvusConfig is the connection for the "milvus" index backend.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
	// Dim must match the embedding provider's output dimension.
	Dim int `yaml:"dim"`
}

// RedisConfig is the connection for the Redis-backed response history.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WorkerConfig bounds the background answer worker.
type WorkerConfig struct {
	// MaxConcurrency caps simultaneous generation + synthesis cycles.
	MaxConcurrency int `yaml:"maxConcurrency"`
}

// YouTubeConfig configures the live-chat monitor.
type YouTubeConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"apiKey"`
	VideoID      string `yaml:"videoID"`
	PollInterval string `yaml:"pollInterval"` // e.g. "15s"
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Address string `yaml:"address"` // e.g. ":8080"
}

// LoggerConfig sets the log level.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	LLM        LLMConfig        `yaml:"llm"`
	TTS        TTSConfig        `yaml:"tts"`
	AudioStore AudioStoreConfig `yaml:"audioStore"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Milvus     MilvusConfig     `yaml:"milvus"`
	Redis      RedisConfig      `yaml:"redis"`
	Worker     WorkerConfig     `yaml:"worker"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
}

// LoadConfig reads and parses the YAML configuration file at path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	// Secrets stay in the environment; the file references them as ${VAR}.
	yamlFile = []byte(os.ExpandEnv(string(yamlFile)))

	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Cache.Threshold == 0 {
		cfg.Cache.Threshold = 0.85
	}
	if cfg.Cache.Index == "" {
		cfg.Cache.Index = "memory"
	}
	if cfg.Cache.StorePath == "" {
		cfg.Cache.StorePath = "static/faq_cache.json"
	}
	if cfg.AudioStore.Backend == "" {
		cfg.AudioStore.Backend = "local"
	}
	if cfg.AudioStore.Dir == "" {
		cfg.AudioStore.Dir = "static/audio"
	}
	if cfg.Worker.MaxConcurrency <= 0 {
		cfg.Worker.MaxConcurrency = 3
	}
	if cfg.TTS.LanguageCode == "" {
		cfg.TTS.LanguageCode = "ja-JP"
	}
	if cfg.TTS.VoiceName == "" {
		cfg.TTS.VoiceName = "ja-JP-Neural2-C"
	}
	if cfg.TTS.SpeakingRate == 0 {
		cfg.TTS.SpeakingRate = 1.0
	}
	if cfg.YouTube.PollInterval == "" {
		cfg.YouTube.PollInterval = "15s"
	}
}
