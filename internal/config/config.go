// ABOUTME: Configuration loading for the agent server
// ABOUTME: Reads YAML via viper with environment variable overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full agent server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Voice    VoiceConfig    `mapstructure:"voice"`
	Converse ConverseConfig `mapstructure:"converse"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	AudioDir string `mapstructure:"audio_dir"`
}

// AgentConfig configures the conversational agent.
type AgentConfig struct {
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	AgentName    string  `mapstructure:"agent_name"`
	PersonaName  string  `mapstructure:"persona_name"`
}

// MemoryConfig configures the retrieval memory store.
type MemoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	EmbedURL   string `mapstructure:"embed_url"`
	IndexHost  string `mapstructure:"index_host"`
	Namespace  string `mapstructure:"namespace"`
	EmbedModel string `mapstructure:"embed_model"`
	TopK       int    `mapstructure:"top_k"`
}

// VoiceConfig configures text-to-speech.
type VoiceConfig struct {
	APIKey     string  `mapstructure:"api_key"`
	VoiceID    string  `mapstructure:"voice_id"`
	ModelID    string  `mapstructure:"model_id"`
	Stability  float64 `mapstructure:"stability"`
	Similarity float64 `mapstructure:"similarity"`
}

// ConverseConfig configures the realtime conversation endpoint.
type ConverseConfig struct {
	SampleRate       int     `mapstructure:"sample_rate"`
	Channels         int     `mapstructure:"channels"`
	ChunkMillis      int     `mapstructure:"chunk_millis"`
	SilenceThreshold float64 `mapstructure:"silence_threshold"`
	SilenceWindows   int     `mapstructure:"silence_windows"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from the given file. Environment variables
// prefixed VOICERELAY_ override file values (VOICERELAY_AGENT_OPENAI_API_KEY
// overrides agent.openai_api_key). A missing file is not an error; env
// and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICERELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.audio_dir", "audio_files")

	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.temperature", 0.7)
	v.SetDefault("agent.agent_name", "Version One")

	v.SetDefault("memory.enabled", true)
	v.SetDefault("memory.embed_model", "llama-text-embed-v2")
	v.SetDefault("memory.top_k", 3)

	v.SetDefault("voice.stability", 0.3)
	v.SetDefault("voice.similarity", 0.75)

	v.SetDefault("converse.sample_rate", 16000)
	v.SetDefault("converse.channels", 1)
	v.SetDefault("converse.chunk_millis", 250)
	v.SetDefault("converse.silence_threshold", 0.01)
	v.SetDefault("converse.silence_windows", 4)

	v.SetDefault("logging.level", "info")
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Agent.OpenAIAPIKey == "" {
		return fmt.Errorf("agent.openai_api_key is required")
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("agent.temperature must be between 0 and 2, got %v", c.Agent.Temperature)
	}
	if c.Memory.Enabled {
		if c.Memory.APIKey == "" {
			return fmt.Errorf("memory.api_key is required when memory is enabled")
		}
		if c.Memory.EmbedURL == "" || c.Memory.IndexHost == "" {
			return fmt.Errorf("memory.embed_url and memory.index_host are required when memory is enabled")
		}
	}
	if c.Voice.APIKey == "" {
		return fmt.Errorf("voice.api_key is required")
	}
	if c.Converse.SampleRate <= 0 {
		return fmt.Errorf("converse.sample_rate must be positive, got %d", c.Converse.SampleRate)
	}
	if c.Converse.Channels != 1 && c.Converse.Channels != 2 {
		return fmt.Errorf("converse.channels must be 1 or 2, got %d", c.Converse.Channels)
	}
	if c.Converse.ChunkMillis <= 0 {
		return fmt.Errorf("converse.chunk_millis must be positive, got %d", c.Converse.ChunkMillis)
	}
	return nil
}
