// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Exercises YAML files, env overrides, and required field checks
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
server:
  addr: ":8080"
agent:
  openai_api_key: sk-test
  persona_name: Ada Lovelace
memory:
  enabled: false
voice:
  api_key: el-test
  voice_id: custom-voice
`

func TestLoadValidFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sk-test", cfg.Agent.OpenAIAPIKey)
	assert.Equal(t, "Ada Lovelace", cfg.Agent.PersonaName)
	assert.Equal(t, "custom-voice", cfg.Voice.VoiceID)

	// defaults fill in everything not specified
	assert.Equal(t, "Version One", cfg.Agent.AgentName)
	assert.InDelta(t, 0.7, cfg.Agent.Temperature, 1e-9)
	assert.Equal(t, 16000, cfg.Converse.SampleRate)
	assert.Equal(t, 250, cfg.Converse.ChunkMillis)
	assert.Equal(t, "audio_files", cfg.Server.AudioDir)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VOICERELAY_SERVER_ADDR", ":9999")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadMissingOpenAIKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
server:
  addr: ":8080"
memory:
  enabled: false
voice:
  api_key: el-test
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_api_key")
}

func TestLoadMemoryEnabledRequiresEndpoints(t *testing.T) {
	_, err := Load(writeConfig(t, `
agent:
  openai_api_key: sk-test
memory:
  enabled: true
  api_key: pc-test
voice:
  api_key: el-test
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed_url")
}

func TestLoadInvalidChannels(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
converse:
  channels: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channels")
}

func TestLoadMissingFileUsesEnvAndDefaults(t *testing.T) {
	t.Setenv("VOICERELAY_AGENT_OPENAI_API_KEY", "sk-env")
	t.Setenv("VOICERELAY_MEMORY_ENABLED", "false")
	t.Setenv("VOICERELAY_VOICE_API_KEY", "el-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Agent.OpenAIAPIKey)
	assert.Equal(t, ":5000", cfg.Server.Addr)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not: valid"))
	assert.Error(t, err)
}
