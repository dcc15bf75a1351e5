package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAssistantDefaults(t *testing.T) {
	cfg, err := loadAssistant("")
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.ExactThreshold)
	assert.Equal(t, 0.75, cfg.VectorThreshold)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 1, cfg.ExternalRetries)
	assert.Equal(t, time.Hour, cfg.ColorCacheTTL)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 5000, cfg.MaxMessageLength)
}

func TestLoadAssistantFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "assistant.yaml")
	require.NoError(t, os.WriteFile(file, []byte("vector_threshold: 0.7\nllm_timeout: 10s\n"), 0o600))

	t.Setenv("ASSISTANT_EXTERNAL_RETRIES", "2")

	cfg, err := loadAssistant(file)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.VectorThreshold)
	assert.Equal(t, 10*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 2, cfg.ExternalRetries)
	assert.Equal(t, 0.8, cfg.ExactThreshold)
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("ES_TEST_ADDRS", "http://a:9200, http://b:9200,,")
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, getEnvAsList("ES_TEST_ADDRS"))
	assert.Nil(t, getEnvAsList("ES_TEST_MISSING"))
}
