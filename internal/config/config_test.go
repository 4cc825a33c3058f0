// File: internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 50, cfg.Streaming().PageThreshold)
	assert.Equal(t, uint64(1<<30), cfg.Memory().MaxHeapBytes)
	assert.Equal(t, int64(4), cfg.Writer().MaxConcurrent)
	assert.Equal(t, 4.0, cfg.Scoring().SeverityWeights["critical"])
	assert.True(t, cfg.History().Enabled)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero page threshold", func(c *Config) { c.streaming.PageThreshold = 0 }},
		{"zero chunk size", func(c *Config) { c.streaming.ChunkSize = 0 }},
		{"zero normalize concurrency", func(c *Config) { c.streaming.NormalizeConcurrency = 0 }},
		{"budget fraction above one", func(c *Config) { c.streaming.BudgetFraction = 1.5 }},
		{"zero heap budget", func(c *Config) { c.memory.MaxHeapBytes = 0 }},
		{"warning above emergency", func(c *Config) { c.memory.WarningFraction = 0.95 }},
		{"emergency above one", func(c *Config) { c.memory.EmergencyFraction = 1.2 }},
		{"zero writer concurrency", func(c *Config) { c.writer.MaxConcurrent = 0 }},
		{"negative scoring weight", func(c *Config) { c.scoring.WeightTime = -1 }},
		{"zero cap", func(c *Config) { c.scoring.CapTime = 0 }},
		{"missing severity weight", func(c *Config) { delete(c.scoring.SeverityWeights, "high") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSetGenerateConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetGenerateConfig(GenerateConfig{InputPath: "audit.json", OutputDir: "out", Formats: []string{"json"}})

	assert.Equal(t, "audit.json", cfg.Generate().InputPath)
	assert.Equal(t, []string{"json"}, cfg.Generate().Formats)
}
