package ssr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.ReuseEngines)
	assert.False(t, cfg.LoadTranspiler)
	assert.False(t, cfg.LoadRuntime)
	assert.True(t, cfg.AllowPrecompilation)
	assert.True(t, cfg.JSON.IgnoreNulls)
	assert.True(t, cfg.JSON.EscapeHTML)
	assert.Equal(t, "dist", cfg.BuildPath)
	assert.Equal(t, 2, cfg.StartEngines)
	assert.Equal(t, 25, cfg.MaxEngines)
	assert.Equal(t, 100, cfg.MaxUsagesPerEngine)
	assert.Equal(t, 5*time.Second, cfg.ExecutionTimeout)
	assert.Equal(t, "div", cfg.ContainerTag)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no engines", func(c *Config) { c.MaxEngines = 0 }},
		{"negative start", func(c *Config) { c.StartEngines = -1 }},
		{"start above max", func(c *Config) {
			c.StartEngines = 3
			c.MaxEngines = 2
		}},
		{"negative usages", func(c *Config) { c.MaxUsagesPerEngine = -1 }},
		{"negative memory", func(c *Config) { c.MemoryLimitMB = -1 }},
		{"negative timeout", func(c *Config) { c.ExecutionTimeout = -time.Second }},
		{"negative acquire", func(c *Config) { c.AcquireTimeout = -time.Second }},
		{"bad tag", func(c *Config) { c.ContainerTag = "<div>" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
