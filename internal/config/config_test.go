package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetAddr())
	assert.Equal(t, "text", cfg.GetLogFormat())
	assert.Equal(t, []string{"*"}, cfg.GetAllowedOrigins())
	assert.Equal(t, 256, cfg.GetSendBufferSize())
	assert.Equal(t, 10*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, int64(32768), cfg.GetReadLimit())
	assert.False(t, cfg.GetNotifyUndeliverable())
	assert.False(t, cfg.GetTracingEnabled())
	assert.Equal(t, "relay-service", cfg.GetTracingServiceName())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("RELAY_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "example.com,*.example.org")
	t.Setenv("RELAY_SEND_BUFFER", "16")
	t.Setenv("RELAY_WRITE_TIMEOUT", "2s")
	t.Setenv("RELAY_NOTIFY_UNDELIVERABLE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
	assert.Equal(t, 16, cfg.SendBufferSize)
	assert.Equal(t, 2*time.Second, cfg.WriteTimeout)
	assert.True(t, cfg.NotifyUndeliverable)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"zero send buffer", "RELAY_SEND_BUFFER", "0"},
		{"unparsable timeout", "RELAY_WRITE_TIMEOUT", "soon"},
		{"tiny read limit", "RELAY_READ_LIMIT", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
