package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LOG_LEVEL", "LOG_FILE", "API_ADDR", "API_ALLOWED_ORIGINS", "STORE_DIR",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "SIM_NAME", "SIM_SEED", "SIM_ORDERS",
}

// clearEnv unsets every key LoadFromEnv reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_ADDR=:9999\nSIM_NAME=from-file\nSIM_SEED=7\n"), 0o644))
	clearEnv(t)

	t.Setenv("SIM_NAME", "from-env")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("STORE_DIR", "")
	t.Setenv("SIM_ORDERS", "not-a-number")

	cfg := LoadFromEnv(envFile)

	assert.Equal(t, ":9999", cfg.API.Addr)
	assert.Equal(t, "from-env", cfg.Sim.Name, "process env wins over .env")
	assert.Equal(t, int64(7), cfg.Sim.Seed)
	assert.Equal(t, 20, cfg.Sim.Orders, "unparsable values keep the default")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "", cfg.Store.Dir, "an explicitly empty STORE_DIR disables archiving")
}
