package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := map[string]struct {
		level     string
		expectErr bool
	}{
		"default level": {level: ""},
		"debug":         {level: "debug"},
		"invalid level": {level: "loud", expectErr: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			logger, err := NewLogger(tc.level)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNewLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mg.log")
	logger, err := NewLoggerWithFile(path, "info")
	require.NoError(t, err)

	logger.Sugar().Infow("run_matched", "trades", 3)
	logger.Debug("dropped at info level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run_matched"`)
	assert.Contains(t, string(data), `"trades":3`)
	assert.NotContains(t, string(data), "dropped")
}
