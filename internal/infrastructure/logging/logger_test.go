package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwaldron/shopfloor-go/internal/infrastructure/config"
	"github.com/mwaldron/shopfloor-go/internal/infrastructure/logging"
)

func TestNewLogger_RotatingFileSinkWrites(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "shopfloor.log")
	cfg := config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		Rotation: config.RotationConfig{Enabled: true, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
	}

	// Act
	logger, err := logging.NewLogger(cfg)
	require.NoError(t, err)
	logger.Info("tick advanced", zap.Float64("game_time", 1.5))

	// Assert - the line landed in the rotation-managed file
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick advanced")
	assert.Contains(t, string(data), "game_time")
}

func TestNewLogger_RotationRequiresFilePath(t *testing.T) {
	_, err := logging.NewLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		Rotation: config.RotationConfig{Enabled: true, MaxSize: 1},
	})
	assert.Error(t, err)
}
