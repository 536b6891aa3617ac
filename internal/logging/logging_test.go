package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		level zap.AtomicLevel
	}{
		{"defaults", Config{}, zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"json debug", Config{Level: "debug", Format: "json"}, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"console warn", Config{Level: "warn", Format: "console"}, zap.NewAtomicLevelAt(zap.WarnLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level.Level()))
			assert.False(t, logger.Core().Enabled(tt.level.Level()-1))
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New(Config{Format: "xml"})
	assert.ErrorContains(t, err, "invalid log format")

	assert.NotNil(t, Must(Config{Format: "xml"}))
}
