// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		console bool
		debug   bool
	}{
		{"production", false, false, false},
		{"verbose", true, false, true},
		{"console", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.verbose, tt.console)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, log.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}
