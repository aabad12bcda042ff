package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"debug":   "DEBUG",
		" Info ":  "INFO",
		"warning": "WARN",
		"warn":    "WARN",
		"ERROR":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for input, want := range cases {
		assert.Equal(t, want, parseLogLevel(input), input)
	}
}

func TestNewServerLogger(t *testing.T) {
	logger, err := NewServerLogger("linear-mcp", "debug", "linear_mcp")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("logger ready")
}
