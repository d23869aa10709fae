package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	t.Run("json lines carry service and version", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(Config{Level: "debug", Version: "1.2.3", Out: &buf})

		l.Info().Str("account_id", "acc-1").Msg("wager placed")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, serviceName, line["service"])
		assert.Equal(t, "1.2.3", line["version"])
		assert.Equal(t, "acc-1", line["account_id"])
		assert.Equal(t, "info", line["level"])
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(Config{Level: "chatty", Out: &buf})

		l.Debug().Msg("hidden")
		assert.Empty(t, buf.String())
		assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})
}
