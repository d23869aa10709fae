package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLedgerConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := LoadLedgerConfig()

		assert.True(t, cfg.HouseEdge.Equal(decimal.RequireFromString("0.1")))
		assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
		assert.Equal(t, "redemption_queue", cfg.RedemptionQueue)
		assert.True(t, cfg.MaxBet.IsZero())
		assert.Equal(t, 30, cfg.RecentEntriesLimit)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HOUSE_EDGE", "0.02")
		t.Setenv("STATS_CACHE_TTL", "1m")
		t.Setenv("MAX_BET", "500")

		cfg := LoadLedgerConfig()

		assert.True(t, cfg.HouseEdge.Equal(decimal.RequireFromString("0.02")))
		assert.Equal(t, time.Minute, cfg.StatsCacheTTL)
		assert.True(t, cfg.MaxBet.Equal(decimal.NewFromInt(500)))
	})

	t.Run("malformed values fall back", func(t *testing.T) {
		t.Setenv("HOUSE_EDGE", "ten percent")
		t.Setenv("RECENT_ENTRIES_LIMIT", "lots")

		cfg := LoadLedgerConfig()

		assert.True(t, cfg.HouseEdge.Equal(decimal.RequireFromString("0.1")))
		assert.Equal(t, 30, cfg.RecentEntriesLimit)
	})
}

func TestLedgerConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, LoadLedgerConfig().Validate())
	})

	t.Run("zero edge is allowed", func(t *testing.T) {
		t.Setenv("HOUSE_EDGE", "0")
		require.NoError(t, LoadLedgerConfig().Validate())
	})

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"edge of one", "HOUSE_EDGE", "1"},
		{"edge above one", "HOUSE_EDGE", "1.5"},
		{"negative edge", "HOUSE_EDGE", "-0.01"},
		{"negative redemption minimum", "REDEMPTION_MIN_AMOUNT", "-1"},
		{"negative max bet", "MAX_BET", "-5"},
		{"zero entries limit", "RECENT_ENTRIES_LIMIT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			err := LoadLedgerConfig().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
