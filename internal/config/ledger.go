package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerConfig holds the wagering tunables.
type LedgerConfig struct {
	HouseEdge           decimal.Decimal
	StatsCacheTTL       time.Duration
	RedemptionQueue     string
	RedemptionMinAmount decimal.Decimal
	MaxBet              decimal.Decimal // zero means unlimited
	RecentEntriesLimit  int
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		HouseEdge:           getEnvAsDecimal("HOUSE_EDGE", decimal.RequireFromString("0.10")),
		StatsCacheTTL:       getEnvAsDuration("STATS_CACHE_TTL", 30*time.Second),
		RedemptionQueue:     getEnv("REDEMPTION_QUEUE", "redemption_queue"),
		RedemptionMinAmount: getEnvAsDecimal("REDEMPTION_MIN_AMOUNT", decimal.RequireFromString("0.0001")),
		MaxBet:              getEnvAsDecimal("MAX_BET", decimal.Zero),
		RecentEntriesLimit:  getEnvAsInt("RECENT_ENTRIES_LIMIT", 30),
	}
}

// Validate rejects tunables that would break settlement. An edge of 1 or
// more turns every multiplier into zero or a negative number.
func (c *LedgerConfig) Validate() error {
	if c.HouseEdge.IsNegative() || c.HouseEdge.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("HOUSE_EDGE must be in [0, 1), got %s", c.HouseEdge)
	}
	if c.RedemptionMinAmount.IsNegative() {
		return fmt.Errorf("REDEMPTION_MIN_AMOUNT must not be negative, got %s", c.RedemptionMinAmount)
	}
	if c.MaxBet.IsNegative() {
		return fmt.Errorf("MAX_BET must not be negative, got %s", c.MaxBet)
	}
	if c.RecentEntriesLimit <= 0 {
		return fmt.Errorf("RECENT_ENTRIES_LIMIT must be positive, got %d", c.RecentEntriesLimit)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsDecimal(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return defaultVal
}
