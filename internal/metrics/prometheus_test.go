package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector(t *testing.T) {
	m := NewMetricsCollector()

	m.RecordWager("dice", "win", 10, 18, 5*time.Millisecond)
	m.RecordWager("dice", "lose", 5, 0, time.Millisecond)
	m.RecordWagerFailure("insufficient_funds")
	m.RecordRedemption("pending")
	m.RecordStatsCache(true)
	m.RecordStatsCache(false)
	m.RecordStatsCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.wagersPlaced.WithLabelValues("dice", "win")))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.wagerVolume.WithLabelValues("dice")))
	assert.Equal(t, 18.0, testutil.ToFloat64(m.payoutVolume.WithLabelValues("dice")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statsCacheLookup.WithLabelValues("miss")))

	t.Run("handler exposes the private registry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.GetHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), `wagers_failed_total{reason="insufficient_funds"} 1`))
		assert.True(t, strings.Contains(string(body), `redemptions_total{status="pending"} 1`))
	})
}
