package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/betablockz/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// PayoutJob is what the external payout worker pops off the queue.
type PayoutJob struct {
	EntryID     int64           `json:"entry_id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
	Reference   string          `json:"reference"`
	RequestedAt time.Time       `json:"requested_at"`
}

type PayoutQueue struct {
	redis *redis.Client
	name  string
}

func NewPayoutQueue(rdb *redis.Client, name string) *PayoutQueue {
	return &PayoutQueue{redis: rdb, name: name}
}

// Enabled reports whether jobs will actually be delivered.
func (q *PayoutQueue) Enabled() bool {
	return q != nil && q.redis != nil
}

func (q *PayoutQueue) Push(ctx context.Context, entry *models.LedgerEntry) error {
	if !q.Enabled() {
		return nil
	}

	job := PayoutJob{
		EntryID:     entry.ID,
		AccountID:   entry.AccountID,
		Amount:      entry.Amount.Neg(),
		RequestedAt: entry.CreatedAt,
	}
	if dest, ok := entry.Metadata["destination"].(string); ok {
		job.Destination = dest
	}
	if ref, ok := entry.Metadata["reference"].(string); ok {
		job.Reference = ref
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redis.RPush(ctx, q.name, payload).Err()
}
