package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog records the serialized outcome of a settlement so a
// resubmitted checkout (same store + caller reference) replays the stored
// response instead of settling twice.
type IdempotencyLog struct {
	Key           string    `json:"key"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"`
	CreatedAt     time.Time `json:"created_at"`
}

// BuildSettlementKey derives the idempotency key for a checkout.
func BuildSettlementKey(storeID uuid.UUID, referenceID string) string {
	return fmt.Sprintf("settle:%s:%s", storeID.String(), referenceID)
}
