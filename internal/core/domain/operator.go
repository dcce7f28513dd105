package domain

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a back-office user. The settlement engine treats the
// operator id as an opaque caller identity; records are seeded by the
// admin surface, not this service.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	PINHash      string    `json:"-"` // second-factor for delete approval
	Role         string    `json:"role"`
	StoreID      uuid.UUID `json:"store_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
