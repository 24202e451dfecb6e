package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog entry. Read-only from the settlement flow's
// perspective; its current price feeds cart totals.
type Course struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	InstructorID int64           `json:"instructorId"`
	Published    bool            `json:"published"`
	CreatedAt    time.Time       `json:"createdAt"`
}
