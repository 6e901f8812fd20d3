package domain

import "time"

// Timestamps holds the audit times every persisted entity carries.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
