package models

import "time"

// Collection groups entries. Secret is a random capability token that grants
// anonymous read access; it is unrelated to any content hash.
type Collection struct {
	ID          int64
	Name        string
	Description string
	UserID      int64
	Secret      string
	Metadata    *string
	Origin      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
