package domain

import "time"

// TokenRecord is the persisted bookkeeping entry for an issued token.
// Token validity itself is self-contained (signature plus expiry claim);
// the record exists for refresh reuse and expired-token cleanup.
type TokenRecord struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
