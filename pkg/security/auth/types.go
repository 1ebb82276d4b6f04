package auth

import "time"

// AdminKeyInfo represents an admin API key with metadata
type AdminKeyInfo struct {
	Key       string
	UserID    string
	Enabled   bool
	CreatedAt time.Time
}
