package domain

import "time"

// Token represents an issued access token and the identity it asserts.
type Token struct {
	Value     string
	UserID    string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
