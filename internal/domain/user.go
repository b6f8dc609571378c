package domain

import "time"

// User is an authorized subscriber keyed by transport address.
type User struct {
	Addr       string
	Name       string
	Authorized bool
	DateAdded  time.Time
	ExpiresAt  *time.Time
	Notes      string
}
