package domain

import "time"

// Purchase is the archived settlement record written when a request is
// accepted. The active request row is removed; this is what remains.
type Purchase struct {
	ID        string
	OwnerID   int64
	Kind      RequestKind
	Reference string
	Amount    int64
	CreatedAt time.Time
}
