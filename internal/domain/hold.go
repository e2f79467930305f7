package domain

import "time"

type HoldStatus string

const (
	HoldStatusOpen     HoldStatus = "open"
	HoldStatusCaptured HoldStatus = "captured"
	HoldStatusReleased HoldStatus = "released"
)

// Hold is a two-phase reservation against an owner's balance. An open hold
// reduces the owner's available balance without touching the realized
// balance; capture converts it to a permanent debit, release returns it to
// availability. A hold transitions exactly once.
type Hold struct {
	ID          string
	OwnerID     int64
	Amount      int64
	Description string
	Status      HoldStatus
	CreatedAt   time.Time
}
