package domain

import "time"

// Account holds the realized balance for a customer in minor currency units.
// Available balance is Balance minus the sum of the owner's open holds.
type Account struct {
	OwnerID   int64
	Balance   int64
	CreatedAt time.Time
}
