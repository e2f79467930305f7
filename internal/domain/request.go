package domain

import "time"

type RequestStatus string

const (
	RequestStatusQueued  RequestStatus = "queued"
	RequestStatusClaimed RequestStatus = "claimed"
)

// RequestKind tags what the customer asked for. Each kind carries its own
// fields in Request.Fields (destination numbers, product references, ...).
type RequestKind string

const (
	KindTopUp           RequestKind = "topup"
	KindOrder           RequestKind = "order"
	KindUnitsBill       RequestKind = "units_bill"
	KindInternet        RequestKind = "internet"
	KindUniversityFees  RequestKind = "university_fees"
	KindCashTransfer    RequestKind = "cash_transfer"
	KindCompanyTransfer RequestKind = "company_transfer"
	KindAds             RequestKind = "ads"
	KindMedia           RequestKind = "media"
	KindWalletTransfer  RequestKind = "wallet_transfer"
)

// IsDeposit reports whether the kind brings money in from outside. Deposit
// requests reserve nothing and, on acceptance or cancellation, release a
// collaborator-owned local guard.
func (k RequestKind) IsDeposit() bool {
	return k == KindTopUp
}

// Valid reports whether the kind is one the settlement table knows.
func (k RequestKind) Valid() bool {
	switch k {
	case KindTopUp, KindOrder, KindUnitsBill, KindInternet, KindUniversityFees,
		KindCashTransfer, KindCompanyTransfer, KindAds, KindMedia, KindWalletTransfer:
		return true
	}
	return false
}

// Lock records which operator currently owns a request.
type Lock struct {
	OperatorID    int64  `json:"operator_id"`
	OperatorLabel string `json:"operator_label"`
}

// DeliveryRef records one place a request was displayed to an operator, so
// stale views can be retracted once the request is locked.
type DeliveryRef struct {
	OperatorChannel int64  `json:"operator_channel"`
	MessageRef      string `json:"message_ref"`
}

// Request is a pending customer request waiting for an operator decision.
type Request struct {
	ID           string
	OwnerID      int64
	Kind         RequestKind
	Amount       int64
	Fields       map[string]any
	Status       RequestStatus
	Lock         *Lock
	Claimed      bool
	DeliveryRefs []DeliveryRef
	HoldID       string
	Version      int64
	CreatedAt    time.Time
}

// LockedBy reports whether the request is locked by the given operator.
func (r *Request) LockedBy(operatorID int64) bool {
	return r.Lock != nil && r.Lock.OperatorID == operatorID
}

// LockedByOther reports whether another operator holds the lock.
func (r *Request) LockedByOther(operatorID int64) bool {
	return r.Lock != nil && r.Lock.OperatorID != operatorID
}

// DeliveredTo reports whether the request was already pushed to the given
// operator channel.
func (r *Request) DeliveredTo(channel int64) bool {
	for _, ref := range r.DeliveryRefs {
		if ref.OperatorChannel == channel {
			return true
		}
	}
	return false
}
