package domain

import "time"

// CallRecord is the aggregate for a logged sales call. Ownership is fixed at
// creation: OwnerID is the agent who logged the call and never changes.
type CallRecord struct {
	ID               string
	OwnerID          string
	FirstName        string
	LastName         string
	PrincipalPhone   string
	AlternativePhone *string
	Email            *string
	Address          *string
	SaleType         string
	SaleID1          *string
	SaleID2          *string
	SaleCompleted    bool
	CallbackRequired bool
	CallbackAt       *time.Time
	SaleDate         time.Time
	Notes            *string
	CreatedAt        time.Time
}

// NeedsCallback reports whether the record carries an armed callback request.
func (r *CallRecord) NeedsCallback() bool {
	return r != nil && r.CallbackRequired && r.CallbackAt != nil
}
