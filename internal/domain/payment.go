package domain

import "time"

// CheckoutStatus tracks a checkout session in the payment ledger.
type CheckoutStatus string

const (
	// CheckoutPending is recorded when the processor session is created.
	CheckoutPending CheckoutStatus = "pending"
	// CheckoutSettled is recorded once the payment was reconciled and the
	// user upgraded.
	CheckoutSettled CheckoutStatus = "settled"
)

// Valid reports whether s is a recognized status.
func (s CheckoutStatus) Valid() bool {
	return s == CheckoutPending || s == CheckoutSettled
}

// CheckoutSession is the ledger record of one premium purchase attempt.
// Status only moves from pending to settled.
type CheckoutSession struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	AmountCents int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Status      CheckoutStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	SettledAt   *time.Time     `json:"settledAt,omitempty"`
}
