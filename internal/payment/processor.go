// Package payment bridges premium checkout to the payment processor and
// keeps a local ledger of checkout sessions.
package payment

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when the processor has no such session.
var ErrSessionNotFound = errors.New("checkout session not found")

// Premium membership product shown on the processor's checkout page.
const (
	ProductName        = "Life Lessons Premium Membership"
	ProductDescription = "Lifetime access to all premium features"
	Currency           = "usd"
)

// CheckoutRequest describes a one-off, single-item checkout.
type CheckoutRequest struct {
	CustomerEmail      string
	ProductName        string
	ProductDescription string
	Currency           string
	AmountCents        int64
	SuccessURL         string
	CancelURL          string
}

// Session is the processor's view of a checkout session.
type Session struct {
	ID            string
	URL           string
	CustomerEmail string
	AmountCents   int64
	Currency      string
	Paid          bool
}

// Processor is the payment processor's checkout-session lifecycle.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}
