package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

// CheckoutLedger records checkout sessions as they move from pending to settled.
type CheckoutLedger interface {
	RecordPending(ctx context.Context, s *payment.Session) error
	MarkSettled(ctx context.Context, s *payment.Session) (*domain.CheckoutSession, error)
	List(ctx context.Context, f payment.LedgerFilter) ([]*domain.CheckoutSession, error)
}

// PaymentOptions configures the premium checkout.
type PaymentOptions struct {
	// SiteDomain is the client origin the processor redirects back to.
	SiteDomain string
	PriceCents int64
}

// PaymentService sells the premium upgrade and reconciles completed checkouts.
type PaymentService struct {
	store     store.Store
	processor payment.Processor
	ledger    CheckoutLedger
	policy    *Policy
	events    store.EventEmitter
	opts      PaymentOptions
	logger    *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(deps Deps, processor payment.Processor, ledger CheckoutLedger, opts PaymentOptions) *PaymentService {
	deps = deps.withDefaults()
	opts.SiteDomain = strings.TrimRight(opts.SiteDomain, "/")
	return &PaymentService{
		store:     deps.Store,
		processor: processor,
		ledger:    ledger,
		policy:    NewPolicy(deps.Store),
		events:    deps.Events,
		opts:      opts,
		logger:    deps.Logger,
	}
}

// Checkout is a created processor session the client redirects to.
type Checkout struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckout opens a premium checkout for the caller.
func (s *PaymentService) CreateCheckout(ctx context.Context, callerEmail string) (*Checkout, error) {
	email := util.NormalizeEmail(callerEmail)
	if email == "" {
		return nil, domainerrors.Unauthorized("Unauthorized access")
	}

	sess, err := s.processor.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		CustomerEmail:      email,
		ProductName:        payment.ProductName,
		ProductDescription: payment.ProductDescription,
		Currency:           payment.Currency,
		AmountCents:        s.opts.PriceCents,
		SuccessURL:         s.opts.SiteDomain + "/dashboard/payment_success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          s.opts.SiteDomain + "/payment/payment-cancelled",
	})
	if err != nil {
		s.logger.Error("create checkout session failed", "email", email, "error", err)
		return nil, domainerrors.Upstream(err, "Failed to create checkout session")
	}

	// Reconciliation settles sessions the ledger never saw, so a failed
	// pending write does not block the purchase.
	if err := s.ledger.RecordPending(ctx, sess); err != nil {
		s.logger.Warn("record pending checkout failed", "session_id", sess.ID, "error", err)
	}

	s.logger.Info("checkout session created", "session_id", sess.ID, "email", email)
	return &Checkout{URL: sess.URL, SessionID: sess.ID}, nil
}

// Reconcile upgrades the session's customer once the processor reports the
// session paid. It is safe to call repeatedly for the same session.
func (s *PaymentService) Reconcile(ctx context.Context, sessionID string) (*domain.User, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domainerrors.Validation("session_id is required")
	}

	sess, err := s.processor.GetSession(ctx, sessionID)
	if errors.Is(err, payment.ErrSessionNotFound) {
		return nil, domainerrors.NotFound("Checkout session not found").WithCause(err)
	}
	if err != nil {
		s.logger.Error("retrieve checkout session failed", "session_id", sessionID, "error", err)
		return nil, domainerrors.Upstream(err, "Failed to retrieve checkout session")
	}

	if !sess.Paid {
		return nil, domainerrors.Validation("Payment not completed")
	}
	email := util.NormalizeEmail(sess.CustomerEmail)
	if email == "" {
		return nil, domainerrors.Validation("No customer email found in session")
	}

	user, err := s.store.SetUserPremium(ctx, email, true)
	if err != nil {
		return nil, userNotFound(err)
	}

	if _, err := s.ledger.MarkSettled(ctx, sess); err != nil {
		s.logger.Error("user upgraded but ledger not settled", "session_id", sess.ID, "error", err)
	}

	s.logger.Info("user upgraded to premium", "email", email, "session_id", sess.ID)
	s.events.Emit(sse.NewPremiumActivatedEvent(email))
	return user, nil
}

// ListPayments returns the checkout ledger, optionally narrowed to one
// status or one customer. Admin only.
func (s *PaymentService) ListPayments(ctx context.Context, callerEmail string, f payment.LedgerFilter) ([]*domain.CheckoutSession, error) {
	if _, err := s.policy.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"status": "must be one of: pending settled",
		})
	}

	sessions, err := s.ledger.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*domain.CheckoutSession{}
	}
	return sessions, nil
}
