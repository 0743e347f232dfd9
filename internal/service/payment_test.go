package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	domainerrors "github.com/digitallifelessons/lifelessons-server/internal/errors"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
)

func newPaymentService(t *testing.T, env *testEnv) (*PaymentService, *payment.FakeProcessor, *payment.Ledger) {
	t.Helper()
	ledger, err := payment.OpenLedger(filepath.Join(t.TempDir(), "ledger"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	processor := payment.NewFakeProcessor()
	svc := NewPaymentService(env.deps, processor, ledger, PaymentOptions{
		SiteDomain: "https://lessons.example.com/",
		PriceCents: 1500,
	})
	return svc, processor, ledger
}

func TestPaymentService_Checkout(t *testing.T) {
	env := newTestEnv(t)
	svc, _, ledger := newPaymentService(t, env)
	ctx := context.Background()
	env.user(t, "ann@example.com")

	checkout, err := svc.CreateCheckout(ctx, "Ann@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, checkout.SessionID)
	assert.True(t, strings.HasPrefix(checkout.URL, "https://lessons.example.com/dashboard/payment_success?session_id="))

	recs, err := ledger.List(ctx, payment.LedgerFilter{Email: "ann@example.com"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, checkout.SessionID, rec.ID)
	assert.Equal(t, domain.CheckoutPending, rec.Status)
	assert.Equal(t, "ann@example.com", rec.Email)
	assert.Equal(t, int64(1500), rec.AmountCents)

	t.Run("unpaid session leaves user alone", func(t *testing.T) {
		_, err := svc.Reconcile(ctx, checkout.SessionID)
		requireCode(t, err, domainerrors.CodeValidation)
		assert.Equal(t, "Payment not completed", errMessage(err))

		u, err := env.store.GetUserByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.False(t, u.IsPremium)
	})
}

func TestPaymentService_Reconcile(t *testing.T) {
	env := newTestEnv(t)
	svc, processor, ledger := newPaymentService(t, env)
	ctx := context.Background()
	env.user(t, "ann@example.com")
	admin := env.admin(t, "root@example.com")

	checkout, err := svc.CreateCheckout(ctx, "ann@example.com")
	require.NoError(t, err)
	require.True(t, processor.MarkPaid(checkout.SessionID))

	u, err := svc.Reconcile(ctx, checkout.SessionID)
	require.NoError(t, err)
	assert.True(t, u.IsPremium)
	assert.Contains(t, env.events.types(), sse.EventPremiumActivated)

	recs, err := ledger.List(ctx, payment.LedgerFilter{Email: "ann@example.com"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, domain.CheckoutSettled, rec.Status)
	require.NotNil(t, rec.SettledAt)

	_, err = svc.Reconcile(ctx, checkout.SessionID)
	require.NoError(t, err, "reconciling twice is harmless")

	settled, err := svc.ListPayments(ctx, admin.Email, payment.LedgerFilter{Status: domain.CheckoutSettled})
	require.NoError(t, err)
	assert.Len(t, settled, 1)

	_, err = svc.ListPayments(ctx, "ann@example.com", payment.LedgerFilter{})
	requireCode(t, err, domainerrors.CodeForbidden)

	_, err = svc.ListPayments(ctx, admin.Email, payment.LedgerFilter{Status: "refunded"})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestPaymentService_Reconcile_Failures(t *testing.T) {
	env := newTestEnv(t)
	svc, processor, _ := newPaymentService(t, env)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, " ")
	requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "session_id is required", errMessage(err))

	_, err = svc.Reconcile(ctx, "cs_unknown")
	requireCode(t, err, domainerrors.CodeNotFound)

	processor.Put(&payment.Session{ID: "cs_no_email", Paid: true})
	_, err = svc.Reconcile(ctx, "cs_no_email")
	requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "No customer email found in session", errMessage(err))

	processor.Put(&payment.Session{ID: "cs_ghost", Paid: true, CustomerEmail: "ghost@example.com"})
	_, err = svc.Reconcile(ctx, "cs_ghost")
	requireCode(t, err, domainerrors.CodeNotFound)
	assert.Equal(t, "User not found", errMessage(err))

	processor.Err = errors.New("processor down")
	_, err = svc.CreateCheckout(ctx, "ann@example.com")
	requireCode(t, err, domainerrors.CodeUpstream)
}
