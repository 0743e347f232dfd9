package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
)

// LedgerHandle wraps the checkout ledger with shutdown capability.
type LedgerHandle struct {
	*payment.Ledger
}

// Shutdown implements do.Shutdownable.
func (h *LedgerHandle) Shutdown() error {
	return h.Close()
}

// ProvideLedger opens the Badger checkout ledger.
func ProvideLedger(i do.Injector) (*LedgerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := filepath.Join(cfg.Store.DataPath, "ledger")
	ledger, err := payment.OpenLedger(path, log.Component("ledger"))
	if err != nil {
		return nil, err
	}

	log.Info("Checkout ledger opened", "path", path)
	return &LedgerHandle{Ledger: ledger}, nil
}

// ProvideProcessor provides the payment processor. Without a Stripe key,
// which config only allows outside production, checkouts go to an in-memory
// fake.
func ProvideProcessor(i do.Injector) (payment.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Payment.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY not set, using in-memory payment processor")
		return payment.NewFakeProcessor(), nil
	}
	return payment.NewStripeProcessor(cfg.Payment.StripeSecretKey), nil
}
