package providers

import (
	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
	"github.com/digitallifelessons/lifelessons-server/internal/validation"
)

// ProvideServiceDeps provides the collaborators shared by every service.
func ProvideServiceDeps(i do.Injector) (service.Deps, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.Deps{
		Store:     storeHandle.Store,
		Events:    sseHandle.Manager,
		Validator: validation.New(),
		Logger:    log.Component("service"),
	}, nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	return service.NewUserService(do.MustInvoke[service.Deps](i)), nil
}

// ProvideLessonService provides the lesson service backed by the search index.
func ProvideLessonService(i do.Injector) (*service.LessonService, error) {
	deps := do.MustInvoke[service.Deps](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	return service.NewLessonService(deps, indexHandle.SearchIndex), nil
}

// ProvideEngagementService provides the likes, comments, favorites and reports service.
func ProvideEngagementService(i do.Injector) (*service.EngagementService, error) {
	return service.NewEngagementService(do.MustInvoke[service.Deps](i)), nil
}

// ProvideModerationService provides the admin moderation service.
func ProvideModerationService(i do.Injector) (*service.ModerationService, error) {
	return service.NewModerationService(do.MustInvoke[service.Deps](i)), nil
}

// ProvidePaymentService provides the premium checkout service.
func ProvidePaymentService(i do.Injector) (*service.PaymentService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	deps := do.MustInvoke[service.Deps](i)
	processor := do.MustInvoke[payment.Processor](i)
	ledgerHandle := do.MustInvoke[*LedgerHandle](i)

	return service.NewPaymentService(deps, processor, ledgerHandle.Ledger, service.PaymentOptions{
		SiteDomain: cfg.Payment.SiteDomain,
		PriceCents: cfg.Payment.PriceCents,
	}), nil
}
