// Package di provides dependency injection configuration for the Digital Life Lessons server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/di/providers"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
	"github.com/digitallifelessons/lifelessons-server/internal/payment"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideLedger)

	// Identity and payment bridges
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideProcessor)

	// Business services
	do.Provide(injector, providers.ProvideServiceDeps)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideLessonService)
	do.Provide(injector, providers.ProvideEngagementService)
	do.Provide(injector, providers.ProvideModerationService)
	do.Provide(injector, providers.ProvidePaymentService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	// Configuration errors are the common failure; report them instead of panicking.
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.LedgerHandle](injector)
	_ = do.MustInvoke[auth.Verifier](injector)
	_ = do.MustInvoke[payment.Processor](injector)

	// Business services
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.LessonService](injector)
	_ = do.MustInvoke[*service.EngagementService](injector)
	_ = do.MustInvoke[*service.ModerationService](injector)
	_ = do.MustInvoke[*service.PaymentService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
