package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/api"
	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
	"github.com/digitallifelessons/lifelessons-server/internal/ratelimit"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	return errors.Join(err, h.handler.Shutdown(ctx))
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	verifier := do.MustInvoke[auth.Verifier](i)

	services := &api.Services{
		Users:      do.MustInvoke[*service.UserService](i),
		Lessons:    do.MustInvoke[*service.LessonService](i),
		Engagement: do.MustInvoke[*service.EngagementService](i),
		Moderation: do.MustInvoke[*service.ModerationService](i),
		Payments:   do.MustInvoke[*service.PaymentService](i),
	}

	handler := api.NewServer(api.Options{
		Store:          storeHandle.Store,
		Services:       services,
		Verifier:       verifier,
		Search:         indexHandle.SearchIndex,
		SSEManager:     sseHandle.Manager,
		AllowedOrigins: allowedOrigins(cfg.Server.AllowedOrigins),
		WriteLimiter:   ratelimit.New(api.WriteRateLimitRPS, api.WriteRateLimitBurst),
		Logger:         log.Component("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// Event streams never go idle on their own; closing the manager ends them
	// so Shutdown does not wait out its timeout.
	srv.RegisterOnShutdown(func() {
		if err := sseHandle.Shutdown(); err != nil {
			log.Warn("SSE shutdown failed", "error", err)
		}
	})

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}

// allowedOrigins maps the wildcard default to the API's allow-any setting.
func allowedOrigins(origins []string) []string {
	if len(origins) == 1 && origins[0] == "*" {
		return nil
	}
	return origins
}
