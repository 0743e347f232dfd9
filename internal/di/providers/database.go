package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
	"github.com/digitallifelessons/lifelessons-server/internal/store/mongo"
	"github.com/digitallifelessons/lifelessons-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the content store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured content store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Store.Driver {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
		defer cancel()

		db, err := mongo.Open(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, log.Component("store"))
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		log.Info("Database initialized", "driver", "mongo", "database", cfg.Store.MongoDatabase)
		return &StoreHandle{Store: db}, nil

	default:
		dbPath := filepath.Join(cfg.Store.DataPath, "lifelessons.db")
		db, err := sqlite.Open(dbPath, log.Component("store"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info("Database initialized", "driver", "sqlite", "path", dbPath)
		return &StoreHandle{Store: db}, nil
	}
}
