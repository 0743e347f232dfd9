package payment

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/digitallifelessons/lifelessons-server/internal/domain"
	"github.com/digitallifelessons/lifelessons-server/internal/util"
)

const checkoutPrefix = "checkout:"

// Ledger records checkout sessions so attempts that were paid but never
// reconciled remain visible to admins.
type Ledger struct {
	db       *badger.DB
	logger   *slog.Logger
	sessions *Entity[domain.CheckoutSession]
}

// OpenLedger opens (or creates) the ledger database at path.
func OpenLedger(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Payment records must survive a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db: %w", err)
	}

	l := &Ledger{
		db:     db,
		logger: logger,
		sessions: NewEntity[domain.CheckoutSession](db, checkoutPrefix).
			WithIndex("status", func(s *domain.CheckoutSession) []string {
				return []string{string(s.Status)}
			}).
			WithIndex("email", func(s *domain.CheckoutSession) []string {
				return []string{s.Email}
			}),
	}

	logger.Info("Checkout ledger opened", "path", path)
	return l, nil
}

// Close closes the ledger database.
func (l *Ledger) Close() error {
	l.logger.Info("Closing checkout ledger")
	return l.db.Close()
}

// RecordPending stores a new pending session.
func (l *Ledger) RecordPending(ctx context.Context, s *Session) error {
	rec := &domain.CheckoutSession{
		ID:          s.ID,
		Email:       util.NormalizeEmail(s.CustomerEmail),
		AmountCents: s.AmountCents,
		Currency:    s.Currency,
		Status:      domain.CheckoutPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.sessions.Create(ctx, s.ID, rec); err != nil {
		return fmt.Errorf("record pending checkout %s: %w", s.ID, err)
	}
	return nil
}

// MarkSettled moves a session to settled. Sessions the ledger never saw
// (created before it existed, or whose pending write failed) are recorded
// directly as settled. Settling twice keeps the first settlement time.
func (l *Ledger) MarkSettled(ctx context.Context, s *Session) (*domain.CheckoutSession, error) {
	now := time.Now().UTC()
	rec, err := l.sessions.Mutate(ctx, s.ID, func(current *domain.CheckoutSession) (*domain.CheckoutSession, error) {
		if current == nil {
			l.logger.Warn("settling checkout session missing from ledger", "session_id", s.ID)
			current = &domain.CheckoutSession{
				ID:          s.ID,
				Email:       util.NormalizeEmail(s.CustomerEmail),
				AmountCents: s.AmountCents,
				Currency:    s.Currency,
				CreatedAt:   now,
			}
		}
		if current.Status == domain.CheckoutSettled {
			return current, nil
		}
		current.Status = domain.CheckoutSettled
		current.SettledAt = &now
		return current, nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle checkout %s: %w", s.ID, err)
	}
	return rec, nil
}

// LedgerFilter narrows a ledger listing. Empty fields match everything.
type LedgerFilter struct {
	Status domain.CheckoutStatus
	Email  string
}

// List returns ledger records newest first. The email index is used when
// an email is given, otherwise the status index.
func (l *Ledger) List(ctx context.Context, f LedgerFilter) ([]*domain.CheckoutSession, error) {
	seq := l.sessions.List(ctx)
	switch {
	case f.Email != "":
		seq = l.sessions.ListByIndex(ctx, "email", util.NormalizeEmail(f.Email))
	case f.Status != "":
		seq = l.sessions.ListByIndex(ctx, "status", string(f.Status))
	}

	var out []*domain.CheckoutSession
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		out = append(out, rec)
	}

	slices.SortFunc(out, func(a, b *domain.CheckoutSession) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
