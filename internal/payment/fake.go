package payment

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/digitallifelessons/lifelessons-server/internal/id"
)

// FakeProcessor is an in-memory processor for development and tests.
// Sessions start unpaid; MarkPaid settles them.
type FakeProcessor struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// Err, when set, is returned by every call.
	Err error
}

var _ Processor = (*FakeProcessor)(nil)

// NewFakeProcessor creates an empty fake processor.
func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{sessions: make(map[string]*Session)}
}

// CreateCheckoutSession records an unpaid session. Its URL is the success
// URL with the session id substituted, the way the hosted page redirects.
func (f *FakeProcessor) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	sessionID := "cs_test_" + id.MustGenerate("fake")
	s := &Session{
		ID:            sessionID,
		URL:           strings.ReplaceAll(req.SuccessURL, "{CHECKOUT_SESSION_ID}", url.QueryEscape(sessionID)),
		CustomerEmail: req.CustomerEmail,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
	}

	f.mu.Lock()
	f.sessions[sessionID] = s
	f.mu.Unlock()

	out := *s
	return &out, nil
}

// GetSession returns a copy of the stored session.
func (f *FakeProcessor) GetSession(_ context.Context, sessionID string) (*Session, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

// MarkPaid settles a session. It reports false for unknown ids.
func (f *FakeProcessor) MarkPaid(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if ok {
		s.Paid = true
	}
	return ok
}

// Put stores a session as-is, for tests that need unusual processor state
// such as a paid session without an email.
func (f *FakeProcessor) Put(s *Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *s
	f.sessions[s.ID] = &out
}
