package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

type cachedIdentity struct {
	identity  Identity
	expiresAt time.Time
}

// CachingVerifier remembers successful verifications for a short TTL so
// repeated requests with the same token skip the upstream check. Entries are
// keyed by a BLAKE2b digest; raw tokens are never stored.
type CachingVerifier struct {
	next    Verifier
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	mu      sync.Mutex
	entries map[[32]byte]cachedIdentity
}

// DefaultCacheSize bounds the number of cached tokens.
const DefaultCacheSize = 10_000

// NewCachingVerifier wraps next. A non-positive ttl disables caching.
func NewCachingVerifier(next Verifier, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{
		next:    next,
		ttl:     ttl,
		maxSize: DefaultCacheSize,
		now:     time.Now,
		entries: make(map[[32]byte]cachedIdentity),
	}
}

// Verify returns the cached identity for token or delegates to the wrapped verifier.
func (c *CachingVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if c.ttl <= 0 {
		return c.next.Verify(ctx, token)
	}

	key := blake2b.Sum256([]byte(token))
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if ok {
		ident := entry.identity
		return &ident, nil
	}

	ident, err := c.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxSize {
		c.evictExpired(now)
	}
	if len(c.entries) < c.maxSize {
		c.entries[key] = cachedIdentity{identity: *ident, expiresAt: now.Add(c.ttl)}
	}
	c.mu.Unlock()

	return ident, nil
}

// Len returns the number of cached entries.
func (c *CachingVerifier) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictExpired must be called with mu held.
func (c *CachingVerifier) evictExpired(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
