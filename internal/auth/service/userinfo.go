package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/reelgate/internal/auth/domain"
	"github.com/smallbiznis/reelgate/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

type Params struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
}

// Verifier resolves bearer tokens against the identity provider's
// userinfo endpoint. Successful lookups are cached by token hash for a
// short TTL so hot callers don't hit the provider on every request.
type Verifier struct {
	domain     string
	httpClient *http.Client
	clk        clock.Clock
	log        *zap.Logger
	ttl        time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

type userinfoResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func NewVerifier(authDomain string, p Params) *Verifier {
	return &Verifier{
		domain: strings.TrimRight(strings.TrimSpace(authDomain), "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		clk:   p.Clock,
		log:   p.Log.Named("auth.verifier"),
		ttl:   defaultCacheTTL,
		cache: map[string]cacheEntry{},
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	key := tokenKey(token)
	if identity, ok := v.lookup(key); ok {
		return identity, nil
	}

	identity, err := v.fetch(ctx, token)
	if err != nil {
		return nil, err
	}

	v.store(key, *identity)
	return identity, nil
}

func (v *Verifier) fetch(ctx context.Context, token string) (*domain.Identity, error) {
	endpoint := v.domain + "/userinfo"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrInvalidToken
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrVerifierUnavailable, resp.StatusCode)
	}

	var parsed userinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerifierUnavailable, err)
	}
	if strings.TrimSpace(parsed.Sub) == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Identity{
		Subject: strings.TrimSpace(parsed.Sub),
		Email:   strings.TrimSpace(parsed.Email),
		Name:    strings.TrimSpace(parsed.Name),
	}, nil
}

func (v *Verifier) lookup(key string) (*domain.Identity, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.cache[key]
	if !ok {
		return nil, false
	}
	if v.clk.Now().After(entry.expiresAt) {
		delete(v.cache, key)
		return nil, false
	}
	identity := entry.identity
	return &identity, true
}

func (v *Verifier) store(key string, identity domain.Identity) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Cheap expiry sweep to keep the map from growing unbounded.
	now := v.clk.Now()
	for k, entry := range v.cache {
		if now.After(entry.expiresAt) {
			delete(v.cache, k)
		}
	}

	v.cache[key] = cacheEntry{
		identity:  identity,
		expiresAt: now.Add(v.ttl),
	}
}

// Tokens are never stored verbatim; only a digest keys the cache.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
