package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/astro-web3/credential-gateway/internal/domain/credential"
	"github.com/astro-web3/credential-gateway/pkg/logger"
)

// LookupRecorder counts cache lookups by result.
type LookupRecorder interface {
	IncrementCacheLookup(result string)
}

// CachingAuthorizationService serves repeated introspections of an active
// token from the grant cache. Only OK outcomes are cached, and never beyond
// the token's own expiry. Parse and issue calls pass straight through.
type CachingAuthorizationService struct {
	credential.AuthorizationService

	cache    GrantCache
	ttl      time.Duration
	recorder LookupRecorder
	now      func() time.Time
}

func NewCachingAuthorizationService(
	next credential.AuthorizationService,
	grantCache GrantCache,
	ttl time.Duration,
	recorder LookupRecorder,
) *CachingAuthorizationService {
	return &CachingAuthorizationService{
		AuthorizationService: next,
		cache:                grantCache,
		ttl:                  ttl,
		recorder:             recorder,
		now:                  time.Now,
	}
}

func (s *CachingAuthorizationService) Introspect(ctx context.Context, token string) (*credential.IntrospectionOutcome, error) {
	tokenHash := HashToken(token)

	grant, err := s.cache.Get(ctx, tokenHash)
	switch {
	case err == nil && grant != nil:
		s.record("hit")
		return &credential.IntrospectionOutcome{
			Action:    credential.ActionOK,
			Message:   grant.Message,
			Subject:   grant.Subject,
			ClientID:  grant.ClientID,
			Scopes:    grant.Scopes,
			ExpiresAt: grant.ExpiresAt,
		}, nil
	case err == nil, errors.Is(err, ErrCacheMiss):
		s.record("miss")
	default:
		s.record("error")
		logger.WarnContext(ctx, "failed to get from cache, will introspect", slog.String("error", err.Error()))
	}

	out, err := s.AuthorizationService.Introspect(ctx, token)
	if err != nil || out == nil || out.Action != credential.ActionOK {
		return out, err
	}

	ttl := s.ttlFor(out.ExpiresAt)
	if ttl <= 0 {
		return out, nil
	}
	cached := &CachedGrant{
		Message:   out.Message,
		Subject:   out.Subject,
		ClientID:  out.ClientID,
		Scopes:    out.Scopes,
		ExpiresAt: out.ExpiresAt,
	}
	if setErr := s.cache.Set(ctx, tokenHash, cached, ttl); setErr != nil {
		logger.WarnContext(ctx, "failed to set cache", slog.String("error", setErr.Error()))
	}

	return out, nil
}

// ttlFor caps the configured TTL at the token expiry, given in epoch millis.
func (s *CachingAuthorizationService) ttlFor(expiresAtMillis int64) time.Duration {
	if expiresAtMillis <= 0 {
		return s.ttl
	}
	remaining := time.UnixMilli(expiresAtMillis).Sub(s.now())
	return min(s.ttl, remaining)
}

func (s *CachingAuthorizationService) record(result string) {
	if s.recorder != nil {
		s.recorder.IncrementCacheLookup(result)
	}
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
