// Package authz resolves whether an identity holds the admin role, caching
// the answer per uid for the session so route guards and navigation agree
// without re-fetching.
package authz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/gateway"
)

// Gate answers privilege checks against the users collection. Read-mostly;
// the cache is the only shared mutable state and is guarded by one mutex.
type Gate struct {
	gw     gateway.Gateway
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]bool
}

// NewGate constructs a gate.
func NewGate(gw gateway.Gateway, logger *zap.Logger) *Gate {
	return &Gate{gw: gw, logger: logger, cache: map[string]bool{}}
}

// IsPrivileged reports whether the uid's profile carries the admin role.
// Fails closed: an absent profile, any non-admin role, or a fetch failure
// all answer false. Clean resolutions are cached for the session; fetch
// failures are not, so a transient gateway error does not pin the session to
// a stale answer.
func (g *Gate) IsPrivileged(ctx context.Context, uid string) bool {
	if uid == "" {
		return false
	}

	g.mu.Lock()
	if cached, ok := g.cache[uid]; ok {
		g.mu.Unlock()
		return cached
	}
	g.mu.Unlock()

	privileged, cacheable := g.resolve(ctx, uid)
	if cacheable {
		g.mu.Lock()
		g.cache[uid] = privileged
		g.mu.Unlock()
	}
	return privileged
}

// Reset clears the cache. Called on a fresh sign-in; a role change without
// re-login is not observed until then.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.cache = map[string]bool{}
	g.mu.Unlock()
}

func (g *Gate) resolve(ctx context.Context, uid string) (privileged, cacheable bool) {
	doc, err := g.gw.GetDocument(ctx, gateway.CollectionUsers, uid)
	if err == gateway.ErrNotFound {
		return false, true
	}
	if err != nil {
		g.logger.Warn("role lookup failed; denying access",
			zap.String("uid", uid), zap.Error(err))
		return false, false
	}

	profile, err := domain.DecodeProfile(doc)
	if err != nil {
		g.logger.Warn("undecodable profile; denying access",
			zap.String("uid", uid), zap.Error(err))
		return false, false
	}
	return profile.EffectiveRole() == domain.RoleAdmin, true
}
