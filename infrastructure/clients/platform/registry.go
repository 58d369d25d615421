package platform

import (
	"context"
	"fmt"
	"sync"

	"video-publisher/domain/model"
	"video-publisher/domain/repository"

	"golang.org/x/time/rate"
)

// Registry resolves the publisher for a platform. Every registered publisher is
// throttled by its own token bucket shared across worker goroutines.
type Registry struct {
	mu         sync.RWMutex
	publishers map[model.Platform]repository.IPlatformPublisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[model.Platform]repository.IPlatformPublisher)}
}

// Register adds p, limited to ratePerSecond calls. Zero or negative means unlimited.
func (r *Registry) Register(p repository.IPlatformPublisher, ratePerSecond float64) {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Platform()] = &limitedPublisher{inner: p, limiter: rate.NewLimiter(limit, 1)}
}

func (r *Registry) Publisher(platform model.Platform) (repository.IPlatformPublisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("publisher for %s: %w: %w", platform, model.ErrPermanent, model.ErrNotConfigured)
	}
	return p, nil
}

// Platforms lists what is registered.
func (r *Registry) Platforms() []model.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Platform, 0, len(r.publishers))
	for p := range r.publishers {
		out = append(out, p)
	}
	return out
}

type limitedPublisher struct {
	inner   repository.IPlatformPublisher
	limiter *rate.Limiter
}

func (l *limitedPublisher) Platform() model.Platform { return l.inner.Platform() }

func (l *limitedPublisher) Publish(ctx context.Context, req repository.PublishRequest) (*repository.PublishResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", l.inner.Platform(), err)
	}
	return l.inner.Publish(ctx, req)
}

var _ repository.IPublisherRegistry = (*Registry)(nil)
