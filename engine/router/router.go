// Package router is the C4 store router: it maps (owner_id, dataset_id) to
// a provisioned graph store, vector store, and namespace, provisioning on
// first use and caching the result thereafter.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/topoteretes/cognee-go/engine/graph"
	"github.com/topoteretes/cognee-go/engine/semantic"
	"golang.org/x/sync/singleflight"
)

// Handle is the resolved backend binding for one dataset: the graph and
// vector stores to use, and the namespace to scope collection/label names
// with to preserve dataset isolation (invariant §3.5).
type Handle struct {
	Graph     graph.Store
	Vector    semantic.Store
	Namespace string
}

// Provisioner creates a fresh Handle for a dataset that has never been
// resolved before. engine/router owns caching and de-duplication;
// Provisioner owns actually dialing/creating backends.
type Provisioner interface {
	Provision(ctx context.Context, ownerID, datasetID string) (Handle, error)
}

// Router resolves (owner_id, dataset_id) to a Handle, memoizing results and
// collapsing concurrent first-use provisioning into a single call via
// singleflight — two goroutines racing to materialize the same new dataset
// must not both provision it.
type Router struct {
	provisioner Provisioner

	mu     sync.RWMutex
	cache  map[string]Handle
	flight singleflight.Group
}

// New creates a Router backed by provisioner.
func New(provisioner Provisioner) *Router {
	return &Router{
		provisioner: provisioner,
		cache:       make(map[string]Handle),
	}
}

func cacheKey(ownerID, datasetID string) string {
	return ownerID + "/" + datasetID
}

// Resolve returns the Handle for (ownerID, datasetID), provisioning it on
// first use. Concurrent calls for the same key share one provisioning
// attempt and its result (or its error).
func (r *Router) Resolve(ctx context.Context, ownerID, datasetID string) (Handle, error) {
	key := cacheKey(ownerID, datasetID)

	r.mu.RLock()
	h, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := r.flight.Do(key, func() (any, error) {
		r.mu.RLock()
		if h, ok := r.cache[key]; ok {
			r.mu.RUnlock()
			return h, nil
		}
		r.mu.RUnlock()

		h, err := r.provisioner.Provision(ctx, ownerID, datasetID)
		if err != nil {
			return nil, fmt.Errorf("router: provision %s: %w", key, err)
		}

		r.mu.Lock()
		r.cache[key] = h
		r.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return Handle{}, err
	}
	return v.(Handle), nil
}

// Invalidate drops a cached binding, forcing the next Resolve to
// re-provision. Used after Prune, which destroys a dataset's backends.
func (r *Router) Invalidate(ownerID, datasetID string) {
	r.mu.Lock()
	delete(r.cache, cacheKey(ownerID, datasetID))
	r.mu.Unlock()
}
