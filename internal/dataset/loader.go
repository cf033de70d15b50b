package dataset

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/user/player_radar_go/internal/analysis"
)

type cacheEntry struct {
	pop      *analysis.Population
	loadedAt time.Time
}

// Loader caches populations read from a Source. Cached populations are shared
// between callers and must not be modified.
type Loader struct {
	Source Source
	TTL    time.Duration    // zero keeps entries until Invalidate
	Now    func() time.Time // defaults to time.Now

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewLoader creates a loader over src.
func NewLoader(src Source, ttl time.Duration) *Loader {
	return &Loader{Source: src, TTL: ttl, Now: time.Now, cache: make(map[string]cacheEntry)}
}

func (l *Loader) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *Loader) cached(id string) (*analysis.Population, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ent, ok := l.cache[id]
	if !ok {
		return nil, false
	}
	if l.TTL > 0 && l.now().Sub(ent.loadedAt) >= l.TTL {
		delete(l.cache, id)
		return nil, false
	}
	return ent.pop, true
}

// GetPopulation returns the population for id, loading it on a cache miss.
// Concurrent misses for the same id share one load. The shared load is not
// bound to any caller's cancellation; a canceled caller stops waiting while
// the load goes on for the others.
func (l *Loader) GetPopulation(ctx context.Context, id string) (*analysis.Population, error) {
	if pop, ok := l.cached(id); ok {
		return pop, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(id, func() (interface{}, error) {
		if pop, ok := l.cached(id); ok {
			return pop, nil
		}
		pop, err := l.Source.Population(loadCtx, id)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		if l.cache == nil {
			l.cache = make(map[string]cacheEntry)
		}
		l.cache[id] = cacheEntry{pop: pop, loadedAt: l.now()}
		l.mu.Unlock()
		log.Printf("[DEBUG] cached dataset %s", id)
		return pop, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*analysis.Population), nil
	}
}

// GetPopulations loads every id concurrently. The result follows ids order and
// repeated ids load once and share the same population.
func (l *Loader) GetPopulations(ctx context.Context, ids ...string) ([]*analysis.Population, error) {
	out := make([]*analysis.Population, len(ids))
	first := make(map[string]int)

	ewg, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		if _, ok := first[id]; ok {
			continue
		}
		first[id] = i
		i, id := i, id
		ewg.Go(func() error {
			pop, err := l.GetPopulation(ctx, id)
			if err != nil {
				return err
			}
			out[i] = pop
			return nil
		})
	}
	if err := ewg.Wait(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		out[i] = out[first[id]]
	}
	return out, nil
}

// Invalidate drops id from the cache, or every entry when id is empty.
func (l *Loader) Invalidate(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == "" {
		l.cache = make(map[string]cacheEntry)
		return
	}
	delete(l.cache, id)
}

// AttributeNames returns the numeric attributes of a dataset.
func (l *Loader) AttributeNames(ctx context.Context, id string) ([]string, error) {
	pop, err := l.GetPopulation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", id, err)
	}
	return append([]string(nil), pop.Attributes...), nil
}
