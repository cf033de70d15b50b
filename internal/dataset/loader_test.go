package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/user/player_radar_go/internal/analysis"
)

type fakeSource struct {
	mu    sync.Mutex
	pops  map[string]*analysis.Population
	calls map[string]int
	err   error
}

func newFakeSource(ids ...string) *fakeSource {
	f := &fakeSource{pops: make(map[string]*analysis.Population), calls: make(map[string]int)}
	for _, id := range ids {
		pop := analysis.NewPopulation(id)
		pop.Attributes = []string{"Gls", "Ast"}
		f.pops[id] = pop
	}
	return f
}

func (f *fakeSource) Population(_ context.Context, id string) (*analysis.Population, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.err != nil {
		return nil, f.err
	}
	pop, ok := f.pops[id]
	if !ok {
		return nil, &DatasetNotFoundError{ID: id}
	}
	return pop, nil
}

func (f *fakeSource) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func TestLoaderCachesWithTTL(t *testing.T) {
	src := newFakeSource("EPL/24-25")
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewLoader(src, time.Hour)
	l.Now = func() time.Time { return now }

	ctx := context.Background()
	p1, err := l.GetPopulation(ctx, "EPL/24-25")
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := l.GetPopulation(ctx, "EPL/24-25")
	if p1 != p2 || src.count("EPL/24-25") != 1 {
		t.Errorf("expected one load, got %d", src.count("EPL/24-25"))
	}

	now = now.Add(59 * time.Minute)
	_, _ = l.GetPopulation(ctx, "EPL/24-25")
	if src.count("EPL/24-25") != 1 {
		t.Error("entry expired too early")
	}

	now = now.Add(time.Minute)
	_, _ = l.GetPopulation(ctx, "EPL/24-25")
	if src.count("EPL/24-25") != 2 {
		t.Errorf("expected reload after TTL, got %d loads", src.count("EPL/24-25"))
	}

	l.Invalidate("EPL/24-25")
	_, _ = l.GetPopulation(ctx, "EPL/24-25")
	if src.count("EPL/24-25") != 3 {
		t.Errorf("expected reload after Invalidate, got %d loads", src.count("EPL/24-25"))
	}
}

func TestLoaderGetPopulations(t *testing.T) {
	src := newFakeSource("EPL/24-25", "LaLiga/24-25")
	l := NewLoader(src, 0)

	pops, err := l.GetPopulations(context.Background(), "LaLiga/24-25", "EPL/24-25", "LaLiga/24-25")
	if err != nil {
		t.Fatal(err)
	}
	if len(pops) != 3 || pops[0].Key != "LaLiga/24-25" || pops[1].Key != "EPL/24-25" || pops[0] != pops[2] {
		t.Errorf("unexpected populations: %v", pops)
	}
	if src.count("LaLiga/24-25") != 1 {
		t.Errorf("repeated id loaded %d times", src.count("LaLiga/24-25"))
	}

	_, err = l.GetPopulations(context.Background(), "EPL/24-25", "Ligue1/24-25")
	var nf *DatasetNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected DatasetNotFoundError, got %v", err)
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	src := newFakeSource("EPL/24-25")
	src.err = errors.New("disk on fire")
	l := NewLoader(src, 0)

	if _, err := l.GetPopulation(context.Background(), "EPL/24-25"); err == nil {
		t.Fatal("expected error")
	}
	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	if _, err := l.GetPopulation(context.Background(), "EPL/24-25"); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}

	attrs, err := l.AttributeNames(context.Background(), "EPL/24-25")
	if err != nil || len(attrs) != 2 {
		t.Errorf("AttributeNames = %v, %v", attrs, err)
	}
}

func TestSourcesChain(t *testing.T) {
	a := newFakeSource("EPL/24-25")
	b := newFakeSource("LaLiga/24-25")
	chain := Sources{a, b}

	pop, err := chain.Population(context.Background(), "LaLiga/24-25")
	if err != nil || pop.Key != "LaLiga/24-25" {
		t.Fatalf("Population = %v, %v", pop, err)
	}

	a.err = errors.New("boom")
	if _, err := chain.Population(context.Background(), "LaLiga/24-25"); err == nil || err.Error() != "boom" {
		t.Errorf("non-not-found errors must stop the chain, got %v", err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	csv := "Player,Squad,Gls\nA,X,3\nB,Y,7\n"
	if err := os.WriteFile(filepath.Join(dir, "epl.csv"), []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}
	cat := &Catalog{Entries: []Entry{
		{League: "EPL", Year: "24-25", Path: filepath.Join(dir, "epl.csv")},
		{League: "Broken", Year: "24-25", Path: filepath.Join(dir, "missing.csv")},
	}}
	src := &FileSource{Catalog: cat}

	pop, err := src.Population(context.Background(), "EPL")
	if err != nil {
		t.Fatal(err)
	}
	if pop.Key != "EPL/24-25" || len(pop.Entities) != 2 || pop.Entities[1].Source != "EPL/24-25" {
		t.Errorf("population = %+v", pop)
	}

	_, err = src.Population(context.Background(), "Broken/24-25")
	var le *LoadError
	if !errors.As(err, &le) || le.Path == "" {
		t.Errorf("expected LoadError, got %v", err)
	}
}

// blockingSource holds every load until release is closed.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Population(ctx context.Context, id string) (*analysis.Population, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return analysis.NewPopulation(id), nil
}

func TestLoaderCallerCancelDoesNotFailOthers(t *testing.T) {
	src := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	l := NewLoader(src, 0)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.GetPopulation(firstCtx, "EPL/24-25")
		firstErr <- err
	}()
	<-src.started

	type result struct {
		pop *analysis.Population
		err error
	}
	second := make(chan result, 1)
	go func() {
		pop, err := l.GetPopulation(context.Background(), "EPL/24-25")
		second <- result{pop, err}
	}()

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller got %v, want context.Canceled", err)
	}

	close(src.release)
	res := <-second
	if res.err != nil || res.pop == nil || res.pop.Key != "EPL/24-25" {
		t.Fatalf("second caller got %v, %v", res.pop, res.err)
	}
	if _, ok := l.cached("EPL/24-25"); !ok {
		t.Error("load finished after a cancel must still be cached")
	}
}
