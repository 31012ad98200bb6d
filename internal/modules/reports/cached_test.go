package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/cache"
)

type cachedFixture struct {
	mem    *memStore
	store  *cache.Memory
	agg    *Aggregator
	cached *CachedReports
	inv    *Invalidator
}

func newCachedFixture(t *testing.T, versioned bool) *cachedFixture {
	t.Helper()
	m := seedTree(2, 2, 2, 10)
	store := cache.NewMemory()
	agg := newTestAggregator(m)
	c := NewCachedReports(CachedReportsDeps{Inner: agg, Store: store, TTL: time.Hour, Versioned: versioned})
	agg.UseChildReports(c)
	inv := NewInvalidator(InvalidatorDeps{Hierarchy: m, Store: store, Versioned: versioned})
	return &cachedFixture{mem: m, store: store, agg: agg, cached: c, inv: inv}
}

func (f *cachedFixture) write(user, subconceptID string, score int, at time.Time) {
	f.mem.addAttempt(user, subconceptID, score, at, true)
	f.inv.Invalidate(context.Background(), WriteEvent{Kind: WriteAttempt, UserID: user, SubconceptID: subconceptID})
}

func TestCachedReportsServeFromCache(t *testing.T) {
	f := newCachedFixture(t, false)
	ctx := context.Background()

	first, err := f.cached.ProgramReport(ctx, "U", "P")
	if err != nil {
		t.Fatalf("ProgramReport: %v", err)
	}
	reads := f.mem.attemptReads.Load()
	if reads != 8 {
		t.Fatalf("attempt reads after first build: want=8 got=%d", reads)
	}

	second, err := f.cached.ProgramReport(ctx, "U", "P")
	if err != nil {
		t.Fatalf("ProgramReport again: %v", err)
	}
	if got := f.mem.attemptReads.Load(); got != reads {
		t.Fatalf("cached read touched the ledger: want=%d got=%d", reads, got)
	}
	if first.TotalSubconcepts != second.TotalSubconcepts || len(second.Stages) != 2 {
		t.Fatalf("cached report differs: first=%+v second=%+v", first, second)
	}
	for _, k := range []string{ProgramKey("U", "P"), StageKey("U", "s1"), UnitKey("U", "s1u1"), AttemptsKey("U", "s1u1c1")} {
		if _, ok, _ := f.store.Get(ctx, k); !ok {
			t.Fatalf("expected %s to be cached", k)
		}
	}
}

func TestCachedReportsEvictionCompleteness(t *testing.T) {
	for _, versioned := range []bool{false, true} {
		f := newCachedFixture(t, versioned)
		ctx := context.Background()

		before, err := f.cached.ProgramReport(ctx, "U", "P")
		if err != nil {
			t.Fatalf("ProgramReport: %v", err)
		}
		if before.AverageScore != 0 {
			t.Fatalf("initial average: want=0 got=%v", before.AverageScore)
		}

		f.write("U", "s1u1c1", 8, t0)

		after, err := f.cached.ProgramReport(ctx, "U", "P")
		if err != nil {
			t.Fatalf("ProgramReport after write: %v", err)
		}
		if after.AverageScore != 8 || after.Stages[0].Units[0].Subconcepts[0].AttemptCount != 1 {
			t.Fatalf("versioned=%v: stale report served after write: avg=%v", versioned, after.AverageScore)
		}
		unit, err := f.cached.UnitReport(ctx, "U", "s1u1")
		if err != nil || unit.AverageScore != 8 {
			t.Fatalf("versioned=%v: stale unit report: %+v err=%v", versioned, unit, err)
		}
		attempts, err := f.cached.UserAttempts(ctx, "U", "s1u1c1")
		if err != nil || len(attempts) != 1 {
			t.Fatalf("versioned=%v: stale attempts: %v err=%v", versioned, attempts, err)
		}
	}
}

func TestCachedReportsUnaffectedSiblingsStayCached(t *testing.T) {
	f := newCachedFixture(t, false)
	ctx := context.Background()
	if _, err := f.cached.ProgramReport(ctx, "U", "P"); err != nil {
		t.Fatalf("ProgramReport: %v", err)
	}
	f.write("U", "s1u1c1", 5, t0)

	for _, k := range []string{UnitKey("U", "s2u1"), StageKey("U", "s2"), AttemptsKey("U", "s1u2c1")} {
		if _, ok, _ := f.store.Get(ctx, k); !ok {
			t.Fatalf("unrelated entry %s was evicted", k)
		}
	}
	reads := f.mem.attemptReads.Load()
	if _, err := f.cached.ProgramReport(ctx, "U", "P"); err != nil {
		t.Fatalf("ProgramReport: %v", err)
	}
	// only the written unit's two subconcepts are re-read
	if got := f.mem.attemptReads.Load() - reads; got != 2 {
		t.Fatalf("attempt reads after write: want=2 got=%d", got)
	}
}

func TestCachedReportsStaleGenerationIsDead(t *testing.T) {
	f := newCachedFixture(t, true)
	ctx := context.Background()

	// a reader that computed before the write committed lands in generation 0
	staleUnit := &domain.UnitReport{UnitID: "s1u1", CompletionStatus: domain.StatusNo}
	f.write("U", "s1u1c1", 9, t0)
	if err := cache.SetJSON(ctx, f.store, Versioned(UnitKey("U", "s1u1"), 0), staleUnit, time.Hour); err != nil {
		t.Fatalf("seed stale: %v", err)
	}

	got, err := f.cached.UnitReport(ctx, "U", "s1u1")
	if err != nil {
		t.Fatalf("UnitReport: %v", err)
	}
	if got.AverageScore != 9 || got.TotalSubconcepts != 2 {
		t.Fatalf("stale generation served: %+v", got)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Evict(context.Context, ...string) error      { return errors.New("down") }
func (brokenStore) Incr(context.Context, string) (int64, error) { return 0, errors.New("down") }
func (brokenStore) Close() error                                { return nil }

func TestCachedReportsDegradeWhenBackendFails(t *testing.T) {
	for _, versioned := range []bool{false, true} {
		m := seedTree(1, 1, 1, 10)
		m.addAttempt("U", "s1u1c1", 6, t0, true)
		agg := newTestAggregator(m)
		c := NewCachedReports(CachedReportsDeps{Inner: agg, Store: brokenStore{}, Versioned: versioned})
		agg.UseChildReports(c)

		r, err := c.ProgramReport(context.Background(), "U", "P")
		if err != nil {
			t.Fatalf("versioned=%v: ProgramReport with broken cache: %v", versioned, err)
		}
		if r.AverageScore != 6 {
			t.Fatalf("versioned=%v: average: want=6 got=%v", versioned, r.AverageScore)
		}
	}
}

func TestCachedReportsDoNotCacheErrors(t *testing.T) {
	f := newCachedFixture(t, false)
	ctx := context.Background()
	if _, err := f.cached.ProgramReport(ctx, "U", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ProgramReport(missing): got=%v", err)
	}
	if _, ok, _ := f.store.Get(ctx, ProgramKey("U", "missing")); ok {
		t.Fatalf("error result was cached")
	}
}

func TestCachedReportsConcurrentReaders(t *testing.T) {
	f := newCachedFixture(t, true)
	f.mem.addAttempt("U", "s2u2c2", 7, t0, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := f.cached.ProgramReport(ctx, "U", "P")
			if err != nil {
				errs <- err
				return
			}
			if r.AverageScore != 7 {
				errs <- errors.New("unexpected average")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent ProgramReport: %v", err)
	}
}

func TestKeysKeepSegmentsApart(t *testing.T) {
	pairs := [][2]string{
		{ProgramKey("a:b", "P"), ProgramKey("a", "b:P")},
		{StageKey("a:b", "S"), StageKey("a", "b:S")},
		{UnitKey("a:b", "N"), UnitKey("a", "b:N")},
		{AttemptsKey("a:b", "c"), AttemptsKey("a", "b:c")},
		{ConceptsKey("a:b", "P"), ConceptsKey("a", "b:P")},
		{Versioned(UserDataKey("a@g1"), 0), Versioned(UserDataKey("a"), 1) + "@g0"},
	}
	for _, p := range pairs {
		if p[0] == p[1] {
			t.Fatalf("keys collide: %q", p[0])
		}
	}
	if got, want := ProgramKey(" U ", "P"), ProgramKey("U", "P"); got != want {
		t.Fatalf("padded ids: want=%q got=%q", want, got)
	}
}

func TestCachedReportsDoNotServeAnotherUsersEntry(t *testing.T) {
	for _, versioned := range []bool{false, true} {
		f := newCachedFixture(t, versioned)
		ctx := context.Background()
		f.mem.addAttempt("a:b", "s1u1c1", 7, time.Now(), true)

		if _, err := f.cached.ProgramReport(ctx, "a:b", "P"); err != nil {
			t.Fatalf("ProgramReport: %v", err)
		}
		rep, err := f.cached.ProgramReport(ctx, "a", "b:P")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("versioned=%v: want not found, got report=%+v err=%v", versioned, rep, err)
		}
	}
}

func TestCachedReportsTrimIdsBeforeKeying(t *testing.T) {
	f := newCachedFixture(t, false)
	ctx := context.Background()

	if _, err := f.cached.ProgramReport(ctx, " U ", "P "); err != nil {
		t.Fatalf("ProgramReport: %v", err)
	}
	if _, ok, _ := f.store.Get(ctx, ProgramKey("U", "P")); !ok {
		t.Fatalf("padded request was not cached under the trimmed key")
	}
	f.write("U", "s1u1c1", 9, time.Now())
	if _, ok, _ := f.store.Get(ctx, ProgramKey("U", "P")); ok {
		t.Fatalf("entry survived invalidation")
	}
}

// blockingUnits holds UnitReport until released or until the context it was
// given ends.
type blockingUnits struct {
	Service
	started chan struct{}
	release chan struct{}
}

func (b *blockingUnits) UnitReport(ctx context.Context, userID, unitID string) (*domain.UnitReport, error) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return &domain.UnitReport{UnitID: unitID, Name: "Unit " + unitID}, nil
	}
}

func TestCachedReportsCallerCancelDoesNotFailSharedBuild(t *testing.T) {
	inner := &blockingUnits{started: make(chan struct{}, 1), release: make(chan struct{})}
	c := NewCachedReports(CachedReportsDeps{Inner: inner, Store: cache.NewMemory(), TTL: time.Hour})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.UnitReport(ctxA, "U", "N")
		errA <- err
	}()
	<-inner.started

	type result struct {
		rep *domain.UnitReport
		err error
	}
	resB := make(chan result, 1)
	go func() {
		rep, err := c.UnitReport(context.Background(), "U", "N")
		resB <- result{rep, err}
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: want=%v got=%v", context.Canceled, err)
	}
	time.Sleep(20 * time.Millisecond)
	close(inner.release)

	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("live caller failed: %v", r.err)
		}
		if r.rep == nil || r.rep.UnitID != "N" {
			t.Fatalf("live caller report: %+v", r.rep)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("live caller never returned")
	}
}
