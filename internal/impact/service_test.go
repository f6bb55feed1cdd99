package impact

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"sellImpact/internal/amm"
	"sellImpact/internal/cache"
	"sellImpact/internal/model"
	"sellImpact/internal/reserve"
)

const (
	wldAddr  = "0x2cfc85d8e48f8eab294be644d9e25c3030863003"
	usdcAddr = "0x79a02482a880bce3f13e09da970dc34db4cd24d1"
	poolAddr = "0xc19bc89ac024426f5a23c5bb8bc91d8017c90684"
)

type fakeCatalog struct {
	mu    sync.Mutex
	pools map[string][]model.Pool
	err   error
	calls int
}

func (f *fakeCatalog) ListPoolsByToken(ctx context.Context, token, _ string) ([]model.Pool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pools[token], nil
}

func (f *fakeCatalog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSource struct {
	mu    sync.Mutex
	pool  model.Pool
	err   error
	calls int
	// gate, when set, holds every fetch until closed or ctx is done.
	gate chan struct{}
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Pool(ctx context.Context, address string) (model.Pool, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.Pool{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Pool{}, f.err
	}
	p := f.pool
	p.Address = address
	return p, nil
}

type fakeRecorder struct {
	snapshots []model.PoolSnapshot
}

func (f *fakeRecorder) RecordSnapshots(_ context.Context, _ string, snaps []model.PoolSnapshot) error {
	f.snapshots = append(f.snapshots, snaps...)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testPool() model.Pool {
	return model.Pool{
		Label:        "WLD / USDC.e 0.3%",
		FeeBps:       30,
		FeeSource:    model.FeeSourceAttribute,
		ReserveUSD:   2_000_000,
		Volume24hUSD: 500_000,
		Base:         model.Asset{Symbol: "WLD", Address: wldAddr, PriceUSD: 2},
		Quote:        model.Asset{Symbol: "USDC.e", Address: usdcAddr, PriceUSD: 1},
	}
}

func newTestService(cat *fakeCatalog, src *fakeSource, rec SnapshotRecorder) (*Service, *clock) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c := cache.New(cache.NewMemoryStore(), nil, cache.WithClock(clk.Now))
	svc := NewService(Config{Network: "world-chain", Recorder: rec}, cat, src, reserve.USDSplit{Now: clk.Now}, c, nil)
	return svc, clk
}

func TestListPoolsByTokenCaches(t *testing.T) {
	cat := &fakeCatalog{pools: map[string][]model.Pool{wldAddr: {{Address: poolAddr}}}}
	svc, clk := newTestService(cat, &fakeSource{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pools, err := svc.ListPoolsByToken(ctx, "0x2CFC85D8E48F8EAB294BE644D9E25C3030863003", "USDC.e")
		if err != nil {
			t.Fatalf("list pools: %v", err)
		}
		if len(pools) != 1 || pools[0].Address != poolAddr {
			t.Fatalf("pools mismatch: %+v", pools)
		}
	}
	if cat.count() != 1 {
		t.Fatalf("catalog calls mismatch: %d != 1", cat.count())
	}

	clk.Advance(DefaultPoolTTL + time.Millisecond)
	if _, err := svc.ListPoolsByToken(ctx, wldAddr, "usdc.e"); err != nil {
		t.Fatalf("list pools: %v", err)
	}
	if cat.count() != 2 {
		t.Fatalf("expected refetch after ttl, calls=%d", cat.count())
	}
}

func TestListPoolsByTokenErrors(t *testing.T) {
	cat := &fakeCatalog{err: model.ErrUpstreamUnavailable}
	svc, _ := newTestService(cat, &fakeSource{}, nil)

	if _, err := svc.ListPoolsByToken(context.Background(), "not-an-address", ""); !errors.Is(err, model.ErrBadInput) {
		t.Fatalf("expected bad input, got %v", err)
	}
	if _, err := svc.ListPoolsByToken(context.Background(), wldAddr, ""); !errors.Is(err, model.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}

	cat.err = nil
	if _, err := svc.ListPoolsByToken(context.Background(), wldAddr, ""); err != nil {
		t.Fatalf("failure must not be cached: %v", err)
	}
}

func TestGetPoolSnapshotEstimatesAndRecords(t *testing.T) {
	src := &fakeSource{pool: testPool()}
	rec := &fakeRecorder{}
	svc, clk := newTestService(&fakeCatalog{}, src, rec)
	ctx := context.Background()

	snap, err := svc.GetPoolSnapshot(ctx, "0xC19BC89AC024426F5A23C5BB8BC91D8017C90684")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Address != poolAddr {
		t.Fatalf("address mismatch: %s", snap.Address)
	}
	if snap.Base.ReserveEstimate != 500_000 || snap.Quote.ReserveEstimate != 1_000_000 {
		t.Fatalf("reserve mismatch: %v / %v", snap.Base.ReserveEstimate, snap.Quote.ReserveEstimate)
	}
	if snap.ReserveMethod != reserve.MethodUSDSplit {
		t.Fatalf("method mismatch: %s", snap.ReserveMethod)
	}
	if !snap.FetchedAt.Equal(clk.Now()) {
		t.Fatalf("fetched at mismatch: %v", snap.FetchedAt)
	}

	if _, err := svc.GetPoolSnapshot(ctx, poolAddr); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source calls mismatch: %d != 1", src.calls)
	}
	if len(rec.snapshots) != 1 {
		t.Fatalf("recorded snapshots mismatch: %d", len(rec.snapshots))
	}
}

func TestQuoteImpactMatchesEngineAndCaches(t *testing.T) {
	src := &fakeSource{pool: testPool()}
	svc, clk := newTestService(&fakeCatalog{}, src, nil)
	ctx := context.Background()

	got, err := svc.QuoteImpact(ctx, poolAddr, wldAddr, 1_000)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	snap, _ := svc.GetPoolSnapshot(ctx, poolAddr)
	want, err := amm.Quote(snap, 1_000, wldAddr)
	if err != nil {
		t.Fatalf("engine quote: %v", err)
	}
	if got != want {
		t.Fatalf("quote mismatch: %+v != %+v", got, want)
	}

	// Quote entries expire before the snapshot does.
	src.pool.ReserveUSD = 4_000_000
	clk.Advance(DefaultQuoteTTL + time.Millisecond)
	again, err := svc.QuoteImpact(ctx, poolAddr, wldAddr, 1_000)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if again != want {
		t.Fatalf("snapshot should still be cached: %+v", again)
	}

	clk.Advance(DefaultPoolTTL)
	fresh, err := svc.QuoteImpact(ctx, poolAddr, wldAddr, 1_000)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if fresh.PriceImpact >= want.PriceImpact {
		t.Fatalf("deeper pool should lower impact: %v >= %v", fresh.PriceImpact, want.PriceImpact)
	}
}

func TestQuoteImpactBadInput(t *testing.T) {
	svc, _ := newTestService(&fakeCatalog{}, &fakeSource{pool: testPool()}, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		pool   string
		token  string
		amount float64
	}{
		{"bad pool", "0x12", wldAddr, 1},
		{"bad token", poolAddr, "wld", 1},
		{"zero amount", poolAddr, wldAddr, 0},
		{"nan amount", poolAddr, wldAddr, math.NaN()},
		{"foreign token", poolAddr, "0x0000000000000000000000000000000000000001", 1},
	}
	for _, tc := range cases {
		if _, err := svc.QuoteImpact(ctx, tc.pool, tc.token, tc.amount); !errors.Is(err, model.ErrBadInput) {
			t.Fatalf("%s: expected bad input, got %v", tc.name, err)
		}
	}
}

func TestQuoteImpactUpstreamFailure(t *testing.T) {
	src := &fakeSource{err: model.ErrUpstreamUnavailable}
	svc, _ := newTestService(&fakeCatalog{}, src, nil)

	_, err := svc.QuoteImpact(context.Background(), poolAddr, wldAddr, 10)
	if !errors.Is(err, model.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestQuoteImpactNoLiquidity(t *testing.T) {
	pool := testPool()
	pool.ReserveUSD = 0
	svc, _ := newTestService(&fakeCatalog{}, &fakeSource{pool: pool}, nil)

	_, err := svc.QuoteImpact(context.Background(), poolAddr, wldAddr, 10)
	if !errors.Is(err, model.ErrNoLiquidity) {
		t.Fatalf("expected no liquidity, got %v", err)
	}
}

func TestMaxSellUnderRespectsTarget(t *testing.T) {
	svc, _ := newTestService(&fakeCatalog{}, &fakeSource{pool: testPool()}, nil)
	ctx := context.Background()

	best, err := svc.MaxSellUnder(ctx, poolAddr, wldAddr, 0.01)
	if err != nil {
		t.Fatalf("max sell: %v", err)
	}
	if best <= 0 {
		t.Fatalf("expected positive amount, got %v", best)
	}
	q, err := svc.QuoteImpact(ctx, poolAddr, wldAddr, best)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.PriceImpact > 0.01 {
		t.Fatalf("impact above target: %v", q.PriceImpact)
	}
}

func TestSplitCompareSinglePart(t *testing.T) {
	svc, _ := newTestService(&fakeCatalog{}, &fakeSource{pool: testPool()}, nil)
	ctx := context.Background()

	q, err := svc.QuoteImpact(ctx, poolAddr, wldAddr, 5_000)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	res, err := svc.SplitCompare(ctx, poolAddr, wldAddr, 5_000, 1)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if res.OutAmount != q.OutAmount {
		t.Fatalf("single part mismatch: %v != %v", res.OutAmount, q.OutAmount)
	}
	if _, err := svc.SplitCompare(ctx, poolAddr, wldAddr, 5_000, 0); !errors.Is(err, model.ErrBadInput) {
		t.Fatalf("expected bad input for zero parts, got %v", err)
	}
}

func TestGetPoolSnapshotCallerCancelDoesNotFailOthers(t *testing.T) {
	src := &fakeSource{pool: testPool(), gate: make(chan struct{})}
	svc, _ := newTestService(&fakeCatalog{}, src, nil)

	shortCtx, cancel := context.WithCancel(context.Background())
	shortErr := make(chan error, 1)
	go func() {
		_, err := svc.GetPoolSnapshot(shortCtx, poolAddr)
		shortErr <- err
	}()
	waitFor(t, func() bool { return src.count() == 1 })

	type result struct {
		snap model.PoolSnapshot
		err  error
	}
	longRes := make(chan result, 1)
	go func() {
		snap, err := svc.GetPoolSnapshot(context.Background(), poolAddr)
		longRes <- result{snap, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	if err := <-shortErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should see its own cancellation, got %v", err)
	}

	close(src.gate)
	res := <-longRes
	if res.err != nil {
		t.Fatalf("remaining caller failed: %v", res.err)
	}
	if res.snap.Address != poolAddr || res.snap.Base.ReserveEstimate != 500_000 {
		t.Fatalf("snapshot mismatch: %+v", res.snap)
	}
	if src.count() != 1 {
		t.Fatalf("expected one coalesced fetch, got %d", src.count())
	}
}
