package impact

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sellImpact/internal/model"
)

// DefaultDebounce is the quiet period after the last input before a lookup runs.
const DefaultDebounce = 300 * time.Millisecond

// View is the state applied after a lookup completes.
type View struct {
	Generation uint64
	Token      string
	Pools      []model.Pool
	Err        error
}

// Session debounces token input and applies only the newest lookup result.
// Each dispatch gets a generation number; a result whose generation is no
// longer the latest is dropped.
type Session struct {
	svc    *Service
	anchor string
	delay  time.Duration
	logger *zap.Logger

	// OnUpdate, when set, is called with every applied view.
	OnUpdate func(View)

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	state  View
	wg     sync.WaitGroup
}

func NewSession(svc *Service, anchor string, delay time.Duration, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Session{svc: svc, anchor: anchor, delay: delay, logger: logger}
}

// Input schedules a pool lookup for token, replacing any pending one.
func (s *Session) Input(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.dispatch(ctx, token)
	})
}

// Refresh runs a lookup for token immediately.
func (s *Session) Refresh(ctx context.Context, token string) {
	s.mu.Lock()
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.dispatch(ctx, token)
}

// Generation returns the latest dispatched generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// State returns the last applied view.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.state
	v.Pools = append([]model.Pool(nil), v.Pools...)
	return v
}

// Wait blocks until pending and in-flight lookups have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels pending and in-flight lookups.
func (s *Session) Close() {
	s.mu.Lock()
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) dispatch(parent context.Context, token string) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	pools, err := s.svc.ListPoolsByToken(ctx, token, s.anchor)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		cancel()
		s.logger.Debug("stale lookup dropped", zap.Uint64("generation", gen), zap.String("token", token))
		return
	}
	s.state = View{Generation: gen, Token: token, Pools: pools, Err: err}
	s.cancel = nil
	view := s.state
	onUpdate := s.OnUpdate
	s.mu.Unlock()
	cancel()

	if onUpdate != nil {
		onUpdate(view)
	}
}
