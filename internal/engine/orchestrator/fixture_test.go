package orchestrator_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/redirector/internal/core/ports/mocks"
	"go.trai.ch/redirector/internal/engine/orchestrator"
	"go.uber.org/mock/gomock"
)

const (
	target = "https://video.example/x"
	host   = "video.example"
)

// memStore keeps the state document in memory, round-tripping through JSON
// like the file store does.
type memStore struct {
	mu   sync.Mutex
	data []byte
}

func (m *memStore) Load() *domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := domain.NewState()
	if len(m.data) > 0 {
		_ = json.Unmarshal(m.data, st)
	}
	return st
}

func (m *memStore) Save(st *domain.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

type fixture struct {
	t         *testing.T
	ctrl      *gomock.Controller
	cfg       domain.Config
	store     *memStore
	verifier  *mocks.MockStreamVerifier
	resolvers map[domain.Tier]ports.TierResolver

	mu       sync.Mutex
	playable map[string]bool
	verified []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		t:         t,
		ctrl:      ctrl,
		cfg:       domain.DefaultConfig(t.TempDir()),
		store:     &memStore{},
		verifier:  mocks.NewMockStreamVerifier(ctrl),
		resolvers: map[domain.Tier]ports.TierResolver{},
		playable:  map[string]bool{},
	}
	f.verifier.EXPECT().Verify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, url, _ string, _ int) bool {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.verified = append(f.verified, url)
			return f.playable[url]
		}).AnyTimes()
	return f
}

// markPlayable makes the verifier accept url.
func (f *fixture) markPlayable(url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playable[url] = ok
}

func (f *fixture) verifiedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.verified...)
}

// tier registers a resolver for tier backed by fn and returns its call counter.
func (f *fixture) tier(tier domain.Tier, fn func(ctx context.Context) (string, error)) *counter {
	calls := &counter{}
	r := mocks.NewMockTierResolver(f.ctrl)
	r.EXPECT().Tier().Return(tier).AnyTimes()
	r.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ *domain.ResolutionRequest, _ time.Duration) (string, error) {
			calls.inc()
			return fn(ctx)
		}).AnyTimes()
	f.resolvers[tier] = r
	return calls
}

func (f *fixture) orchestrator() *orchestrator.Orchestrator {
	logger := mocks.NewMockLogger(f.ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	span := mocks.NewMockSpan(f.ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(f.ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()

	return orchestrator.New(f.cfg, f.store, f.verifier, f.resolvers, tracer, logger)
}

func (f *fixture) request(args ...string) *domain.ResolutionRequest {
	f.t.Helper()
	if len(args) == 0 {
		args = []string{"--get-url", target}
	}
	req, err := domain.NewResolutionRequest(args, domain.ClientProfile{}, "")
	if err != nil {
		f.t.Fatal(err)
	}
	return req
}

type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) inc() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// returns resolves to url after delay, or fails when ctx ends first.
func returns(url string, delay time.Duration) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		select {
		case <-time.After(delay):
			return url, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// fails returns err after delay.
func fails(err error, delay time.Duration) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		select {
		case <-time.After(delay):
			return "", err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// blocks never resolves on its own.
func blocks(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
