package research

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/internal/model"
	"github.com/sells-group/prospect-research/pkg/anthropic"
	"github.com/sells-group/prospect-research/pkg/ner"
)

// --- Fetcher stub ---

// stubFetcher serves canned outcomes per URL and records every request.
// Unlisted URLs come back as transient failures.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]fetcher.Outcome
	calls []string
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	outcomes := make(map[string]fetcher.Outcome, len(pages))
	for u, body := range pages {
		outcomes[u] = fetcher.Outcome{URL: u, Status: fetcher.StatusSuccess, StatusCode: 200, Body: body}
	}
	return &stubFetcher{pages: outcomes}
}

func (s *stubFetcher) set(url string, out fetcher.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = out
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ fetcher.Options) fetcher.Outcome {
	s.mu.Lock()
	s.calls = append(s.calls, rawURL)
	out, ok := s.pages[rawURL]
	s.mu.Unlock()
	if !ok {
		return fetcher.Outcome{URL: rawURL, Status: fetcher.StatusTransientFailure, StatusCode: 503}
	}
	return out
}

func (s *stubFetcher) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// --- Anthropic Mock ---

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) Complete(ctx context.Context, req anthropic.CompletionRequest) (*anthropic.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.CompletionResponse), args.Error(1)
}

// --- NER Mock ---

type mockNERClient struct {
	mock.Mock
}

func (m *mockNERClient) Entities(ctx context.Context, text string) ([]ner.Entity, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ner.Entity), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetCachedResult(ctx context.Context, domain string) (*model.ResearchResult, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResearchResult), args.Error(1)
}

func (m *mockStore) SetCachedResult(ctx context.Context, domain string, result *model.ResearchResult, ttl time.Duration) error {
	args := m.Called(ctx, domain, result, ttl)
	return args.Error(0)
}

func (m *mockStore) DeleteExpiredResults(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) AddBlacklist(ctx context.Context, domain, reason string) error {
	args := m.Called(ctx, domain, reason)
	return args.Error(0)
}

func (m *mockStore) IsBlacklisted(ctx context.Context, domain string) (bool, string, error) {
	args := m.Called(ctx, domain)
	return args.Bool(0), args.String(1), args.Error(2)
}

func (m *mockStore) SaveRun(ctx context.Context, result *model.ResearchResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Recorder stub ---

type stubRecorder struct {
	mu          sync.Mutex
	records     []string
	blacklisted map[string]string
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{blacklisted: map[string]string{}}
}

func (r *stubRecorder) Record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, format)
}

func (r *stubRecorder) Blacklist(domain, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blacklisted[domain] = reason
}
