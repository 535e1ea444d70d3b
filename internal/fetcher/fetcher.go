// Package fetcher retrieves page content through an unreliable network:
// retries with backoff and jitter, rotating client identities, per-host
// throttling, and an optional headless-render fallback when plain retrieval
// is blocked or comes back empty.
package fetcher

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-research/internal/resilience"
)

// Status classifies a fetch outcome.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusBlocked          Status = "blocked"
	StatusTransientFailure Status = "transient_failure"
	StatusFatalFailure     Status = "fatal_failure"
)

// Outcome is the result of a single Fetch call. Never persisted.
type Outcome struct {
	URL        string
	Status     Status
	StatusCode int
	Body       string
	Rendered   bool
	Err        error
}

// OK reports whether the outcome carries usable content.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess && o.Body != ""
}

// Client is the fetch capability consumed by the pipeline components.
// *Fetcher is the production implementation.
type Client interface {
	Fetch(ctx context.Context, rawURL string, opts Options) Outcome
}

// Renderer loads a page in a full browser context and returns rendered HTML.
type Renderer interface {
	Render(ctx context.Context, targetURL string) (string, error)
}

// Recorder receives blacklist events as an observability side channel.
type Recorder interface {
	Blacklist(domain, reason string)
}

// Options configures a single Fetch call.
type Options struct {
	// Timeout bounds each direct attempt. Zero uses the Fetcher default
	// (10s unless overridden with WithDefaults).
	Timeout time.Duration
	// Retries is the number of additional attempts after the first. Zero
	// uses the Fetcher default (3 unless overridden with WithDefaults);
	// negative forces a single attempt. HTTP 403/404 and connection
	// resets are never retried.
	Retries int
	// AllowRender enables the headless-render fallback when all direct
	// attempts fail or return empty content.
	AllowRender bool
}

// userAgents is the fixed pool of client identities rotated per attempt.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
}

const maxBodyBytes = 512 * 1024

// Fetcher retrieves URLs with retry, throttling, and render fallback.
type Fetcher struct {
	client   *http.Client
	renderer Renderer
	recorder Recorder
	retry    resilience.RetryConfig
	defaults Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) { f.client = hc }
}

// WithRenderer sets the headless-render fallback.
func WithRenderer(r Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

// WithRecorder sets the blacklist recorder.
func WithRecorder(rec Recorder) Option {
	return func(f *Fetcher) { f.recorder = rec }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(f *Fetcher) { f.retry = cfg }
}

// WithDefaults sets the fallback Timeout and Retries applied to Fetch
// calls whose Options leave them unset.
func WithDefaults(d Options) Option {
	return func(f *Fetcher) {
		if d.Timeout > 0 {
			f.defaults.Timeout = d.Timeout
		}
		f.defaults.Retries = d.Retries
	}
}

// WithHostRate sets the per-host request rate and burst.
func WithHostRate(perSecond float64, burst int) Option {
	return func(f *Fetcher) {
		f.perHost = rate.Limit(perSecond)
		f.burst = burst
	}
}

// New creates a Fetcher with browser-like defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		retry:    resilience.DefaultRetryConfig(),
		defaults: Options{Timeout: 10 * time.Second, Retries: 3},
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(2),
		burst:    4,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves a URL. The outcome is always populated; Err carries the
// final failure for non-success statuses.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) Outcome {
	if opts.Timeout <= 0 {
		opts.Timeout = f.defaults.Timeout
	}
	if opts.Retries == 0 {
		opts.Retries = f.defaults.Retries
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	out := f.fetchDirect(ctx, rawURL, opts)
	if out.OK() {
		return out
	}

	if opts.AllowRender && f.renderer != nil {
		if rendered := f.fetchRendered(ctx, rawURL); rendered != nil {
			return *rendered
		}
	}

	return out
}

// fetchDirect runs the retry loop of plain HTTP attempts.
func (f *Fetcher) fetchDirect(ctx context.Context, rawURL string, opts Options) Outcome {
	cfg := f.retry
	cfg.MaxAttempts = opts.Retries + 1
	cfg.OnRetry = resilience.RetryLogger("fetcher", "fetch")

	type attemptResult struct {
		body       string
		statusCode int
	}

	res, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (attemptResult, error) {
		body, code, attemptErr := f.attempt(ctx, rawURL, opts.Timeout)
		return attemptResult{body: body, statusCode: code}, attemptErr
	})

	if err == nil {
		return Outcome{URL: rawURL, Status: StatusSuccess, StatusCode: res.statusCode, Body: res.body}
	}

	if resilience.IsPermanent(err) {
		return Outcome{URL: rawURL, Status: StatusBlocked, StatusCode: permanentStatus(err), Err: err}
	}

	if resilience.IsFatal(err) {
		if host := hostOf(rawURL); host != "" && f.recorder != nil {
			f.recorder.Blacklist(host, "connection reset by peer")
		}
		return Outcome{URL: rawURL, Status: StatusFatalFailure, Err: err}
	}

	return Outcome{URL: rawURL, Status: StatusTransientFailure, Err: err}
}

// attempt performs one HTTP GET with a rotated identity.
func (f *Fetcher) attempt(ctx context.Context, rawURL string, timeout time.Duration) (string, int, error) {
	if err := f.waitHost(ctx, rawURL); err != nil {
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, resilience.NewPermanentError(eris.Wrap(err, "fetcher: create request"), 0)
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if resilience.IsConnReset(err) {
			return "", 0, resilience.NewFatalError(eris.Wrap(err, "fetcher: connection reset"))
		}
		return "", 0, eris.Wrap(err, "fetcher: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if resilience.IsConnReset(err) {
			return "", 0, resilience.NewFatalError(eris.Wrap(err, "fetcher: connection reset"))
		}
		return "", resp.StatusCode, eris.Wrap(err, "fetcher: read body")
	}

	// 403/404 are deliberate refusals, not flakiness. Stop immediately.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		return "", resp.StatusCode, resilience.NewPermanentError(
			eris.Errorf("fetcher: blocked with status %d", resp.StatusCode), resp.StatusCode)
	}

	if blocked, blockType := DetectBlock(resp, body); blocked && blockType != BlockJSShell {
		return "", resp.StatusCode, resilience.NewPermanentError(
			eris.Errorf("fetcher: blocked (%s)", blockType), resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, eris.Errorf("fetcher: status %d", resp.StatusCode)
	}

	return string(body), resp.StatusCode, nil
}

// fetchRendered delegates to the headless browser. The renderer manages its
// own timeout and page lifecycle; a nil return means the caller keeps the
// original direct-fetch outcome.
func (f *Fetcher) fetchRendered(ctx context.Context, rawURL string) *Outcome {
	html, err := f.renderer.Render(ctx, rawURL)
	if err != nil {
		zap.L().Debug("fetcher: render fallback failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil
	}
	if html == "" {
		return nil
	}
	zap.L().Debug("fetcher: served via render fallback", zap.String("url", rawURL))
	return &Outcome{URL: rawURL, Status: StatusSuccess, StatusCode: http.StatusOK, Body: html, Rendered: true}
}

func (f *Fetcher) waitHost(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.perHost, f.burst)
		f.limiters[host] = lim
	}
	f.mu.Unlock()

	return lim.Wait(ctx)
}

func permanentStatus(err error) int {
	var pe *resilience.PermanentError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
