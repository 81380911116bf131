package crex

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cricket-live/internal/platform/logging"
	"github.com/riskibarqy/cricket-live/internal/platform/resilience"
	"github.com/riskibarqy/cricket-live/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	maxPageBodyBytes = 6 << 20
	defaultUserAgent = "cricket-live-ingest/1.0"
)

type FetcherConfig struct {
	Client         *fasthttp.Client
	UserAgent      string
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	MaxElapsed     time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Fetcher retrieves source pages and classifies the outcome. Transient
// failures are retried with linear backoff inside the attempt and elapsed
// budgets; permanent ones return immediately.
type Fetcher struct {
	client         *fasthttp.Client
	userAgent      string
	maxAttempts    int
	backoffBase    time.Duration
	backoffMax     time.Duration
	maxElapsed     time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.Flight[usecase.FetchResult]
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			Name:                      userAgent,
			MaxIdemponentCallAttempts: 1,
			MaxResponseBodySize:       maxPageBodyBytes,
			MaxConnsPerHost:           64,
		}
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	breakerCfg := cfg.CircuitBreaker
	logger.Debug("source fetcher configured", append([]any{"max_attempts", cfg.MaxAttempts, "user_agent", userAgent}, breakerCfg.LogFields()...)...)

	return &Fetcher{
		client:         client,
		userAgent:      userAgent,
		maxAttempts:    cfg.MaxAttempts,
		backoffBase:    cfg.BackoffBase,
		backoffMax:     cfg.BackoffMax,
		maxElapsed:     cfg.MaxElapsed,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
		sleep:          sleepContext,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) usecase.FetchResult {
	if err := validatePageURL(rawURL); err != nil {
		return permanent(0, crerr.Wrap(err, "invalid page url"))
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	out, err, _ := f.flight.Do(ctx, rawURL, func(ctx context.Context) (usecase.FetchResult, error) {
		return f.fetchWithRetry(ctx, rawURL, timeout), nil
	})
	if err != nil {
		return transient(0, crerr.Mark(crerr.Wrapf(err, "fetch %s", rawURL), usecase.ErrTransientFetch))
	}
	return out
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string, timeout time.Duration) usecase.FetchResult {
	start := f.now()
	var last usecase.FetchResult

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if f.circuitEnabled {
			if err := f.breaker.Allow(); err != nil {
				f.logger.WarnContext(ctx, "source circuit breaker rejected request", "url", rawURL, "state", f.breaker.State())
				return transient(attempt-1, crerr.Mark(crerr.Wrap(err, "source site unavailable"), usecase.ErrDependencyUnavailable))
			}
		}

		attemptTimeout := timeout
		if f.maxElapsed > 0 {
			left := f.maxElapsed - f.now().Sub(start)
			if left <= 0 {
				break
			}
			if left < attemptTimeout {
				attemptTimeout = left
			}
		}

		res := f.attempt(ctx, rawURL, attemptTimeout)
		res.Attempts = attempt
		if f.circuitEnabled {
			f.breaker.Record(res.Outcome == usecase.FetchTransient)
		}
		if res.Outcome != usecase.FetchTransient {
			return res
		}
		last = res

		if ctx.Err() != nil || attempt == f.maxAttempts {
			break
		}
		backoff := f.backoff(attempt)
		if f.maxElapsed > 0 && f.now().Sub(start)+backoff >= f.maxElapsed {
			f.logger.DebugContext(ctx, "fetch retry budget exhausted", "url", rawURL, "attempts", attempt)
			break
		}
		f.logger.DebugContext(ctx, "retrying page fetch", "url", rawURL, "attempt", attempt, "backoff", backoff, "error", res.Err)
		if err := f.sleep(ctx, backoff); err != nil {
			break
		}
	}

	if last.Err == nil {
		last = transient(0, crerr.New("fetch budget exhausted before first attempt"))
	}
	return last
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	d := time.Duration(attempt) * f.backoffBase
	if d > f.backoffMax {
		return f.backoffMax
	}
	return d
}

type attemptOutcome struct {
	status int
	body   []byte
	err    error
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, timeout time.Duration) usecase.FetchResult {
	deadline := f.now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.SetUserAgent(f.userAgent)

	done := make(chan attemptOutcome, 1)
	go func() {
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		var out attemptOutcome
		out.err = f.client.DoDeadline(req, resp, deadline)
		if out.err == nil {
			out.status = resp.StatusCode()
			out.body = append([]byte(nil), resp.Body()...)
		}
		done <- out
	}()

	var out attemptOutcome
	select {
	case <-ctx.Done():
		return transient(0, crerr.Mark(crerr.Wrapf(ctx.Err(), "fetch %s", rawURL), usecase.ErrTransientFetch))
	case out = <-done:
	}

	switch {
	case out.err != nil:
		if crerr.Is(out.err, fasthttp.ErrBodyTooLarge) {
			return permanent(0, crerr.Wrapf(out.err, "fetch %s", rawURL))
		}
		return transient(0, crerr.Mark(crerr.Wrapf(out.err, "fetch %s", rawURL), usecase.ErrTransientFetch))
	case out.status >= 200 && out.status < 300:
		return usecase.FetchResult{Outcome: usecase.FetchSuccess, Body: out.body, StatusCode: out.status}
	case isRetryableStatus(out.status):
		res := transient(0, crerr.Mark(crerr.Newf("fetch %s: source status=%d body=%s", rawURL, out.status, abbreviateBody(out.body)), usecase.ErrTransientFetch))
		res.StatusCode = out.status
		return res
	default:
		res := permanent(0, crerr.Newf("fetch %s: source status=%d body=%s", rawURL, out.status, abbreviateBody(out.body)))
		res.StatusCode = out.status
		return res
	}
}

func transient(attempts int, err error) usecase.FetchResult {
	return usecase.FetchResult{Outcome: usecase.FetchTransient, Attempts: attempts, Err: err}
}

func permanent(attempts int, err error) usecase.FetchResult {
	return usecase.FetchResult{
		Outcome:  usecase.FetchPermanent,
		Attempts: attempts,
		Err:      crerr.Mark(err, usecase.ErrPermanentFetch),
	}
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func validatePageURL(raw string) error {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return crerr.Newf("%q has empty host", candidate)
	}
	return nil
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	return text
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
