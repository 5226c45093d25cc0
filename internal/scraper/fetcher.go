package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/soccer-scraper/internal/logger"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"
	DefaultAcceptLanguage = "en-US,en;q=0.9,pt;q=0.8"
	DefaultTimeout        = 20 * time.Second
)

// Options configures a Fetcher. Zero values select the defaults noted on each field.
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration // per request, default 20s

	MaxRetries  int           // total attempts, default 5
	BackoffBase float64       // default 2
	BackoffUnit time.Duration // wait before retry n is BackoffBase^n units, default 1s

	DelayMin time.Duration // politeness delay range before every attempt
	DelayMax time.Duration

	RequestsPerMinute int // hard cap on request rate, 0 disables it
}

// Fetcher issues polite, retrying GET requests and returns parsed documents.
// It is meant to be used from a single goroutine.
type Fetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
	metrics *logger.Metrics
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMetrics records attempt counters and request timings on m.
func WithMetrics(m *logger.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithSleeper replaces the function used for politeness delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) { f.sleep = sleep }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options, options ...Option) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = DefaultAcceptLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.BackoffBase < 1 {
		opts.BackoffBase = 2
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = time.Second
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = opts.DelayMin
	}

	f := &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		sleep:   sleepContext,
		metrics: logger.NewMetrics(),
	}
	if opts.RequestsPerMinute > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}

	for _, o := range options {
		o(f)
	}
	return f
}

// Fetch downloads url and parses it as HTML.
//
// 429, 503 and transport errors are retried with exponential backoff until
// MaxRetries attempts have been made; any other non-2xx status fails at once.
// Failures are returned as *FetchError wrapping the last cause.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var (
		doc        *goquery.Document
		attempts   int
		lastStatus int
	)

	operation := func() error {
		attempts++
		if err := f.politeWait(ctx, url, attempts); err != nil {
			return backoff.Permanent(err)
		}

		d, status, err := f.attempt(ctx, url)
		lastStatus = status
		if err == nil {
			doc = d
			return nil
		}
		if ctx.Err() != nil || !retriable(status) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.metrics.IncrCounter("fetch.retries")
		logger.Warn("Retriable fetch failure, backing off", logger.Fields{
			"url":     url,
			"attempt": fmt.Sprintf("%d/%d", attempts, f.opts.MaxRetries),
			"status":  lastStatus,
			"wait":    wait.String(),
			"cause":   err.Error(),
		})
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(f.opts.MaxRetries-1)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		f.metrics.IncrCounter("fetch.failures")
		fetchErr := &FetchError{URL: url, StatusCode: lastStatus, Attempts: attempts, Err: err}
		logger.Error("Failed to fetch URL", logger.Fields{
			"url":      url,
			"attempts": attempts,
			"status":   lastStatus,
		}, err)
		return nil, fetchErr
	}

	logger.Debug("Fetched page", logger.Fields{"url": url, "attempts": attempts})
	return doc, nil
}

// newBackOff returns a deterministic exponential schedule: unit, unit*base,
// unit*base^2, ...
func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.BackoffUnit
	b.Multiplier = f.opts.BackoffBase
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = time.Duration(float64(f.opts.BackoffUnit) * math.Pow(f.opts.BackoffBase, float64(f.opts.MaxRetries)))
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Reset()
	return b
}

// politeWait sleeps a random duration from the configured range, then waits
// for the rate limiter.
func (f *Fetcher) politeWait(ctx context.Context, url string, attempt int) error {
	delay := f.opts.DelayMin
	if spread := f.opts.DelayMax - f.opts.DelayMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}

	if delay > 0 {
		logger.Info("Waiting before request", logger.Fields{
			"url":     url,
			"attempt": attempt,
			"delay":   delay.Round(time.Millisecond).String(),
		})
		if err := f.sleep(ctx, delay); err != nil {
			return err
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return nil
}

// attempt performs one GET. The returned status is 0 when no response arrived.
func (f *Fetcher) attempt(ctx context.Context, url string) (*goquery.Document, int, error) {
	f.metrics.IncrCounter("fetch.attempts")
	start := time.Now()
	defer func() { f.metrics.RecordTiming("fetch.request", time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept-Language", f.opts.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, resp.StatusCode, nil
}

// retriable reports whether a failed attempt may succeed later. Status 0 is a
// transport failure (DNS, reset, timeout).
func retriable(status int) bool {
	switch status {
	case 0, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err is a fetch failure caused by HTTP 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
