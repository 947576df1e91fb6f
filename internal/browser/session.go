package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	loginURL = "https://www.linkedin.com/login"
	feedURL  = "https://www.linkedin.com/feed/"
)

// Session owns the single browser instance for a run. Exactly one navigation
// sequence is in flight at any time; callers must not share a Session across
// goroutines.
type Session struct {
	ctx           context.Context
	cancel        context.CancelFunc
	fp            Fingerprint
	pageTimeout   time.Duration
	authenticated bool
}

// NewSession launches the browser with the given fingerprint applied for the
// session's whole lifetime.
func NewSession(parent context.Context, fp Fingerprint, pageTimeout time.Duration) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),
		chromedp.Flag("lang", fp.Locale),
		chromedp.WindowSize(fp.ViewportW, fp.ViewportH),
		chromedp.UserAgent(fp.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		msg := fmt.Sprintf(format, v...)
		// chromedp is noisy about CDP events it cannot unmarshal
		if strings.Contains(msg, "could not unmarshal event") ||
			strings.Contains(msg, "unknown ClientNavigationReason") {
			return
		}
		log.Printf(format, v...)
	}))

	s := &Session{
		ctx:         ctx,
		fp:          fp,
		pageTimeout: pageTimeout,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
	}

	// Start the browser and scrub the webdriver marker before any portal
	// navigation happens.
	if err := s.Run(parent,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`, nil),
	); err != nil {
		s.cancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return s, nil
}

// Run executes chromedp actions against the session's browser under the page
// timeout. The caller's ctx gates cancellation; the session ctx carries the
// browser.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.pageTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// RunLong executes actions with an explicit timeout larger than the page
// timeout. Used only for the authentication challenge wait.
func (s *Session) RunLong(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	err := s.Run(ctx, chromedp.Location(&url))
	return url, err
}

// Fingerprint returns the session's fixed fingerprint.
func (s *Session) Fingerprint() Fingerprint { return s.fp }

// Authenticated reports whether Authenticate has succeeded on this session.
func (s *Session) Authenticated() bool { return s.authenticated }

// Close tears down the browser.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
