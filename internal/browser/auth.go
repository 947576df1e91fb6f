package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/internal/config"
)

var (
	// ErrAuthRejected means the portal refused the credentials. Fatal, never
	// retried.
	ErrAuthRejected = errors.New("authentication rejected: check portal credentials")

	// ErrAuthBlocked means a security challenge was presented and was not
	// resolved out-of-band within the challenge wait window. Fatal.
	ErrAuthBlocked = errors.New("authentication blocked: security challenge unresolved")
)

// authState classifies the page the portal landed on after a login submit.
type authState int

const (
	authOK authState = iota
	authPending
	authChallenge
	authRejected
)

// classifyAuthURL maps a post-login URL onto the auth sub-state machine.
func classifyAuthURL(url string) authState {
	switch {
	case strings.Contains(url, "/checkpoint") || strings.Contains(url, "/challenge"):
		return authChallenge
	case strings.Contains(url, "/login"):
		return authRejected
	case strings.Contains(url, "/feed") || strings.Contains(url, "/jobs") || strings.Contains(url, "/in/"):
		return authOK
	}
	return authPending
}

// Authenticate drives the login flow. On a security challenge it suspends,
// polling for out-of-band resolution (the operator solving the interstitial
// in a headful session or on another device) until the challenge window
// expires.
func (s *Session) Authenticate(ctx context.Context, creds config.Credentials, challengeWait time.Duration) error {
	err := s.Run(ctx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`input[name="session_key"]`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.SendKeys(`input[name="session_key"]`, creds.Email, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.SendKeys(`input[name="session_password"]`, creds.Password, chromedp.ByQuery),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("login navigation: %w", err)
	}

	url, err := s.Location(ctx)
	if err != nil {
		return fmt.Errorf("login location check: %w", err)
	}

	switch classifyAuthURL(url) {
	case authOK, authPending:
		s.authenticated = true
		return nil
	case authRejected:
		return ErrAuthRejected
	case authChallenge:
		return s.awaitChallenge(ctx, challengeWait)
	}
	return nil
}

// awaitChallenge polls the page URL until the challenge clears or the window
// expires. This is the only long-duration suspension point in the run.
func (s *Session) awaitChallenge(ctx context.Context, window time.Duration) error {
	log.Printf("[browser] security challenge detected, waiting up to %s for manual resolution", window)

	deadline := time.Now().Add(window)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		url, err := s.Location(ctx)
		if err != nil {
			continue
		}
		switch classifyAuthURL(url) {
		case authOK:
			log.Printf("[browser] challenge resolved")
			s.authenticated = true
			return nil
		case authRejected:
			return ErrAuthRejected
		}
	}
	return ErrAuthBlocked
}

// IsAlive probes for a silent logout (cookie expiry, forced sign-out). It
// navigates to the feed and checks where the portal lands us.
func (s *Session) IsAlive(ctx context.Context) bool {
	if !s.authenticated {
		return false
	}
	err := s.Run(ctx, chromedp.Navigate(feedURL), chromedp.Sleep(2*time.Second))
	if err != nil {
		return false
	}
	url, err := s.Location(ctx)
	if err != nil {
		return false
	}
	alive := classifyAuthURL(url) == authOK
	if !alive {
		s.authenticated = false
	}
	return alive
}
