// Package runner coordinates a full run: profile parsing, browser session,
// authentication, discovery, scoring, and the sequential application loop.
// The coordinator owns the run lifecycle and always produces exactly one
// RunReport, even when the run dies early.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/khrees2412/jobpilot/internal/ai"
	"github.com/khrees2412/jobpilot/internal/browser"
	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/khrees2412/jobpilot/internal/discovery"
	"github.com/khrees2412/jobpilot/internal/filler"
	"github.com/khrees2412/jobpilot/internal/governor"
	"github.com/khrees2412/jobpilot/internal/matching"
	"github.com/khrees2412/jobpilot/internal/resume"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// Discoverer finds postings for the run's search criteria.
type Discoverer interface {
	Search(ctx context.Context, criteria models.SearchCriteria, maxListings int) ([]*models.JobPosting, error)
}

// Applier drives one application to a terminal status.
type Applier interface {
	Apply(ctx context.Context, match *models.MatchResult) *models.ApplicationAttempt
}

// Matcher scores and ranks postings.
type Matcher interface {
	ScoreAll(ctx context.Context, profile *models.CandidateProfile, postings []*models.JobPosting) []*models.MatchResult
	Rank(results []*models.MatchResult, k int) []*models.MatchResult
}

// sessionProbe is the slice of the browser session the application loop
// needs: liveness checks and re-authentication.
type sessionProbe interface {
	IsAlive(ctx context.Context) bool
	Authenticate(ctx context.Context, creds config.Credentials, challengeWait time.Duration) error
}

// ReportStore persists run reports and answers duplicate lookups.
type ReportStore interface {
	SaveReport(ctx context.Context, report *models.RunReport) error
	HasTerminalAttempt(ctx context.Context, postingID string) (bool, error)
}

// deps bundles the pipeline collaborators so the loop can run against fakes.
type deps struct {
	discoverer Discoverer
	matcher    Matcher
	applier    Applier
	session    sessionProbe
	gov        *governor.Governor
}

// Coordinator runs the pipeline for one RunConfig. A Coordinator is
// single-use: build a new one per run.
type Coordinator struct {
	cfg   *config.Config
	run   *config.RunConfig
	store ReportStore
	state *models.RunState
	now   func() time.Time

	mu        sync.Mutex
	cancelRun context.CancelFunc
}

// New builds a Coordinator. The store may be nil, which disables history
// persistence and duplicate suppression (used by dry experiments).
func New(appCfg *config.Config, runCfg *config.RunConfig, store ReportStore) *Coordinator {
	return &Coordinator{
		cfg:   appCfg,
		run:   runCfg,
		store: store,
		state: &models.RunState{},
		now:   time.Now,
	}
}

// Cancel requests cooperative cancellation. In-flight browser actions are
// interrupted; the run still terminates with a complete report.
func (c *Coordinator) Cancel() {
	c.state.Cancel()
	c.mu.Lock()
	if c.cancelRun != nil {
		c.cancelRun()
	}
	c.mu.Unlock()
}

// Run executes the whole pipeline and returns the run report. The report is
// non-nil even on failure; the error mirrors report.Err for callers that want
// to branch on it.
func (c *Coordinator) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Criteria:  c.run.Criteria,
		StartedAt: c.now(),
	}

	fail := func(err error) (*models.RunReport, error) {
		report.Err = err.Error()
		c.finalize(ctx, report)
		return report, err
	}

	// Config problems fail the run before anything observable happens.
	if err := c.run.Validate(); err != nil {
		return fail(err)
	}

	profile, err := resume.LoadProfile(c.run.ResumePath, resume.TextParser{})
	if err != nil {
		return fail(err)
	}
	log.Printf("[runner] profile loaded: %s, %d skills", profile.Name, len(profile.Skills))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancelRun = cancel
	c.mu.Unlock()

	fp := browser.NewFingerprint(c.now().UnixNano())
	session, err := browser.NewSession(runCtx, fp, c.run.PageTimeout)
	if err != nil {
		return fail(err)
	}
	defer session.Close()

	if err := session.Authenticate(runCtx, c.run.Credentials, c.run.ChallengeWait); err != nil {
		return fail(fmt.Errorf("authentication: %w", err))
	}

	pacer := governor.NewPacer(c.run.MinDelay, c.run.MaxDelay)
	gov := governor.New(c.run.MaxApplications, c.state, c.historyOrNil(), pacer)

	var scorer matching.Scorer
	var gen filler.Generator
	if c.cfg != nil {
		client := ai.NewClient(c.cfg)
		scorer, gen = client, client
	} else {
		log.Printf("[runner] no app config loaded, fallback scoring only")
	}

	d := &deps{
		discoverer: discovery.New(session, pacer, uint64(c.run.NavRetries)),
		matcher:    matching.NewEngine(scorer, c.run.ScoreThreshold, c.run.FallbackThreshold),
		applier:    filler.New(session, gen, pacer, profile, c.run),
		session:    session,
		gov:        gov,
	}

	err = c.pipeline(runCtx, d, profile, report)
	c.finalize(ctx, report)
	return report, err
}

// pipeline is the run body, separated from Run so the loop semantics can be
// exercised without a browser.
func (c *Coordinator) pipeline(ctx context.Context, d *deps, profile *models.CandidateProfile, report *models.RunReport) error {
	postings, err := d.discoverer.Search(ctx, c.run.Criteria, c.run.MaxListings)
	if err != nil {
		report.Err = fmt.Sprintf("discovery: %v", err)
		return fmt.Errorf("discovery: %w", err)
	}
	report.Discovered = len(postings)
	log.Printf("[runner] discovered %d postings", len(postings))

	// Cancellation never interrupts in-flight scoring calls; they run to
	// completion and the loop below discards the results instead.
	results := d.matcher.ScoreAll(context.WithoutCancel(ctx), profile, postings)
	report.Scored = len(results)

	selected := d.matcher.Rank(results, c.run.MaxApplications)
	log.Printf("[runner] %d candidates selected for application", len(selected))

	for _, match := range selected {
		postingID := match.Posting.Identity()

		if c.state.Cancelled() || ctx.Err() != nil {
			report.Attempts = append(report.Attempts, abortedAttempt(match, "run cancelled", c.now()))
			continue
		}

		if d.gov.CapReached() {
			report.Attempts = append(report.Attempts, skippedAttempt(match, "submission cap reached", c.now()))
			continue
		}

		if d.gov.AlreadyAttempted(ctx, postingID) {
			report.Attempts = append(report.Attempts, skippedAttempt(match, "already attempted in a previous run", c.now()))
			continue
		}

		if !d.session.IsAlive(ctx) {
			log.Printf("[runner] session expired, re-authenticating")
			if err := d.session.Authenticate(ctx, c.run.Credentials, c.run.ChallengeWait); err != nil {
				report.Err = fmt.Sprintf("session lost and re-authentication failed: %v", err)
				report.Attempts = append(report.Attempts, abortedAttempt(match, "session lost", c.now()))
				return fmt.Errorf("re-authentication: %w", err)
			}
		}

		attempt := d.applier.Apply(ctx, match)
		report.Attempts = append(report.Attempts, *attempt)

		if attempt.Status == models.StatusSubmitted {
			n := d.gov.RecordSubmission()
			log.Printf("[runner] submitted %q at %s (%d/%d)", attempt.Title, attempt.Company, n, c.run.MaxApplications)
		} else {
			log.Printf("[runner] %s: %s (%s)", attempt.Status, attempt.Title, attempt.Reason)
		}
	}

	if c.state.Cancelled() {
		report.Err = "run cancelled"
	}
	return nil
}

// finalize stamps, tallies and persists the report. Persistence failures are
// logged, not returned: the run outcome stands regardless.
func (c *Coordinator) finalize(ctx context.Context, report *models.RunReport) {
	report.CompletedAt = c.now()
	report.Tally()

	if c.store == nil {
		return
	}
	// The run ctx may already be cancelled; the report must still land.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.store.SaveReport(saveCtx, report); err != nil {
		log.Printf("[runner] failed to persist run report: %v", err)
	}
}

func (c *Coordinator) historyOrNil() governor.History {
	if c.store == nil {
		return nil
	}
	return c.store
}

func abortedAttempt(match *models.MatchResult, reason string, now time.Time) models.ApplicationAttempt {
	return terminalAttempt(match, models.StatusAborted, reason, now)
}

func skippedAttempt(match *models.MatchResult, reason string, now time.Time) models.ApplicationAttempt {
	return terminalAttempt(match, models.StatusSkipped, reason, now)
}

func terminalAttempt(match *models.MatchResult, status models.AttemptStatus, reason string, now time.Time) models.ApplicationAttempt {
	return models.ApplicationAttempt{
		PostingID:   match.Posting.Identity(),
		Title:       match.Posting.Title,
		Company:     match.Posting.Company,
		Score:       match.Score,
		Status:      status,
		Reason:      reason,
		StartedAt:   now,
		CompletedAt: now,
	}
}
