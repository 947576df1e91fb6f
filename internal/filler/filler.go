// Package filler drives a single job application through its form pages to
// submission or a terminal failure. It models the application as a state
// machine over an unbounded page sequence rather than hard-coded steps: each
// page is detected fresh, filled through the FormField union, and advanced
// via whatever affordance the portal presents.
package filler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/internal/browser"
	"github.com/khrees2412/jobpilot/internal/config"
	"github.com/khrees2412/jobpilot/internal/governor"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// Generator is the text-generation surface of the inference collaborator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Filler fills and submits applications for one candidate profile.
type Filler struct {
	session          *browser.Session
	gen              Generator
	pacer            *governor.Pacer
	profile          *models.CandidateProfile
	noticePeriodDays int
	maxFormPages     int
	fillRetries      int
	navRetries       uint64
	dryRun           bool
	now              func() time.Time
}

// New builds a Filler from the run configuration.
func New(session *browser.Session, gen Generator, pacer *governor.Pacer, profile *models.CandidateProfile, cfg *config.RunConfig) *Filler {
	return &Filler{
		session:          session,
		gen:              gen,
		pacer:            pacer,
		profile:          profile,
		noticePeriodDays: cfg.NoticePeriodDays,
		maxFormPages:     cfg.MaxFormPages,
		fillRetries:      cfg.FillRetries,
		navRetries:       uint64(cfg.NavRetries),
		dryRun:           cfg.DryRun,
		now:              time.Now,
	}
}

// Apply runs the per-job state machine. The returned attempt always carries
// exactly one terminal status; Apply itself never fails the run.
func (f *Filler) Apply(ctx context.Context, match *models.MatchResult) *models.ApplicationAttempt {
	posting := match.Posting
	attempt := &models.ApplicationAttempt{
		PostingID: posting.Identity(),
		Title:     posting.Title,
		Company:   posting.Company,
		Score:     match.Score,
		StartedAt: f.now(),
	}
	finish := func(status models.AttemptStatus, reason string) *models.ApplicationAttempt {
		attempt.Status = status
		attempt.Reason = reason
		attempt.CompletedAt = f.now()
		return attempt
	}

	// OPENED
	err := governor.Retry(ctx, f.navRetries, func() error {
		return governor.Transient(f.session.Run(ctx,
			chromedp.Navigate(posting.URL),
			chromedp.Sleep(3*time.Second),
		))
	})
	if err != nil {
		if ctx.Err() != nil {
			return finish(models.StatusAborted, "cancelled")
		}
		return finish(models.StatusFailed, fmt.Sprintf("could not open posting: %v", err))
	}

	if err := f.pacer.Wait(ctx); err != nil {
		return finish(models.StatusAborted, "cancelled")
	}

	opened, err := f.openApplyForm(ctx)
	if err != nil {
		return finish(models.StatusFailed, fmt.Sprintf("apply affordance: %v", err))
	}
	if !opened {
		return finish(models.StatusSkipped, "no apply affordance found")
	}

	retries := 0
	for page := 1; page <= f.maxFormPages; page++ {
		if ctx.Err() != nil {
			return finish(models.StatusAborted, "cancelled")
		}

		fields, err := f.detectFields(ctx)
		if err != nil {
			return finish(models.StatusFailed, fmt.Sprintf("field detection on page %d: %v", page, err))
		}

		result, err := f.fillPage(ctx, page, fields, posting)
		if err != nil {
			attempt.Pages = append(attempt.Pages, result)
			return finish(models.StatusAborted, "cancelled")
		}

		// Re-detect once: the page may have re-rendered between detection
		// and filling and left required fields behind.
		refreshed, err := f.detectFields(ctx)
		if err == nil {
			if unres := unresolvedRequired(refreshed); len(unres) > 0 {
				retries++
				if retries > f.fillRetries {
					result.Unresolved = unres
					attempt.Pages = append(attempt.Pages, result)
					return finish(models.StatusFailed, fmt.Sprintf("required fields unsatisfied on page %d: %s", page, strings.Join(unres, "; ")))
				}
				log.Printf("[filler] page %d left %d required fields unsatisfied, retrying detection", page, len(unres))
				retry, err := f.fillPage(ctx, page, refreshed, posting)
				if err != nil {
					attempt.Pages = append(attempt.Pages, result)
					return finish(models.StatusAborted, "cancelled")
				}
				result.Filled += retry.Filled
				result.Notes = append(result.Notes, retry.Notes...)
			}
		}
		attempt.Pages = append(attempt.Pages, result)

		action, label, err := f.findAdvance(ctx)
		if err != nil {
			return finish(models.StatusFailed, fmt.Sprintf("page %d advance lookup: %v", page, err))
		}

		switch action {
		case actionNone:
			return finish(models.StatusFailed, fmt.Sprintf("no way to advance from page %d", page))

		case actionNext:
			if err := f.clickAdvance(ctx, label); err != nil {
				return finish(models.StatusFailed, fmt.Sprintf("advancing from page %d: %v", page, err))
			}

		case actionReview, actionSubmit:
			// REVIEW: verify no validation errors remain, with one
			// corrective pass, then submit.
			if action == actionReview {
				if err := f.clickAdvance(ctx, label); err != nil {
					return finish(models.StatusFailed, fmt.Sprintf("opening review: %v", err))
				}
			}
			status, reason := f.finishReview(ctx, posting, &retries)
			if status == models.StatusSubmitted && f.dryRun {
				return finish(models.StatusSkipped, "dry run: submission not performed")
			}
			return finish(status, reason)
		}

		if err := f.pacer.Wait(ctx); err != nil {
			return finish(models.StatusAborted, "cancelled")
		}
	}

	return finish(models.StatusFailed, fmt.Sprintf("form did not terminate within %d pages", f.maxFormPages))
}

// openApplyForm locates the in-portal apply button with multiple detection
// strategies. Returns false (not an error) when the posting has no apply
// affordance at all, e.g. an external redirect.
func (f *Filler) openApplyForm(ctx context.Context) (bool, error) {
	var found bool
	err := f.session.Run(ctx, chromedp.Evaluate(`
		(() => {
			const selectors = [
				'button.jobs-apply-button',
				'button[aria-label*="Easy Apply"]',
				'button[data-control-name="jobdetails_topcard_inapply"]',
				'div.jobs-apply-button--top-card button'
			];
			for (const sel of selectors) {
				const btn = document.querySelector(sel);
				if (btn && !btn.disabled) { btn.click(); return true; }
			}
			return false;
		})()
	`, &found))
	if err != nil {
		return false, err
	}
	if found {
		err = f.session.Run(ctx, chromedp.Sleep(2*time.Second))
	}
	return found, err
}

func (f *Filler) clickAdvance(ctx context.Context, label string) error {
	err := f.session.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`
		(() => {
			const want = %q;
			const buttons = document.querySelectorAll('button');
			for (const btn of buttons) {
				const l = (btn.getAttribute('aria-label') || btn.textContent || '').trim();
				if (l === want && !btn.disabled) { btn.click(); return true; }
			}
			return false;
		})()
	`, label), nil), chromedp.Sleep(2*time.Second))
	return err
}

// finishReview checks the review page for validation errors, attempts at
// most one corrective pass per flagged message within the remaining retry
// budget, and performs the final submission.
func (f *Filler) finishReview(ctx context.Context, posting *models.JobPosting, retries *int) (models.AttemptStatus, string) {
	if ctx.Err() != nil {
		return models.StatusAborted, "cancelled"
	}

	msgs, err := f.validationErrors(ctx)
	if err == nil && len(msgs) > 0 {
		*retries++
		if *retries > f.fillRetries {
			return models.StatusFailed, fmt.Sprintf("validation errors persist: %s", strings.Join(msgs, "; "))
		}
		log.Printf("[filler] review flagged %d fields, corrective pass", len(msgs))
		fields, derr := f.detectFields(ctx)
		if derr == nil {
			if _, ferr := f.fillPage(ctx, 0, fields, posting); ferr != nil {
				return models.StatusAborted, "cancelled"
			}
		}
		if msgs, err = f.validationErrors(ctx); err == nil && len(msgs) > 0 {
			return models.StatusFailed, fmt.Sprintf("validation errors after corrective pass: %s", strings.Join(msgs, "; "))
		}
	}

	if f.dryRun {
		// Caller converts this to skipped; nothing is clicked.
		return models.StatusSubmitted, "dry run"
	}

	action, label, err := f.findAdvance(ctx)
	if err != nil || action != actionSubmit {
		return models.StatusFailed, "submit affordance not found on review page"
	}
	if err := f.clickAdvance(ctx, label); err != nil {
		return models.StatusFailed, fmt.Sprintf("submission click: %v", err)
	}
	return models.StatusSubmitted, ""
}
