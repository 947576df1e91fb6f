package discovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// filterStep is one portal filter control. Filters are best-effort policy:
// none are required, so a control that cannot be located is logged and
// skipped rather than failing the search. Steps are order-insensitive.
type filterStep struct {
	name     string
	required bool
	// selectors tried in order until one matches.
	selectors []string
	// value typed or chosen after the control opens, empty for toggles.
	value string
}

// filterPlan builds the filter steps requested by the criteria.
func filterPlan(criteria models.SearchCriteria) []filterStep {
	var steps []filterStep
	if criteria.EasyApplyOnly {
		steps = append(steps, filterStep{
			name: "easy-apply",
			selectors: []string{
				`button[aria-label*="Easy Apply filter"]`,
				`button[data-control-name="filter_easy_apply"]`,
				`label[for*="easy-apply"]`,
			},
		})
	}
	if criteria.ExperienceLevel != "" {
		steps = append(steps, filterStep{
			name: "experience-level",
			selectors: []string{
				`button[aria-label*="Experience level filter"]`,
				`button[id*="experience-level"]`,
			},
			value: criteria.ExperienceLevel,
		})
	}
	if criteria.JobType != "" {
		steps = append(steps, filterStep{
			name: "job-type",
			selectors: []string{
				`button[aria-label*="Job type filter"]`,
				`button[id*="job-type"]`,
			},
			value: criteria.JobType,
		})
	}
	if criteria.SalaryMin > 0 {
		steps = append(steps, filterStep{
			name: "salary",
			selectors: []string{
				`button[aria-label*="Salary filter"]`,
				`button[id*="salary"]`,
			},
			value: fmt.Sprintf("%d", criteria.SalaryMin),
		})
	}
	return steps
}

// applyFilters walks the filter plan. After each step the listing count is
// re-read; an unchanged count is only informational since a filter may
// legitimately match everything.
func (d *Discoverer) applyFilters(ctx context.Context, criteria models.SearchCriteria) {
	steps := filterPlan(criteria)
	if len(steps) == 0 {
		return
	}

	before := d.listingCount(ctx)
	for _, step := range steps {
		if err := d.pacer.Wait(ctx); err != nil {
			return
		}
		if err := d.applyFilter(ctx, step); err != nil {
			log.Printf("[discovery] filter %q not applied, continuing without it: %v", step.name, err)
			continue
		}
		after := d.listingCount(ctx)
		if after == before {
			log.Printf("[discovery] filter %q left listing count unchanged (%d)", step.name, after)
		}
		before = after
	}
}

// applyFilter locates the control via its selector strategies and toggles or
// selects it.
func (d *Discoverer) applyFilter(ctx context.Context, step filterStep) error {
	var clicked bool
	for _, sel := range step.selectors {
		err := d.session.Run(ctx,
			chromedp.Click(sel, chromedp.ByQuery, chromedp.NodeVisible),
			chromedp.Sleep(1*time.Second),
		)
		if err == nil {
			clicked = true
			break
		}
	}
	if !clicked {
		return fmt.Errorf("control not found")
	}

	if step.value != "" {
		// Pick the option whose label contains the requested value, then
		// confirm the dropdown.
		err := d.session.Run(ctx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				return chromedp.Evaluate(fmt.Sprintf(`
					(() => {
						const want = %q.toLowerCase();
						const options = document.querySelectorAll('label, [role="option"], [role="radio"]');
						for (const opt of options) {
							if ((opt.textContent || '').toLowerCase().includes(want)) { opt.click(); return true; }
						}
						return false;
					})()
				`, step.value), nil).Do(ctx)
			}),
			chromedp.Sleep(500*time.Millisecond),
			chromedp.ActionFunc(func(ctx context.Context) error {
				chromedp.Click(`button[aria-label*="Apply current filter"], button[data-control-name*="filter_show_results"]`, chromedp.ByQuery).Do(ctx)
				return nil
			}),
			chromedp.Sleep(1*time.Second),
		)
		if err != nil {
			return fmt.Errorf("option %q: %w", step.value, err)
		}
	}
	return nil
}

// listingCount reads the portal's result-count label, 0 when unreadable.
func (d *Discoverer) listingCount(ctx context.Context) int {
	var label string
	err := d.session.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		selectors := []string{
			`.jobs-search-results-list__subtitle`,
			`.results-context-header__job-count`,
			`small.jobs-search-results-list__text`,
		}
		for _, sel := range selectors {
			var text string
			if err := chromedp.Text(sel, &text, chromedp.ByQuery).Do(ctx); err == nil && text != "" {
				label = text
				return nil
			}
		}
		return nil
	}))
	if err != nil || label == "" {
		return 0
	}
	return parseCount(label)
}
