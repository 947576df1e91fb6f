// Package discovery issues the portal search, applies best-effort filters,
// and incrementally reveals listings until the requested count is reached or
// the feed stops growing.
package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/internal/browser"
	"github.com/khrees2412/jobpilot/internal/governor"
	"github.com/khrees2412/jobpilot/pkg/models"
)

const searchBaseURL = "https://www.linkedin.com/jobs/search"

// noGrowthLimit stops the load-more loop after this many consecutive
// attempts that reveal nothing new (stalled feed guard).
const noGrowthLimit = 2

// Discoverer drives one search session. A fresh Search restarts discovery
// from scratch; results are not restartable mid-run.
type Discoverer struct {
	session    *browser.Session
	pacer      *governor.Pacer
	navRetries uint64
}

// New returns a Discoverer bound to the run's browser session.
func New(session *browser.Session, pacer *governor.Pacer, navRetries uint64) *Discoverer {
	return &Discoverer{session: session, pacer: pacer, navRetries: navRetries}
}

// Search runs the full discovery pass and returns postings in discovery
// order, deduplicated by identity.
func (d *Discoverer) Search(ctx context.Context, criteria models.SearchCriteria, maxListings int) ([]*models.JobPosting, error) {
	searchURL := buildSearchURL(criteria)
	log.Printf("[discovery] searching: %s", searchURL)

	err := governor.Retry(ctx, d.navRetries, func() error {
		return governor.Transient(d.session.Run(ctx,
			chromedp.Navigate(searchURL),
			chromedp.Sleep(4*time.Second),
		))
	})
	if err != nil {
		return nil, fmt.Errorf("search navigation: %w", err)
	}

	d.applyFilters(ctx, criteria)

	postings, err := d.collect(ctx, d, maxListings)
	if err != nil {
		return nil, err
	}

	d.fetchDescriptions(ctx, postings)
	return postings, nil
}

// buildSearchURL encodes the keyword and location into the portal search URL.
// The remaining criteria are applied as on-page filter controls, not URL
// parameters, since the portal drops unknown parameters silently.
func buildSearchURL(criteria models.SearchCriteria) string {
	params := url.Values{}
	if criteria.Keyword != "" {
		params.Set("keywords", criteria.Keyword)
	}
	if criteria.Location != "" {
		params.Set("location", criteria.Location)
	}
	if len(params) == 0 {
		return searchBaseURL
	}
	return searchBaseURL + "?" + params.Encode()
}

// pageSource is the slice of Discoverer the collect loop needs: reading the
// currently rendered cards and revealing more.
type pageSource interface {
	extractVisible(ctx context.Context) ([]*models.JobPosting, error)
	loadMore(ctx context.Context) error
}

// collect reveals listings via repeated scroll/load-more until maxListings is
// reached or the feed yields nothing new for noGrowthLimit attempts.
func (d *Discoverer) collect(ctx context.Context, src pageSource, maxListings int) ([]*models.JobPosting, error) {
	var ordered []*models.JobPosting
	seen := make(map[string]bool)
	noGrowth := 0

	for len(ordered) < maxListings {
		batch, err := src.extractVisible(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing extraction: %w", err)
		}

		added := 0
		for _, p := range batch {
			id := p.Identity()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			p.Position = len(ordered)
			p.DiscoveredAt = time.Now()
			ordered = append(ordered, p)
			added++
			if len(ordered) == maxListings {
				break
			}
		}

		if added == 0 {
			noGrowth++
			if noGrowth >= noGrowthLimit {
				break
			}
		} else {
			noGrowth = 0
		}
		if len(ordered) >= maxListings {
			break
		}

		if err := d.pacer.Wait(ctx); err != nil {
			return ordered, err
		}
		if err := src.loadMore(ctx); err != nil {
			return nil, fmt.Errorf("load more: %w", err)
		}
	}

	log.Printf("[discovery] collected %d unique postings", len(ordered))
	return ordered, nil
}

// loadMore scrolls the results container and clicks a "see more" affordance
// when one exists. Neither is required to succeed; the no-growth counter
// decides when the feed is done.
func (d *Discoverer) loadMore(ctx context.Context) error {
	return governor.Retry(ctx, d.navRetries, func() error {
		return governor.Transient(d.session.Run(ctx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				chromedp.Evaluate(`
					(() => {
						const container = document.querySelector('.jobs-search-results-list, .scaffold-layout__list-container');
						if (container) {
							container.scrollTop = container.scrollHeight;
						} else {
							window.scrollTo(0, document.body.scrollHeight);
						}
						const btn = document.querySelector('button.infinite-scroller__show-more-button, button[aria-label*="more results"]');
						if (btn) btn.click();
					})()
				`, nil).Do(ctx)
				return nil
			}),
			chromedp.Sleep(1500*time.Millisecond),
		))
	})
}

// extractVisible pulls the currently rendered job cards. Multiple selector
// strategies per field tolerate portal layout churn.
func (d *Discoverer) extractVisible(ctx context.Context) ([]*models.JobPosting, error) {
	var cards []struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Company   string `json:"company"`
		Location  string `json:"location"`
		URL       string `json:"url"`
		EasyApply bool   `json:"easyApply"`
	}

	err := d.session.Run(ctx, chromedp.Evaluate(`
		(() => {
			const jobs = [];
			const cardSelectors = [
				'.job-card-container',
				'.jobs-search-results__list-item',
				'[data-job-id]',
				'.scaffold-layout__list-item'
			];
			let cards = [];
			for (const sel of cardSelectors) {
				const found = document.querySelectorAll(sel);
				if (found.length > 0) { cards = found; break; }
			}

			const pick = (card, selectors) => {
				for (const sel of selectors) {
					const el = card.querySelector(sel);
					if (el && el.textContent.trim()) return el;
				}
				return null;
			};

			cards.forEach(card => {
				const titleEl = pick(card, [
					'.job-card-list__title',
					'.job-card-container__link',
					'a[href*="/jobs/view"]',
					'.artdeco-entity-lockup__title'
				]);
				const companyEl = pick(card, [
					'.job-card-container__primary-description',
					'.job-card-container__company-name',
					'.artdeco-entity-lockup__subtitle'
				]);
				const locationEl = pick(card, [
					'.job-card-container__metadata-item',
					'.artdeco-entity-lockup__caption'
				]);

				let url = '';
				const linkEl = card.querySelector('a[href*="/jobs/view/"]') || card.querySelector('a[href*="/jobs/"]');
				if (linkEl) {
					url = linkEl.href.startsWith('http') ? linkEl.href : 'https://www.linkedin.com' + linkEl.getAttribute('href');
				}

				const easy = !!card.querySelector('[class*="easy-apply"], .job-card-container__apply-method') ||
					(card.textContent || '').includes('Easy Apply');

				const title = titleEl ? titleEl.textContent.trim() : '';
				if (title.length > 2) {
					jobs.push({
						id: card.getAttribute('data-job-id') || '',
						title: title,
						company: companyEl ? companyEl.textContent.trim() : '',
						location: locationEl ? locationEl.textContent.trim() : '',
						url: url,
						easyApply: easy
					});
				}
			});
			return jobs;
		})()
	`, &cards))
	if err != nil {
		return nil, err
	}

	postings := make([]*models.JobPosting, 0, len(cards))
	for _, c := range cards {
		postings = append(postings, &models.JobPosting{
			ID:        c.ID,
			Title:     c.Title,
			Company:   c.Company,
			Location:  c.Location,
			URL:       c.URL,
			EasyApply: c.EasyApply,
		})
	}
	return postings, nil
}

// fetchDescriptions opens each posting's detail pane and pulls the full
// description text. Failures leave the description empty; the fallback
// scorer still works off title + whatever text we have.
func (d *Discoverer) fetchDescriptions(ctx context.Context, postings []*models.JobPosting) {
	for i, posting := range postings {
		if posting.URL == "" {
			continue
		}
		if err := d.pacer.Wait(ctx); err != nil {
			return
		}

		var desc string
		err := d.session.Run(ctx,
			chromedp.Navigate(posting.URL),
			chromedp.Sleep(2*time.Second),
			chromedp.ActionFunc(func(ctx context.Context) error {
				selectors := []string{
					`.jobs-description-content__text`,
					`.show-more-less-html__markup`,
					`#job-details`,
					`.description__text`,
				}
				for _, sel := range selectors {
					var text string
					if err := chromedp.Text(sel, &text, chromedp.ByQuery).Do(ctx); err == nil && text != "" {
						desc = text
						return nil
					}
				}
				return nil
			}),
		)
		if err != nil {
			log.Printf("[discovery] description fetch failed for %s: %v", posting.Identity(), err)
			continue
		}
		postings[i].Description = desc
	}
}

// parseCount converts a listing-count label like "1,204 results" into an int.
func parseCount(label string) int {
	digits := make([]rune, 0, len(label))
	for _, r := range label {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
		if r == ' ' && len(digits) > 0 {
			break
		}
	}
	n, _ := strconv.Atoi(string(digits))
	return n
}
