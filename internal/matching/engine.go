// Package matching converts raw postings plus the candidate profile into
// ranked, scored application candidates. Tier 1 delegates to the inference
// collaborator; tier 2 is a local keyword-overlap fallback used whenever
// tier 1 is unavailable or returns garbage.
package matching

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/khrees2412/jobpilot/internal/ai"
	"github.com/khrees2412/jobpilot/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Scorer is the inference collaborator surface the engine depends on.
type Scorer interface {
	Score(ctx context.Context, profile *models.CandidateProfile, posting *models.JobPosting) (*ai.ScorePayload, error)
}

// Engine scores and ranks postings against one candidate profile.
type Engine struct {
	scorer             Scorer // nil means fallback-only
	scoreThreshold     float64
	fallbackThreshold  float64
	fallbackMultiplier float64
	concurrency        int
}

// NewEngine builds an Engine. The fallback threshold should sit below the
// tier-1 threshold since keyword overlap is a weaker signal.
func NewEngine(scorer Scorer, scoreThreshold, fallbackThreshold float64) *Engine {
	return &Engine{
		scorer:             scorer,
		scoreThreshold:     scoreThreshold,
		fallbackThreshold:  fallbackThreshold,
		fallbackMultiplier: 12,
		concurrency:        4,
	}
}

// Score produces exactly one MatchResult for the posting. It never fails:
// inference trouble of any kind degrades to the fallback scorer.
func (e *Engine) Score(ctx context.Context, profile *models.CandidateProfile, posting *models.JobPosting) *models.MatchResult {
	if e.scorer != nil {
		payload, err := e.scorer.Score(ctx, profile, posting)
		if err == nil {
			return &models.MatchResult{
				Posting:       posting,
				Score:         payload.Score,
				MatchedSkills: payload.MatchedSkills,
				MissingSkills: payload.MissingSkills,
				Apply:         payload.Recommendation == "apply",
				Confidence:    payload.Confidence,
				Source:        models.ScoreSourceAI,
			}
		}
		log.Printf("[matching] tier-1 scoring failed for %s, using fallback: %v", posting.Identity(), err)
	}
	return e.fallbackScore(profile, posting)
}

// fallbackScore counts profile skills appearing case-insensitively in the
// posting text, scaled by a fixed multiplier with a ceiling of 100.
func (e *Engine) fallbackScore(profile *models.CandidateProfile, posting *models.JobPosting) *models.MatchResult {
	text := strings.ToLower(posting.Title + " " + posting.Description)

	var matched, missing []string
	seen := make(map[string]bool)
	for _, skill := range profile.Skills {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if strings.Contains(text, key) {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	score := float64(len(matched)) * e.fallbackMultiplier
	if score > 100 {
		score = 100
	}

	return &models.MatchResult{
		Posting:       posting,
		Score:         score,
		MatchedSkills: matched,
		MissingSkills: missing,
		Apply:         score >= e.fallbackThreshold,
		Confidence:    0.3,
		Source:        models.ScoreSourceFallback,
	}
}

// ScoreAll scores every posting, issuing tier-1 calls with bounded
// concurrency. Results come back in discovery order regardless of completion
// order; the browser is never touched here.
func (e *Engine) ScoreAll(ctx context.Context, profile *models.CandidateProfile, postings []*models.JobPosting) []*models.MatchResult {
	results := make([]*models.MatchResult, len(postings))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i, posting := range postings {
		i, posting := i, posting
		g.Go(func() error {
			results[i] = e.Score(ctx, profile, posting)
			return nil
		})
	}
	g.Wait()

	return results
}

// Rank sorts results descending by score (stable, so discovery order breaks
// ties) and selects up to k whose recommendation is apply and whose score
// clears the threshold for its tier.
func (e *Engine) Rank(results []*models.MatchResult, k int) []*models.MatchResult {
	ranked := make([]*models.MatchResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	selected := make([]*models.MatchResult, 0, k)
	for _, r := range ranked {
		if len(selected) == k {
			break
		}
		if r.Apply && r.Score >= e.thresholdFor(r.Source) {
			selected = append(selected, r)
		}
	}
	return selected
}

func (e *Engine) thresholdFor(source models.ScoreSource) float64 {
	if source == models.ScoreSourceFallback {
		return e.fallbackThreshold
	}
	return e.scoreThreshold
}
