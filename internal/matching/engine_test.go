package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/khrees2412/jobpilot/internal/ai"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// fakeScorer returns a fixed payload or error.
type fakeScorer struct {
	payload *ai.ScorePayload
	err     error
}

func (f *fakeScorer) Score(ctx context.Context, profile *models.CandidateProfile, posting *models.JobPosting) (*ai.ScorePayload, error) {
	return f.payload, f.err
}

func profileWithSkills(skills ...string) *models.CandidateProfile {
	return &models.CandidateProfile{Name: "Test Candidate", Skills: skills}
}

func TestFallbackScoreSupersetIsCapped(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	profile := profileWithSkills("go", "sql", "docker", "kubernetes", "grpc", "redis", "linux", "git", "aws")
	posting := &models.JobPosting{
		ID:          "1",
		Title:       "Platform Engineer",
		Description: "go sql docker kubernetes grpc redis linux git aws and more",
	}

	result := engine.Score(context.Background(), profile, posting)

	if result.Score != 100 {
		t.Errorf("expected score capped at 100, got %v", result.Score)
	}
	if !result.Apply {
		t.Error("expected apply recommendation for full skill overlap")
	}
	if result.Source != models.ScoreSourceFallback {
		t.Errorf("expected fallback source, got %s", result.Source)
	}
	if len(result.MissingSkills) != 0 {
		t.Errorf("expected no missing skills, got %v", result.MissingSkills)
	}
}

func TestFallbackScoreDisjointIsZero(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	profile := profileWithSkills("haskell", "erlang")
	posting := &models.JobPosting{
		ID:          "1",
		Title:       "Frontend Developer",
		Description: "react typescript css",
	}

	result := engine.Score(context.Background(), profile, posting)

	if result.Score != 0 {
		t.Errorf("expected score 0 for disjoint skills, got %v", result.Score)
	}
	if result.Apply {
		t.Error("expected no apply recommendation for zero overlap")
	}
	if len(result.MatchedSkills) != 0 {
		t.Errorf("expected no matched skills, got %v", result.MatchedSkills)
	}
}

func TestFallbackDeduplicatesSkills(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	profile := profileWithSkills("Go", "go", "GO")
	posting := &models.JobPosting{ID: "1", Title: "Go Developer", Description: "go"}

	result := engine.Score(context.Background(), profile, posting)

	if result.Score != 12 {
		t.Errorf("duplicate skills should count once, got score %v", result.Score)
	}
}

func TestScoreUsesFallbackWhenScorerFails(t *testing.T) {
	engine := NewEngine(&fakeScorer{err: errors.New("boom")}, 60, 40)
	profile := profileWithSkills("go")
	posting := &models.JobPosting{ID: "1", Title: "Go Developer", Description: "go"}

	result := engine.Score(context.Background(), profile, posting)

	if result.Source != models.ScoreSourceFallback {
		t.Errorf("expected fallback after scorer failure, got %s", result.Source)
	}
	if result.Score != 12 {
		t.Errorf("expected fallback score 12, got %v", result.Score)
	}
}

func TestScoreUsesAIPayload(t *testing.T) {
	engine := NewEngine(&fakeScorer{payload: &ai.ScorePayload{
		Score:          85,
		MatchedSkills:  []string{"go"},
		Recommendation: "apply",
		Confidence:     0.9,
	}}, 60, 40)

	result := engine.Score(context.Background(), profileWithSkills("go"), &models.JobPosting{ID: "1"})

	if result.Source != models.ScoreSourceAI {
		t.Errorf("expected ai source, got %s", result.Source)
	}
	if result.Score != 85 || !result.Apply {
		t.Errorf("payload not carried through: score=%v apply=%v", result.Score, result.Apply)
	}
}

func TestScoreAllPreservesDiscoveryOrder(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	profile := profileWithSkills("go")
	postings := []*models.JobPosting{
		{ID: "a", Title: "no match", Description: "java"},
		{ID: "b", Title: "go role", Description: "go"},
		{ID: "c", Title: "another", Description: "python"},
	}

	results := engine.ScoreAll(context.Background(), profile, postings)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Posting.ID != postings[i].ID {
			t.Errorf("result %d out of order: got %s, want %s", i, r.Posting.ID, postings[i].ID)
		}
	}
}

func TestRankSelectsTopKAboveThreshold(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	results := []*models.MatchResult{
		{Posting: &models.JobPosting{ID: "low"}, Score: 30, Apply: true, Source: models.ScoreSourceFallback},
		{Posting: &models.JobPosting{ID: "high"}, Score: 90, Apply: true, Source: models.ScoreSourceAI},
		{Posting: &models.JobPosting{ID: "mid"}, Score: 70, Apply: true, Source: models.ScoreSourceAI},
		{Posting: &models.JobPosting{ID: "skip"}, Score: 95, Apply: false, Source: models.ScoreSourceAI},
	}

	selected := engine.Rank(results, 2)

	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Posting.ID != "high" || selected[1].Posting.ID != "mid" {
		t.Errorf("wrong selection order: %s, %s", selected[0].Posting.ID, selected[1].Posting.ID)
	}
}

func TestRankThresholdPerSource(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	results := []*models.MatchResult{
		// 50 clears the fallback threshold but not the tier-1 threshold.
		{Posting: &models.JobPosting{ID: "fb"}, Score: 50, Apply: true, Source: models.ScoreSourceFallback},
		{Posting: &models.JobPosting{ID: "ai"}, Score: 50, Apply: true, Source: models.ScoreSourceAI},
	}

	selected := engine.Rank(results, 10)

	if len(selected) != 1 || selected[0].Posting.ID != "fb" {
		t.Fatalf("expected only the fallback result selected, got %d", len(selected))
	}
}

func TestRankStableTieBreak(t *testing.T) {
	engine := NewEngine(nil, 60, 40)
	results := []*models.MatchResult{
		{Posting: &models.JobPosting{ID: "first", Position: 0}, Score: 80, Apply: true, Source: models.ScoreSourceAI},
		{Posting: &models.JobPosting{ID: "second", Position: 1}, Score: 80, Apply: true, Source: models.ScoreSourceAI},
	}

	selected := engine.Rank(results, 2)

	if selected[0].Posting.ID != "first" {
		t.Error("equal scores should preserve discovery order")
	}
}
