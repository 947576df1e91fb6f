package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khrees2412/jobpilot/pkg/models"
)

// ScorePayload is the structured scoring response expected from the
// inference collaborator.
type ScorePayload struct {
	Score          float64  `json:"score"` // 0-100
	MatchedSkills  []string `json:"matched_skills"`
	MissingSkills  []string `json:"missing_skills"`
	Recommendation string   `json:"recommendation"` // "apply" or "skip"
	Confidence     float64  `json:"confidence"`     // 0-1
}

// Score asks the collaborator to rate candidate/posting compatibility and
// parses the structured reply. A reply that is not valid JSON in the expected
// shape counts as unavailability; the caller falls back to tier-2 scoring.
func (c *Client) Score(ctx context.Context, profile *models.CandidateProfile, posting *models.JobPosting) (*ScorePayload, error) {
	raw, err := c.complete(ctx, buildScorePrompt(profile, posting))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	payload, err := parseScorePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return payload, nil
}

func buildScorePrompt(profile *models.CandidateProfile, posting *models.JobPosting) string {
	exp := []string{}
	for _, e := range profile.Experience {
		exp = append(exp, fmt.Sprintf("%s at %s", e.Title, e.Company))
	}

	return fmt.Sprintf(`Rate how well this candidate matches the job posting.

Candidate:
- Skills: %s
- Experience: %s
- Location: %s

Job Posting:
- Title: %s
- Company: %s
- Location: %s
- Description: %s

Respond with ONLY a JSON object, no commentary:
{"score": <0-100>, "matched_skills": [...], "missing_skills": [...], "recommendation": "apply" or "skip", "confidence": <0-1>}`,
		strings.Join(profile.Skills, ", "),
		strings.Join(exp, "; "),
		profile.Location,
		posting.Title,
		posting.Company,
		posting.Location,
		truncate(posting.Description, 4000),
	)
}

// parseScorePayload extracts and validates the JSON object from a model
// reply, tolerating markdown code fences and surrounding prose.
func parseScorePayload(raw string) (*ScorePayload, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var payload ScorePayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("malformed score payload: %w", err)
	}

	if payload.Score < 0 || payload.Score > 100 {
		return nil, fmt.Errorf("score %v out of range", payload.Score)
	}
	rec := strings.ToLower(strings.TrimSpace(payload.Recommendation))
	if rec != "apply" && rec != "skip" {
		return nil, fmt.Errorf("unexpected recommendation %q", payload.Recommendation)
	}
	payload.Recommendation = rec
	if payload.Confidence < 0 || payload.Confidence > 1 {
		payload.Confidence = 0.5
	}
	return &payload, nil
}
