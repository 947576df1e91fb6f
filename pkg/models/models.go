package models

import (
	"sync/atomic"
	"time"
)

// CandidateProfile holds everything extracted from the candidate's resume.
// It is built once per run by the resume parser and read-only afterwards.
type CandidateProfile struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone"`
	Location     string       `json:"location"`
	PortfolioURL string       `json:"portfolio_url"`
	LinkedInURL  string       `json:"linkedin_url"`
	ResumeText   string       `json:"resume_text"`
	ResumePath   string       `json:"resume_path"`
	Skills       []string     `json:"skills"`
	Experience   []Experience `json:"experience"`
	Education    []Education  `json:"education"`
}

// Experience represents one work-history entry.
type Experience struct {
	Company   string     `json:"company"`
	Title     string     `json:"title"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"` // nil for current positions
}

// Education represents one education entry.
type Education struct {
	School         string `json:"school"`
	Degree         string `json:"degree"`
	GraduationYear int    `json:"graduation_year"`
}

// YearsOfExperience computes the span from the earliest start date to the
// latest end date (or now for a current position), rounded down to whole years.
func (p *CandidateProfile) YearsOfExperience(now time.Time) int {
	var earliest, latest time.Time
	for _, exp := range p.Experience {
		if earliest.IsZero() || exp.StartDate.Before(earliest) {
			earliest = exp.StartDate
		}
		end := now
		if exp.EndDate != nil {
			end = *exp.EndDate
		}
		if end.After(latest) {
			latest = end
		}
	}
	if earliest.IsZero() || !latest.After(earliest) {
		return 0
	}
	return int(latest.Sub(earliest).Hours() / (24 * 365))
}

// SearchCriteria is the immutable input to listing discovery.
type SearchCriteria struct {
	Keyword         string `json:"keyword"`
	Location        string `json:"location"`
	ExperienceLevel string `json:"experience_level,omitempty"` // entry, mid, senior
	JobType         string `json:"job_type,omitempty"`         // full-time, contract, part-time
	SalaryMin       int    `json:"salary_min,omitempty"`
	EasyApplyOnly   bool   `json:"easy_apply_only"`
}

// JobPosting represents a single listing extracted from the portal.
// Identity is the portal-assigned ID (or the URL when no ID is exposed) and
// must be unique within a run.
type JobPosting struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	URL          string    `json:"url"`
	Description  string    `json:"description"`
	EasyApply    bool      `json:"easy_apply"`
	DiscoveredAt time.Time `json:"discovered_at"`
	Position     int       `json:"position"` // original discovery order, used for stable tie-breaks
}

// Identity returns the key used for deduplication and history lookups.
func (j *JobPosting) Identity() string {
	if j.ID != "" {
		return j.ID
	}
	return j.URL
}

// ScoreSource records which tier produced a MatchResult.
type ScoreSource string

const (
	ScoreSourceAI       ScoreSource = "ai"
	ScoreSourceFallback ScoreSource = "fallback"
)

// MatchResult is the scoring outcome for one posting. Score is normalized to
// 0-100; ranking order for selection follows Score descending.
type MatchResult struct {
	Posting       *JobPosting `json:"posting"`
	Score         float64     `json:"score"`
	MatchedSkills []string    `json:"matched_skills"`
	MissingSkills []string    `json:"missing_skills"`
	Apply         bool        `json:"apply"`
	Confidence    float64     `json:"confidence"`
	Source        ScoreSource `json:"source"`
}

// FieldKind discriminates the form field union.
type FieldKind string

const (
	FieldText        FieldKind = "text"
	FieldSelect      FieldKind = "select"
	FieldMultiSelect FieldKind = "multiselect"
	FieldRadio       FieldKind = "radio"
	FieldNumeric     FieldKind = "numeric"
	FieldDate        FieldKind = "date"
	FieldFile        FieldKind = "file"
)

// FormField describes one control discovered on an application page. Fields
// are ephemeral: detected fresh per page, never persisted.
type FormField struct {
	Kind     FieldKind `json:"kind"`
	Label    string    `json:"label"`
	Selector string    `json:"selector"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"` // select/multiselect/radio
	Min      float64   `json:"min,omitempty"`     // numeric
	Max      float64   `json:"max,omitempty"`
	Value    string    `json:"value,omitempty"` // current value, if any
}

// PageResult records the outcome of filling one form page.
type PageResult struct {
	Page       int      `json:"page"`
	Filled     int      `json:"filled"`
	Skipped    int      `json:"skipped"`
	Unresolved []string `json:"unresolved,omitempty"` // labels of required fields left unsatisfied
	Notes      []string `json:"notes,omitempty"`      // policy decisions taken (consent checked, sponsorship defaulted, ...)
}

// AttemptStatus is the terminal status of an application attempt.
type AttemptStatus string

const (
	StatusSubmitted AttemptStatus = "submitted"
	StatusFailed    AttemptStatus = "failed"
	StatusSkipped   AttemptStatus = "skipped"
	StatusAborted   AttemptStatus = "aborted"
)

// Terminal reports whether s is one of the four terminal statuses.
func (s AttemptStatus) Terminal() bool {
	switch s {
	case StatusSubmitted, StatusFailed, StatusSkipped, StatusAborted:
		return true
	}
	return false
}

// ApplicationAttempt represents one job's trip through the application filler.
// The terminal status is set exactly once.
type ApplicationAttempt struct {
	PostingID   string        `json:"posting_id"`
	Title       string        `json:"title"`
	Company     string        `json:"company"`
	Score       float64       `json:"score"`
	Pages       []PageResult  `json:"pages,omitempty"`
	Status      AttemptStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
}

// RunState carries the only state mutated from outside the pipeline thread:
// the submission counter (by the safety governor) and the cancellation flag
// (by the external caller). Both are atomic.
type RunState struct {
	submitted atomic.Int64
	cancelled atomic.Bool
}

// RecordSubmission increments the submission counter and returns the new count.
func (s *RunState) RecordSubmission() int {
	return int(s.submitted.Add(1))
}

// Submissions returns the number of submitted outcomes so far.
func (s *RunState) Submissions() int {
	return int(s.submitted.Load())
}

// Cancel sets the cancellation flag. Safe to call from any goroutine; the
// pipeline observes it cooperatively at suspension points.
func (s *RunState) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether cancellation was requested.
func (s *RunState) Cancelled() bool {
	return s.cancelled.Load()
}

// RunReport is the aggregate outcome of one run, written once at completion.
type RunReport struct {
	RunID       string               `json:"run_id"`
	Criteria    SearchCriteria       `json:"criteria"`
	Discovered  int                  `json:"discovered"`
	Scored      int                  `json:"scored"`
	Attempts    []ApplicationAttempt `json:"attempts"`
	Submitted   int                  `json:"submitted"`
	Failed      int                  `json:"failed"`
	Skipped     int                  `json:"skipped"`
	Aborted     int                  `json:"aborted"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	Err         string               `json:"error,omitempty"`
}

// Tally recomputes the per-status counts from the attempt list.
func (r *RunReport) Tally() {
	r.Submitted, r.Failed, r.Skipped, r.Aborted = 0, 0, 0, 0
	for _, a := range r.Attempts {
		switch a.Status {
		case StatusSubmitted:
			r.Submitted++
		case StatusFailed:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		case StatusAborted:
			r.Aborted++
		}
	}
}
