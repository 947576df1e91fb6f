package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// RunConfig is the fully-assembled configuration for a single run. It is
// validated before any browser session opens; an invalid config fails the run
// without side effects.
type RunConfig struct {
	Credentials Credentials           `validate:"required"`
	Criteria    models.SearchCriteria `validate:"required"`
	ResumePath  string                `validate:"required"`

	MaxApplications   int     `validate:"required,gt=0,lte=50"`
	MaxListings       int     `validate:"required,gt=0,lte=500"`
	ScoreThreshold    float64 `validate:"gte=0,lte=100"`
	FallbackThreshold float64 `validate:"gte=0,lte=100"`

	// Pacing bounds for the delay injected between observable browser actions.
	MinDelay time.Duration `validate:"gte=0"`
	MaxDelay time.Duration `validate:"gtefield=MinDelay"`

	// Timeouts. ChallengeWait bounds the one long suspension point: waiting
	// for out-of-band resolution of a security challenge.
	PageTimeout   time.Duration `validate:"gt=0"`
	ChallengeWait time.Duration `validate:"gt=0"`

	// Retry budgets. NavRetries is the transient-navigation backoff ceiling,
	// distinct from the per-application field-fill budget.
	NavRetries       uint `validate:"lte=10"`
	FillRetries      int  `validate:"gt=0,lte=10"`
	MaxFormPages     int  `validate:"gt=0,lte=30"`
	NoticePeriodDays int  `validate:"gte=0"` // notice period default, days

	DryRun bool
}

// Credentials for portal authentication.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

var validate = validator.New()

// Validate checks the run configuration and the search criteria. The keyword
// is the only required criteria field; all portal filters are optional.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}
	if c.Criteria.Keyword == "" {
		return fmt.Errorf("invalid run config: search keyword is required")
	}
	return nil
}

// DefaultRunConfig returns a RunConfig seeded from the loaded app config with
// the tuning defaults applied. Thresholds, retry counts and delay ranges are
// product tuning parameters, so they all live here rather than in constants.
func DefaultRunConfig(app *Config) *RunConfig {
	rc := &RunConfig{
		MaxApplications:   5,
		MaxListings:       100,
		ScoreThreshold:    60,
		FallbackThreshold: 40,
		MinDelay:          1500 * time.Millisecond,
		MaxDelay:          4500 * time.Millisecond,
		PageTimeout:       30 * time.Second,
		ChallengeWait:     2 * time.Minute,
		NavRetries:        3,
		FillRetries:       3,
		MaxFormPages:      10,
		NoticePeriodDays:  14,
	}
	if app == nil {
		return rc
	}
	rc.Credentials = Credentials{Email: app.PortalEmail, Password: app.PortalPassword}
	if app.MaxApplications > 0 {
		rc.MaxApplications = app.MaxApplications
	}
	if app.ScoreThreshold > 0 {
		rc.ScoreThreshold = app.ScoreThreshold
	}
	if app.FallbackThreshold > 0 {
		rc.FallbackThreshold = app.FallbackThreshold
	}
	if app.MinDelayMs > 0 {
		rc.MinDelay = time.Duration(app.MinDelayMs) * time.Millisecond
	}
	if app.MaxDelayMs > 0 {
		rc.MaxDelay = time.Duration(app.MaxDelayMs) * time.Millisecond
	}
	return rc
}
