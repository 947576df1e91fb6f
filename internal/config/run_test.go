package config

import (
	"testing"
	"time"

	"github.com/khrees2412/jobpilot/pkg/models"
)

func validRunConfig() *RunConfig {
	rc := DefaultRunConfig(nil)
	rc.Credentials = Credentials{Email: "user@example.com", Password: "hunter2"}
	rc.Criteria = models.SearchCriteria{Keyword: "backend engineer"}
	rc.ResumePath = "/tmp/resume.txt"
	return rc
}

func TestRunConfigValidateOK(t *testing.T) {
	if err := validRunConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestRunConfigValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"missing email", func(rc *RunConfig) { rc.Credentials.Email = "" }},
		{"bad email", func(rc *RunConfig) { rc.Credentials.Email = "not-an-email" }},
		{"missing password", func(rc *RunConfig) { rc.Credentials.Password = "" }},
		{"missing keyword", func(rc *RunConfig) { rc.Criteria.Keyword = "" }},
		{"missing resume", func(rc *RunConfig) { rc.ResumePath = "" }},
		{"zero cap", func(rc *RunConfig) { rc.MaxApplications = 0 }},
		{"cap too high", func(rc *RunConfig) { rc.MaxApplications = 100 }},
		{"threshold above range", func(rc *RunConfig) { rc.ScoreThreshold = 150 }},
		{"max delay below min", func(rc *RunConfig) { rc.MinDelay = 5 * time.Second; rc.MaxDelay = time.Second }},
		{"zero page timeout", func(rc *RunConfig) { rc.PageTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := validRunConfig()
			tt.mutate(rc)
			if err := rc.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultRunConfigSeedsFromAppConfig(t *testing.T) {
	app := &Config{
		PortalEmail:     "user@example.com",
		PortalPassword:  "hunter2",
		MaxApplications: 3,
		ScoreThreshold:  70,
		MinDelayMs:      500,
		MaxDelayMs:      1000,
	}

	rc := DefaultRunConfig(app)

	if rc.Credentials.Email != "user@example.com" {
		t.Errorf("credentials not seeded: %+v", rc.Credentials)
	}
	if rc.MaxApplications != 3 {
		t.Errorf("MaxApplications = %d, want 3", rc.MaxApplications)
	}
	if rc.ScoreThreshold != 70 {
		t.Errorf("ScoreThreshold = %v, want 70", rc.ScoreThreshold)
	}
	if rc.MinDelay != 500*time.Millisecond || rc.MaxDelay != time.Second {
		t.Errorf("delay range = %v-%v", rc.MinDelay, rc.MaxDelay)
	}
	// Untouched tunables keep their defaults.
	if rc.FallbackThreshold != 40 || rc.MaxFormPages != 10 {
		t.Errorf("defaults lost: %+v", rc)
	}
}

func TestDefaultRunConfigNilApp(t *testing.T) {
	rc := DefaultRunConfig(nil)
	if rc.MaxApplications != 5 || rc.ScoreThreshold != 60 || rc.NavRetries != 3 {
		t.Errorf("unexpected defaults: %+v", rc)
	}
}
