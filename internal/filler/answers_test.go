package filler

import (
	"strings"
	"testing"
	"time"

	"github.com/khrees2412/jobpilot/pkg/models"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func testProfile() *models.CandidateProfile {
	end := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &models.CandidateProfile{
		Name:         "Ada Example",
		Email:        "ada@example.com",
		Phone:        "+1 555 0100",
		Location:     "Berlin, Germany",
		LinkedInURL:  "https://linkedin.com/in/ada",
		PortfolioURL: "https://ada.dev",
		Skills:       []string{"Go", "SQL", "Docker"},
		Experience: []models.Experience{
			{Title: "Engineer", Company: "Acme", StartDate: time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), EndDate: &end},
		},
		Education: []models.Education{
			{School: "TU Berlin", Degree: "B.S. Computer Science", GraduationYear: 2018},
		},
	}
}

func testPosting() *models.JobPosting {
	return &models.JobPosting{ID: "1", Title: "Backend Engineer", Company: "Initech"}
}

func TestResolveTextFromProfile(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Phone number", "+1 555 0100"},
		{"Mobile", "+1 555 0100"},
		{"Email address", "ada@example.com"},
		{"LinkedIn profile", "https://linkedin.com/in/ada"},
		{"Portfolio or website", "https://ada.dev"},
		{"Current city", "Berlin, Germany"},
		{"Your name (full name)", "Ada Example"},
	}

	profile := testProfile()
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			field := models.FormField{Kind: models.FieldText, Label: tt.label}
			ans := resolveField(field, profile, testPosting(), 14, testNow)
			if ans.needAI {
				t.Fatalf("%q should resolve from profile, not AI", tt.label)
			}
			if ans.value != tt.want {
				t.Errorf("value = %q, want %q", ans.value, tt.want)
			}
		})
	}
}

func TestResolveTextOpenEndedGoesToGenerator(t *testing.T) {
	field := models.FormField{Kind: models.FieldText, Label: "Why do you want to work here?"}
	ans := resolveField(field, testProfile(), testPosting(), 14, testNow)

	if !ans.needAI {
		t.Fatal("open-ended question should be delegated to the generator")
	}
	if !strings.Contains(ans.prompt, "Why do you want to work here?") {
		t.Error("prompt should include the question")
	}
	if !strings.Contains(ans.prompt, "Go, SQL, Docker") {
		t.Error("prompt should include candidate skills")
	}
}

func TestResolveChoicePolicies(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		options []string
		want    string
	}{
		{"work authorization yes", "Are you legally authorized to work?", []string{"Yes", "No"}, "Yes"},
		{"sponsorship no", "Will you require visa sponsorship?", []string{"Yes", "No"}, "No"},
		{"relocation yes", "Are you willing to relocate?", []string{"Yes", "No"}, "Yes"},
		{"demographics declined", "What is your gender?", []string{"Male", "Female", "Prefer not to say"}, "Prefer not to say"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := models.FormField{Kind: models.FieldSelect, Label: tt.label, Options: tt.options}
			ans := resolveField(field, testProfile(), testPosting(), 14, testNow)
			if ans.value != tt.want {
				t.Errorf("value = %q, want %q", ans.value, tt.want)
			}
			if ans.note == "" {
				t.Error("policy decision should carry a note")
			}
		})
	}
}

func TestResolveChoiceSeniorityTracksExperience(t *testing.T) {
	withStart := func(start time.Time) *models.CandidateProfile {
		p := testProfile()
		p.Experience = []models.Experience{{Title: "Engineer", Company: "Acme", StartDate: start}}
		return p
	}

	tests := []struct {
		name    string
		profile *models.CandidateProfile
		want    string
	}{
		{"five years picks mid", testProfile(), "Mid"},
		{"eleven years picks senior", withStart(time.Date(2015, time.April, 1, 0, 0, 0, 0, time.UTC)), "Senior"},
		{"one year picks entry", withStart(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)), "Entry"},
	}

	field := models.FormField{
		Kind:    models.FieldSelect,
		Label:   "Experience level",
		Options: []string{"Entry", "Mid", "Senior"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans := resolveField(field, tt.profile, testPosting(), 14, testNow)
			if ans.value != tt.want {
				t.Errorf("value = %q, want %q", ans.value, tt.want)
			}
			if !strings.Contains(ans.note, "years of experience") {
				t.Errorf("pick should surface the derivation, note = %q", ans.note)
			}
		})
	}
}

func TestResolveChoiceRequiredFallsBackToFirstRealOption(t *testing.T) {
	field := models.FormField{
		Kind:     models.FieldSelect,
		Label:    "Favourite color",
		Required: true,
		Options:  []string{"-- Select --", "Red", "Blue"},
	}
	ans := resolveField(field, testProfile(), testPosting(), 14, testNow)

	if ans.value != "Red" {
		t.Errorf("required select should take first non-placeholder option, got %q", ans.value)
	}
}

func TestResolveChoiceOptionalUnmatchedSkips(t *testing.T) {
	field := models.FormField{Kind: models.FieldSelect, Label: "Favourite color", Options: []string{"Red", "Blue"}}
	ans := resolveField(field, testProfile(), testPosting(), 14, testNow)
	if !ans.skip {
		t.Errorf("optional unmatched select should be skipped, got %q", ans.value)
	}
}

func TestResolveNumeric(t *testing.T) {
	profile := testProfile()

	years := resolveField(models.FormField{Kind: models.FieldNumeric, Label: "Years of experience with Go"}, profile, testPosting(), 14, testNow)
	if years.value != "5" {
		t.Errorf("years = %q, want 5", years.value)
	}

	notice := resolveField(models.FormField{Kind: models.FieldNumeric, Label: "Notice period (days)"}, profile, testPosting(), 30, testNow)
	if notice.value != "30" {
		t.Errorf("notice = %q, want 30", notice.value)
	}

	salary := resolveField(models.FormField{Kind: models.FieldNumeric, Label: "Salary expectation"}, profile, testPosting(), 14, testNow)
	if !salary.skip {
		t.Errorf("optional salary should be skipped, got %q", salary.value)
	}

	requiredSalary := resolveField(models.FormField{Kind: models.FieldNumeric, Label: "Expected salary", Required: true, Min: 50000}, profile, testPosting(), 14, testNow)
	if requiredSalary.value != "50000" {
		t.Errorf("required salary should use form minimum, got %q", requiredSalary.value)
	}
}

func TestResolveNumericClampsToBounds(t *testing.T) {
	field := models.FormField{Kind: models.FieldNumeric, Label: "Years of experience", Max: 2}
	ans := resolveField(field, testProfile(), testPosting(), 14, testNow)
	if ans.value != "2" {
		t.Errorf("years should clamp to field max, got %q", ans.value)
	}
}

func TestResolveDate(t *testing.T) {
	profile := testProfile()

	start := resolveField(models.FormField{Kind: models.FieldDate, Label: "When can you start?"}, profile, testPosting(), 14, testNow)
	if start.value != "2026-03-31" {
		t.Errorf("start date = %q, want 2026-03-31", start.value)
	}

	grad := resolveField(models.FormField{Kind: models.FieldDate, Label: "Graduation date"}, profile, testPosting(), 14, testNow)
	if grad.value != "2018-06-01" {
		t.Errorf("graduation = %q, want 2018-06-01", grad.value)
	}

	required := resolveField(models.FormField{Kind: models.FieldDate, Label: "Some date", Required: true}, profile, testPosting(), 14, testNow)
	if required.value != "2026-03-10" {
		t.Errorf("required unknown date should default to today, got %q", required.value)
	}
}

func TestResolveCheckboxOption(t *testing.T) {
	skills := []string{"Go", "SQL"}

	tests := []struct {
		option string
		check  bool
	}{
		{"I agree to the terms and privacy policy", true},
		{"I certify my answers are accurate", true},
		{"Send me marketing updates from Initech", false},
		{"Subscribe to job alerts", false},
		{"Go", true},
		{"Rust", false},
	}

	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			check, _ := resolveCheckboxOption(tt.option, skills)
			if check != tt.check {
				t.Errorf("resolveCheckboxOption(%q) = %v, want %v", tt.option, check, tt.check)
			}
		})
	}
}

func TestPickOption(t *testing.T) {
	options := []string{"-- Please select --", "Yes", "No, thanks"}

	if opt, ok := pickOption(options, "yes"); !ok || opt != "Yes" {
		t.Errorf("exact fold match failed: %q %v", opt, ok)
	}
	if opt, ok := pickOption(options, "no"); !ok || opt != "No, thanks" {
		t.Errorf("containment match failed: %q %v", opt, ok)
	}
	if _, ok := pickOption(options, "maybe"); ok {
		t.Error("no match expected for maybe")
	}
	if _, ok := pickOption(options, "select"); ok {
		t.Error("placeholder options must never be picked by containment")
	}
}

func TestClassifyAdvance(t *testing.T) {
	tests := []struct {
		label string
		want  pageAction
	}{
		{"Submit application", actionSubmit},
		{"Review your application", actionReview},
		{"Continue to next step", actionNext},
		{"Next", actionNext},
		{"", actionNone},
		{"Dismiss", actionNone},
	}

	for _, tt := range tests {
		if got := classifyAdvance(tt.label); got != tt.want {
			t.Errorf("classifyAdvance(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestUnresolvedRequired(t *testing.T) {
	fields := []models.FormField{
		{Kind: models.FieldText, Label: "Email", Required: true, Value: "a@b.c"},
		{Kind: models.FieldText, Label: "Phone", Required: true},
		{Kind: models.FieldText, Label: "Website"},
		{Kind: models.FieldFile, Label: "Resume", Required: true},
	}

	unres := unresolvedRequired(fields)
	if len(unres) != 1 || unres[0] != "Phone" {
		t.Errorf("unresolvedRequired = %v, want [Phone]", unres)
	}
}

func TestFallbackAnswerMentionsRole(t *testing.T) {
	text := fallbackAnswer(testProfile(), testPosting())
	if !strings.Contains(text, "Backend Engineer") || !strings.Contains(text, "Initech") {
		t.Errorf("fallback answer should name the role and company: %q", text)
	}
}
