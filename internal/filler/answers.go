package filler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/khrees2412/jobpilot/pkg/models"
)

// startDateOffset is the default for "when can you start" fields: the
// midpoint of the two-to-four-weeks-from-today window.
const startDateOffset = 21 * 24 * time.Hour

const dateFormat = "2006-01-02"

// answer is a resolved value for one form field.
type answer struct {
	value  string
	note   string // policy decision surfaced to the caller, empty if none
	skip   bool   // deliberately leave the control untouched
	needAI bool   // open-ended question, delegate to the text generator
	prompt string // prompt for the generator when needAI
}

// resolveField decides what to put into a field from profile data and
// explicit policy defaults. Only free-text questions with no profile-derived
// answer go to the AI generator.
func resolveField(field models.FormField, profile *models.CandidateProfile, posting *models.JobPosting, noticePeriodDays int, now time.Time) answer {
	switch field.Kind {
	case models.FieldText:
		return resolveText(field, profile, posting, now)
	case models.FieldSelect, models.FieldRadio:
		return resolveChoice(field, profile, posting, now)
	case models.FieldNumeric:
		return resolveNumeric(field, profile, noticePeriodDays, now)
	case models.FieldDate:
		return resolveDate(field, profile, now)
	default:
		return answer{skip: true}
	}
}

func resolveText(field models.FormField, profile *models.CandidateProfile, posting *models.JobPosting, now time.Time) answer {
	label := strings.ToLower(field.Label)
	switch {
	case containsAny(label, "phone", "mobile"):
		return answer{value: profile.Phone}
	case containsAny(label, "email"):
		return answer{value: profile.Email}
	case containsAny(label, "linkedin"):
		return answer{value: profile.LinkedInURL}
	case containsAny(label, "portfolio", "website", "personal site", "github"):
		return answer{value: profile.PortfolioURL}
	case containsAny(label, "city", "location", "address"):
		return answer{value: profile.Location}
	case containsAny(label, "years of experience", "years experience", "how many years"):
		return answer{value: strconv.Itoa(profile.YearsOfExperience(now))}
	case containsAny(label, "full name", "your name"):
		return answer{value: profile.Name}
	}

	// Open-ended question: hand it to the generator with profile context.
	return answer{
		needAI: true,
		prompt: fmt.Sprintf(`Answer this job application question in 1-3 sentences, first person, no preamble.

Question: %s

Candidate skills: %s
Candidate experience summary: %s
Job: %s at %s`,
			field.Label,
			strings.Join(profile.Skills, ", "),
			experienceSummary(profile),
			posting.Title, posting.Company),
	}
}

// resolveChoice picks the closest semantic option for a select/radio control.
// The defaults here are explicit policy, not guesses, and each one is
// surfaced as a note on the page outcome.
func resolveChoice(field models.FormField, profile *models.CandidateProfile, posting *models.JobPosting, now time.Time) answer {
	label := strings.ToLower(field.Label)

	switch {
	case containsAny(label, "authorized to work", "work authorization", "legally authorized", "right to work"):
		if opt, ok := pickOption(field.Options, "yes"); ok {
			return answer{value: opt, note: "work authorization answered Yes (policy default)"}
		}
	case containsAny(label, "sponsorship", "visa"):
		if opt, ok := pickOption(field.Options, "no"); ok {
			return answer{value: opt, note: "sponsorship answered No (conservative policy default)"}
		}
	case containsAny(label, "remote", "relocat", "commut", "on-site", "onsite", "hybrid"):
		if opt, ok := pickOption(field.Options, "yes"); ok {
			return answer{value: opt, note: "willingness question answered Yes (policy default)"}
		}
	case containsAny(label, "gender", "race", "ethnicity", "veteran", "disability", "orientation"):
		if opt, ok := pickOption(field.Options, "decline", "prefer not", "don't wish"); ok {
			return answer{value: opt, note: "demographic question declined (privacy policy default)"}
		}
	case containsAny(label, "experience level", "seniority"):
		years := profile.YearsOfExperience(now)
		if opt, ok := pickOption(field.Options, seniorityWants(years)...); ok {
			return answer{value: opt, note: fmt.Sprintf("experience level %q from %d years of experience", opt, years)}
		}
	}

	// Try a direct profile-data match (e.g. country, degree) before giving up.
	for _, candidate := range []string{profile.Location, profile.Name} {
		if opt, ok := pickOption(field.Options, candidate); ok && candidate != "" {
			return answer{value: opt}
		}
	}

	// Last resort for a required control: the first non-placeholder option.
	if field.Required {
		for _, opt := range field.Options {
			if !isPlaceholder(opt) {
				return answer{value: opt, note: fmt.Sprintf("no semantic match for %q, first option chosen", field.Label)}
			}
		}
	}
	return answer{skip: true}
}

// seniorityWants maps years of experience to the option labels tried for an
// experience-level control, most specific first.
func seniorityWants(years int) []string {
	switch {
	case years >= 7:
		return []string{"senior", "mid"}
	case years >= 3:
		return []string{"mid", "intermediate", "senior"}
	default:
		return []string{"entry", "junior", "associate", "mid"}
	}
}

func resolveNumeric(field models.FormField, profile *models.CandidateProfile, noticePeriodDays int, now time.Time) answer {
	label := strings.ToLower(field.Label)
	switch {
	case containsAny(label, "years", "experience"):
		years := profile.YearsOfExperience(now)
		return answer{value: strconv.Itoa(clampInt(years, field))}
	case containsAny(label, "notice"):
		return answer{value: strconv.Itoa(noticePeriodDays), note: "notice period from configured default"}
	case containsAny(label, "salary", "compensation", "expect"):
		// Salary expectations are never invented; skip unless required, then
		// bottom of the stated range.
		if field.Required && field.Min > 0 {
			return answer{value: strconv.Itoa(int(field.Min)), note: "salary answered with form minimum (policy default)"}
		}
		return answer{skip: true, note: "salary question left blank (policy default)"}
	}
	if field.Required {
		return answer{value: strconv.Itoa(clampInt(0, field))}
	}
	return answer{skip: true}
}

func resolveDate(field models.FormField, profile *models.CandidateProfile, now time.Time) answer {
	label := strings.ToLower(field.Label)
	switch {
	case containsAny(label, "start", "available", "availability"):
		return answer{value: now.Add(startDateOffset).Format(dateFormat), note: "start date defaulted to three weeks out"}
	case containsAny(label, "graduat", "completion", "degree"):
		for _, edu := range profile.Education {
			if edu.GraduationYear > 0 {
				return answer{value: fmt.Sprintf("%d-06-01", edu.GraduationYear)}
			}
		}
	}
	if field.Required {
		return answer{value: now.Format(dateFormat)}
	}
	return answer{skip: true}
}

// resolveCheckboxOption decides one option of a multi-select. Consent boxes
// are always checked (required to proceed), marketing opt-ins never, and
// everything else follows skill membership.
func resolveCheckboxOption(option string, skills []string) (check bool, note string) {
	lower := strings.ToLower(option)
	if containsAny(lower, "terms", "privacy", "consent", "certify", "acknowledge", "agree", "confirm that") {
		return true, "consent checkbox checked (required to proceed)"
	}
	if containsAny(lower, "marketing", "newsletter", "promotional", "updates from", "job alerts") {
		return false, "marketing opt-in left unchecked (privacy policy default)"
	}
	for _, skill := range skills {
		if skill != "" && strings.Contains(lower, strings.ToLower(skill)) {
			return true, ""
		}
	}
	return false, ""
}

// pickOption returns the first option matching any of the wanted values,
// preferring exact case-insensitive matches over containment either way.
func pickOption(options []string, wants ...string) (string, bool) {
	for _, want := range wants {
		w := strings.ToLower(strings.TrimSpace(want))
		if w == "" {
			continue
		}
		for _, opt := range options {
			if strings.EqualFold(strings.TrimSpace(opt), w) {
				return opt, true
			}
		}
		for _, opt := range options {
			o := strings.ToLower(opt)
			if strings.Contains(o, w) || strings.Contains(w, o) {
				if !isPlaceholder(opt) {
					return opt, true
				}
			}
		}
	}
	return "", false
}

func isPlaceholder(opt string) bool {
	return containsAny(strings.ToLower(strings.TrimSpace(opt)), "select", "choose", "please", "--")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clampInt(v int, field models.FormField) int {
	if field.Max > 0 && float64(v) > field.Max {
		v = int(field.Max)
	}
	if float64(v) < field.Min {
		v = int(field.Min)
	}
	return v
}

func experienceSummary(profile *models.CandidateProfile) string {
	parts := make([]string, 0, len(profile.Experience))
	for _, e := range profile.Experience {
		parts = append(parts, fmt.Sprintf("%s at %s", e.Title, e.Company))
	}
	if len(parts) == 0 {
		return "not specified"
	}
	return strings.Join(parts, "; ")
}

// fallbackAnswer is the templated text used when the generator is
// unavailable for an open-ended question.
func fallbackAnswer(profile *models.CandidateProfile, posting *models.JobPosting) string {
	return fmt.Sprintf("I have experience with %s and believe my background is a strong fit for the %s role at %s.",
		strings.Join(firstN(profile.Skills, 3), ", "), posting.Title, posting.Company)
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
