// Package resume is the boundary to the resume-parsing collaborator: file
// bytes in, structured profile out. The plain-text parser below is the
// reference implementation; richer formats plug in behind the same
// interface.
package resume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/khrees2412/jobpilot/pkg/models"
)

// ErrProfileUnavailable means no candidate profile could be built. The run
// aborts before any browser session opens; there is nothing to apply with.
var ErrProfileUnavailable = errors.New("profile unavailable")

// Parser converts resume file bytes into a candidate profile.
type Parser interface {
	Parse(data []byte, mimeType string) (*models.CandidateProfile, error)
}

// TextParser handles plain-text resumes with conventional section headings.
type TextParser struct{}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?[0-9][0-9()\-\s.]{7,}[0-9]`)
	urlRe   = regexp.MustCompile(`https?://[^\s]+`)
	// "Senior Engineer at Acme (2019 - 2023)" or "... (2020 - Present)"
	experienceRe = regexp.MustCompile(`(?mi)^(.+?)\s+at\s+(.+?)\s*\((\d{4})\s*[-–]\s*(\d{4}|present)\)`)
	educationRe  = regexp.MustCompile(`(?mi)^(.*(?:B\.?S\.?|M\.?S\.?|Bachelor|Master|Ph\.?D).*?),\s*(.+?),?\s*(\d{4})\s*$`)
)

// Parse builds a profile from plain text. Anything that is not text is the
// collaborator's problem, not this parser's.
func (TextParser) Parse(data []byte, mimeType string) (*models.CandidateProfile, error) {
	switch mimeType {
	case "text/plain", "text/markdown", "":
	default:
		return nil, fmt.Errorf("%w: unsupported mime type %q", ErrProfileUnavailable, mimeType)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("%w: empty resume", ErrProfileUnavailable)
	}

	profile := &models.CandidateProfile{ResumeText: text}

	lines := strings.Split(text, "\n")
	profile.Name = strings.TrimSpace(lines[0])

	if m := emailRe.FindString(text); m != "" {
		profile.Email = m
	}
	if m := phoneRe.FindString(text); m != "" {
		profile.Phone = strings.TrimSpace(m)
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;)")
		if strings.Contains(u, "linkedin.com") {
			if profile.LinkedInURL == "" {
				profile.LinkedInURL = u
			}
		} else if profile.PortfolioURL == "" {
			profile.PortfolioURL = u
		}
	}
	profile.Location = extractLabeled(lines, "location")
	profile.Skills = extractSkills(lines)
	profile.Experience = extractExperience(text)
	profile.Education = extractEducation(text)

	if len(profile.Skills) == 0 && len(profile.Experience) == 0 {
		return nil, fmt.Errorf("%w: no skills or experience sections found", ErrProfileUnavailable)
	}
	return profile, nil
}

// LoadProfile reads and parses the resume file at path, recording the path
// for later upload.
func LoadProfile(path string, parser Parser) (*models.CandidateProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	profile, err := parser.Parse(data, mimeFromExtension(path))
	if err != nil {
		return nil, err
	}
	profile.ResumePath = path
	return profile, nil
}

func mimeFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	default:
		return ""
	}
}

// extractLabeled finds a "Label: value" line.
func extractLabeled(lines []string, label string) string {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, label+":") {
			return strings.TrimSpace(line[len(label)+1:])
		}
	}
	return ""
}

// extractSkills reads the block under a "Skills" heading until a blank line
// or the next heading, splitting on commas, semicolons and bullets.
func extractSkills(lines []string) []string {
	var skills []string
	inSection := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if isHeading(trimmed) {
			inSection = strings.Contains(lower, "skill")
			continue
		}
		if !inSection {
			continue
		}
		if trimmed == "" {
			inSection = false
			continue
		}
		for _, part := range strings.FieldsFunc(trimmed, func(r rune) bool {
			return r == ',' || r == ';' || r == '•' || r == '|'
		}) {
			if s := strings.TrimSpace(strings.TrimPrefix(part, "-")); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

// isHeading treats short lines ending in a colon or written in all caps as
// section headings.
func isHeading(line string) bool {
	if line == "" || len(line) > 40 {
		return false
	}
	if strings.HasSuffix(line, ":") {
		return true
	}
	letters := 0
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 3
}

func extractExperience(text string) []models.Experience {
	var out []models.Experience
	for _, m := range experienceRe.FindAllStringSubmatch(text, -1) {
		startYear, _ := strconv.Atoi(m[3])
		exp := models.Experience{
			Title:     strings.TrimSpace(m[1]),
			Company:   strings.TrimSpace(m[2]),
			StartDate: time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		if !strings.EqualFold(m[4], "present") {
			endYear, _ := strconv.Atoi(m[4])
			end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
			exp.EndDate = &end
		}
		out = append(out, exp)
	}
	return out
}

func extractEducation(text string) []models.Education {
	var out []models.Education
	for _, m := range educationRe.FindAllStringSubmatch(text, -1) {
		year, _ := strconv.Atoi(m[3])
		out = append(out, models.Education{
			Degree:         strings.TrimSpace(m[1]),
			School:         strings.TrimSpace(m[2]),
			GraduationYear: year,
		})
	}
	return out
}
