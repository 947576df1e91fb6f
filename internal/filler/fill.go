package filler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/internal/ai"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// fillPage resolves and writes every detected field, returning the page
// outcome. Each observable action goes through the pacer.
func (f *Filler) fillPage(ctx context.Context, page int, fields []models.FormField, posting *models.JobPosting) (models.PageResult, error) {
	result := models.PageResult{Page: page}

	for _, field := range fields {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		switch field.Kind {
		case models.FieldFile:
			note, err := f.attachResume(ctx, field)
			if err != nil {
				log.Printf("[filler] resume attach failed for %q: %v", field.Label, err)
				result.Skipped++
				continue
			}
			result.Filled++
			if note != "" {
				result.Notes = append(result.Notes, note)
			}
		case models.FieldMultiSelect:
			checked, notes := f.fillCheckbox(ctx, field)
			if checked {
				result.Filled++
			} else {
				result.Skipped++
			}
			result.Notes = append(result.Notes, notes...)
		default:
			ans := resolveField(field, f.profile, posting, f.noticePeriodDays, f.now())
			if ans.needAI {
				ans.value = f.generateAnswer(ctx, ans.prompt, posting)
			}
			if ans.skip || ans.value == "" {
				result.Skipped++
				if ans.note != "" {
					result.Notes = append(result.Notes, ans.note)
				}
				continue
			}
			if err := f.writeField(ctx, field, ans.value); err != nil {
				log.Printf("[filler] could not fill %q: %v", field.Label, err)
				result.Skipped++
				continue
			}
			result.Filled++
			if ans.note != "" {
				result.Notes = append(result.Notes, ans.note)
			}
		}

		if err := f.pacer.Wait(ctx); err != nil {
			return result, err
		}
	}

	return result, nil
}

// writeField dispatches on the field kind to set the value in the browser.
func (f *Filler) writeField(ctx context.Context, field models.FormField, value string) error {
	switch field.Kind {
	case models.FieldText, models.FieldNumeric, models.FieldDate:
		return f.session.Run(ctx,
			chromedp.Clear(field.Selector, chromedp.ByQuery),
			chromedp.SendKeys(field.Selector, value, chromedp.ByQuery),
		)
	case models.FieldSelect:
		return f.session.Run(ctx, chromedp.Evaluate(selectOptionScript(field.Selector, value), nil))
	case models.FieldRadio:
		return f.session.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`
			(() => {
				const want = %q.toLowerCase();
				const labels = document.querySelectorAll('label');
				for (const lbl of labels) {
					if ((lbl.textContent || '').trim().toLowerCase() === want) { lbl.click(); return true; }
				}
				return false;
			})()
		`, value), nil))
	}
	return fmt.Errorf("unhandled field kind %s", field.Kind)
}

// selectOptionScript selects the option whose visible text matches label.
// Options are detected by their text, and the portal's selects carry opaque
// value attributes, so assigning select.value with the label would silently
// reset the control to empty instead of selecting anything.
func selectOptionScript(selector, label string) string {
	return fmt.Sprintf(`
		(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			const want = %q.trim().toLowerCase();
			for (let i = 0; i < el.options.length; i++) {
				if (el.options[i].textContent.trim().toLowerCase() === want) {
					el.selectedIndex = i;
					el.dispatchEvent(new Event('change', { bubbles: true }));
					return true;
				}
			}
			return false;
		})()
	`, selector, label)
}

// fillCheckbox applies the checkbox policy to one control.
func (f *Filler) fillCheckbox(ctx context.Context, field models.FormField) (bool, []string) {
	check, note := resolveCheckboxOption(field.Label, f.profile.Skills)
	var notes []string
	if note != "" {
		notes = append(notes, note)
	}
	if !check {
		return false, notes
	}
	if field.Value == "checked" {
		return true, notes
	}
	err := f.session.Run(ctx, chromedp.Click(field.Selector, chromedp.ByQuery))
	if err != nil {
		log.Printf("[filler] checkbox click failed for %q: %v", field.Label, err)
		return false, notes
	}
	return true, notes
}

// attachResume uploads the profile's resume file. When the upload control is
// missing but a resume is already attached from a prior session the
// requirement counts as satisfied.
func (f *Filler) attachResume(ctx context.Context, field models.FormField) (string, error) {
	if f.profile.ResumePath == "" {
		return "", fmt.Errorf("no resume file configured")
	}
	if _, err := os.Stat(f.profile.ResumePath); err != nil {
		return "", fmt.Errorf("resume file missing: %w", err)
	}

	err := f.session.Run(ctx,
		chromedp.SetUploadFiles(field.Selector, []string{f.profile.ResumePath}, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		// Some flows pre-attach the resume from the previous application and
		// render no input; verify before treating this as a failure.
		attached, checkErr := f.resumeAlreadyAttached(ctx)
		if checkErr == nil && attached {
			return "resume already attached from a prior session", nil
		}
		return "", err
	}
	return "", nil
}

func (f *Filler) resumeAlreadyAttached(ctx context.Context) (bool, error) {
	var attached bool
	err := f.session.Run(ctx, chromedp.Evaluate(`
		!!document.querySelector('.jobs-document-upload__attached-file, [class*="attached-resume"], .ui-attachment')
	`, &attached))
	return attached, err
}

// generateAnswer asks the text generator, falling back to the template when
// the collaborator is unavailable.
func (f *Filler) generateAnswer(ctx context.Context, prompt string, posting *models.JobPosting) string {
	if f.gen != nil {
		text, err := f.gen.Generate(ctx, prompt)
		if err == nil {
			return text
		}
		if !errors.Is(err, ai.ErrUnavailable) {
			log.Printf("[filler] generator error: %v", err)
		}
	}
	return fallbackAnswer(f.profile, posting)
}
