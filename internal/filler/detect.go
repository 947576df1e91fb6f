package filler

import (
	"context"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/khrees2412/jobpilot/pkg/models"
)

// detectFields enumerates the controls on the current form page as the
// FormField union. Detection runs fresh per page; a page may be re-rendered
// between detection and filling, which is why the fill loop re-detects once
// before declaring a required field unrecoverable.
func (f *Filler) detectFields(ctx context.Context) ([]models.FormField, error) {
	var fields []models.FormField
	err := f.session.Run(ctx, chromedp.Evaluate(`
		(() => {
			const fields = [];
			const form = document.querySelector('.jobs-easy-apply-content, .jobs-easy-apply-modal, form') || document;

			const labelFor = (el) => {
				if (el.labels && el.labels.length > 0) return el.labels[0].textContent.trim();
				const aria = el.getAttribute('aria-label');
				if (aria) return aria.trim();
				const wrapper = el.closest('.fb-dash-form-element, .jobs-easy-apply-form-element, fieldset, div');
				if (wrapper) {
					const lbl = wrapper.querySelector('label, legend, .fb-dash-form-element__label');
					if (lbl) return lbl.textContent.trim();
				}
				return el.name || el.id || '';
			};
			const cssPath = (el) => {
				if (el.id) return '#' + CSS.escape(el.id);
				if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
				const idx = Array.from(el.parentNode ? el.parentNode.children : []).indexOf(el);
				return el.tagName.toLowerCase() + ':nth-child(' + (idx + 1) + ')';
			};
			const required = (el) => el.required || el.getAttribute('aria-required') === 'true';

			form.querySelectorAll('input, textarea, select').forEach(el => {
				if (el.type === 'hidden' || el.disabled) return;
				const base = {
					label: labelFor(el),
					selector: cssPath(el),
					required: required(el),
					value: el.value || ''
				};
				if (el.tagName === 'SELECT') {
					fields.push({ ...base, kind: 'select',
						options: Array.from(el.options).map(o => o.textContent.trim()) });
				} else if (el.type === 'checkbox') {
					fields.push({ ...base, kind: 'multiselect', options: [base.label],
						value: el.checked ? 'checked' : '' });
				} else if (el.type === 'radio') {
					// one FormField per radio group, options collected below
					if (!fields.some(f => f.kind === 'radio' && f.groupName === el.name)) {
						const group = form.querySelectorAll('input[type="radio"][name="' + el.name + '"]');
						fields.push({ ...base, kind: 'radio', groupName: el.name,
							options: Array.from(group).map(r => labelFor(r)) });
					}
				} else if (el.type === 'file') {
					fields.push({ ...base, kind: 'file' });
				} else if (el.type === 'number' || el.inputMode === 'numeric') {
					fields.push({ ...base, kind: 'numeric',
						min: parseFloat(el.min) || 0, max: parseFloat(el.max) || 0 });
				} else if (el.type === 'date' || /date/i.test(base.label)) {
					fields.push({ ...base, kind: 'date' });
				} else {
					fields.push({ ...base, kind: 'text' });
				}
			});
			return fields;
		})()
	`, &fields))
	return fields, err
}

// pageAction classifies the affordance that advances the application.
type pageAction int

const (
	actionNone pageAction = iota
	actionNext
	actionReview
	actionSubmit
)

// classifyAdvance maps a button label to the state transition it triggers.
func classifyAdvance(label string) pageAction {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return actionNone
	case containsAny(l, "submit application", "submit"):
		return actionSubmit
	case containsAny(l, "review"):
		return actionReview
	case containsAny(l, "next", "continue"):
		return actionNext
	}
	return actionNone
}

// findAdvance looks for the page-advance button and classifies it.
func (f *Filler) findAdvance(ctx context.Context) (pageAction, string, error) {
	var label string
	err := f.session.Run(ctx, chromedp.Evaluate(`
		(() => {
			const selectors = [
				'button[aria-label*="Submit application"]',
				'button[aria-label*="Review your application"]',
				'button[aria-label*="Continue to next step"]',
				'footer button[data-easy-apply-next-button]',
				'.jobs-easy-apply-modal footer button',
				'form button[type="submit"]'
			];
			for (const sel of selectors) {
				const btn = document.querySelector(sel);
				if (btn && !btn.disabled) return (btn.getAttribute('aria-label') || btn.textContent || '').trim();
			}
			return '';
		})()
	`, &label))
	if err != nil {
		return actionNone, "", err
	}
	return classifyAdvance(label), label, nil
}

// validationErrors collects the visible validation messages on a review or
// form page.
func (f *Filler) validationErrors(ctx context.Context) ([]string, error) {
	var msgs []string
	err := f.session.Run(ctx, chromedp.Evaluate(`
		(() => {
			const out = [];
			document.querySelectorAll('.artdeco-inline-feedback--error, [role="alert"], .fb-dash-form-element-error').forEach(el => {
				const text = (el.textContent || '').trim();
				if (text) out.push(text);
			});
			return out;
		})()
	`, &msgs))
	return msgs, err
}

// unresolvedRequired returns the labels of required fields still empty.
func unresolvedRequired(fields []models.FormField) []string {
	var labels []string
	for _, field := range fields {
		if field.Required && field.Value == "" && field.Kind != models.FieldFile {
			labels = append(labels, field.Label)
		}
	}
	return labels
}
