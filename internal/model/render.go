package model

import (
	"regexp"
	"slices"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

var templateVariables = map[TemplateType][]string{
	TemplateOffer:      {"candidate_name", "job_title", "salary", "currency", "start_date", "expiry_date", "company_name"},
	TemplateRejection:  {"candidate_name", "job_title", "company_name"},
	TemplateAssessment: {"candidate_name", "job_title", "assessment_link", "expiry_date"},
	TemplateGeneral:    {"candidate_name", "job_title", "salary", "currency", "start_date", "expiry_date", "company_name", "assessment_link"},
}

var sampleValues = map[string]string{
	"candidate_name":  "Alex Johnson",
	"job_title":       "Senior Software Engineer",
	"salary":          "5,000",
	"currency":        "USD",
	"start_date":      "March 15, 2026",
	"expiry_date":     "March 5, 2026",
	"company_name":    "OpenATS Inc.",
	"assessment_link": "https://openats.io/assess/abc123",
}

// Variables lists the placeholders offered for a template type.
func Variables(t TemplateType) []string {
	return slices.Clone(templateVariables[t])
}

// SampleValues returns the preview values used by the template editor.
func SampleValues() map[string]string {
	out := make(map[string]string, len(sampleValues))
	for k, v := range sampleValues {
		out[k] = v
	}
	return out
}

// Placeholders returns the distinct placeholder names used in text, in order
// of first appearance.
func Placeholders(text string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// RenderText substitutes {{name}} placeholders found in vars. Unknown
// placeholders are left as written.
func RenderText(text string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// Render returns a copy of t with subject and block content substituted.
func Render(t Template, vars map[string]string) Template {
	out := t.Clone()
	out.Subject = RenderText(out.Subject, vars)
	for i := range out.Blocks {
		out.Blocks[i].Content = RenderText(out.Blocks[i].Content, vars)
	}
	return out
}
