package quality

import (
	"regexp"
	"strings"

	"cvready/models"
)

// StructuralRule is the uniform capability set §9 calls for: a rule id, a
// category, a severity, and an evaluate(cv) → finding function value.
// Structural rules are collected as a slice of these, never as an
// inheritance hierarchy.
type StructuralRule struct {
	RuleID   string
	Category models.RuleType
	Severity models.Severity
	Evaluate func(cv models.CV) models.Finding
}

func allText(cv models.CV) string {
	var b strings.Builder
	for _, s := range cv.Sections {
		for _, c := range s.Chunks {
			b.WriteString(c.Content)
			b.WriteString(" ")
		}
	}
	return b.String()
}

func hasSection(cv models.CV, t models.SectionType) bool {
	for _, s := range cv.Sections {
		if s.Type == t {
			return true
		}
	}
	return false
}

var (
	emailRegex    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRegex    = regexp.MustCompile(`(\+?\d{1,3}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	linkedinRegex = regexp.MustCompile(`(?i)linkedin\.com/in/[a-zA-Z0-9\-_%]+`)
	githubRegex   = regexp.MustCompile(`(?i)github\.com/[a-zA-Z0-9\-_%]+`)
	dateRegex     = regexp.MustCompile(`(?i)\b(19|20)\d{2}\b`)
	degreeRegex   = regexp.MustCompile(`(?i)\b(bachelor|master|ph\.?d|b\.?sc|m\.?sc|b\.?tech|m\.?tech|associate degree)\b`)
	urlRegex      = regexp.MustCompile(`(?i)https?://[^\s]+`)
	metricRegex   = regexp.MustCompile(`\d+(\.\d+)?\s*(%|percent|x\b)`)
	quantRegex    = regexp.MustCompile(`\b\d+\b`)
)

func finding(ruleID string, category models.RuleType, severity models.Severity, passed bool, reason string, evidence ...string) models.Finding {
	return models.Finding{RuleID: ruleID, Category: category, Passed: passed, Severity: severity, Reason: reason, Evidence: evidence}
}

// DefaultStructuralRules mirrors the pattern-predicate set named in §4.6
// step 1: section existence, contact-info regexes, date regex, degree
// keywords, URL presence, metric presence, quantifier presence.
func DefaultStructuralRules() []StructuralRule {
	return []StructuralRule{
		{
			RuleID: "education-section-present", Category: models.RuleMustHave, Severity: models.SeverityCritical,
			Evaluate: func(cv models.CV) models.Finding {
				ok := hasSection(cv, models.SectionEducation)
				return finding("education-section-present", models.RuleMustHave, models.SeverityCritical, ok, boolReason(ok, "an EDUCATION section is present", "no EDUCATION section found"))
			},
		},
		{
			RuleID: "experience-section-present", Category: models.RuleMustHave, Severity: models.SeverityCritical,
			Evaluate: func(cv models.CV) models.Finding {
				ok := hasSection(cv, models.SectionExperience)
				return finding("experience-section-present", models.RuleMustHave, models.SeverityCritical, ok, boolReason(ok, "an EXPERIENCE section is present", "no EXPERIENCE section found"))
			},
		},
		{
			RuleID: "contact-email-present", Category: models.RuleMustHave, Severity: models.SeverityCritical,
			Evaluate: func(cv models.CV) models.Finding {
				match := emailRegex.FindString(allText(cv))
				ok := match != ""
				return finding("contact-email-present", models.RuleMustHave, models.SeverityCritical, ok, boolReason(ok, "an email address is present", "no email address found"), nonEmpty(match)...)
			},
		},
		{
			RuleID: "contact-phone-present", Category: models.RuleNiceToHave, Severity: models.SeverityWarning,
			Evaluate: func(cv models.CV) models.Finding {
				match := phoneRegex.FindString(allText(cv))
				ok := match != ""
				return finding("contact-phone-present", models.RuleNiceToHave, models.SeverityWarning, ok, boolReason(ok, "a phone number is present", "no phone number found"), nonEmpty(match)...)
			},
		},
		{
			RuleID: "linkedin-present", Category: models.RuleNiceToHave, Severity: models.SeverityWarning,
			Evaluate: func(cv models.CV) models.Finding {
				match := linkedinRegex.FindString(allText(cv))
				ok := match != ""
				return finding("linkedin-present", models.RuleNiceToHave, models.SeverityWarning, ok, boolReason(ok, "a LinkedIn profile URL is present", "no LinkedIn profile URL found"), nonEmpty(match)...)
			},
		},
		{
			RuleID: "github-present", Category: models.RuleBestPractice, Severity: models.SeverityInfo,
			Evaluate: func(cv models.CV) models.Finding {
				match := githubRegex.FindString(allText(cv))
				ok := match != ""
				return finding("github-present", models.RuleBestPractice, models.SeverityInfo, ok, boolReason(ok, "a GitHub profile URL is present", "no GitHub profile URL found"), nonEmpty(match)...)
			},
		},
		{
			RuleID: "dates-present", Category: models.RuleMustHave, Severity: models.SeverityCritical,
			Evaluate: func(cv models.CV) models.Finding {
				ok := dateRegex.MatchString(allText(cv))
				return finding("dates-present", models.RuleMustHave, models.SeverityCritical, ok, boolReason(ok, "dated entries are present", "no four-digit years found in any entry"))
			},
		},
		{
			RuleID: "degree-keyword-present", Category: models.RuleNiceToHave, Severity: models.SeverityWarning,
			Evaluate: func(cv models.CV) models.Finding {
				match := degreeRegex.FindString(allText(cv))
				ok := match != ""
				return finding("degree-keyword-present", models.RuleNiceToHave, models.SeverityWarning, ok, boolReason(ok, "a degree keyword is present", "no recognized degree keyword found"), nonEmpty(match)...)
			},
		},
		{
			RuleID: "url-present", Category: models.RuleBestPractice, Severity: models.SeverityInfo,
			Evaluate: func(cv models.CV) models.Finding {
				ok := urlRegex.MatchString(allText(cv))
				return finding("url-present", models.RuleBestPractice, models.SeverityInfo, ok, boolReason(ok, "at least one URL is present", "no URLs found"))
			},
		},
		{
			RuleID: "metric-present", Category: models.RuleNiceToHave, Severity: models.SeverityWarning,
			Evaluate: func(cv models.CV) models.Finding {
				ok := metricRegex.MatchString(allText(cv))
				return finding("metric-present", models.RuleNiceToHave, models.SeverityWarning, ok, boolReason(ok, "at least one quantified metric is present", "no percentage or multiplier metrics found"))
			},
		},
		{
			RuleID: "quantifier-present", Category: models.RuleBestPractice, Severity: models.SeverityInfo,
			Evaluate: func(cv models.CV) models.Finding {
				ok := quantRegex.MatchString(allText(cv))
				return finding("quantifier-present", models.RuleBestPractice, models.SeverityInfo, ok, boolReason(ok, "at least one numeric quantifier is present", "no standalone numbers found"))
			},
		},
	}
}

func boolReason(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
