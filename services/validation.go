package services

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"lexicon/models"
)

// SubmissionPayload is the contributor-supplied body of a new term.
type SubmissionPayload struct {
	Term         string            `json:"term"`
	LiteralGloss string            `json:"literal_gloss"`
	Meaning      string            `json:"meaning"`
	Category     string            `json:"category"`
	Risk         string            `json:"risk"`
	Language     string            `json:"language"`
	Registers    string            `json:"registers"`
	Markers      string            `json:"markers"`
	TargetGroup  string            `json:"target_group"`
	Origin       string            `json:"origin"`
	Notes        string            `json:"notes"`
	Harms        map[string]string `json:"harms"`
	VariantOf    string            `json:"variant_of"`
	Examples     []ExamplePayload  `json:"examples"`
}

// ExamplePayload is one usage example attached to a submission.
type ExamplePayload struct {
	Quote    string `json:"quote"`
	Platform string `json:"platform"`
	Date     string `json:"date"`
	URL      string `json:"url"`
	Context  string `json:"context"`
}

func (e ExamplePayload) trimmed() ExamplePayload {
	return ExamplePayload{
		Quote:    strings.TrimSpace(e.Quote),
		Platform: strings.TrimSpace(e.Platform),
		Date:     strings.TrimSpace(e.Date),
		URL:      strings.TrimSpace(e.URL),
		Context:  strings.TrimSpace(e.Context),
	}
}

func (e ExamplePayload) blank() bool {
	return e.Quote == "" && e.Platform == "" && e.Date == "" && e.URL == "" && e.Context == ""
}

// indexedExample keeps the position the example had in the request body so
// error field names point at what the contributor sent.
type indexedExample struct {
	index int
	ExamplePayload
}

// ValidatedSubmission is a submission that passed every rule. All strings are trimmed.
type ValidatedSubmission struct {
	Term         string
	LiteralGloss string
	Meaning      string
	Category     models.Category
	Risk         models.RiskLevel
	Language     models.Language
	Registers    string
	Markers      string
	TargetGroup  string
	Origin       string
	Notes        string
	Harms        models.HarmAnnotations
	VariantOf    string
	Examples     []ExamplePayload
}

// ValidateSubmission applies the submission rules and stops at the first
// failing rule. Rules run in this order: required fields, category, risk,
// language, presence of examples, example sub-fields, harm keys, example urls.
func ValidateSubmission(p SubmissionPayload) (*ValidatedSubmission, error) {
	v := &ValidatedSubmission{
		Term:         strings.TrimSpace(p.Term),
		LiteralGloss: strings.TrimSpace(p.LiteralGloss),
		Meaning:      strings.TrimSpace(p.Meaning),
		Registers:    strings.TrimSpace(p.Registers),
		Markers:      strings.TrimSpace(p.Markers),
		TargetGroup:  strings.TrimSpace(p.TargetGroup),
		Origin:       strings.TrimSpace(p.Origin),
		Notes:        strings.TrimSpace(p.Notes),
		VariantOf:    strings.TrimSpace(p.VariantOf),
	}
	category, risk, language := p.Category, p.Risk, p.Language

	required := []struct {
		name  string
		value string
	}{
		{"term", v.Term},
		{"meaning", v.Meaning},
		{"category", strings.TrimSpace(category)},
		{"risk", strings.TrimSpace(risk)},
		{"language", strings.TrimSpace(language)},
	}
	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required fields", Fields: missing}
	}

	if !slices.Contains(models.Categories, models.Category(category)) {
		return nil, enumError("category", models.Categories)
	}
	v.Category = models.Category(category)
	if !slices.Contains(models.RiskLevels, models.RiskLevel(risk)) {
		return nil, enumError("risk", models.RiskLevels)
	}
	v.Risk = models.RiskLevel(risk)
	if !slices.Contains(models.Languages, models.Language(language)) {
		return nil, enumError("language", models.Languages)
	}
	v.Language = models.Language(language)

	var examples []indexedExample
	for i, raw := range p.Examples {
		ex := raw.trimmed()
		if ex.blank() {
			continue
		}
		examples = append(examples, indexedExample{index: i, ExamplePayload: ex})
	}
	if len(examples) == 0 {
		return nil, &ValidationError{Message: "at least one example is required", Fields: []string{"examples"}}
	}

	var incomplete []string
	for _, ex := range examples {
		if ex.Quote == "" {
			incomplete = append(incomplete, fmt.Sprintf("examples[%d].quote", ex.index))
		}
		if ex.Platform == "" {
			incomplete = append(incomplete, fmt.Sprintf("examples[%d].platform", ex.index))
		}
	}
	if len(incomplete) > 0 {
		return nil, &ValidationError{Message: "every example needs a quote and a platform", Fields: incomplete}
	}

	harms, err := validateHarms(p.Harms)
	if err != nil {
		return nil, err
	}
	v.Harms = harms

	var badURLs []string
	for _, ex := range examples {
		if ex.URL != "" && !validURL(ex.URL) {
			badURLs = append(badURLs, fmt.Sprintf("examples[%d].url", ex.index))
		}
	}
	if len(badURLs) > 0 {
		return nil, &ValidationError{Message: "example urls must be absolute http(s) links", Fields: badURLs}
	}

	v.Examples = make([]ExamplePayload, len(examples))
	for i, ex := range examples {
		v.Examples[i] = ex.ExamplePayload
	}
	return v, nil
}

// ValidateExample checks a single example added to an existing term.
func ValidateExample(p ExamplePayload) (ExamplePayload, error) {
	ex := p.trimmed()
	var missing []string
	if ex.Quote == "" {
		missing = append(missing, "quote")
	}
	if ex.Platform == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return ExamplePayload{}, &ValidationError{Message: "missing required fields", Fields: missing}
	}
	if ex.URL != "" && !validURL(ex.URL) {
		return ExamplePayload{}, &ValidationError{Message: "url must be an absolute http(s) link", Fields: []string{"url"}}
	}
	return ex, nil
}

// Moderation decisions. The resulting status words are accepted as aliases.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ValidateDecision maps a moderation decision to the status it produces.
func ValidateDecision(decision string) (models.ModerationStatus, error) {
	switch strings.TrimSpace(decision) {
	case DecisionApprove, string(models.StatusApproved):
		return models.StatusApproved, nil
	case DecisionReject, string(models.StatusRejected):
		return models.StatusRejected, nil
	}
	return "", invalidDecision()
}

func invalidDecision() *ValidationError {
	return &ValidationError{
		Message: "invalid decision",
		Fields:  []string{"decision"},
		Options: []string{DecisionApprove, DecisionReject},
	}
}

func validateHarms(raw map[string]string) (models.HarmAnnotations, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	harms := make(models.HarmAnnotations, len(raw))
	for key, detail := range raw {
		harm := models.HarmType(strings.TrimSpace(key))
		if !slices.Contains(models.HarmTypes, harm) {
			return nil, enumError("harms", models.HarmTypes)
		}
		harms[harm] = strings.TrimSpace(detail)
	}
	return harms, nil
}

func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func enumError[T ~string](field string, options []T) *ValidationError {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = string(o)
	}
	return &ValidationError{
		Message: fmt.Sprintf("invalid %s", field),
		Fields:  []string{field},
		Options: names,
	}
}

// ValidateListFilter parses the optional listing filters. Empty values match everything.
func ValidateListFilter(category, language, risk string) (models.TermFilter, error) {
	var filter models.TermFilter
	if category = strings.TrimSpace(category); category != "" {
		if !slices.Contains(models.Categories, models.Category(category)) {
			return filter, enumError("category", models.Categories)
		}
		filter.Category = models.Category(category)
	}
	if language = strings.TrimSpace(language); language != "" {
		if !slices.Contains(models.Languages, models.Language(language)) {
			return filter, enumError("language", models.Languages)
		}
		filter.Language = models.Language(language)
	}
	if risk = strings.TrimSpace(risk); risk != "" {
		if !slices.Contains(models.RiskLevels, models.RiskLevel(risk)) {
			return filter, enumError("risk", models.RiskLevels)
		}
		filter.Risk = models.RiskLevel(risk)
	}
	return filter, nil
}
