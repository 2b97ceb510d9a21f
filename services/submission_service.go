package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"lexicon/models"
	"lexicon/repository"
)

// Stages reported in a PartialWriteWarning.
const (
	StageExamples       = "examples"
	StageInitialVersion = "initial_version"
	StageVariantLink    = "variant_link"
	StageExampleVersion = "example_version"
)

// SubmissionResult is the outcome of a successful submission. Warnings lists
// dependent writes that failed after the term itself was saved.
type SubmissionResult struct {
	Term     *models.Term
	Warnings []*PartialWriteWarning
}

// ExampleResult is the outcome of adding an example to an existing term.
type ExampleResult struct {
	Example  *models.Example
	Version  *models.Version
	Warnings []*PartialWriteWarning
}

// SubmissionService accepts new terms and new examples from contributors.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, payload SubmissionPayload) (*SubmissionResult, error)
	AddExample(ctx context.Context, actor Actor, termID string, payload ExamplePayload) (*ExampleResult, error)
}

type submissionService struct {
	terms    repository.TermRepository
	versions repository.VersionRepository
	metrics  *Metrics
}

// NewSubmissionService creates a new instance of SubmissionService.
func NewSubmissionService(terms repository.TermRepository, versions repository.VersionRepository, metrics *Metrics) SubmissionService {
	return &submissionService{terms: terms, versions: versions, metrics: metrics}
}

// Submit validates payload and stores it as a pending term. Once the term row
// is written the submission succeeds; failures writing its examples or ledger
// entries are returned as warnings and never roll the term back.
func (s *submissionService) Submit(ctx context.Context, actor Actor, payload SubmissionPayload) (*SubmissionResult, error) {
	if err := Authorize(actor, CapabilityContributor); err != nil {
		return nil, err
	}
	sub, err := ValidateSubmission(payload)
	if err != nil {
		s.metrics.submission("invalid")
		return nil, err
	}

	var parent *models.Term
	if sub.VariantOf != "" {
		parent, err = s.terms.GetTermByID(ctx, sub.VariantOf)
		if err != nil {
			return nil, persistenceError("fetch variant parent", err)
		}
		if parent == nil || parent.Status == models.StatusRejected {
			s.metrics.submission("invalid")
			return nil, &ValidationError{Message: "variant_of does not name an existing term", Fields: []string{"variant_of"}}
		}
	}

	term := &models.Term{
		Term:         sub.Term,
		LiteralGloss: sub.LiteralGloss,
		Meaning:      sub.Meaning,
		Category:     sub.Category,
		Risk:         sub.Risk,
		Language:     sub.Language,
		Registers:    sub.Registers,
		Markers:      sub.Markers,
		TargetGroup:  sub.TargetGroup,
		Origin:       sub.Origin,
		Notes:        sub.Notes,
		Harms:        datatypes.NewJSONType(sub.Harms),
		Status:       models.StatusPending,
		SubmittedBy:  actor.UserID,
	}
	if parent != nil {
		term.VariantOfID = &parent.ID
	}
	if err := s.terms.CreateTerm(ctx, term); err != nil {
		s.metrics.submission("failed")
		return nil, persistenceError("create term", err)
	}

	result := &SubmissionResult{Term: term}
	warn := func(stage string, err error) {
		w := &PartialWriteWarning{TermID: term.ID, Stage: stage, Err: err}
		result.Warnings = append(result.Warnings, w)
		s.metrics.partialWrite(stage)
		slog.Warn("[SubmissionService] Partial write", "component", "submission",
			"term_id", term.ID, "stage", stage, "error", err)
	}

	examples := make([]models.Example, len(sub.Examples))
	for i, ex := range sub.Examples {
		examples[i] = newExample(term.ID, i, ex)
	}
	if err := s.terms.CreateExamples(ctx, examples); err != nil {
		warn(StageExamples, err)
	} else {
		term.Examples = examples
	}

	if _, err := appendVersion(ctx, s.versions, s.metrics, &models.Version{
		TermID:           term.ID,
		ContributionType: models.ContributionInitial,
		Contributor:      actor.DisplayName,
		Summary:          "Initial submission",
	}); err != nil {
		warn(StageInitialVersion, err)
	}

	if parent != nil {
		if _, err := appendVersion(ctx, s.versions, s.metrics, &models.Version{
			TermID:           parent.ID,
			ContributionType: models.ContributionVariantAdded,
			Contributor:      actor.DisplayName,
			Summary:          fmt.Sprintf("Variant spelling %q submitted", term.Term),
		}); err != nil {
			warn(StageVariantLink, err)
		}
	}

	if len(result.Warnings) > 0 {
		s.metrics.submission("partial")
	} else {
		s.metrics.submission("accepted")
	}
	slog.Info("[SubmissionService] Accepted submission", "component", "submission",
		"term_id", term.ID, "examples", len(examples), "warnings", len(result.Warnings))
	return result, nil
}

// AddExample attaches a new pending example to a term that is not rejected
// and records an example_added ledger entry.
func (s *submissionService) AddExample(ctx context.Context, actor Actor, termID string, payload ExamplePayload) (*ExampleResult, error) {
	if err := Authorize(actor, CapabilityContributor); err != nil {
		return nil, err
	}
	ex, err := ValidateExample(payload)
	if err != nil {
		return nil, err
	}
	term, err := s.terms.GetTermByID(ctx, termID)
	if err != nil {
		return nil, persistenceError("fetch term", err)
	}
	if term == nil || !visibleTo(term, actor) {
		return nil, ErrNotFound
	}
	if term.Status == models.StatusRejected {
		return nil, ErrInvalidTransition
	}

	example := newExample(term.ID, len(term.Examples), ex)
	examples := []models.Example{example}
	if err := s.terms.CreateExamples(ctx, examples); err != nil {
		return nil, persistenceError("create example", err)
	}
	result := &ExampleResult{Example: &examples[0]}

	version, err := appendVersion(ctx, s.versions, s.metrics, &models.Version{
		TermID:           term.ID,
		ContributionType: models.ContributionExampleAdded,
		Contributor:      actor.DisplayName,
		Summary:          fmt.Sprintf("Added example from %s", ex.Platform),
	})
	if err != nil {
		s.metrics.partialWrite(StageExampleVersion)
		slog.Warn("[SubmissionService] Partial write", "component", "submission",
			"term_id", term.ID, "stage", StageExampleVersion, "error", err)
		result.Warnings = append(result.Warnings, &PartialWriteWarning{TermID: term.ID, Stage: StageExampleVersion, Err: err})
	} else {
		result.Version = version
	}
	return result, nil
}

func newExample(termID string, position int, ex ExamplePayload) models.Example {
	return models.Example{
		TermID:   termID,
		Quote:    ex.Quote,
		Platform: ex.Platform,
		Date:     ex.Date,
		URL:      ex.URL,
		Context:  ex.Context,
		Position: position,
		Status:   models.StatusPending,
	}
}
