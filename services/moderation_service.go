package services

import (
	"context"
	"log/slog"
	"strings"

	"lexicon/models"
	"lexicon/repository"
)

// ModerationService moves terms and examples out of the pending state and
// serves the read paths whose visibility depends on that state.
type ModerationService interface {
	Moderate(ctx context.Context, actor Actor, termID string, decision models.ModerationStatus, note string) (*models.Term, error)
	ModerateExample(ctx context.Context, actor Actor, exampleID string, decision models.ModerationStatus) (*models.Example, error)
	ListPendingQueue(ctx context.Context, actor Actor, limit, offset int) ([]*models.Term, error)
	ListApproved(ctx context.Context, filter models.TermFilter) ([]*models.Term, error)
	GetTerm(ctx context.Context, actor Actor, termID string) (*models.Term, error)
}

type moderationService struct {
	terms   repository.TermRepository
	metrics *Metrics
}

// NewModerationService creates a new instance of ModerationService.
func NewModerationService(terms repository.TermRepository, metrics *Metrics) ModerationService {
	return &moderationService{terms: terms, metrics: metrics}
}

// Moderate applies an admin decision to a pending term. Examples still
// pending on the term follow the same decision.
func (s *moderationService) Moderate(ctx context.Context, actor Actor, termID string, decision models.ModerationStatus, note string) (*models.Term, error) {
	if err := Authorize(actor, CapabilityAdmin); err != nil {
		slog.Warn("[ModerationService] Unauthorized moderation attempt", "component", "moderation",
			"term_id", termID, "actor", actor.UserID, "capability", actor.Capability.String())
		return nil, err
	}
	if !decision.IsTerminal() {
		return nil, invalidDecision()
	}

	applied, err := s.terms.TransitionTerm(ctx, termID, decision, actor.UserID, strings.TrimSpace(note))
	if err != nil {
		return nil, persistenceError("moderate term", err)
	}
	term, err := s.terms.GetTermByID(ctx, termID)
	if err != nil {
		return nil, persistenceError("fetch term", err)
	}
	if term == nil {
		return nil, ErrNotFound
	}
	if !applied {
		slog.Info("[ModerationService] Term already decided", "component", "moderation",
			"term_id", termID, "status", term.Status, "requested", decision)
		return term, ErrInvalidTransition
	}
	s.metrics.decision("term", decision)
	slog.Info("[ModerationService] Moderated term", "component", "moderation",
		"term_id", termID, "decision", decision, "reviewer", actor.UserID)
	return term, nil
}

// ModerateExample applies an admin decision to a single pending example.
func (s *moderationService) ModerateExample(ctx context.Context, actor Actor, exampleID string, decision models.ModerationStatus) (*models.Example, error) {
	if err := Authorize(actor, CapabilityAdmin); err != nil {
		return nil, err
	}
	if !decision.IsTerminal() {
		return nil, invalidDecision()
	}

	applied, err := s.terms.TransitionExample(ctx, exampleID, decision)
	if err != nil {
		return nil, persistenceError("moderate example", err)
	}
	example, err := s.terms.GetExampleByID(ctx, exampleID)
	if err != nil {
		return nil, persistenceError("fetch example", err)
	}
	if example == nil {
		return nil, ErrNotFound
	}
	if !applied {
		return example, ErrInvalidTransition
	}
	s.metrics.decision("example", decision)
	slog.Info("[ModerationService] Moderated example", "component", "moderation",
		"example_id", exampleID, "term_id", example.TermID, "decision", decision)
	return example, nil
}

// ListPendingQueue returns pending terms, oldest first.
func (s *moderationService) ListPendingQueue(ctx context.Context, actor Actor, limit, offset int) ([]*models.Term, error) {
	if err := Authorize(actor, CapabilityAdmin); err != nil {
		return nil, err
	}
	terms, err := s.terms.ListTerms(ctx, models.TermFilter{
		Status:      models.StatusPending,
		OldestFirst: true,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, persistenceError("list pending terms", err)
	}
	return terms, nil
}

// ListApproved returns approved terms, newest first, with only their approved
// examples. The status fields of filter are always overridden.
func (s *moderationService) ListApproved(ctx context.Context, filter models.TermFilter) ([]*models.Term, error) {
	filter.Status = models.StatusApproved
	filter.ExampleStatus = models.StatusApproved
	filter.OldestFirst = false
	terms, err := s.terms.ListTerms(ctx, filter)
	if err != nil {
		return nil, persistenceError("list approved terms", err)
	}
	return terms, nil
}

// GetTerm returns a single term if actor may see it. Non-admins only see the
// approved examples of an approved term.
func (s *moderationService) GetTerm(ctx context.Context, actor Actor, termID string) (*models.Term, error) {
	term, err := s.terms.GetTermByID(ctx, termID)
	if err != nil {
		return nil, persistenceError("fetch term", err)
	}
	if term == nil || !visibleTo(term, actor) {
		return nil, ErrNotFound
	}
	if actor.Capability < CapabilityAdmin && term.Status == models.StatusApproved {
		approved := make([]models.Example, 0, len(term.Examples))
		for _, ex := range term.Examples {
			if ex.Status == models.StatusApproved {
				approved = append(approved, ex)
			}
		}
		term.Examples = approved
	}
	return term, nil
}
