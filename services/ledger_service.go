package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"lexicon/models"
	"lexicon/repository"
)

// LedgerService manages the append-only version history of terms.
type LedgerService interface {
	AppendVersion(ctx context.Context, actor Actor, termID string, contributionType models.ContributionType, summary string) (*models.Version, error)
	ListVersions(ctx context.Context, actor Actor, termID string) ([]*models.Version, error)
}

type ledgerService struct {
	terms    repository.TermRepository
	versions repository.VersionRepository
	metrics  *Metrics
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(terms repository.TermRepository, versions repository.VersionRepository, metrics *Metrics) LedgerService {
	return &ledgerService{terms: terms, versions: versions, metrics: metrics}
}

// AppendVersion records a contribution by actor on a term actor can see.
// The contributor name is taken from the actor, never from the request body.
func (s *ledgerService) AppendVersion(ctx context.Context, actor Actor, termID string, contributionType models.ContributionType, summary string) (*models.Version, error) {
	if err := Authorize(actor, CapabilityContributor); err != nil {
		return nil, err
	}
	if !contributionType.Valid() {
		return nil, enumError("contribution_type", models.ContributionTypes)
	}
	term, err := s.terms.GetTermByID(ctx, termID)
	if err != nil {
		return nil, persistenceError("fetch term", err)
	}
	if term == nil || !visibleTo(term, actor) {
		return nil, ErrNotFound
	}
	return appendVersion(ctx, s.versions, s.metrics, &models.Version{
		TermID:           termID,
		ContributionType: contributionType,
		Contributor:      actor.DisplayName,
		Summary:          strings.TrimSpace(summary),
	})
}

// ListVersions returns the history of a term, oldest first. The history of a
// term that is not approved is only visible to admins.
func (s *ledgerService) ListVersions(ctx context.Context, actor Actor, termID string) ([]*models.Version, error) {
	term, err := s.terms.GetTermByID(ctx, termID)
	if err != nil {
		return nil, persistenceError("fetch term", err)
	}
	if term == nil || !visibleTo(term, actor) {
		return nil, ErrNotFound
	}
	versions, err := s.versions.ListVersions(ctx, termID)
	if err != nil {
		return nil, persistenceError("list versions", err)
	}
	return versions, nil
}

func appendVersion(ctx context.Context, versions repository.VersionRepository, metrics *Metrics, version *models.Version) (*models.Version, error) {
	if err := versions.AppendVersion(ctx, version); err != nil {
		if errors.Is(err, repository.ErrTermNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistenceError("append version", err)
	}
	metrics.versionAppended(version.ContributionType)
	slog.Info("[LedgerService] Appended version", "component", "ledger",
		"term_id", version.TermID, "number", version.Number, "contribution_type", version.ContributionType)
	return version, nil
}

// visibleTo reports whether actor may read term. Besides admins, only the
// submitter can see a term that is not approved.
func visibleTo(term *models.Term, actor Actor) bool {
	switch {
	case term.Status == models.StatusApproved:
		return true
	case actor.Capability >= CapabilityAdmin:
		return true
	default:
		return actor.UserID != "" && term.SubmittedBy == actor.UserID
	}
}
