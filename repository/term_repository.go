package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lexicon/models"
)

// TermRepository defines the interface for interacting with terms and their examples.
type TermRepository interface {
	CreateTerm(ctx context.Context, term *models.Term) error
	CreateExamples(ctx context.Context, examples []models.Example) error
	GetTermByID(ctx context.Context, termID string) (*models.Term, error)
	ListTerms(ctx context.Context, filter models.TermFilter) ([]*models.Term, error)
	ListTermSummaries(ctx context.Context) ([]models.TermSummary, error)
	TransitionTerm(ctx context.Context, termID string, to models.ModerationStatus, reviewer, note string) (bool, error)
	GetExampleByID(ctx context.Context, exampleID string) (*models.Example, error)
	TransitionExample(ctx context.Context, exampleID string, to models.ModerationStatus) (bool, error)
}

type termRepository struct {
	db *gorm.DB
}

// NewTermRepository creates a new instance of TermRepository.
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db}
}

// CreateTerm inserts the term row only. Examples are written separately by
// CreateExamples so a failure there leaves a self-consistent term behind.
func (r *termRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	if term == nil {
		return errors.New("term cannot be nil")
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(term).Error; err != nil {
		slog.Error("[TermRepository] Failed to create term", "component", "repository", "term", term.Term, "error", err)
		return fmt.Errorf("failed to create term '%s': %w", term.Term, err)
	}
	slog.Info("[TermRepository] Created term", "component", "repository", "term_id", term.ID, "status", term.Status)
	return nil
}

// CreateExamples inserts a batch of examples in a single statement.
func (r *termRepository) CreateExamples(ctx context.Context, examples []models.Example) error {
	if len(examples) == 0 {
		return nil
	}
	for _, ex := range examples {
		if ex.TermID == "" {
			return errors.New("example must be associated with a term")
		}
	}
	if err := r.db.WithContext(ctx).Create(&examples).Error; err != nil {
		slog.Error("[TermRepository] Failed to create examples", "component", "repository",
			"term_id", examples[0].TermID, "count", len(examples), "error", err)
		return fmt.Errorf("failed to create %d examples for term %s: %w", len(examples), examples[0].TermID, err)
	}
	slog.Info("[TermRepository] Created examples", "component", "repository", "term_id", examples[0].TermID, "count", len(examples))
	return nil
}

// GetTermByID retrieves a term with all of its examples in submission order.
// It returns (nil, nil) when the term does not exist.
func (r *termRepository) GetTermByID(ctx context.Context, termID string) (*models.Term, error) {
	var term models.Term
	err := r.db.WithContext(ctx).
		Preload("Examples", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, created_at asc") }).
		First(&term, "id = ?", termID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			slog.Debug("[TermRepository] Term not found", "component", "repository", "term_id", termID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve term %s: %w", termID, err)
	}
	return &term, nil
}

// ListTerms returns terms matching filter, newest first unless OldestFirst is set.
func (r *termRepository) ListTerms(ctx context.Context, filter models.TermFilter) ([]*models.Term, error) {
	q := r.db.WithContext(ctx).Model(&models.Term{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Language != "" {
		q = q.Where("language = ?", filter.Language)
	}
	if filter.Risk != "" {
		q = q.Where("risk = ?", filter.Risk)
	}
	if filter.OldestFirst {
		q = q.Order("created_at asc").Order("id asc")
	} else {
		q = q.Order("created_at desc").Order("id desc")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	exampleStatus := filter.ExampleStatus
	q = q.Preload("Examples", func(db *gorm.DB) *gorm.DB {
		if exampleStatus != "" {
			db = db.Where("status = ?", exampleStatus)
		}
		return db.Order("position asc, created_at asc")
	})

	var terms []*models.Term
	if err := q.Find(&terms).Error; err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	slog.Debug("[TermRepository] Listed terms", "component", "repository", "count", len(terms), "status", filter.Status)
	return terms, nil
}

// ListTermSummaries returns id, text and creation time of every term that is
// not rejected, oldest first.
func (r *termRepository) ListTermSummaries(ctx context.Context) ([]models.TermSummary, error) {
	var summaries []models.TermSummary
	err := r.db.WithContext(ctx).Model(&models.Term{}).
		Select("id", "term", "created_at").
		Where("status <> ?", models.StatusRejected).
		Order("created_at asc").
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list term summaries: %w", err)
	}
	return summaries, nil
}

// TransitionTerm moves a pending term to the given status and applies the same
// decision to its examples that are still pending. The update only matches
// pending rows, so it reports false when the term is missing or already terminal.
func (r *termRepository) TransitionTerm(ctx context.Context, termID string, to models.ModerationStatus, reviewer, note string) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Term{}).
			Where("id = ? AND status = ?", termID, models.StatusPending).
			Updates(map[string]any{
				"status":      to,
				"reviewed_by": reviewer,
				"review_note": note,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return tx.Model(&models.Example{}).
			Where("term_id = ? AND status = ?", termID, models.StatusPending).
			Update("status", to).Error
	})
	if err != nil {
		slog.Error("[TermRepository] Failed to transition term", "component", "repository", "term_id", termID, "to", to, "error", err)
		return false, fmt.Errorf("failed to transition term %s to %s: %w", termID, to, err)
	}
	if applied {
		slog.Info("[TermRepository] Transitioned term", "component", "repository", "term_id", termID, "to", to, "reviewer", reviewer)
	}
	return applied, nil
}

// GetExampleByID retrieves a single example. It returns (nil, nil) when missing.
func (r *termRepository) GetExampleByID(ctx context.Context, exampleID string) (*models.Example, error) {
	var example models.Example
	if err := r.db.WithContext(ctx).First(&example, "id = ?", exampleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve example %s: %w", exampleID, err)
	}
	return &example, nil
}

// TransitionExample moves a pending example to the given status.
func (r *termRepository) TransitionExample(ctx context.Context, exampleID string, to models.ModerationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Example{}).
		Where("id = ? AND status = ?", exampleID, models.StatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition example %s to %s: %w", exampleID, to, res.Error)
	}
	if res.RowsAffected > 0 {
		slog.Info("[TermRepository] Transitioned example", "component", "repository", "example_id", exampleID, "to", to)
	}
	return res.RowsAffected > 0, nil
}
