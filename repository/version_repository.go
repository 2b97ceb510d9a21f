package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lexicon/models"
)

// ErrTermNotFound is returned by writes that reference a term that does not exist.
var ErrTermNotFound = errors.New("term not found")

// VersionRepository is the append-only store behind the term history ledger.
type VersionRepository interface {
	// AppendVersion assigns the next number for version.TermID and inserts it.
	AppendVersion(ctx context.Context, version *models.Version) error
	ListVersions(ctx context.Context, termID string) ([]*models.Version, error)
}

// VersionRepositoryOption configures a VersionRepository.
type VersionRepositoryOption func(*versionRepository)

// WithMaxAppendRetries bounds how often a conflicting append is retried.
func WithMaxAppendRetries(n uint64) VersionRepositoryOption {
	return func(r *versionRepository) { r.maxRetries = n }
}

// WithRetryHook registers a callback invoked before every append retry.
func WithRetryHook(fn func(err error)) VersionRepositoryOption {
	return func(r *versionRepository) { r.onRetry = fn }
}

type versionRepository struct {
	db         *gorm.DB
	maxRetries uint64
	onRetry    func(error)
}

// NewVersionRepository creates a new instance of VersionRepository.
func NewVersionRepository(db *gorm.DB, opts ...VersionRepositoryOption) VersionRepository {
	r := &versionRepository{db: db, maxRetries: 8}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AppendVersion reads the current maximum number and inserts max+1 inside one
// transaction. The (term_id, number) unique index rejects a racing writer that
// read the same maximum; that writer retries the whole transaction with
// exponential backoff. Postgres additionally locks the parent term row.
func (r *versionRepository) AppendVersion(ctx context.Context, version *models.Version) error {
	if version == nil {
		return errors.New("version cannot be nil")
	}
	if version.TermID == "" {
		return errors.New("version must be associated with a term")
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	b := backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx)

	attempt := func() error {
		err := r.appendOnce(ctx, version)
		if err == nil {
			return nil
		}
		if isAppendConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("[VersionRepository] Version append conflicted, retrying",
			"component", "repository", "term_id", version.TermID, "wait", wait, "error", err)
		if r.onRetry != nil {
			r.onRetry(err)
		}
	}

	if err := backoff.RetryNotify(attempt, b, notify); err != nil {
		if errors.Is(err, ErrTermNotFound) {
			return err
		}
		slog.Error("[VersionRepository] Failed to append version", "component", "repository", "term_id", version.TermID, "error", err)
		return fmt.Errorf("failed to append version for term %s: %w", version.TermID, err)
	}
	slog.Info("[VersionRepository] Appended version", "component", "repository",
		"term_id", version.TermID, "number", version.Number, "type", version.ContributionType)
	return nil
}

func (r *versionRepository) appendOnce(ctx context.Context, version *models.Version) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		parent := tx.Model(&models.Term{}).Select("id").Where("id = ?", version.TermID)
		if tx.Dialector.Name() == "postgres" {
			parent = parent.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var found []string
		if err := parent.Pluck("id", &found).Error; err != nil {
			return err
		}
		if len(found) == 0 {
			return ErrTermNotFound
		}

		var current int
		row := tx.Model(&models.Version{}).
			Select("COALESCE(MAX(number), 0)").
			Where("term_id = ?", version.TermID).
			Row()
		if err := row.Scan(&current); err != nil {
			return err
		}

		version.ID = ""
		version.Number = current + 1
		return tx.Create(version).Error
	})
}

// ListVersions returns the ledger for a term ordered by number ascending.
func (r *versionRepository) ListVersions(ctx context.Context, termID string) ([]*models.Version, error) {
	var versions []*models.Version
	err := r.db.WithContext(ctx).
		Where("term_id = ?", termID).
		Order("number asc").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions for term %s: %w", termID, err)
	}
	return versions, nil
}

// isAppendConflict reports whether err is a lost race that is safe to retry:
// a duplicate (term_id, number), a busy SQLite database or a Postgres
// serialization failure.
func isAppendConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{
		"unique",
		"constraint failed",
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"could not serialize",
		"deadlock detected",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
