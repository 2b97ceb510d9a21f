package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lexicon/models"
)

func TestLedgerService_AppendVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("contributor name comes from the actor", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "term-1").Return(&models.Term{ID: "term-1", Status: models.StatusApproved}, nil).Once()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.TermID == "term-1" && v.Contributor == "Amina" &&
				v.ContributionType == models.ContributionHarmDocumented && v.Summary == "Documented harassment"
		})).Run(func(args mock.Arguments) { args.Get(1).(*models.Version).Number = 3 }).Return(nil).Once()

		v, err := service.AppendVersion(ctx, contributor, "term-1", models.ContributionHarmDocumented, " Documented harassment ")
		require.NoError(t, err)
		assert.Equal(t, 3, v.Number)
		versions.AssertExpectations(t)
	})

	t.Run("unknown contribution type", func(t *testing.T) {
		service := NewLedgerService(new(MockTermRepository), new(MockVersionRepository), nil)

		_, err := service.AppendVersion(ctx, contributor, "term-1", models.ContributionType("vandalism"), "")
		verr := requireValidationError(t, err)
		assert.Equal(t, []string{"contribution_type"}, verr.Fields)
		assert.Len(t, verr.Options, len(models.ContributionTypes))
	})

	t.Run("anonymous actors cannot append", func(t *testing.T) {
		versions := new(MockVersionRepository)
		service := NewLedgerService(new(MockTermRepository), versions, nil)

		_, err := service.AppendVersion(ctx, anonymous, "term-1", models.ContributionEdit, "")
		var authErr *AuthorizationError
		assert.True(t, errors.As(err, &authErr))
		versions.AssertNotCalled(t, "AppendVersion", mock.Anything, mock.Anything)
	})

	t.Run("store failure is retryable", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		terms.On("GetTermByID", ctx, "term-1").Return(&models.Term{ID: "term-1", Status: models.StatusApproved}, nil).Once()
		versions.On("AppendVersion", ctx, mock.Anything).Return(errors.New("database is locked")).Once()

		_, err := service.AppendVersion(ctx, contributor, "term-1", models.ContributionEdit, "")
		var perr *PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.True(t, perr.Retryable())
	})

	t.Run("someone else's pending term is hidden", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		pending := &models.Term{ID: "term-2", Status: models.StatusPending, SubmittedBy: "user-2"}
		terms.On("GetTermByID", ctx, "term-2").Return(pending, nil).Twice()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.TermID == "term-2" && v.Contributor == "Moderator"
		})).Return(nil).Once()

		_, err := service.AppendVersion(ctx, contributor, "term-2", models.ContributionEdit, "sneaky")
		assert.ErrorIs(t, err, ErrNotFound)
		versions.AssertNotCalled(t, "AppendVersion", mock.Anything, mock.Anything)

		_, err = service.AppendVersion(ctx, admin, "term-2", models.ContributionEdit, "")
		require.NoError(t, err)
		terms.AssertExpectations(t)
		versions.AssertExpectations(t)
	})

	t.Run("submitter can extend their own pending term", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		terms.On("GetTermByID", ctx, "term-3").Return(&models.Term{ID: "term-3", Status: models.StatusPending, SubmittedBy: "user-1"}, nil).Once()
		versions.On("AppendVersion", ctx, mock.Anything).Return(nil).Once()

		_, err := service.AppendVersion(ctx, contributor, "term-3", models.ContributionEdit, "")
		require.NoError(t, err)
		versions.AssertExpectations(t)
	})

	t.Run("missing term", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		terms.On("GetTermByID", ctx, "x").Return(nil, nil).Once()

		_, err := service.AppendVersion(ctx, contributor, "x", models.ContributionEdit, "")
		assert.ErrorIs(t, err, ErrNotFound)
		versions.AssertNotCalled(t, "AppendVersion", mock.Anything, mock.Anything)
	})
}

func TestLedgerService_ListVersions(t *testing.T) {
	ctx := context.Background()
	history := []*models.Version{{Number: 1}, {Number: 2}}

	t.Run("approved term is public", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		terms.On("GetTermByID", ctx, "a").Return(&models.Term{ID: "a", Status: models.StatusApproved}, nil).Once()
		versions.On("ListVersions", ctx, "a").Return(history, nil).Once()

		got, err := service.ListVersions(ctx, anonymous, "a")
		require.NoError(t, err)
		assert.Equal(t, history, got)
	})

	t.Run("rejected term is admin only", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewLedgerService(terms, versions, nil)
		terms.On("GetTermByID", ctx, "r").Return(&models.Term{ID: "r", Status: models.StatusRejected}, nil).Twice()
		versions.On("ListVersions", ctx, "r").Return(history, nil).Once()

		_, err := service.ListVersions(ctx, anonymous, "r")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = service.ListVersions(ctx, admin, "r")
		assert.NoError(t, err)
		versions.AssertExpectations(t)
	})

	t.Run("missing term", func(t *testing.T) {
		terms := new(MockTermRepository)
		service := NewLedgerService(terms, new(MockVersionRepository), nil)
		terms.On("GetTermByID", ctx, "x").Return(nil, nil).Once()

		_, err := service.ListVersions(ctx, admin, "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
