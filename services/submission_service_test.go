package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lexicon/models"
	"lexicon/repository"
)

func assignTermID(id string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		args.Get(1).(*models.Term).ID = id
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a pending term with examples and an initial version", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("CreateTerm", ctx, mock.MatchedBy(func(term *models.Term) bool {
			return term.Term == "mjukuu" && term.Status == models.StatusPending && term.SubmittedBy == "user-1"
		})).Run(assignTermID("term-1")).Return(nil).Once()
		terms.On("CreateExamples", ctx, mock.MatchedBy(func(examples []models.Example) bool {
			return len(examples) == 1 && examples[0].TermID == "term-1" &&
				examples[0].Status == models.StatusPending && examples[0].Position == 0
		})).Return(nil).Once()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.TermID == "term-1" && v.ContributionType == models.ContributionInitial && v.Contributor == "Amina"
		})).Run(func(args mock.Arguments) { args.Get(1).(*models.Version).Number = 1 }).Return(nil).Once()

		result, err := service.Submit(ctx, contributor, validPayload())
		require.NoError(t, err)
		assert.Equal(t, "term-1", result.Term.ID)
		assert.Equal(t, models.StatusPending, result.Term.Status)
		assert.Empty(t, result.Warnings)
		assert.Len(t, result.Term.Examples, 1)
		terms.AssertExpectations(t)
		versions.AssertExpectations(t)
	})

	t.Run("anonymous actors cannot submit", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		_, err := service.Submit(ctx, anonymous, validPayload())
		var authErr *AuthorizationError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, CapabilityContributor, authErr.Required)
		terms.AssertNotCalled(t, "CreateTerm", mock.Anything, mock.Anything)
	})

	t.Run("invalid payload never reaches the store", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		p := validPayload()
		p.Category = "Funny"
		_, err := service.Submit(ctx, contributor, p)
		verr := requireValidationError(t, err)
		assert.Equal(t, []string{"category"}, verr.Fields)
		terms.AssertNotCalled(t, "CreateTerm", mock.Anything, mock.Anything)
	})

	t.Run("term write failure is a persistence error", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("CreateTerm", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := service.Submit(ctx, contributor, validPayload())
		var perr *PersistenceError
		require.True(t, errors.As(err, &perr))
		assert.True(t, perr.Retryable())
		versions.AssertNotCalled(t, "AppendVersion", mock.Anything, mock.Anything)
	})

	t.Run("failed dependent writes become warnings", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("CreateTerm", ctx, mock.Anything).Run(assignTermID("term-2")).Return(nil).Once()
		terms.On("CreateExamples", ctx, mock.Anything).Return(errors.New("examples table locked")).Once()
		versions.On("AppendVersion", ctx, mock.Anything).Return(errors.New("timeout")).Once()

		result, err := service.Submit(ctx, contributor, validPayload())
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, result.Term.Status)
		require.Len(t, result.Warnings, 2)
		assert.Equal(t, StageExamples, result.Warnings[0].Stage)
		assert.Equal(t, StageInitialVersion, result.Warnings[1].Stage)
		assert.Equal(t, "term-2", result.Warnings[0].TermID)
		terms.AssertExpectations(t)
		versions.AssertExpectations(t)
	})

	t.Run("variant submissions link to the parent ledger", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		parent := &models.Term{ID: "parent-1", Term: "mjukuu", Status: models.StatusApproved}
		terms.On("GetTermByID", ctx, "parent-1").Return(parent, nil).Once()
		terms.On("CreateTerm", ctx, mock.MatchedBy(func(term *models.Term) bool {
			return term.VariantOfID != nil && *term.VariantOfID == "parent-1"
		})).Run(assignTermID("term-3")).Return(nil).Once()
		terms.On("CreateExamples", ctx, mock.Anything).Return(nil).Once()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.TermID == "term-3" && v.ContributionType == models.ContributionInitial
		})).Return(nil).Once()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.TermID == "parent-1" && v.ContributionType == models.ContributionVariantAdded
		})).Return(nil).Once()

		p := validPayload()
		p.Term = "mjukkuu"
		p.VariantOf = "parent-1"
		result, err := service.Submit(ctx, contributor, p)
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
		terms.AssertExpectations(t)
		versions.AssertExpectations(t)
	})

	t.Run("unknown variant parent", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "ghost").Return(nil, nil).Once()

		p := validPayload()
		p.VariantOf = "ghost"
		_, err := service.Submit(ctx, contributor, p)
		verr := requireValidationError(t, err)
		assert.Equal(t, []string{"variant_of"}, verr.Fields)
		terms.AssertNotCalled(t, "CreateTerm", mock.Anything, mock.Anything)
	})
}

func TestSubmissionService_AddExample(t *testing.T) {
	ctx := context.Background()
	approved := func() *models.Term {
		return &models.Term{
			ID:       "term-1",
			Status:   models.StatusApproved,
			Examples: []models.Example{{ID: "ex-1", Status: models.StatusApproved}},
		}
	}

	t.Run("appends a pending example and an example_added entry", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "term-1").Return(approved(), nil).Once()
		terms.On("CreateExamples", ctx, mock.MatchedBy(func(examples []models.Example) bool {
			return len(examples) == 1 && examples[0].Position == 1 && examples[0].Status == models.StatusPending
		})).Return(nil).Once()
		versions.On("AppendVersion", ctx, mock.MatchedBy(func(v *models.Version) bool {
			return v.ContributionType == models.ContributionExampleAdded && v.Contributor == "Amina"
		})).Run(func(args mock.Arguments) { args.Get(1).(*models.Version).Number = 4 }).Return(nil).Once()

		result, err := service.AddExample(ctx, contributor, "term-1", ExamplePayload{Quote: "q", Platform: "TikTok"})
		require.NoError(t, err)
		assert.Equal(t, "q", result.Example.Quote)
		require.NotNil(t, result.Version)
		assert.Equal(t, 4, result.Version.Number)
		assert.Empty(t, result.Warnings)
		terms.AssertExpectations(t)
		versions.AssertExpectations(t)
	})

	t.Run("ledger failure is a warning", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "term-1").Return(approved(), nil).Once()
		terms.On("CreateExamples", ctx, mock.Anything).Return(nil).Once()
		versions.On("AppendVersion", ctx, mock.Anything).Return(errors.New("busy")).Once()

		result, err := service.AddExample(ctx, contributor, "term-1", ExamplePayload{Quote: "q", Platform: "TikTok"})
		require.NoError(t, err)
		assert.Nil(t, result.Version)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, StageExampleVersion, result.Warnings[0].Stage)
	})

	t.Run("unknown or hidden term", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "missing").Return(nil, nil).Once()
		terms.On("GetTermByID", ctx, "someone-elses").
			Return(&models.Term{ID: "someone-elses", Status: models.StatusPending, SubmittedBy: "user-9"}, nil).Once()

		_, err := service.AddExample(ctx, contributor, "missing", ExamplePayload{Quote: "q", Platform: "p"})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = service.AddExample(ctx, contributor, "someone-elses", ExamplePayload{Quote: "q", Platform: "p"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejected term", func(t *testing.T) {
		terms := new(MockTermRepository)
		versions := new(MockVersionRepository)
		service := NewSubmissionService(terms, versions, nil)

		terms.On("GetTermByID", ctx, "term-r").
			Return(&models.Term{ID: "term-r", Status: models.StatusRejected, SubmittedBy: "user-1"}, nil).Once()

		_, err := service.AddExample(ctx, contributor, "term-r", ExamplePayload{Quote: "q", Platform: "p"})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestAppendVersionMapsMissingTerm(t *testing.T) {
	versions := new(MockVersionRepository)
	versions.On("AppendVersion", mock.Anything, mock.Anything).Return(repository.ErrTermNotFound).Once()

	_, err := appendVersion(context.Background(), versions, nil, &models.Version{TermID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}
