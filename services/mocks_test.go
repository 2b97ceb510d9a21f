package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lexicon/models"
)

// MockTermRepository is a mock type for the TermRepository interface
type MockTermRepository struct {
	mock.Mock
}

func (m *MockTermRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	args := m.Called(ctx, term)
	return args.Error(0)
}

func (m *MockTermRepository) CreateExamples(ctx context.Context, examples []models.Example) error {
	args := m.Called(ctx, examples)
	return args.Error(0)
}

func (m *MockTermRepository) GetTermByID(ctx context.Context, termID string) (*models.Term, error) {
	args := m.Called(ctx, termID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Term), args.Error(1)
}

func (m *MockTermRepository) ListTerms(ctx context.Context, filter models.TermFilter) ([]*models.Term, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Term), args.Error(1)
}

func (m *MockTermRepository) ListTermSummaries(ctx context.Context) ([]models.TermSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TermSummary), args.Error(1)
}

func (m *MockTermRepository) TransitionTerm(ctx context.Context, termID string, to models.ModerationStatus, reviewer, note string) (bool, error) {
	args := m.Called(ctx, termID, to, reviewer, note)
	return args.Bool(0), args.Error(1)
}

func (m *MockTermRepository) GetExampleByID(ctx context.Context, exampleID string) (*models.Example, error) {
	args := m.Called(ctx, exampleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Example), args.Error(1)
}

func (m *MockTermRepository) TransitionExample(ctx context.Context, exampleID string, to models.ModerationStatus) (bool, error) {
	args := m.Called(ctx, exampleID, to)
	return args.Bool(0), args.Error(1)
}

// MockVersionRepository is a mock type for the VersionRepository interface
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) AppendVersion(ctx context.Context, version *models.Version) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionRepository) ListVersions(ctx context.Context, termID string) ([]*models.Version, error) {
	args := m.Called(ctx, termID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Version), args.Error(1)
}

// MockUserRepository is a mock type for the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

var (
	anonymous   = Actor{}
	contributor = Actor{UserID: "user-1", DisplayName: "Amina", Capability: CapabilityContributor}
	admin       = Actor{UserID: "admin-1", DisplayName: "Moderator", Capability: CapabilityAdmin}
)

func validPayload() SubmissionPayload {
	return SubmissionPayload{
		Term:     "mjukuu",
		Meaning:  "Coded reference to a community",
		Category: "Coded",
		Risk:     "Medium",
		Language: "Sheng",
		Examples: []ExamplePayload{{Quote: "wale mjukuu...", Platform: "Twitter/X"}},
	}
}
