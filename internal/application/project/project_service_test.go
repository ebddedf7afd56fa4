package project

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/freelancedesk/backend/internal/domain/project"
	"github.com/freelancedesk/backend/internal/domain/shared"
)

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *MockProjectRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockProjectRepository) CountByStatusForUser(ctx context.Context, userID uuid.UUID) (map[project.ProjectStatus]int64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[project.ProjectStatus]int64), args.Error(1)
}

func TestProjectService_CreateProject(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	userID := uuid.New()
	budget := decimal.NewFromInt(5000)
	req := CreateProjectRequest{
		Title:       "Website Redesign",
		ClientName:  "Acme Corp",
		ClientEmail: "billing@acme.example",
		Description: "Full rebrand and rebuild",
		Budget:      &budget,
	}

	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*project.Project")).Return(nil)

	result, err := service.CreateProject(context.Background(), userID, req)

	require.NoError(t, err)
	assert.Equal(t, "Website Redesign", result.Title)
	assert.Equal(t, project.ProjectStatusActive, result.Status)
	assert.True(t, result.Budget.Equal(budget))
	assert.Equal(t, userID, result.UserID)
	mockRepo.AssertExpectations(t)
}

func TestProjectService_CreateProject_NegativeBudget(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	budget := decimal.NewFromInt(-100)
	req := CreateProjectRequest{
		Title:      "Website Redesign",
		ClientName: "Acme Corp",
		Budget:     &budget,
	}

	result, err := service.CreateProject(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProjectService_CreateProject_EndBeforeStart(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, -1, 0)
	req := CreateProjectRequest{
		Title:      "Website Redesign",
		ClientName: "Acme Corp",
		StartDate:  &start,
		EndDate:    &end,
	}

	result, err := service.CreateProject(context.Background(), uuid.New(), req)

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestProjectService_UpdateProject(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	userID := uuid.New()
	p, _ := project.NewProject(userID, "Website Redesign", "Acme Corp")

	mockRepo.On("FindByIDForUser", mock.Anything, userID, p.ID).Return(p, nil)
	mockRepo.On("Save", mock.Anything, p).Return(nil)

	result, err := service.UpdateProject(context.Background(), userID, p.ID, UpdateProjectRequest{
		Title:      "Website Redesign v2",
		ClientName: "Acme Corp",
		Status:     "completed",
	})

	require.NoError(t, err)
	assert.Equal(t, "Website Redesign v2", result.Title)
	assert.Equal(t, project.ProjectStatusCompleted, result.Status)
}

func TestProjectService_UpdateProject_NotFound(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	userID := uuid.New()
	id := uuid.New()

	mockRepo.On("FindByIDForUser", mock.Anything, userID, id).Return(nil, shared.ErrNotFound)

	result, err := service.UpdateProject(context.Background(), userID, id, UpdateProjectRequest{
		Title:      "Anything",
		ClientName: "Anyone",
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProjectService_ListProjects_DefaultsApplied(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	userID := uuid.New()

	mockRepo.On("FindAllForUser", mock.Anything, userID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" && f.OrderDir == "desc"
	})).Return([]project.Project{}, nil)
	mockRepo.On("CountForUser", mock.Anything, userID, mock.AnythingOfType("shared.Filter")).Return(int64(0), nil)

	result, err := service.ListProjects(context.Background(), userID, ProjectListFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	mockRepo.AssertExpectations(t)
}

func TestProjectService_DeleteProject(t *testing.T) {
	mockRepo := new(MockProjectRepository)
	service := NewProjectService(mockRepo)

	userID := uuid.New()
	id := uuid.New()

	mockRepo.On("DeleteForUser", mock.Anything, userID, id).Return(nil)

	assert.NoError(t, service.DeleteProject(context.Background(), userID, id))
	mockRepo.AssertExpectations(t)
}
