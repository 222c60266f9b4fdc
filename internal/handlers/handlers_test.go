package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"taskManager/internal/handlers"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/middleware"
	"taskManager/internal/models/category"
	"taskManager/internal/models/notification"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, ownerID string, input service.CreateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, ownerID string, query service.ListQuery) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) ListTasksByDate(ctx context.Context, ownerID string, day time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) ApplyTaskPatch(ctx context.Context, ownerID string, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	args := m.Called(ctx, ownerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, ownerID string, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

// MockCategoryService - мок сервиса категорий
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, ownerID string, fields category.Fields) (*category.Category, error) {
	args := m.Called(ctx, ownerID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, ownerID string, id uuid.UUID, fields category.Fields) (*category.Category, error) {
	args := m.Called(ctx, ownerID, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *MockCategoryService) DeleteCategory(ctx context.Context, ownerID string, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockCategoryService) ListCategories(ctx context.Context, ownerID string) ([]*category.Category, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*category.Category), args.Error(1)
}

func (m *MockCategoryService) GetDefaultCategory(ctx context.Context, ownerID string) (*category.Category, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

type stubScanner struct {
	events []notification.Event
}

func (s stubScanner) ScanOnce(ctx context.Context) []notification.Event {
	return s.events
}

func newRouter(ts *MockTaskService, cs *MockCategoryService, sc handlers.Scanner) http.Handler {
	r := chi.NewRouter()
	handlers.Routes(r,
		handlers.NewTaskHandler(ts),
		handlers.NewCategoryHandler(cs),
		handlers.NewNotificationHandler(sc))
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.OwnerHeader, owner)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - store unavailable",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(service.NewStoreUnavailable(errors.New("conn refused")))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			newRouter(mockService, new(MockCategoryService), stubScanner{}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestOwnerHeaderRequired(t *testing.T) {
	mockService := new(MockTaskService)
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()

	newRouter(mockService, new(MockCategoryService), stubScanner{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "ListTasks", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_PostTask(t *testing.T) {
	taskID := uuid.New()
	dueDate := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	reminder := dueDate.Add(-time.Hour)

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - create task",
			requestBody: fmt.Sprintf(`{
				"title": "Report",
				"description": "Q2",
				"due_date": "%s",
				"category": "Work",
				"priority": "high",
				"reminders": [{"time": "%s", "sent": true}]
			}`, dueDate.Format(time.RFC3339), reminder.Format(time.RFC3339)),
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, owner, service.CreateTaskInput{
					Title:       "Report",
					Description: "Q2",
					DueDate:     dueDate,
					Category:    "Work",
					Priority:    task.PriorityHigh,
					Reminders:   []time.Time{reminder},
				}).Return(&task.Task{
					UUID:      taskID,
					OwnerID:   owner,
					Title:     "Report",
					Status:    task.StatusPending,
					DueDate:   dueDate,
					Category:  "Work",
					Priority:  task.PriorityHigh,
					Reminders: []task.Reminder{{Time: reminder}},
				}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - missing title",
			requestBody:    `{"category": "Work"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - invalid priority",
			requestBody: `{"title": "x", "priority": "urgent"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, owner, mock.Anything).
					Return(nil, service.NewInvalidPriority("urgent"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - unexpected service error",
			requestBody: `{"title": "x"}`,
			contentType: "application/json",
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, owner, mock.Anything).
					Return(nil, repository.ErrOwnerRequired)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(tt.requestBody))
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set(middleware.OwnerHeader, owner)
			w := httptest.NewRecorder()

			newRouter(mockService, new(MockCategoryService), stubScanner{}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, taskID, response.UUID)
				assert.Equal(t, "high", response.Priority)
				require.Len(t, response.Reminders, 1)
				assert.False(t, response.Reminders[0].Sent)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_GetTaskByID(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, owner, taskID).
					Return(&task.Task{
						UUID:    taskID,
						Title:   "Test Task",
						Status:  task.StatusPending,
						DueDate: time.Now().Add(-time.Hour),
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid UUID",
			taskID:         "invalid-uuid",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, owner, taskID).
					Return(nil, service.NewNotFound("задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - store unavailable",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTask", mock.Anything, owner, taskID).
					Return(nil, service.NewStoreUnavailable(errors.New("timeout")))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService, new(MockCategoryService), stubScanner{}), http.MethodGet, "/tasks/"+tt.taskID, "")

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var response dto.TaskResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, taskID, response.UUID)
				assert.True(t, response.IsOverdue)
			}
			if tt.expectedStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ListTasks(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		query          service.ListQuery
		err            error
		expectedStatus int
	}{
		{
			name:           "sort by priority with filters",
			target:         "/tasks?sortBy=priority&priority=high&category=Work&status=pending",
			query:          service.ListQuery{SortBy: service.SortByPriority, Priority: "high", Category: "Work", Status: "pending"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown sort mode",
			target:         "/tasks?sortBy=title",
			query:          service.ListQuery{SortBy: "title"},
			err:            service.NewValidationError("sortBy", "ожидается dueDate или priority"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			if tt.err != nil {
				mockService.On("ListTasks", mock.Anything, owner, tt.query).Return(nil, tt.err)
			} else {
				mockService.On("ListTasks", mock.Anything, owner, tt.query).Return([]*task.Task{{UUID: uuid.New(), Title: "a"}}, nil)
			}

			w := do(newRouter(mockService, new(MockCategoryService), stubScanner{}), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ListTasksByDate(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	tests := []struct {
		name           string
		target         string
		day            time.Time
		expectedStatus int
	}{
		{"utc by default", "/tasks/date/2030-05-01", time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), http.StatusOK},
		{"explicit tz", "/tasks/date/2030-05-01?tz=Europe/Moscow", time.Date(2030, 5, 1, 0, 0, 0, 0, moscow), http.StatusOK},
		{"bad date", "/tasks/date/01.05.2030", time.Time{}, http.StatusBadRequest},
		{"bad tz", "/tasks/date/2030-05-01?tz=Mars/Olympus", time.Time{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			if tt.expectedStatus == http.StatusOK {
				mockService.On("ListTasksByDate", mock.Anything, owner, mock.MatchedBy(func(d time.Time) bool {
					return d.Equal(tt.day) && d.Location().String() == tt.day.Location().String()
				})).Return([]*task.Task{}, nil)
			}

			w := do(newRouter(mockService, new(MockCategoryService), stubScanner{}), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	taskID := uuid.New()
	completed := task.StatusCompleted

	tests := []struct {
		name           string
		method         string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "patch status only",
			method:      http.MethodPatch,
			requestBody: `{"status": "completed"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ApplyTaskPatch", mock.Anything, owner, taskID, task.Patch{Status: &completed}).
					Return(&task.Task{UUID: taskID, Status: task.StatusCompleted, DueNotificationSent: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "put replaces reminders",
			method:      http.MethodPut,
			requestBody: `{"reminders": []}`,
			setupMock: func(m *MockTaskService) {
				m.On("ApplyTaskPatch", mock.Anything, owner, taskID, mock.MatchedBy(func(p task.Patch) bool {
					return p.Reminders != nil && len(*p.Reminders) == 0 && p.Status == nil
				})).Return(&task.Task{UUID: taskID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "not found",
			method:      http.MethodPatch,
			requestBody: `{"title": "x"}`,
			setupMock: func(m *MockTaskService) {
				m.On("ApplyTaskPatch", mock.Anything, owner, taskID, mock.Anything).
					Return(nil, service.NewNotFound("задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			w := do(newRouter(mockService, new(MockCategoryService), stubScanner{}), tt.method, "/tasks/"+taskID.String(), tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	taskID := uuid.New()
	mockService := new(MockTaskService)
	mockService.On("DeleteTask", mock.Anything, owner, taskID).Return(nil)

	w := do(newRouter(mockService, new(MockCategoryService), stubScanner{}), http.MethodDelete, "/tasks/"+taskID.String(), "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestCategoryHandler(t *testing.T) {
	catID := uuid.New()
	work := &category.Category{UUID: catID, OwnerID: owner, Name: "Work", Icon: category.IconBookmark, PriorityTier: 1, IsDefault: true}

	t.Run("create default", func(t *testing.T) {
		cs := new(MockCategoryService)
		cs.On("CreateCategory", mock.Anything, owner, mock.MatchedBy(func(f category.Fields) bool {
			return f.Name != nil && *f.Name == "Work" && f.IsDefault != nil && *f.IsDefault
		})).Return(work, nil)

		w := do(newRouter(new(MockTaskService), cs, stubScanner{}), http.MethodPost, "/categories", `{"name": "Work", "is_default": true}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.CategoryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.True(t, response.IsDefault)
		cs.AssertExpectations(t)
	})

	t.Run("duplicate name", func(t *testing.T) {
		cs := new(MockCategoryService)
		cs.On("CreateCategory", mock.Anything, owner, mock.Anything).Return(nil, service.NewDuplicateName("Work"))

		w := do(newRouter(new(MockTaskService), cs, stubScanner{}), http.MethodPost, "/categories", `{"name": "Work"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, service.CodeDuplicateName, body["error"])
	})

	t.Run("update", func(t *testing.T) {
		cs := new(MockCategoryService)
		cs.On("UpdateCategory", mock.Anything, owner, catID, mock.Anything).Return(work, nil)

		w := do(newRouter(new(MockTaskService), cs, stubScanner{}), http.MethodPatch, "/categories/"+catID.String(), `{"color": "#000000"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		cs.AssertExpectations(t)
	})

	t.Run("list and default", func(t *testing.T) {
		cs := new(MockCategoryService)
		cs.On("ListCategories", mock.Anything, owner).Return([]*category.Category{work}, nil)
		cs.On("GetDefaultCategory", mock.Anything, owner).Return(work, nil)
		router := newRouter(new(MockTaskService), cs, stubScanner{})

		w := do(router, http.MethodGet, "/categories", "")
		assert.Equal(t, http.StatusOK, w.Code)
		var list []dto.CategoryResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
		assert.Len(t, list, 1)

		w = do(router, http.MethodGet, "/categories/default", "")
		assert.Equal(t, http.StatusOK, w.Code)
		cs.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		cs := new(MockCategoryService)
		cs.On("DeleteCategory", mock.Anything, owner, catID).Return(nil)

		w := do(newRouter(new(MockTaskService), cs, stubScanner{}), http.MethodDelete, "/categories/"+catID.String(), "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		cs.AssertExpectations(t)
	})
}

func TestNotificationHandler_Scan(t *testing.T) {
	id := uuid.New()
	scanner := stubScanner{events: []notification.Event{{TaskID: id, OwnerID: owner, Message: notification.DueMessage("Report"), Kind: notification.KindDue}}}

	req := httptest.NewRequest(http.MethodPost, "/admin/notifications/scan", nil)
	w := httptest.NewRecorder()
	newRouter(new(MockTaskService), new(MockCategoryService), scanner).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ScanResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, `Task "Report" is due now!`, response.Events[0].Message)
}
