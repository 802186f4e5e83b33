package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"todo-calendar/internal/handlers"
	"todo-calendar/internal/middleware"
	"todo-calendar/internal/models"
	"todo-calendar/internal/services"
	"todo-calendar/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errStore = errors.New("store unavailable")

type MockTaskService struct {
	services.TaskService
	shouldReturnError bool
	tasks             []models.Task
	markedIDs         []uint
	deletedID         uint
}

func (m *MockTaskService) GetTasks(db *gorm.DB, userID uint) ([]models.Task, error) {
	if m.shouldReturnError {
		return nil, errStore
	}
	return m.tasks, nil
}

func (m *MockTaskService) CreateTask(db *gorm.DB, userID uint, content string, deadline time.Time) (*models.Task, error) {
	if m.shouldReturnError {
		return nil, errStore
	}
	if strings.TrimSpace(content) == "" {
		return nil, services.ErrEmptyContent
	}
	task := models.Task{UserID: userID, Content: content, Deadline: deadline, Date: deadline}
	task.ID = uint(len(m.tasks) + 1)
	m.tasks = append(m.tasks, task)
	return &task, nil
}

func (m *MockTaskService) MarkDone(db *gorm.DB, userID uint, taskIDs []uint) (int64, error) {
	if m.shouldReturnError {
		return 0, errStore
	}
	m.markedIDs = append(m.markedIDs, taskIDs...)
	return int64(len(taskIDs)), nil
}

func (m *MockTaskService) DeleteTask(db *gorm.DB, userID, taskID uint) (bool, error) {
	if m.shouldReturnError {
		return false, errStore
	}
	m.deletedID = taskID
	return true, nil
}

func setupTaskHandler(t *testing.T) (*MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{
		TaskService: services.NewTaskService(nil, time.UTC),
	}
	handler := handlers.NewTaskHandler(testutil.NewDB(t), mockService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		user := &models.User{Username: "alice"}
		user.ID = 1
		c.Set(middleware.ContextUserKey, user)
		c.Next()
	})
	router.GET("/get", handler.GetTasks)
	router.POST("/add_task", handler.CreateTask)
	router.POST("/add", handler.Add)
	router.POST("/done", handler.MarkDone)
	router.GET("/delete/:id", handler.Delete)

	return mockService, router
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetTasks(t *testing.T) {
	mock, router := setupTaskHandler(t)
	deadline := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	mock.tasks = []models.Task{{UserID: 1, Content: "X", Deadline: deadline, Date: deadline}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body []models.TaskJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "2024-01-15 09:00:00", body[0].Deadline)
}

func TestGetTasksEmptyIsArray(t *testing.T) {
	_, router := setupTaskHandler(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetTasksStoreError(t *testing.T) {
	mock, router := setupTaskHandler(t)
	mock.shouldReturnError = true

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to process task request")
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		storeError   bool
		expectedCode int
	}{
		{
			name:         "valid task",
			form:         url.Values{"content": {"report"}, "deadline": {"2024-01-15_09:30:00"}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "missing deadline",
			form:         url.Values{"content": {"report"}},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "malformed deadline",
			form:         url.Values{"content": {"report"}, "deadline": {"2024-01-15 09:30"}},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "blank content",
			form:         url.Values{"content": {"   "}, "deadline": {"2024-01-15_09:30:00"}},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "store error",
			form:         url.Values{"content": {"report"}, "deadline": {"2024-01-15_09:30:00"}},
			storeError:   true,
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, router := setupTaskHandler(t)
			mock.shouldReturnError = tt.storeError

			w := postForm(router, "/add_task", tt.form)
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())

			if tt.expectedCode == http.StatusOK {
				var created models.TaskJSON
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
				assert.Equal(t, "report", created.Content)
				assert.Equal(t, "2024-01-15 09:30:00", created.Deadline)
			}
		})
	}
}

func TestAddRedirects(t *testing.T) {
	mock, router := setupTaskHandler(t)

	w := postForm(router, "/add", url.Values{
		"year": {"2024"}, "month": {"12"}, "day": {"31"}, "hour": {"23"}, "minute": {"59"}, "content": {"NYE"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	require.Len(t, mock.tasks, 1)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC), mock.tasks[0].Deadline)
}

func TestAddStoreError(t *testing.T) {
	mock, router := setupTaskHandler(t)
	mock.shouldReturnError = true

	w := postForm(router, "/add", url.Values{
		"year": {"2024"}, "month": {"1"}, "day": {"1"}, "hour": {"0"}, "minute": {"0"}, "content": {"X"},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMarkDone(t *testing.T) {
	mock, router := setupTaskHandler(t)

	w := postForm(router, "/done", url.Values{"done[]": {"3", "5"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, []uint{3, 5}, mock.markedIDs)

	w = postForm(router, "/done", url.Values{"done[]": {"x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []uint{3, 5}, mock.markedIDs)
}

func TestDelete(t *testing.T) {
	mock, router := setupTaskHandler(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/delete/7", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, uint(7), mock.deletedID)

	mock.shouldReturnError = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/delete/8", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandlersRejectAnonymousCallers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewTaskHandler(testutil.NewDB(t), &MockTaskService{})
	router := gin.New()
	router.GET("/get", handler.GetTasks)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
