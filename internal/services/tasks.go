package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"

	"gorm.io/gorm"
)

// DeadlineParamLayout is the deadline format accepted by the JSON API.
const DeadlineParamLayout = "2006-01-02_15:04:05"

var (
	ErrInvalidDeadline = errors.New("invalid deadline")
	ErrEmptyContent    = errors.New("task content is empty")
)

type TaskService interface {
	NewDeadline(year, month, day, hour, minute int) (time.Time, error)
	ParseDeadline(value string) (time.Time, error)
	GetTasks(db *gorm.DB, userID uint) ([]models.Task, error)
	GetTasksOnDay(db *gorm.DB, userID uint, year int, month time.Month, day int) ([]models.Task, error)
	CreateTask(db *gorm.DB, userID uint, content string, deadline time.Time) (*models.Task, error)
	MarkDone(db *gorm.DB, userID uint, taskIDs []uint) (int64, error)
	DeleteTask(db *gorm.DB, userID, taskID uint) (bool, error)
}

type TaskServiceImpl struct {
	tasks    repositories.TaskRepository
	location *time.Location
	now      func() time.Time
}

// NewTaskService interprets form deadlines and day filters in loc.
func NewTaskService(tasks repositories.TaskRepository, loc *time.Location) *TaskServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &TaskServiceImpl{tasks: tasks, location: loc, now: time.Now}
}

// NewDeadline builds a deadline from form fields. Out-of-range parts are
// rejected rather than normalised, so 2024-02-30 is an error.
func (s *TaskServiceImpl) NewDeadline(year, month, day, hour, minute int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, s.location)
	if year < 1 || year > 9999 || t.Year() != year || int(t.Month()) != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d", ErrInvalidDeadline, year, month, day, hour, minute)
	}
	return t, nil
}

// ParseDeadline parses the JSON API format, e.g. 2024-01-15_09:00:00.
func (s *TaskServiceImpl) ParseDeadline(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DeadlineParamLayout, value, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDeadline, value)
	}
	return t, nil
}

func (s *TaskServiceImpl) GetTasks(db *gorm.DB, userID uint) ([]models.Task, error) {
	tasks, err := s.tasks.ListByUser(db, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return inLocation(tasks, s.location), nil
}

// inLocation converts stored timestamps, which drivers may return in UTC,
// to the display timezone.
func inLocation(tasks []models.Task, loc *time.Location) []models.Task {
	for i := range tasks {
		tasks[i].Deadline = tasks[i].Deadline.In(loc)
		tasks[i].Date = tasks[i].Date.In(loc)
	}
	return tasks
}

// GetTasksOnDay returns the caller's tasks whose deadline falls on the given
// calendar day.
func (s *TaskServiceImpl) GetTasksOnDay(db *gorm.DB, userID uint, year int, month time.Month, day int) ([]models.Task, error) {
	tasks, err := s.GetTasks(db, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%04d%02d%02d", year, int(month), day)
	onDay := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Deadline.Format(models.DayKeyLayout) == key {
			onDay = append(onDay, task)
		}
	}
	return onDay, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, userID uint, content string, deadline time.Time) (*models.Task, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	task := &models.Task{
		UserID:   userID,
		Content:  content,
		Deadline: deadline,
		Date:     s.now().In(s.location).Truncate(time.Second),
	}
	if err := s.tasks.Create(db, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (s *TaskServiceImpl) MarkDone(db *gorm.DB, userID uint, taskIDs []uint) (int64, error) {
	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		affected, err = s.tasks.MarkDone(tx, userID, taskIDs)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("mark tasks done: %w", err)
	}
	return affected, nil
}

// DeleteTask reports whether a task owned by userID was removed. A foreign
// or missing task is not an error.
// DeleteTask removes the task if userID owns it. A foreign or missing task
// reports false with no error.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, userID, taskID uint) (bool, error) {
	deleted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.tasks.FindOwned(tx, userID, taskID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil
			}
			return err
		}
		affected, err := s.tasks.DeleteOwned(tx, userID, taskID)
		deleted = affected > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", taskID, err)
	}
	return deleted, nil
}
