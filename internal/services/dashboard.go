package services

import (
	"errors"
	"fmt"
	"html/template"
	"time"

	"todo-calendar/internal/calendar"
	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"

	"gorm.io/gorm"
)

// UpcomingWindow is how far ahead of now the dashboard shortlists tasks.
const UpcomingWindow = 7 * 24 * time.Hour

type DashboardView struct {
	Username string
	Tasks    []models.Task
	Upcoming []models.Task
	// Links[i] is the day page of Upcoming[i].
	Links    []string
	Calendar template.HTML
	Year     int
	// Now is the build time in the display timezone.
	Now      time.Time
}

type DashboardService interface {
	BuildDashboard(db *gorm.DB, username string, now time.Time) (*DashboardView, error)
}

type DashboardServiceImpl struct {
	users    repositories.UserRepository
	tasks    repositories.TaskRepository
	location *time.Location
}

func NewDashboardService(users repositories.UserRepository, tasks repositories.TaskRepository, loc *time.Location) *DashboardServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardServiceImpl{users: users, tasks: tasks, location: loc}
}

// BuildDashboard assembles the admin page. An unknown username gets an empty
// task list and an unmarked calendar.
func (s *DashboardServiceImpl) BuildDashboard(db *gorm.DB, username string, now time.Time) (*DashboardView, error) {
	now = now.In(s.location)

	tasks := []models.Task{}
	user, err := s.users.FindByUsername(db, username)
	switch {
	case err == nil:
		tasks, err = s.tasks.ListByUser(db, user.ID)
		if err != nil {
			return nil, fmt.Errorf("list tasks for %q: %w", username, err)
		}
		tasks = inLocation(tasks, s.location)
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}

	marked := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		marked[calendar.DayKey(task.Deadline.In(s.location))] = true
	}

	cal := calendar.New(username, marked)
	cal.Today = now
	html, err := cal.FormatYear(now.Year(), calendar.DefaultColumns)
	if err != nil {
		return nil, fmt.Errorf("render calendar: %w", err)
	}

	upcoming, links := Upcoming(username, tasks, now, s.location)

	return &DashboardView{
		Username: username,
		Tasks:    tasks,
		Upcoming: upcoming,
		Links:    links,
		Calendar: html,
		Year:     now.Year(),
		Now:      now,
	}, nil
}

// Upcoming keeps the tasks due within [now, now+UpcomingWindow], both ends
// inclusive, and derives each one's day page link.
func Upcoming(username string, tasks []models.Task, now time.Time, loc *time.Location) ([]models.Task, []string) {
	limit := now.Add(UpcomingWindow)

	upcoming := []models.Task{}
	links := []string{}
	for _, task := range tasks {
		if task.Deadline.Before(now) || task.Deadline.After(limit) {
			continue
		}
		upcoming = append(upcoming, task)
		links = append(links, calendar.DayLink(username, task.Deadline.In(loc)))
	}
	return upcoming, links
}
