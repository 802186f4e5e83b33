package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"todo-calendar/internal/models"
	"todo-calendar/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

type addTaskForm struct {
	Year    *int   `form:"year" binding:"required"`
	Month   *int   `form:"month" binding:"required"`
	Day     *int   `form:"day" binding:"required"`
	Hour    *int   `form:"hour" binding:"required"`
	Minute  *int   `form:"minute" binding:"required"`
	Content string `form:"content" binding:"required"`
}

type addTaskJSONForm struct {
	Content  string `form:"content" binding:"required"`
	Deadline string `form:"deadline" binding:"required"`
}

// MarkDone flags every owned task listed in done[]. A missing list is a no-op.
func (h *TaskHandler) MarkDone(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	raw := c.PostFormArray("done[]")
	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.String(http.StatusBadRequest, "invalid task id %q", v)
			return
		}
		ids = append(ids, uint(id))
	}

	if _, err := h.taskService.MarkDone(h.db.WithContext(c.Request.Context()), user.ID, ids); err != nil {
		handlePageError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *TaskHandler) Add(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var form addTaskForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "invalid task form")
		return
	}

	deadline, err := h.taskService.NewDeadline(*form.Year, *form.Month, *form.Day, *form.Hour, *form.Minute)
	if err != nil {
		c.String(http.StatusBadRequest, "%s", err.Error())
		return
	}

	if _, err := h.taskService.CreateTask(h.db.WithContext(c.Request.Context()), user.ID, form.Content, deadline); err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			c.String(http.StatusBadRequest, "%s", err.Error())
			return
		}
		handlePageError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

// Delete removes the task when the caller owns it. Foreign, missing and
// malformed ids all just redirect back.
func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	if id, err := strconv.ParseUint(c.Param("id"), 10, 64); err == nil {
		if _, err := h.taskService.DeleteTask(h.db.WithContext(c.Request.Context()), user.ID, uint(id)); err != nil {
			handlePageError(c, err)
			return
		}
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetTasks(h.db.WithContext(c.Request.Context()), user.ID)
	if err != nil {
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TasksJSON(tasks))
}

// CreateTask is the JSON counterpart of Add. The deadline uses
// services.DeadlineParamLayout.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var form addTaskJSONForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content and deadline are required"})
		return
	}

	deadline, err := h.taskService.ParseDeadline(form.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid deadline",
			"details": "expected format YYYY-MM-DD_HH:MM:SS",
		})
		return
	}

	task, err := h.taskService.CreateTask(h.db.WithContext(c.Request.Context()), user.ID, form.Content, deadline)
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		handleTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.JSON())
}
