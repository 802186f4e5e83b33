package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"todo-calendar/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PageHandler struct {
	db               *gorm.DB
	dashboardService services.DashboardService
	taskService      services.TaskService
	now              func() time.Time
}

func NewPageHandler(db *gorm.DB, dashboardService services.DashboardService, taskService services.TaskService) *PageHandler {
	return &PageHandler{db: db, dashboardService: dashboardService, taskService: taskService, now: time.Now}
}

func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (h *PageHandler) Admin(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	view, err := h.dashboardService.BuildDashboard(h.db.WithContext(c.Request.Context()), user.Username, h.now())
	if err != nil {
		handlePageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "admin.html", gin.H{
		"View": view,
	})
}

// Detail lists the caller's tasks due on /todo/:username/:year/:month/:day.
// Visiting another user's day sends the caller back to the landing page.
func (h *PageHandler) Detail(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	if c.Param("username") != user.Username {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		return
	}

	year, errY := strconv.Atoi(c.Param("year"))
	month, errM := strconv.Atoi(c.Param("month"))
	day, errD := strconv.Atoi(c.Param("day"))
	if errY != nil || errM != nil || errD != nil {
		c.String(http.StatusBadRequest, "invalid date")
		return
	}

	tasks, err := h.taskService.GetTasksOnDay(h.db.WithContext(c.Request.Context()), user.ID, year, time.Month(month), day)
	if err != nil {
		handlePageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "detail.html", gin.H{
		"Username": user.Username,
		"Tasks":    tasks,
		"Year":     c.Param("year"),
		"Month":    fmt.Sprintf("%02d", month),
		"Day":      fmt.Sprintf("%02d", day),
	})
}
