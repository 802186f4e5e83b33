package handlers

import (
	"net/http"

	"todo-calendar/internal/services"
	"todo-calendar/internal/validation"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RegisterHandler struct {
	db              *gorm.DB
	registerService services.RegisterService
}

func NewRegisterHandler(db *gorm.DB, registerService services.RegisterService) *RegisterHandler {
	return &RegisterHandler{db: db, registerService: registerService}
}

func (h *RegisterHandler) Form(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Username": "",
		"Errors":   []string{},
	})
}

// Registration creates the account, or redisplays the form with every
// validation problem and the submitted username.
func (h *RegisterHandler) Registration(c *gin.Context) {
	var form validation.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}

	user, problems, err := h.registerService.RegisterUser(h.db.WithContext(c.Request.Context()), form)
	if err != nil {
		handlePageError(c, err)
		return
	}

	if len(problems) > 0 {
		log.Debug("registration rejected", "username", form.Username, "problems", len(problems))
		c.HTML(http.StatusOK, "register.html", gin.H{
			"Username": form.Username,
			"Errors":   problems,
		})
		return
	}

	log.Info("user registered", "username", user.Username, "id", user.ID)
	c.HTML(http.StatusOK, "complete.html", gin.H{
		"Username": user.Username,
	})
}
