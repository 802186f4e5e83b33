package services

import (
	"errors"
	"fmt"

	"todo-calendar/internal/models"
	"todo-calendar/internal/repositories"
	"todo-calendar/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterService interface {
	// RegisterUser returns the created user, or the validation messages
	// explaining why no user was created.
	RegisterUser(db *gorm.DB, form validation.RegistrationForm) (*models.User, []string, error)
}

type RegisterServiceImpl struct {
	users      repositories.UserRepository
	bcryptCost int
}

var errRejected = errors.New("registration rejected")

func NewRegisterService(users repositories.UserRepository, bcryptCost int) *RegisterServiceImpl {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &RegisterServiceImpl{users: users, bcryptCost: bcryptCost}
}

func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, form validation.RegistrationForm) (*models.User, []string, error) {
	var (
		user     *models.User
		problems []string
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		taken, err := s.users.Exists(tx, form.Username)
		if err != nil {
			return err
		}

		problems = validation.ValidateRegistration(form, taken)
		if len(problems) > 0 {
			return errRejected
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		candidate := &models.User{
			Username: form.Username,
			Password: string(hashedPassword),
			Email:    form.Mail,
		}
		if err := s.users.Create(tx, candidate); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				problems = []string{validation.ErrUsernameTaken}
				return errRejected
			}
			return err
		}
		user = candidate
		return nil
	})

	switch {
	case errors.Is(err, errRejected):
		return nil, problems, nil
	case err != nil:
		return nil, nil, fmt.Errorf("register %q: %w", form.Username, err)
	}
	return user, []string{}, nil
}
