package repositories

import (
	"fmt"

	"todo-calendar/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	Exists(db *gorm.DB, username string) (bool, error)
	Create(db *gorm.DB, user *models.User) error
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return userRepository{}
}

// FindByUsername returns ErrNotFound when no user has that name.
func (userRepository) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (userRepository) Exists(db *gorm.DB, username string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// Create returns ErrDuplicate if the username is already taken.
func (userRepository) Create(db *gorm.DB, user *models.User) error {
	return translate(db.Create(user).Error)
}
