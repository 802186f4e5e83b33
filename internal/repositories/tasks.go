package repositories

import (
	"todo-calendar/internal/models"

	"gorm.io/gorm"
)

// TaskRepository scopes every query by owner, so a task belonging to someone
// else behaves exactly like a missing one.
type TaskRepository interface {
	ListByUser(db *gorm.DB, userID uint) ([]models.Task, error)
	FindOwned(db *gorm.DB, userID, taskID uint) (*models.Task, error)
	Create(db *gorm.DB, task *models.Task) error
	MarkDone(db *gorm.DB, userID uint, taskIDs []uint) (int64, error)
	DeleteOwned(db *gorm.DB, userID, taskID uint) (int64, error)
}

type taskRepository struct{}

func NewTaskRepository() TaskRepository {
	return taskRepository{}
}

func (taskRepository) ListByUser(db *gorm.DB, userID uint) ([]models.Task, error) {
	tasks := []models.Task{}
	err := db.Where("user_id = ?", userID).Order("deadline asc").Order("id asc").Find(&tasks).Error
	return tasks, err
}

func (taskRepository) FindOwned(db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (taskRepository) Create(db *gorm.DB, task *models.Task) error {
	return translate(db.Create(task).Error)
}

func (taskRepository) MarkDone(db *gorm.DB, userID uint, taskIDs []uint) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	result := db.Model(&models.Task{}).
		Where("user_id = ? AND id IN ?", userID, taskIDs).
		Update("done", true)
	return result.RowsAffected, result.Error
}

func (taskRepository) DeleteOwned(db *gorm.DB, userID, taskID uint) (int64, error) {
	result := db.Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
