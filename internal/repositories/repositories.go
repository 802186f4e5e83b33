// Package repositories is the user/task store. It is the only package that
// builds gorm queries; callers pass in a request-scoped *gorm.DB.
package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = fmt.Errorf("repositories: %w", gorm.ErrRecordNotFound)
	ErrDuplicate = fmt.Errorf("repositories: %w", gorm.ErrDuplicatedKey)
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
