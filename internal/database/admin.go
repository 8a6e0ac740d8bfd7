package database

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/example/belanjain/internal/models"
	"github.com/example/belanjain/internal/utils"
)

// EnsureAdmin makes sure an administrator account exists for email. A missing
// account is created with password; an existing one is promoted and keeps its
// password. It reports whether anything changed.
func EnsureAdmin(conn *gorm.DB, name, email, password string) (bool, error) {
	if email == "" {
		return false, nil
	}

	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			return false, nil
		}
		if err := conn.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return false, err
		}
		slog.Info("promoted user to admin", "user_id", user.ID)
		return true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("admin password: %w", err)
	}

	user = models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := conn.Create(&user).Error; err != nil {
		return false, err
	}

	slog.Info("created admin account", "user_id", user.ID)
	return true, nil
}
