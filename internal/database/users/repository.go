// Package users provides database operations for user accounts.
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/entities"
)

var ErrUserNotFound = errors.New("user not found")

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user with a pre-hashed password.
func (r *Repository) Create(name, passwordHash string) (*entities.User, error) {
	user := &entities.User{
		Name:         name,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureDefault creates the fixed account used when authentication is
// disabled, so owned rows always have a user to reference.
func (r *Repository) EnsureDefault(id, name string) error {
	var user entities.User
	return r.db.Where("id = ?", id).
		FirstOrCreate(&user, entities.User{ID: id, Name: name}).Error
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id string) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByName retrieves a user by display name.
func (r *Repository) GetByName(name string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("name = ?", name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HasUsers reports whether any account exists yet (setup gate).
func (r *Repository) HasUsers() (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count > 0, err
}

// UpdateProfile rewrites the user's mutable profile fields.
func (r *Repository) UpdateProfile(id string, publicOngoing bool) error {
	res := r.db.Model(&entities.User{}).
		Where("id = ?", id).
		Update("public_ongoing", publicOngoing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
