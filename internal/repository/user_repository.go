package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"charitychain/internal/model"
)

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindOrCreateByEmail(ctx context.Context, user *model.User) (*model.User, bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update saves every column of an existing user. A pending plaintext
// password is hashed by the model hook.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByEmail returns the user with user.Email, creating it from user
// when absent. The bool reports whether a row was created.
func (r *userRepository) FindOrCreateByEmail(ctx context.Context, user *model.User) (*model.User, bool, error) {
	existing, err := r.FindByEmail(ctx, user.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// Lost a race with a concurrent creator: the row exists now.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := r.FindByEmail(ctx, user.Email)
			return existing, false, findErr
		}
		return nil, false, err
	}
	return user, true, nil
}
