package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"boardhub/backend/domain"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

// UserRepo 用户仓储实现
type UserRepo struct {
	store *Store
}

func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	if err := r.store.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return domain.User{}, translate(err, repository.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.store.DB(ctx).First(&user, "email = ?", email).Error; err != nil {
		return domain.User{}, translate(err, repository.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.store.DB(ctx).Order("email").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.store.DB(ctx).Create(&user).Error; err != nil {
		return domain.User{}, translate(err, repository.ErrUserNotFound)
	}
	r.store.PublishEvent(events.UserEvent{
		EventType: events.EventUserCreated,
		UserID:    user.ID,
		Email:     user.Email,
	})
	return user, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.store.DB(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.store.DB(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res := r.store.DB(ctx).Model(&domain.User{}).Where("id = ?", id).Update("last_login_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

// translate 将 gorm 错误映射为仓储错误
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrAlreadyExists
	default:
		return err
	}
}
