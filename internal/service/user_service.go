package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"backoffice/internal/cache"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

const (
	userCacheTTL = 5 * time.Minute
	bcryptCost   = 10
)

func userCacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

// CreateUserInput is the data required to create an account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// UpdateUserInput holds the fields to change; nil fields are left untouched.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *model.Role
}

// UserService exposes the directory query and lifecycle operations.
type UserService interface {
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error)
	UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uint) error
	ForceResetPassword(ctx context.Context, id uint, password string) error
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
	files storage.Store
	log   *zap.Logger
}

// NewUserService builds a UserService with repository, cache and file store.
func NewUserService(repo repository.UserRepository, cache *cache.Client, files storage.Store, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, cache: cache, files: files, log: log}
}

func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, int64, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// GetUser reads through the cache.
func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, userCacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	_ = s.cache.SetJSON(ctx, userCacheKey(id), user, userCacheTTL)
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(user.ID))
	return user, nil
}

// UpdateUser applies a partial update and marks the email as verified.
func (s *userService) UpdateUser(ctx context.Context, id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
		}
		user.Email = email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.ErrInvalidRole
		}
		user.Role = *in.Role
	}

	now := time.Now()
	user.EmailVerifiedAt = &now

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))
	return user, nil
}

// DeleteUser removes the record, then its stored photo. Any error returned
// here is reported to the caller as a soft failure.
func (s *userService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Warn("delete user failed", zap.Uint("user_id", id), zap.Error(err))
		return fmt.Errorf("delete user: %w", notFound(err))
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))

	if user.HasPhoto() {
		if err := s.files.Delete(ctx, storage.DiskPath(*user.Photo)); err != nil {
			s.log.Warn("delete photo of removed user", zap.Uint("user_id", id), zap.Error(err))
		}
	}
	return nil
}

// ForceResetPassword overwrites the password without checking the old one.
func (s *userService) ForceResetPassword(ctx context.Context, id uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return notFound(err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(id))
	return nil
}

// ensureEmailFree fails with ErrEmailTaken when a user other than exceptID
// owns email.
func (s *userService) ensureEmailFree(ctx context.Context, email string, exceptID uint) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil && existing.ID != exceptID:
		return apperrors.ErrEmailTaken
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
