package repository

import (
	"context"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"backoffice/internal/model"
)

// UserFilter narrows a directory listing.
type UserFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Offset returns the number of rows skipped before the requested page,
// saturating at math.MaxInt instead of overflowing.
func (f UserFilter) Offset() int {
	if f.Page < 1 || f.PerPage < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PerPage {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PerPage
}

// UserRepository defines persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	UpdatePhoto(ctx context.Context, id uint, photo *string) error
	CountByRole(ctx context.Context, role model.Role) (int64, error)
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

// Update saves every column of an existing user.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// Delete permanently removes a user. A missing row yields gorm.ErrRecordNotFound.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
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

// List returns one page of users, newest first, together with the total
// number of rows matching the filter.
func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.User{})
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		base = base.Where(
			"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(role) LIKE ? ESCAPE '!'",
			like, like, like,
		)
	}
	// Count and Find each start from a fresh statement.
	q := base.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]model.User, 0, filter.PerPage)
	if total == 0 || int64(filter.Offset()) >= total {
		return users, total, nil
	}

	err := q.Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset()).
		Limit(filter.PerPage).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": passwordHash})
}

// UpdatePhoto sets or clears (nil) the stored photo reference.
func (r *userRepository) UpdatePhoto(ctx context.Context, id uint, photo *string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"photo": photo})
}

func (r *userRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

func (r *userRepository) updateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// escapeLike makes LIKE wildcards in user input match literally, using '!'
// as the escape character so the clause is portable across MySQL and SQLite.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
