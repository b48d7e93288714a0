package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"backoffice/internal/cache"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

const photoDir = "profile"

var photoTypes = []string{"image/jpeg", "image/png"}

// PhotoService manages the profile photo attached to a user.
type PhotoService interface {
	Upload(ctx context.Context, userID uint, file io.ReadSeeker, size int64) (*model.User, error)
	Delete(ctx context.Context, userID uint) error
	// MaxBytes is the largest accepted photo.
	MaxBytes() int64
}

type photoService struct {
	repo     repository.UserRepository
	cache    *cache.Client
	files    storage.Store
	maxBytes int64
	log      *zap.Logger
}

// NewPhotoService builds a PhotoService accepting files up to maxKB kilobytes.
func NewPhotoService(repo repository.UserRepository, cache *cache.Client, files storage.Store, maxKB int, log *zap.Logger) PhotoService {
	if log == nil {
		log = zap.NewNop()
	}
	return &photoService{
		repo:     repo,
		cache:    cache,
		files:    files,
		maxBytes: int64(maxKB) * 1024,
		log:      log,
	}
}

// Upload validates and stores a new photo, points the user at it, then
// removes the previous file. A failed record update removes the new file
// and leaves the old reference in place.
func (s *photoService) Upload(ctx context.Context, userID uint, file io.ReadSeeker, size int64) (*model.User, error) {
	ext, err := s.validate(file, size)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	name := photoDir + "/" + strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	if err := s.files.Put(ctx, name, io.LimitReader(file, s.maxBytes)); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	public := storage.PublicPath(name)
	if err := s.repo.UpdatePhoto(ctx, userID, &public); err != nil {
		if derr := s.files.Delete(ctx, name); derr != nil {
			s.log.Warn("remove orphaned photo", zap.String("path", name), zap.Error(derr))
		}
		return nil, fmt.Errorf("save photo reference: %w", notFound(err))
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	if user.HasPhoto() {
		if err := s.files.Delete(ctx, storage.DiskPath(*user.Photo)); err != nil {
			s.log.Warn("delete previous photo", zap.Uint("user_id", userID), zap.Error(err))
		}
	}

	user.Photo = &public
	return user, nil
}

// Delete removes the stored photo and clears the reference. A user without
// a photo yields ErrNoPhoto. When the file cannot be removed the reference
// is kept so the file is not orphaned.
func (s *photoService) Delete(ctx context.Context, userID uint) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if !user.HasPhoto() {
		return apperrors.ErrNoPhoto
	}

	if err := s.files.Delete(ctx, storage.DiskPath(*user.Photo)); err != nil {
		return fmt.Errorf("delete photo file: %w", err)
	}
	if err := s.repo.UpdatePhoto(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear photo reference: %w", notFound(err))
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))
	return nil
}

func (s *photoService) MaxBytes() int64 {
	return s.maxBytes
}

// PhotoTooLarge is the field error for a photo over maxBytes.
func PhotoTooLarge(maxBytes int64) *apperrors.ValidationError {
	return apperrors.NewValidationError("photo",
		fmt.Sprintf("The photo field must not be greater than %d kilobytes.", maxBytes/1024))
}

// validate checks size and sniffed content type, returning the file
// extension to store under. The reader is rewound on success.
func (s *photoService) validate(file io.ReadSeeker, size int64) (string, error) {
	if file == nil || size <= 0 {
		return "", apperrors.NewValidationError("photo", "The photo field is required.")
	}
	if size > s.maxBytes {
		return "", PhotoTooLarge(s.maxBytes)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("detect photo type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind photo: %w", err)
	}

	if !mimetype.EqualsAny(mtype.String(), photoTypes...) {
		return "", apperrors.NewValidationError("photo", "The photo field must be a file of type: jpeg, png, jpg.")
	}
	return mtype.Extension(), nil
}
