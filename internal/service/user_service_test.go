package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "backoffice/internal/errors"
	"backoffice/internal/model"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestUserService_CreateUser(t *testing.T) {
	tests := []struct {
		name          string
		input         CreateUserInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:  "successful creation",
			input: CreateUserInput{Name: " Ada ", Email: "Ada@Example.com", Password: "password123", Role: model.RoleResearcher},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).
					Run(func(args mock.Arguments) { args.Get(1).(*model.User).ID = 9 }).
					Return(nil)
			},
		},
		{
			name:  "email already taken",
			input: CreateUserInput{Name: "Ada", Email: "ada@example.com", Password: "password123", Role: model.RoleStaff},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ada@example.com").Return(&model.User{ID: 1, Email: "ada@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:          "unknown role",
			input:         CreateUserInput{Name: "Ada", Email: "ada@example.com", Password: "password123", Role: "owner"},
			setupMock:     func(*MockUserRepository) {},
			expectedError: apperrors.ErrInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewUserService(mockRepo, nil, storage.NewMemDisk(), nil)
			user, err := service.CreateUser(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, uint(9), user.ID)
				assert.Equal(t, "Ada", user.Name)
				assert.Equal(t, "ada@example.com", user.Email)
				assert.Equal(t, tt.input.Role, user.Role)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	role := model.RoleAdmin
	badRole := model.Role("owner")

	tests := []struct {
		name          string
		input         UpdateUserInput
		setupMock     func(*MockUserRepository)
		expectedError error
		check         func(*testing.T, *model.User)
	}{
		{
			name:  "partial update stamps verification",
			input: UpdateUserInput{Name: strPtr("Grace"), Role: &role},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3, Name: "G", Email: "g@example.com", Role: model.RoleStaff}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "Grace", u.Name)
				assert.Equal(t, "g@example.com", u.Email)
				assert.Equal(t, model.RoleAdmin, u.Role)
				assert.NotNil(t, u.EmailVerifiedAt)
			},
		},
		{
			name:  "keeping own email is allowed",
			input: UpdateUserInput{Email: strPtr("G@example.com")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3, Email: "g@example.com", Role: model.RoleStaff}, nil)
				m.On("Update", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			check: func(t *testing.T, u *model.User) {
				assert.Equal(t, "g@example.com", u.Email)
			},
		},
		{
			name:  "email owned by someone else",
			input: UpdateUserInput{Email: strPtr("taken@example.com")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3, Email: "g@example.com"}, nil)
				m.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: 4}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:  "invalid role",
			input: UpdateUserInput{Role: &badRole},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(&model.User{ID: 3}, nil)
			},
			expectedError: apperrors.ErrInvalidRole,
		},
		{
			name:  "missing user",
			input: UpdateUserInput{Name: strPtr("x")},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, uint(3)).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := NewUserService(mockRepo, nil, storage.NewMemDisk(), nil)
			user, err := service.UpdateUser(context.Background(), 3, tt.input)

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				tt.check(t, user)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("removes record and photo", func(t *testing.T) {
		disk := storage.NewMemDisk()
		require.NoError(t, disk.Put(ctx, "profile/old.png", bytes.NewReader([]byte("x"))))

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Photo: strPtr("storage/profile/old.png")}, nil)
		mockRepo.On("Delete", mock.Anything, uint(2)).Return(nil)

		require.NoError(t, NewUserService(mockRepo, nil, disk, nil).DeleteUser(ctx, 2))

		exists, err := disk.Exists(ctx, "profile/old.png")
		require.NoError(t, err)
		assert.False(t, exists)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing user", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(2)).Return(nil, gorm.ErrRecordNotFound)

		err := NewUserService(mockRepo, nil, storage.NewMemDisk(), nil).DeleteUser(ctx, 2)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("storage failure keeps the photo", func(t *testing.T) {
		disk := storage.NewMemDisk()
		require.NoError(t, disk.Put(ctx, "profile/old.png", bytes.NewReader([]byte("x"))))

		mockRepo := new(MockUserRepository)
		mockRepo.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2, Photo: strPtr("storage/profile/old.png")}, nil)
		mockRepo.On("Delete", mock.Anything, uint(2)).Return(errors.New("foreign key constraint"))

		err := NewUserService(mockRepo, nil, disk, nil).DeleteUser(ctx, 2)
		assert.Error(t, err)

		exists, _ := disk.Exists(ctx, "profile/old.png")
		assert.True(t, exists)
	})
}

func TestUserService_ForceResetPassword(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockUserRepository)
	var stored string
	mockRepo.On("UpdatePassword", mock.Anything, uint(4), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil)

	require.NoError(t, NewUserService(mockRepo, nil, storage.NewMemDisk(), nil).ForceResetPassword(ctx, 4, "new-password"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("new-password")))

	missing := new(MockUserRepository)
	missing.On("UpdatePassword", mock.Anything, uint(5), mock.AnythingOfType("string")).Return(gorm.ErrRecordNotFound)
	err := NewUserService(missing, nil, storage.NewMemDisk(), nil).ForceResetPassword(ctx, 5, "new-password")
	assert.Equal(t, apperrors.ErrUserNotFound, err)
}

func TestUserService_ListAndGet(t *testing.T) {
	ctx := context.Background()
	filter := repository.UserFilter{Search: "ada", Page: 1, PerPage: 10}

	mockRepo := new(MockUserRepository)
	mockRepo.On("List", mock.Anything, filter).Return([]model.User{{ID: 1}}, int64(1), nil)
	mockRepo.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1, Name: "Ada"}, nil)
	mockRepo.On("FindByID", mock.Anything, uint(2)).Return(nil, gorm.ErrRecordNotFound)

	service := NewUserService(mockRepo, nil, storage.NewMemDisk(), nil)

	users, total, err := service.ListUsers(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(1), total)

	user, err := service.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	_, err = service.GetUser(ctx, 2)
	assert.Equal(t, apperrors.ErrUserNotFound, err)
}
