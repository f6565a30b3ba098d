package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "cashflow/internal/errors"
	"cashflow/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user. Password policy and name sanitization
// happen in the handler's input pipeline before this is called.
func (s *userService) CreateUser(email, password, fullName, businessName string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return nil, storageError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:        strings.ToLower(email),
		Password:     string(hashedPassword),
		FullName:     fullName,
		BusinessName: businessName,
		IsActive:     true,
	}

	if err := withRetry(func() error { return s.db.Create(user).Error }); err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := withRetry(func() error {
		return s.db.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, storageError(err)
	}
	return &user, nil
}

// UpdateProfile updates the caller's display fields. An empty input leaves
// the stored value unchanged; at least one field must be provided.
func (s *userService) UpdateProfile(userID, fullName, businessName string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if fullName != "" {
		updates["full_name"] = fullName
	}
	if businessName != "" {
		updates["business_name"] = businessName
	}
	if len(updates) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No profile fields to update")
	}

	err = withRetry(func() error {
		return s.db.Model(user).Updates(updates).Error
	})
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

// AttemptLogin verifies credentials and returns the user on success,
// stamping last_login_at. Unknown email and wrong password produce the
// same INVALID_CREDENTIALS error.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	err := withRetry(func() error {
		return s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, storageError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		// Login still succeeds; the stamp is best-effort.
		return &user, nil
	}
	return &user, nil
}

// ChangePassword verifies the current password and stores the new hash.
func (s *userService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)) != nil {
		return apperrors.ErrWrongPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = withRetry(func() error {
		return s.db.Model(user).Update("password", string(hashedPassword)).Error
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}
