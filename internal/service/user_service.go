package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
	indexer  SearchIndexer
}

type UpdateProfileInput struct {
	UserID   uint
	Username *string
	Name     *string
	Email    *string
	Intro    *string
}

type ChangePasswordInput struct {
	UserID          uint
	CurrentPassword string
	NewPassword     string
}

// NewUserService creates a user service. indexer may be nil.
func NewUserService(userRepo repository.UserRepository, indexer SearchIndexer) *UserService {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	return &UserService{userRepo: userRepo, indexer: indexer}
}

// GetProfile returns the public view of a user.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.PublicProfile()
	return &public, nil
}

// GetAccount returns the caller's own record including email.
func (s *UserService) GetAccount(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) IsAdmin(ctx context.Context, id uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// UpdateProfile changes account fields. Username and email stay unique
// across other users; keeping your own is not a conflict.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	fields := map[string]interface{}{}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByUsername, username, in.UserID, "Username already taken"); err != nil {
			return nil, err
		}
		fields["username"] = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureFree(ctx, s.userRepo.GetByEmail, email, in.UserID, "Email already registered"); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if in.Name != nil {
		if err := limitText("Name", *in.Name, maxNameLen); err != nil {
			return nil, err
		}
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Intro != nil {
		if err := limitText("Intro", *in.Intro, maxIntroLen); err != nil {
			return nil, err
		}
		fields["intro"] = *in.Intro
	}

	if len(fields) == 0 {
		return nil, models.NewValidationError("No fields to update")
	}
	if err := s.userRepo.UpdateFields(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

func (s *UserService) ensureFree(
	ctx context.Context,
	lookup func(context.Context, string) (*models.User, error),
	value string, self uint, message string,
) error {
	existing, err := lookup(ctx, value)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return models.NewConflictError(message)
	}
	return nil
}

func (s *UserService) UpdateAbout(ctx context.Context, userID uint, about string) (*models.User, error) {
	if err := limitText("About", about, maxAboutLen); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"about": about}); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	user, err := s.userRepo.GetCredentials(ctx, in.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.CurrentPassword)) != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(in.NewPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.userRepo.UpdateFields(ctx, in.UserID, map[string]interface{}{"password": hash})
}

// DeleteAccount removes the user and everything they wrote, and drops their
// posts from the search index.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	postIDs, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range postIDs {
		s.indexer.Remove(id)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("password must not exceed 72 bytes")
		}
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}
