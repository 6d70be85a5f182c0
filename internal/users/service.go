package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-marketplace/internal/errs"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
)

type DBLayer interface {
	CreateUser(ctx context.Context, user models.User) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, email string, update models.UserProfileUpdate) error
	UpdateRole(ctx context.Context, id, role string) error
	MarkFraud(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishVendorFlagged(user models.User) error
}

type UserService struct {
	DB     DBLayer
	Events EventPublisher
	Logger *logger.Logger
}

func NewUserService(db DBLayer, events EventPublisher, log *logger.Logger) *UserService {
	return &UserService{DB: db, Events: events, Logger: log}
}

// Register creates the user on first sign-in. Registering an existing email is
// a no-op, not an error.
func (s *UserService) Register(ctx context.Context, user models.User) (*models.User, error) {
	if user.Email == "" {
		return nil, errs.New(errs.InvalidState, "email is required")
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	created, err := s.DB.CreateUser(ctx, user)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to register user", err)
	}
	if !created {
		s.Logger.Info("USER", fmt.Sprintf("Sign-in for existing user %s", user.Email))
	}

	existing, err := s.DB.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load user", err)
	}
	return existing, nil
}

// GetUser returns the user at email. Non-admin callers may only read their own
// record.
func (s *UserService) GetUser(ctx context.Context, callerEmail, email string) (*models.User, error) {
	if callerEmail != email {
		caller, err := s.DB.GetUserByEmail(ctx, callerEmail)
		if err != nil || caller.Role != models.RoleAdmin {
			return nil, errs.New(errs.Forbidden, "forbidden")
		}
	}

	user, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "user not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to load user", err)
	}
	return user, nil
}

// GetRole is the self-only role lookup backing the client's permission checks.
func (s *UserService) GetRole(ctx context.Context, callerEmail, email string) (string, error) {
	if callerEmail != email {
		return "", errs.New(errs.Forbidden, "forbidden")
	}
	user, err := s.DB.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errs.New(errs.NotFound, "user not found")
		}
		return "", errs.Wrap(errs.Internal, "failed to load user", err)
	}
	return user.Role, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.DB.ListUsers(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to list users", err)
	}
	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, callerEmail, email string, update models.UserProfileUpdate) error {
	if callerEmail != email {
		caller, err := s.DB.GetUserByEmail(ctx, callerEmail)
		if err != nil || caller.Role != models.RoleAdmin {
			return errs.New(errs.Forbidden, "forbidden")
		}
	}
	if err := s.DB.UpdateProfile(ctx, email, update); err != nil {
		return errs.Wrap(errs.Internal, "failed to update profile", err)
	}
	return nil
}

func (s *UserService) SetRole(ctx context.Context, id, role string) error {
	if !models.ValidRole(role) {
		return errs.New(errs.InvalidState, "unknown role: "+role)
	}
	if err := s.DB.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.New(errs.NotFound, "user not found")
		}
		return errs.Wrap(errs.Internal, "failed to update role", err)
	}
	return nil
}

// FlagFraud marks a vendor as fraudulent and hides their catalog.
func (s *UserService) FlagFraud(ctx context.Context, id string) (*models.User, error) {
	user, err := s.DB.MarkFraud(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "user not found")
		}
		return nil, errs.Wrap(errs.Internal, "failed to flag user", err)
	}

	s.Logger.LogSecurity("FRAUD", fmt.Sprintf("Vendor %s flagged, catalog hidden", user.Email))
	if err := s.Events.PublishVendorFlagged(*user); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish vendor flagged event: %v", err))
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.DB.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.New(errs.NotFound, "user not found")
		}
		return errs.Wrap(errs.Internal, "failed to delete user", err)
	}
	return nil
}
