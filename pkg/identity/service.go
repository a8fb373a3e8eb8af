package identity

import (
	"context"
	"strings"

	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, req models.RegisterUserRequest) (models.User, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return models.User{}, errs.Validation("name and email are required")
	}
	if req.Password == "" {
		return models.User{}, errs.Validation("password is required")
	}
	if !req.Role.Valid() {
		return models.User{}, errs.Validation("unknown role %q", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	return s.repo.CreateUser(ctx, CreateUserInput{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		LabID:        req.LabID,
		HospitalID:   req.HospitalID,
	})
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return models.User{}, errs.Auth("invalid credentials")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errs.Auth("account deactivated")
	}
	if password == "" {
		return models.User{}, errs.Auth("invalid credentials")
	}

	hash, err := s.repo.GetPasswordHash(ctx, user.ID)
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.User{}, errs.Auth("invalid credentials")
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id uint) error {
	return s.repo.Deactivate(ctx, id)
}

// Authorize checks the caller against an allowed role set. It takes the
// user and the required roles as ordinary parameters and returns a typed
// error; there is no ambient current-user lookup.
func Authorize(user models.User, roles ...models.Role) error {
	if !user.IsActive {
		return errs.Forbidden("account deactivated")
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return errs.Forbidden("insufficient permissions")
}
