package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
	"sos-backend/pkg/ids"
	"sos-backend/pkg/jwt"
)

// AuthService signs up reporters and logs in reporters and volunteers.
type AuthService struct {
	users      repository.UserRepository
	volunteers repository.VolunteerRepository
	jwtUtil    *jwt.JWTUtil
	now        func() time.Time
}

func NewAuthService(repos repository.Repositories, jwtUtil *jwt.JWTUtil) *AuthService {
	return &AuthService{
		users:      repos.Users(),
		volunteers: repos.Volunteers(),
		jwtUtil:    jwtUtil,
		now:        utcNow,
	}
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=32"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=user volunteer"`
}

type LoginResponse struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

func (s *AuthService) SignupUser(ctx context.Context, req *SignupRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		ID:           ids.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, persistence("creating user", err)
	}

	slog.Info("user registered", "user_id", u.ID)
	return s.issue(&models.AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: models.RoleUser})
}

// Login checks credentials against users, then volunteers, unless the request
// names a role.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	email := req.Email

	if req.Role == "" || req.Role == models.RoleUser {
		u, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if !passwordMatches(u.PasswordHash, req.Password) {
				return nil, ErrInvalidLogin
			}
			return s.issue(&models.AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: models.RoleUser})
		case !errors.Is(err, repository.ErrNotFound):
			return nil, persistence("loading user", err)
		}
	}

	if req.Role == "" || req.Role == models.RoleVolunteer {
		v, err := s.volunteers.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if !v.IsActive || !passwordMatches(v.PasswordHash, req.Password) {
				return nil, ErrInvalidLogin
			}
			return s.issue(&models.AuthUser{ID: v.ID, Name: v.Name, Email: v.Email, Role: models.RoleVolunteer})
		case !errors.Is(err, repository.ErrNotFound):
			return nil, persistence("loading volunteer", err)
		}
	}

	return nil, ErrInvalidLogin
}

// Profile returns the calling reporter's account.
func (s *AuthService) Profile(ctx context.Context, caller models.Identity) (*models.User, error) {
	if caller.Role != models.RoleUser {
		return nil, ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, caller.SubjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, persistence("loading user", err)
	}
	return u, nil
}

func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	token, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", ErrUnauthorized
	}
	return token, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New("failed to hash password")
	}
	return string(hashedBytes), nil
}

func (s *AuthService) issue(user *models.AuthUser) (*LoginResponse, error) {
	token, err := s.jwtUtil.GenerateToken(models.Identity{SubjectID: user.ID, Role: user.Role})
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &LoginResponse{User: user, Token: token}, nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
