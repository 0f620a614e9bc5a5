package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/adbeam/recycling-rewards-backend/internal/models"
	"github.com/adbeam/recycling-rewards-backend/internal/repositories"
	"github.com/adbeam/recycling-rewards-backend/internal/utils"
	"github.com/adbeam/recycling-rewards-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

const accountStatusActive = "active"

// AuthService handles registration and login
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *jwt.TokenService
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, tokens *jwt.TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, now: time.Now}
}

// Register creates a student account with zeroed totals and returns a token for it
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, backendErr("find user by email", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, backendErr("hash password", err)
	}

	now := s.now()
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	user := &models.User{
		Email:         email,
		Password:      string(hashedPassword),
		FirstName:     first,
		LastName:      last,
		DisplayName:   strings.TrimSpace(first + " " + last),
		StudentID:     strings.TrimSpace(req.StudentID),
		University:    utils.Slugify(req.University),
		ResidenceHall: hallID(req.University, req.ResidenceHall),
		Role:          models.RoleStudent,
		AccountStatus: accountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, backendErr("create user", err)
	}
	slog.Info("User registered", "userId", user.ID, "university", user.University)

	return s.issue(user)
}

// Login checks the credentials and returns a signed token
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, backendErr("find user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.AccountStatus != "" && user.AccountStatus != accountStatusActive {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		slog.Warn("Login: failed to update last login", "error", err, "userId", user.ID)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(jwt.Claims{
		UserID: user.ID.Hex(),
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, backendErr("sign token", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// hallID scopes a residence hall slug to its university, matching the seeder.
func hallID(university, hall string) string {
	h := utils.Slugify(hall)
	if h == "" {
		return ""
	}
	return utils.Slugify(university) + "-" + h
}
