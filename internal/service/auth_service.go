package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	config "github.com/postcraft/postcraft-api/configs"
	"github.com/postcraft/postcraft-api/internal/models"
	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
	"github.com/postcraft/postcraft-api/pkg/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
)

// dummyHash is compared against when the email is unknown so that signin
// takes the same time whether or not the account exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("postcraft-dummy-password"), bcrypt.DefaultCost)

type AuthService interface {
	Signup(ctx context.Context, req transfer.SignupRequest) (*transfer.AuthResponse, error)
	Signin(ctx context.Context, req transfer.SigninRequest) (*transfer.AuthResponse, error)
}

type authService struct {
	cfg config.Config
	u   repository.UserRepository
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg: cfg,
		u:   u,
	}
}

func (s *authService) Signup(ctx context.Context, req transfer.SignupRequest) (*transfer.AuthResponse, error) {
	req.Normalize()
	username, email := req.Username, req.Email
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperror.NewValidationField("username", fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	}
	if email == "" {
		return nil, apperror.NewValidationField("email", "email is required")
	}

	exists, err := s.u.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, apperror.ErrConflict.WithMessage("User with this email or username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if _, err := s.u.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperror.ErrConflict.WithMessage("User with this email or username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Info().Int64("user_id", user.ID).Msg("user signed up")
	return s.issue(user)
}

func (s *authService) Signin(ctx context.Context, req transfer.SigninRequest) (*transfer.AuthResponse, error) {
	req.Normalize()
	user, found, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	hash := dummyHash
	if found {
		hash = []byte(user.PasswordHash)
	}
	err = bcrypt.CompareHashAndPassword(hash, []byte(req.Password))
	if !found || err != nil {
		if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			log.Warn().Err(err).Msg("password comparison failed")
		}
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) issue(user *models.User) (*transfer.AuthResponse, error) {
	token, err := utils.GenerateToken(s.cfg.SecretKey, user.ID, user.Email, s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &transfer.AuthResponse{
		Success: true,
		Token:   token,
		User: transfer.UserResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	}, nil
}
