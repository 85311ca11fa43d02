package service

import (
	"context"
	"fmt"

	"github.com/postcraft/postcraft-api/internal/repository"
	"github.com/postcraft/postcraft-api/internal/transfer"
	"github.com/postcraft/postcraft-api/pkg/apperror"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*transfer.UserInfoResponse, error)
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{
		u: u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*transfer.UserInfoResponse, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	if !isExist {
		return nil, apperror.ErrNotFound.WithMessage("User not found")
	}

	return &transfer.UserInfoResponse{
		ID:                user.ID,
		Username:          user.Username,
		Email:             user.Email,
		LinkedInConnected: user.LinkedInConnected,
		CreatedAt:         user.CreatedAt,
	}, nil
}
