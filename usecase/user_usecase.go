package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
)

type IUserUsecase interface {
	Me(ctx context.Context, userID string) (*model.User, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*model.User, error)
	List(ctx context.Context, filter dto.UserFilter) (*dto.Page, error)
}

type userUsecase struct {
	users repository.IUser
}

func NewUserUsecase(users repository.IUser) IUserUsecase {
	return &userUsecase{users: users}
}

func (u *userUsecase) Me(ctx context.Context, userID string) (*model.User, error) {
	return u.users.GetByID(ctx, userID)
}

func (u *userUsecase) Create(ctx context.Context, req dto.CreateUserRequest) (*model.User, error) {
	user := &model.User{
		Name:          req.Name,
		EmailVerified: req.EmailVerified,
		Image:         req.Image,
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: invalid email %q", model.ErrInvalidInput, *req.Email)
		}
		if _, err := u.users.GetByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("%w: email %s", model.ErrConflict, email)
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		user.Email = &email
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUsecase) List(ctx context.Context, filter dto.UserFilter) (*dto.Page, error) {
	filter.Normalize()
	users, err := u.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := u.users.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.Page{Items: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
