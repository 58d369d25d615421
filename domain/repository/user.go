package repository

import (
	"context"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
)

type IUser interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter dto.UserFilter) ([]*model.User, error)
	Count(ctx context.Context, filter dto.UserFilter) (int64, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type IPost interface {
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	// GetLatest returns the most recently created post of the user.
	GetLatest(ctx context.Context, createdByID string) (*model.Post, error)
	List(ctx context.Context, filter dto.PostFilter) ([]*model.Post, error)
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id int64) error
}
