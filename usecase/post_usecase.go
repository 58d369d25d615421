package usecase

import (
	"context"
	"fmt"
	"strings"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
)

type IPostUsecase interface {
	Create(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error)
	Latest(ctx context.Context, userID string) (*model.Post, error)
	List(ctx context.Context, filter dto.PostFilter) ([]*model.Post, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type postUsecase struct {
	posts repository.IPost
}

func NewPostUsecase(posts repository.IPost) IPostUsecase {
	return &postUsecase{posts: posts}
}

func (u *postUsecase) Create(ctx context.Context, userID string, req dto.CreatePostRequest) (*model.Post, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrInvalidInput)
	}
	post := &model.Post{Name: name, CreatedByID: userID}
	if err := u.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (u *postUsecase) Latest(ctx context.Context, userID string) (*model.Post, error) {
	return u.posts.GetLatest(ctx, userID)
}

func (u *postUsecase) List(ctx context.Context, filter dto.PostFilter) ([]*model.Post, error) {
	filter.Normalize()
	return u.posts.List(ctx, filter)
}

func (u *postUsecase) Delete(ctx context.Context, userID string, id int64) error {
	post, err := u.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.CreatedByID != userID {
		return model.ErrForbidden
	}
	return u.posts.Delete(ctx, id)
}
