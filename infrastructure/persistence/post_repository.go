package persistence

import (
	"context"
	"database/sql"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/utils"
)

type PostRepository struct{ db DBTX }

func NewPostRepository(db DBTX) *PostRepository { return &PostRepository{db: db} }

func (r *PostRepository) WithTx(tx *sql.Tx) *PostRepository { return &PostRepository{db: tx} }

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	if err := row.Scan(&p.ID, &p.Name, &p.CreatedByID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT id, name, created_by_id, created_at, updated_at FROM posts WHERE id=$1`, id))
	if err != nil {
		return nil, mapError("get post", err)
	}
	return p, nil
}

func (r *PostRepository) GetLatest(ctx context.Context, createdByID string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT id, name, created_by_id, created_at, updated_at FROM posts WHERE created_by_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, createdByID))
	if err != nil {
		return nil, mapError("get latest post", err)
	}
	return p, nil
}

func (r *PostRepository) List(ctx context.Context, filter dto.PostFilter) ([]*model.Post, error) {
	filter.Normalize()
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_by_id, created_at, updated_at FROM posts WHERE created_by_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		filter.CreatedByID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, mapError("list posts", err)
	}
	defer rows.Close()
	var list []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, mapError("scan post", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	now := utils.GetCurrentTime()
	p.CreatedAt, p.UpdatedAt = now, now
	err := r.db.QueryRowContext(ctx, `INSERT INTO posts (name, created_by_id, created_at, updated_at) VALUES ($1,$2,$3,$3) RETURNING id`,
		p.Name, p.CreatedByID, now).Scan(&p.ID)
	return mapError("create post", err)
}

func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	p.UpdatedAt = utils.GetCurrentTime()
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET name=$1, updated_at=$2 WHERE id=$3`, p.Name, p.UpdatedAt, p.ID)
	if err != nil {
		return mapError("update post", err)
	}
	return expectOne("update post", res, model.ErrNotFound)
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, id)
	if err != nil {
		return mapError("delete post", err)
	}
	return expectOne("delete post", res, model.ErrNotFound)
}

var _ repository.IPost = (*PostRepository)(nil)
