package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"video-publisher/domain/dto"
	"video-publisher/domain/model"
	"video-publisher/domain/repository"
	"video-publisher/infrastructure/logger"
	"video-publisher/infrastructure/utils"
)

const userColumns = `id, name, email, email_verified, image, created_at, updated_at`

type UserRepository struct{ db DBTX }

func NewUserRepository(db DBTX) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository { return &UserRepository{db: tx} }

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	var name, email, image sql.NullString
	if err := row.Scan(&u.ID, &name, &email, &u.EmailVerified, &image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Name = nullStringPtr(name)
	u.Email = nullStringPtr(email)
	u.Image = nullStringPtr(image)
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("get user", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError("get user by email", err)
	}
	return u, nil
}

func userWhere(filter dto.UserFilter) (string, []interface{}) {
	if filter.EmailContains == "" {
		return "", nil
	}
	return ` WHERE email ILIKE $1`, []interface{}{"%" + filter.EmailContains + "%"}
}

func (r *UserRepository) List(ctx context.Context, filter dto.UserFilter) ([]*model.User, error) {
	filter.Normalize()
	where, args := userWhere(filter)
	q := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, userColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError("list users", err)
	}
	defer rows.Close()
	var list []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError("scan user", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context, filter dto.UserFilter) (int64, error) {
	where, args := userWhere(filter)
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, mapError("count users", err)
	}
	return n, nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	if u.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &e
	}
	now := utils.GetCurrentTime()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name, email, email_verified, image, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$6)`,
		u.ID, u.Name, u.Email, u.EmailVerified, u.Image, now)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", u.ID).Error("create user failed")
		return mapError("create user", err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = utils.GetCurrentTime()
	res, err := r.db.ExecContext(ctx, `UPDATE users SET name=$1, email=$2, email_verified=$3, image=$4, updated_at=$5 WHERE id=$6`,
		u.Name, u.Email, u.EmailVerified, u.Image, u.UpdatedAt, u.ID)
	if err != nil {
		return mapError("update user", err)
	}
	return expectOne("update user", res, model.ErrNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapError("delete user", err)
	}
	return expectOne("delete user", res, model.ErrNotFound)
}

var _ repository.IUser = (*UserRepository)(nil)
