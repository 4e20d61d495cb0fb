package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

const userColumns = `id, email, full_name, phone, address, user_image_url, password_hash, password_salt, verified, status, reset_token, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (email, password_hash, password_salt)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, email, passwordHash, passwordSalt)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE email = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET full_name = COALESCE($2, full_name),
            phone = COALESCE($3, phone),
            address = COALESCE($4, address),
            user_image_url = COALESCE($5, user_image_url),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns

	row := r.db.QueryRowxContext(ctx, query, id, update.FullName, update.Phone, update.Address, update.ImageURL)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            reset_token = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id, passwordHash, passwordSalt)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string) error {
	const query = `
        UPDATE user_account
        SET reset_token = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id, token)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, expectedToken string, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $3,
            password_salt = $4,
            reset_token = NULL,
            updated_at = NOW()
        WHERE id = $1 AND reset_token = $2
    `
	result, err := r.db.ExecContext(ctx, query, id, expectedToken, passwordHash, passwordSalt)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.UserStatus) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET status = $3,
            updated_at = NOW()
        WHERE id = $1 AND status = $2
        RETURNING ` + userColumns

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id, string(from), string(to)); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int, statuses []domain.UserStatus) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE cardinality($3::text[]) = 0 OR status = ANY($3::text[])
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2
    `
	filter := make([]string, 0, len(statuses))
	for _, status := range statuses {
		filter = append(filter, string(status))
	}

	users := make([]domain.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, limit, offset, pq.Array(filter)); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM user_account WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
