package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/repository/ports"
)

type RoleRepository struct {
	db *sqlx.DB
}

func NewRoleRepo(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetOrCreateRole(ctx context.Context, name, description string) (*domain.Role, error) {
	const query = `
        INSERT INTO role (role_name, description)
        VALUES ($1, $2)
        ON CONFLICT (role_name) DO UPDATE
        SET description = COALESCE(EXCLUDED.description, role.description),
            updated_at = NOW()
        RETURNING id, role_name, description, created_at, updated_at
    `
	row := r.db.QueryRowxContext(ctx, query, name, description)
	var role domain.Role
	if err := row.StructScan(&role); err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) AssignUserRole(ctx context.Context, userID, roleID uuid.UUID) error {
	const query = `
        INSERT INTO user_role (role_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (role_id, user_id) DO NOTHING
    `
	_, err := r.db.ExecContext(ctx, query, roleID, userID)
	return err
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Role, error) {
	const query = `
        SELECT r.id, r.role_name, r.description, r.created_at, r.updated_at
        FROM role r
        JOIN user_role ur ON ur.role_id = r.id
        WHERE ur.user_id = $1
        ORDER BY r.role_name
    `
	roles := make([]domain.Role, 0)
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, err
	}
	return roles, nil
}

var _ ports.RoleRepository = (*RoleRepository)(nil)
