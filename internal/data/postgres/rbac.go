package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

type RBACStore struct {
	pool *pgxpool.Pool
}

func NewRBACStore(pool *pgxpool.Pool) *RBACStore {
	return &RBACStore{pool: pool}
}

func (s *RBACStore) CreateRole(ctx context.Context, name, description string, isDefault bool, permissionIds []int64) (usermodel.Role, error) {
	var r usermodel.Role

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO roles (name, description, is_default)
		 VALUES ($1, NULLIF($2, ''), $3)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id, name, COALESCE(description, ''), is_default, created_at, updated_at`,
		name, description, isDefault,
	).Scan(&r.Id, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, fmt.Errorf("role %s: %w", name, ErrDuplicate)
	}
	if err != nil {
		return r, fmt.Errorf("failed to create role: %w", err)
	}

	for _, pid := range permissionIds {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permission (role_id, permission_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, r.Id, pid); err != nil {
			return r, fmt.Errorf("failed to attach permission %d: %w", pid, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("failed to commit role: %w", err)
	}
	return s.GetRole(ctx, r.Id)
}

func (s *RBACStore) GetRole(ctx context.Context, id int64) (usermodel.Role, error) {
	var r usermodel.Role
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), is_default, created_at, updated_at
		 FROM roles WHERE id = $1`, id,
	).Scan(&r.Id, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to load role: %w", err)
	}

	perms, err := s.rolePermissions(ctx, r.Id)
	if err != nil {
		return r, err
	}
	r.Permissions = perms
	return r, nil
}

func (s *RBACStore) ListRoles(ctx context.Context, offset, limit int) ([]usermodel.Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), is_default, created_at, updated_at
		 FROM roles ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []usermodel.Role
	for rows.Next() {
		var r usermodel.Role
		if err := rows.Scan(&r.Id, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	for i := range roles {
		perms, err := s.rolePermissions(ctx, roles[i].Id)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (s *RBACStore) UpdateRole(ctx context.Context, id int64, name, description string, isDefault *bool, permissionIds []int64) (usermodel.Role, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return usermodel.Role{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE roles SET name = COALESCE(NULLIF($2, ''), name),
		                  description = COALESCE(NULLIF($3, ''), description),
		                  is_default = COALESCE($4, is_default),
		                  updated_at = now()
		 WHERE id = $1`, id, name, description, isDefault)
	if err != nil {
		return usermodel.Role{}, fmt.Errorf("failed to update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usermodel.Role{}, ErrNotFound
	}

	if permissionIds != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permission WHERE role_id = $1`, id); err != nil {
			return usermodel.Role{}, fmt.Errorf("failed to clear role permissions: %w", err)
		}
		for _, pid := range permissionIds {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permission (role_id, permission_id) VALUES ($1, $2)`, id, pid); err != nil {
				return usermodel.Role{}, fmt.Errorf("failed to attach permission %d: %w", pid, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return usermodel.Role{}, fmt.Errorf("failed to commit role update: %w", err)
	}
	return s.GetRole(ctx, id)
}

func (s *RBACStore) DeleteRole(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RBACStore) rolePermissions(ctx context.Context, roleId int64) ([]usermodel.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, COALESCE(p.description, ''), p.resource, p.action
		 FROM permissions p JOIN role_permission rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1 ORDER BY p.id`, roleId)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}
	defer rows.Close()

	var perms []usermodel.Permission
	for rows.Next() {
		var p usermodel.Permission
		if err := rows.Scan(&p.Id, &p.Name, &p.Description, &p.Resource, &p.Action); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *RBACStore) CreatePermission(ctx context.Context, name, description, resource, action string) (usermodel.Permission, error) {
	var p usermodel.Permission
	err := s.pool.QueryRow(ctx,
		`INSERT INTO permissions (name, description, resource, action)
		 VALUES ($1, NULLIF($2, ''), $3, $4)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id, name, COALESCE(description, ''), resource, action`,
		name, description, resource, action,
	).Scan(&p.Id, &p.Name, &p.Description, &p.Resource, &p.Action)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, fmt.Errorf("permission %s: %w", name, ErrDuplicate)
	}
	if err != nil {
		return p, fmt.Errorf("failed to create permission: %w", err)
	}
	return p, nil
}

func (s *RBACStore) ListPermissions(ctx context.Context, offset, limit int) ([]usermodel.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), resource, action
		 FROM permissions ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	var perms []usermodel.Permission
	for rows.Next() {
		var p usermodel.Permission
		if err := rows.Scan(&p.Id, &p.Name, &p.Description, &p.Resource, &p.Action); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *RBACStore) DeletePermission(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RBACStore) AssignRole(ctx context.Context, userId, roleId int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_role (user_id, role_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userId, roleId)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (s *RBACStore) RevokeRole(ctx context.Context, userId, roleId int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM user_role WHERE user_id = $1 AND role_id = $2`, userId, roleId)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DefaultRoles returns roles flagged is_default, assigned to new users.
func (s *RBACStore) DefaultRoles(ctx context.Context) ([]usermodel.Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), is_default, created_at, updated_at
		 FROM roles WHERE is_default ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load default roles: %w", err)
	}
	defer rows.Close()

	var roles []usermodel.Role
	for rows.Next() {
		var r usermodel.Role
		if err := rows.Scan(&r.Id, &r.Name, &r.Description, &r.IsDefault, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
