package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jurisai/jurisai/internal/domain/usermodel"
)

// ErrNotFound is returned by stores in this package when a row is missing.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned on unique constraint conflicts (email, role name).
var ErrDuplicate = errors.New("already exists")

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Create(ctx context.Context, name, email, hashedPassword string) (usermodel.User, error) {
	var u usermodel.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, hashed_password)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING id, name, email, hashed_password, role, created_at, updated_at`,
		name, email, hashedPassword,
	).Scan(&u.Id, &u.Name, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, fmt.Errorf("user %s: %w", email, ErrDuplicate)
	}
	if err != nil {
		return u, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (usermodel.User, error) {
	return s.getUser(ctx,
		`SELECT id, name, email, hashed_password, role, created_at, updated_at
		 FROM users WHERE email = $1`, email)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (usermodel.User, error) {
	return s.getUser(ctx,
		`SELECT id, name, email, hashed_password, role, created_at, updated_at
		 FROM users WHERE id = $1`, id)
}

func (s *UserStore) getUser(ctx context.Context, query string, arg any) (usermodel.User, error) {
	var u usermodel.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.Id, &u.Name, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("failed to load user: %w", err)
	}

	roles, err := s.loadRoles(ctx, u.Id)
	if err != nil {
		return u, err
	}
	u.Roles = roles
	return u, nil
}

func (s *UserStore) loadRoles(ctx context.Context, userId int64) ([]usermodel.Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.name, COALESCE(r.description, ''), r.is_default, r.created_at, r.updated_at
		 FROM roles r JOIN user_role ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1 ORDER BY r.id`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to load user roles: %w", err)
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
		perms, err := s.loadPermissions(ctx, roles[i].Id)
		if err != nil {
			return nil, err
		}
		roles[i].Permissions = perms
	}
	return roles, nil
}

func (s *UserStore) loadPermissions(ctx context.Context, roleId int64) ([]usermodel.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, COALESCE(p.description, ''), p.resource, p.action
		 FROM permissions p JOIN role_permission rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1 ORDER BY p.id`, roleId)
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
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

func (s *UserStore) UpdateProfile(ctx context.Context, id int64, name, email string) (usermodel.User, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET name = COALESCE(NULLIF($2, ''), name),
		                  email = COALESCE(NULLIF($3, ''), email),
		                  updated_at = now()
		 WHERE id = $1`, id, name, email)
	if err != nil {
		return usermodel.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usermodel.User{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) UpdatePassword(ctx context.Context, id int64, hashedPassword string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET hashed_password = $2, updated_at = now() WHERE id = $1`,
		id, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLegacyRole flips the users.role column; used by the admin bootstrap.
func (s *UserStore) SetLegacyRole(ctx context.Context, id int64, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]usermodel.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, hashed_password, role, created_at, updated_at
		 FROM users ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []usermodel.User
	for rows.Next() {
		var u usermodel.User
		if err := rows.Scan(&u.Id, &u.Name, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
