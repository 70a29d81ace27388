package storage

import (
	"context"
	"database/sql"

	"natours/internal/core"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, photo, role, password_hash, password_changed_at, active, created_at`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create сохраняет пользователя; дубликат email вернёт ошибку MySQL 1062
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Photo == "" {
		u.Photo = "default.jpg"
	}
	const q = `
		INSERT INTO users (name, email, photo, role, password_hash)
		VALUES (:name, :email, :photo, :role, :password_hash)`
	res, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		core.LogError("create user", map[string]interface{}{"error": err.Error()})
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	u.Active = true
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ? AND active = TRUE`
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if err != sql.ErrNoRows {
			core.LogError("get user by id", map[string]interface{}{"id": id, "error": err.Error()})
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ? AND active = TRUE`
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if err != sql.ErrNoRows {
			core.LogError("get user by email", map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	items := []User{}
	const q = `SELECT ` + userColumns + ` FROM users WHERE active = TRUE ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &items, q); err != nil {
		core.LogError("list users", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	return items, nil
}

// UpdateData — имя и email из формы личного кабинета
func (r *UserRepo) UpdateData(ctx context.Context, id int64, name, email string) (*User, error) {
	const q = `UPDATE users SET name = ?, email = ? WHERE id = ? AND active = TRUE`
	if _, err := r.db.ExecContext(ctx, q, name, email, id); err != nil {
		core.LogError("update user data", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, err
	}
	return r.GetByID(ctx, id)
}
