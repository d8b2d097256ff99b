package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

var ErrEmailTaken = errors.New("email already exists")

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreateUser(ctx context.Context, u User) error {
	now := time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.Name, u.PasswordHash, now, now)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userCols = `id, email, name, password_hash, token_version, created_at`

func scanUser(row *sql.Row, op string) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.TokenVersion, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	return scanUser(row, "get by email")
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	return scanUser(row, "get by id")
}

// UpdatePassword stores the new hash and bumps the token version, which
// invalidates every token issued before the change.
func (r *Repo) UpdatePassword(ctx context.Context, id string, passwordHash string) (int, error) {
	return r.bump(ctx, id, "update password", `password_hash = ?,`, passwordHash)
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	return r.bump(ctx, id, "bump token version", "")
}

func (r *Repo) bump(ctx context.Context, id, op, set string, args ...any) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin %s: %w", op, err)
	}
	defer tx.Rollback()

	args = append(args, time.Now().UTC(), id)
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET `+set+` token_version = token_version + 1, updated_at = ?
		WHERE id = ?
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("%s rows: %w", op, err)
	} else if n == 0 {
		return 0, fmt.Errorf("%s: user not found", op)
	}

	var version int
	if err := tx.QueryRowContext(ctx, `SELECT token_version FROM users WHERE id = ?`, id).Scan(&version); err != nil {
		return 0, fmt.Errorf("%s: read version: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", op, err)
	}
	return version, nil
}
