package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"user-account-service/internal/features/user/models"
	"user-account-service/internal/features/user/repository"
	pgplatform "user-account-service/internal/platform/postgres"
)

const (
	uniqueViolation       = "23505"
	usernameUniqueKeyName = "users_username_key"
)

type postgresRepository struct {
	db pgplatform.DBTX
}

func NewPostgresRepository(db pgplatform.DBTX) repository.UserRepository {
	return &postgresRepository{db: db}
}

// Create inserts a new user; the username UNIQUE constraint decides races.
func (r *postgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password, token, status, creation_date, birthday)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Password, user.Token, string(user.Status), user.CreationDate, nullDate(user.Birthday),
	).Scan(&user.ID)
	if err != nil {
		if isUsernameViolation(err) {
			return repository.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *postgresRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, "token = $1", token)
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, username, password, token, status, creation_date, birthday
		FROM users
		WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, username, password, token, status, creation_date, birthday
		FROM users
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// UpdateProfile writes only the columns named by the patch; status is never
// touched.
func (r *postgresRepository) UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) error {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
			birthday = CASE WHEN $3 THEN NULL ELSE COALESCE($4, birthday) END
		WHERE id = $1
	`

	var username sql.NullString
	if patch.Username != nil {
		username = sql.NullString{String: *patch.Username, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		id, username, patch.ClearBirthday, nullDate(patch.Birthday))
	if err != nil {
		if isUsernameViolation(err) {
			return repository.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return checkAffected(result)
}

func (r *postgresRepository) SetStatus(ctx context.Context, id int64, status models.UserStatus) error {
	query := `UPDATE users SET status = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user     models.User
		status   string
		birthday sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Token,
		&status, &user.CreationDate, &birthday); err != nil {
		return nil, err
	}
	user.Status = models.UserStatus(status)
	if !user.Status.Valid() {
		return nil, fmt.Errorf("unknown user status %q", status)
	}
	if birthday.Valid {
		b := birthday.Time.UTC()
		user.Birthday = &b
	}
	return &user, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUsernameViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == usernameUniqueKeyName
}
