package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation
const mysqlDuplicateEntry = 1062

const userColumns = `id, name, email, password, role, reset_password_token, reset_password_expire, created_at`

// userRepository implements the user store on MySQL
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.String("user_id", id))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token with the given hash
func (r *userRepository) GetByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_password_token = ? AND reset_password_expire > ?
		LIMIT 1
	`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, hash, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by reset token", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return user, nil
}

// Update applies the given changes to a user in a single statement
func (r *userRepository) Update(ctx context.Context, id string, changes *models.UserChanges) error {
	var setClauses []string
	var args []any

	if changes.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *changes.Name)
	}
	if changes.Email != nil {
		setClauses = append(setClauses, "email = ?")
		args = append(args, *changes.Email)
	}
	if changes.Role != nil {
		setClauses = append(setClauses, "role = ?")
		args = append(args, *changes.Role)
	}
	if changes.PasswordHash != nil {
		setClauses = append(setClauses, "password = ?")
		args = append(args, *changes.PasswordHash)
	}
	switch {
	case changes.Reset != nil:
		setClauses = append(setClauses, "reset_password_token = ?", "reset_password_expire = ?")
		args = append(args, changes.Reset.TokenHash, changes.Reset.ExpiresAt.UTC())
	case changes.ClearReset:
		setClauses = append(setClauses, "reset_password_token = NULL", "reset_password_expire = NULL")
	}

	if len(setClauses) == 0 {
		return nil
	}

	where := "id = ?"
	args = append(args, id)
	if changes.IfReset != nil {
		where += " AND reset_password_token = ? AND reset_password_expire > ?"
		args = append(args, changes.IfReset.TokenHash, changes.IfReset.ValidAt.UTC())
	}

	query := fmt.Sprintf("UPDATE users SET %s WHERE %s", strings.Join(setClauses, ", "), where)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to update user", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	if changes.IfReset != nil {
		return ErrUserNotFound
	}

	// MySQL reports 0 affected rows when the values did not change
	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

// GetAll retrieves all users ordered by creation time
func (r *userRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("failed to scan user", zap.Error(err))
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// Delete removes a user by ID
func (r *userRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("failed to delete user", zap.Error(err), zap.String("user_id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("failed to get rows affected", zap.Error(err))
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check user existence", zap.Error(err), zap.String("user_id", id))
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user        models.User
		resetToken  sql.NullString
		resetExpire sql.NullTime
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Role,
		&resetToken,
		&resetExpire,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetToken.Valid && resetExpire.Valid {
		token := resetToken.String
		expire := resetExpire.Time
		user.ResetPasswordToken = &token
		user.ResetPasswordExpire = &expire
	}

	return &user, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
