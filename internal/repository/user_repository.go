package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/models"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `
	user_id,
	email,
	password_hash,
	name,
	phone,
	role,
	is_verified,
	otp_code,
	otp_expires_at,
	last_login,
	created_at,
	updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var phone *string
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&phone,
		&u.Role,
		&u.IsVerified,
		&u.OTPCode,
		&u.OTPExpiresAt,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone != nil {
		u.Phone = *phone
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if user.Email == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("%w: password hash required", ErrInvalidInput)
	}
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}

	sql := `
		INSERT INTO users (
			email,
			password_hash,
			name,
			phone,
			role,
			is_verified,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING user_id
	`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.QueryRow(ctx, sql,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.Role,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}

	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidInput)
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, sql, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone required", ErrInvalidInput)
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`

	user, err := scanUser(r.db.QueryRow(ctx, sql, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}

	return user, nil
}

func (r *userRepo) SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error {
	if userID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if len(code) != 6 {
		return fmt.Errorf("%w: code must be 6 digits", ErrInvalidInput)
	}

	sql := `
		UPDATE users
		SET otp_code = $1,
			otp_expires_at = $2,
			updated_at = $3
		WHERE user_id = $4
	`

	result, err := r.db.Exec(ctx, sql, code, expiresAt, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set otp for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ConsumeOTP runs the whole verify-and-clear sequence in one transaction.
// The row is locked for the classification read, and the clearing UPDATE
// re-checks otp_code so two concurrent attempts cannot both succeed.
func (r *userRepo) ConsumeOTP(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored *string
	var expiresAt *time.Time
	var isVerified bool

	sql := `
		SELECT otp_code, otp_expires_at, is_verified
		FROM users
		WHERE user_id = $1
		FOR UPDATE
	`

	err = tx.QueryRow(ctx, sql, userID).Scan(&stored, &expiresAt, &isVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read otp state for user %d: %w", userID, err)
	}

	if markVerified && isVerified {
		return nil, ErrAlreadyVerified
	}
	if stored == nil || expiresAt == nil {
		return nil, ErrOTPNotFound
	}
	if time.Now().After(*expiresAt) {
		return nil, ErrOTPExpired
	}
	if *stored != code {
		return nil, ErrOTPMismatch
	}

	now := time.Now()
	var update string
	if markVerified {
		update = `
			UPDATE users
			SET otp_code = NULL,
				otp_expires_at = NULL,
				is_verified = TRUE,
				updated_at = $1
			WHERE user_id = $2 AND otp_code = $3
			RETURNING ` + userColumns
	} else {
		update = `
			UPDATE users
			SET otp_code = NULL,
				otp_expires_at = NULL,
				last_login = $1,
				updated_at = $1
			WHERE user_id = $2 AND otp_code = $3
			RETURNING ` + userColumns
	}

	user, err := scanUser(tx.QueryRow(ctx, update, now, userID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOTPMismatch
		}
		return nil, fmt.Errorf("failed to consume otp for user %d: %w", userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}
