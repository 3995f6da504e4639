package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"basecode-go/pkg/model"
)

const userColumns = `id, user_name, normalized_user_name, email, normalized_email, email_confirmed,
    password_hash, security_stamp, two_factor_enabled, two_factor_secret,
    first_name, last_name, email_address, region_id, row_version, created_at, updated_at`

// UserRepository stores application users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns ErrNotFound when no user has the id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.AppUser, error) {
	return r.findOne(ctx, "find user", `SELECT `+userColumns+` FROM app_users WHERE id = $1`, id)
}

// FindByUserName looks a user up by normalized user name
func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (*model.AppUser, error) {
	return r.findOne(ctx, "find user by name",
		`SELECT `+userColumns+` FROM app_users WHERE normalized_user_name = $1`, model.Normalize(userName))
}

// FindByEmail looks a user up by normalized e-mail. The oldest account wins.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	return r.findOne(ctx, "find user by email",
		`SELECT `+userColumns+` FROM app_users WHERE normalized_email = $1 ORDER BY created_at LIMIT 1`, model.Normalize(email))
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*model.AppUser, error) {
	var user model.AppUser
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, classify(op, err)
	}
	return &user, nil
}

// Create inserts the user. A taken user name yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.AppUser) error {
	user.NormalizedUserName = model.Normalize(user.UserName)
	user.NormalizedEmail = model.Normalize(user.Email)

	err := r.db.QueryRowxContext(ctx, `
        INSERT INTO app_users
        (id, user_name, normalized_user_name, email, normalized_email, email_confirmed,
         password_hash, security_stamp, two_factor_enabled, first_name, last_name,
         email_address, region_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10, $11, $12, NOW(), NOW())
        RETURNING row_version, created_at, updated_at
    `, user.ID, user.UserName, user.NormalizedUserName, user.Email, user.NormalizedEmail,
		user.EmailConfirmed, user.PasswordHash, user.SecurityStamp, user.FirstName, user.LastName,
		user.EmailAddress, user.RegionID).Scan(&user.RowVersion, &user.CreatedAt, &user.UpdatedAt)
	return classify("create user", err)
}

// UpdatePassword replaces the password hash and security stamp
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash, securityStamp string) error {
	return r.exec(ctx, "update password", `
        UPDATE app_users
        SET password_hash = $1, security_stamp = $2, row_version = row_version + 1, updated_at = NOW()
        WHERE id = $3
    `, passwordHash, securityStamp, id)
}

// UpdateTwoFactor stores the authenticator state of a user
func (r *UserRepository) UpdateTwoFactor(ctx context.Context, id string, enabled bool, secret sql.NullString) error {
	return r.exec(ctx, "update two-factor", `
        UPDATE app_users
        SET two_factor_enabled = $1, two_factor_secret = $2, row_version = row_version + 1, updated_at = NOW()
        WHERE id = $3
    `, enabled, secret, id)
}

func (r *UserRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows)
	}
	return nil
}
