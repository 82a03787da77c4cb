package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adsgram/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, telegram_id, telegram_username, name, wallet_address, pix_key,
	available_cents, pending_cents, xp_points, level, is_admin, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.TelegramUsername, &u.Name, &u.WalletAddress, &u.PixKey,
		&u.AvailableCents, &u.PendingCents, &u.XPPoints, &u.Level, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns ErrUserNotFound when no user has id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpsertByTelegramID creates the user on first login. A non-nil username
// replaces the stored one.
func (r *Repository) UpsertByTelegramID(ctx context.Context, telegramID string, username *string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, telegram_username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE
		SET telegram_username = COALESCE(EXCLUDED.telegram_username, users.telegram_username), updated_at = now()
		RETURNING `+userColumns,
		telegramID, username))
}

// ConsumeLoginCode marks an unused, unexpired code as used and returns its
// user. A code is consumed by at most one caller.
func (r *Repository) ConsumeLoginCode(ctx context.Context, code string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		UPDATE login_codes SET used = TRUE, used_at = $2
		WHERE code = $1 AND NOT used AND expires_at > $2
		RETURNING user_id
	`, code, now).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrInvalidCode
	}
	return userID, err
}

// UpdateProfile writes the set fields of upd and leaves the others as stored.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			name           = CASE WHEN $2::boolean THEN $3::text ELSE name END,
			wallet_address = CASE WHEN $4::boolean THEN $5::text ELSE wallet_address END,
			pix_key        = CASE WHEN $6::boolean THEN $7::text ELSE pix_key END,
			updated_at     = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id,
		upd.Name.Set, upd.Name.Value,
		upd.WalletAddress.Set, upd.WalletAddress.Value,
		upd.PixKey.Set, upd.PixKey.Value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}
