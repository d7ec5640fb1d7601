package userrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/mens-health/internal/domain/auth"
)

const uniqueViolation = "23505"

// PostgresRepository persists users in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new user row.
func (r *PostgresRepository) Create(ctx context.Context, user auth.User) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, password_hash, created_at
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.User{}, auth.ErrEmailExists
		}
		return auth.User{}, err
	}
	return created, nil
}

// GetByEmail fetches a user by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (auth.User, bool, error) {
	return r.getOne(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
}

// List returns all users, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]auth.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]auth.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetIdentity finds the link for a provider subject.
func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	return r.getIdentity(ctx, `
		SELECT user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE provider = $1 AND provider_subject = $2
	`, provider, providerSubject)
}

// GetIdentityByUser finds the link of a user for a provider.
func (r *PostgresRepository) GetIdentityByUser(ctx context.Context, userID, provider string) (auth.Identity, bool, error) {
	return r.getIdentity(ctx, `
		SELECT user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM user_identities
		WHERE user_id = $1 AND provider = $2
	`, userID, provider)
}

// UpsertIdentity inserts or refreshes a provider link. An empty refresh
// token keeps the stored one.
func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_identities (user_id, provider, provider_subject, provider_email, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_subject) DO UPDATE SET
			provider_email = EXCLUDED.provider_email,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), user_identities.refresh_token),
			updated_at = now()
		RETURNING user_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`, identity.UserID, identity.Provider, identity.ProviderSubject, identity.ProviderEmail, identity.RefreshToken)
	return scanIdentity(row)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (auth.User, bool, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	return user, true, nil
}

func (r *PostgresRepository) getIdentity(ctx context.Context, query string, args ...any) (auth.Identity, bool, error) {
	identity, err := scanIdentity(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, error) {
	var user auth.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt); err != nil {
		return auth.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func scanIdentity(row rowScanner) (auth.Identity, error) {
	var identity auth.Identity
	if err := row.Scan(
		&identity.UserID,
		&identity.Provider,
		&identity.ProviderSubject,
		&identity.ProviderEmail,
		&identity.RefreshToken,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return auth.Identity{}, err
	}
	return identity, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
