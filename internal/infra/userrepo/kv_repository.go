package userrepo

import (
	"context"
	"time"

	"github.com/yanqian/mens-health/internal/domain/auth"
	"github.com/yanqian/mens-health/internal/domain/localstore"
)

const identitiesKey = "health_app_identities"

type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type identityRecord struct {
	UserID          string    `json:"userId"`
	Provider        string    `json:"provider"`
	ProviderSubject string    `json:"providerSubject"`
	ProviderEmail   string    `json:"providerEmail"`
	RefreshToken    string    `json:"refreshToken,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// KVRepository keeps users in the health_app_users collection of a KV store.
type KVRepository struct {
	users      *localstore.Collection[[]userRecord]
	identities *localstore.Collection[[]identityRecord]
}

// NewKVRepository binds the repository to store.
func NewKVRepository(store *localstore.Store) *KVRepository {
	return &KVRepository{
		users:      localstore.NewCollection(store, localstore.KeyUsers, func() []userRecord { return []userRecord{} }),
		identities: localstore.NewCollection(store, identitiesKey, func() []identityRecord { return []identityRecord{} }),
	}
}

// Create stores the user; emails are unique.
func (r *KVRepository) Create(ctx context.Context, user auth.User) (auth.User, error) {
	_, err := r.users.Update(ctx, func(list []userRecord) ([]userRecord, error) {
		for _, rec := range list {
			if rec.Email == user.Email {
				return nil, auth.ErrEmailExists
			}
		}
		return append(list, toRecord(user)), nil
	})
	if err != nil {
		return auth.User{}, err
	}
	return user, nil
}

// GetByEmail returns a user by email.
func (r *KVRepository) GetByEmail(ctx context.Context, email string) (auth.User, bool, error) {
	for _, rec := range r.users.Load(ctx) {
		if rec.Email == email {
			return fromRecord(rec), true, nil
		}
	}
	return auth.User{}, false, nil
}

// GetByID returns a user by ID.
func (r *KVRepository) GetByID(ctx context.Context, id string) (auth.User, bool, error) {
	for _, rec := range r.users.Load(ctx) {
		if rec.ID == id {
			return fromRecord(rec), true, nil
		}
	}
	return auth.User{}, false, nil
}

// List returns every user.
func (r *KVRepository) List(ctx context.Context) ([]auth.User, error) {
	records := r.users.Load(ctx)
	users := make([]auth.User, 0, len(records))
	for _, rec := range records {
		users = append(users, fromRecord(rec))
	}
	return users, nil
}

// GetIdentity finds the link for a provider subject.
func (r *KVRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	for _, rec := range r.identities.Load(ctx) {
		if rec.Provider == provider && rec.ProviderSubject == providerSubject {
			return fromIdentityRecord(rec), true, nil
		}
	}
	return auth.Identity{}, false, nil
}

// GetIdentityByUser finds the link of a user for a provider.
func (r *KVRepository) GetIdentityByUser(ctx context.Context, userID, provider string) (auth.Identity, bool, error) {
	for _, rec := range r.identities.Load(ctx) {
		if rec.UserID == userID && rec.Provider == provider {
			return fromIdentityRecord(rec), true, nil
		}
	}
	return auth.Identity{}, false, nil
}

// UpsertIdentity inserts or refreshes a provider link.
func (r *KVRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	now := time.Now().UTC()
	var stored identityRecord
	_, err := r.identities.Update(ctx, func(list []identityRecord) ([]identityRecord, error) {
		for i, rec := range list {
			if rec.Provider == identity.Provider && rec.ProviderSubject == identity.ProviderSubject {
				rec.ProviderEmail = identity.ProviderEmail
				if identity.RefreshToken != "" {
					rec.RefreshToken = identity.RefreshToken
				}
				rec.UpdatedAt = now
				list[i] = rec
				stored = rec
				return list, nil
			}
		}
		stored = identityRecord{
			UserID:          identity.UserID,
			Provider:        identity.Provider,
			ProviderSubject: identity.ProviderSubject,
			ProviderEmail:   identity.ProviderEmail,
			RefreshToken:    identity.RefreshToken,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return append(list, stored), nil
	})
	if err != nil {
		return auth.Identity{}, err
	}
	return fromIdentityRecord(stored), nil
}

func toRecord(user auth.User) userRecord {
	return userRecord{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func fromRecord(rec userRecord) auth.User {
	return auth.User{
		ID:           rec.ID,
		Email:        rec.Email,
		Name:         rec.Name,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}
}

func fromIdentityRecord(rec identityRecord) auth.Identity {
	return auth.Identity{
		UserID:          rec.UserID,
		Provider:        rec.Provider,
		ProviderSubject: rec.ProviderSubject,
		ProviderEmail:   rec.ProviderEmail,
		RefreshToken:    rec.RefreshToken,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

var _ auth.Repository = (*KVRepository)(nil)
