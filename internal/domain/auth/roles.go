package auth

import (
	"context"

	"github.com/yanqian/mens-health/internal/domain/access"
	"github.com/yanqian/mens-health/internal/domain/localstore"
)

const (
	roleUser  = access.RoleUser
	roleAdmin = access.RoleAdmin
)

// RoleStore is the side-channel mapping from user ID to role.
type RoleStore struct {
	store *localstore.Store
}

// NewRoleStore binds the mapping to store.
func NewRoleStore(store *localstore.Store) *RoleStore {
	return &RoleStore{store: store}
}

// Role returns the stored role, or "user" when none is stored.
func (r *RoleStore) Role(ctx context.Context, userID string) string {
	role := r.collection(userID).Load(ctx)
	if !access.ValidRole(role) {
		return roleUser
	}
	return role
}

// SetRole records role for userID.
func (r *RoleStore) SetRole(ctx context.Context, userID, role string) error {
	return r.collection(userID).Save(ctx, role)
}

func (r *RoleStore) collection(userID string) *localstore.Collection[string] {
	return localstore.NewCollection(r.store, localstore.RoleKey(userID), func() string { return "" })
}
