package auth

import (
	"context"
	"encoding/json"

	"github.com/yanqian/mens-health/internal/domain/localstore"
)

type sessionRecord struct {
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// sessionStore tracks live sessions; a token whose record is gone is
// treated as logged out.
type sessionStore struct {
	kv localstore.KV
}

func (s sessionStore) put(ctx context.Context, sessionID string, record sessionRecord, cfg Config) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, localstore.SessionKey(sessionID), payload, cfg.RefreshTokenTTL)
}

func (s sessionStore) get(ctx context.Context, sessionID string) (sessionRecord, bool, error) {
	raw, found, err := s.kv.Get(ctx, localstore.SessionKey(sessionID))
	if err != nil || !found {
		return sessionRecord{}, false, err
	}
	var record sessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return sessionRecord{}, false, nil
	}
	return record, true, nil
}

func (s sessionStore) delete(ctx context.Context, sessionID string) error {
	return s.kv.Delete(ctx, localstore.SessionKey(sessionID))
}
