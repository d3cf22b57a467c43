package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/taomall/marketplace-backend/pkg/errors"
	"github.com/taomall/marketplace-backend/pkg/redis"
)

// DefaultTTL is how long an untouched draft lives.
const DefaultTTL = 24 * time.Hour

// KV is the slice of the Redis wrapper drafts are kept in.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DraftKey(shopID, draftID string) string
}

// Store persists drafts as JSON, refreshing the TTL on every write.
type Store struct {
	kv  KV
	ttl time.Duration
}

func NewStore(kv KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, d *Draft) error {
	raw, err := s.kv.Get(ctx, s.kv.DraftKey(d.ShopID.String(), d.ID))
	if err != nil {
		if redis.IsNil(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft")
	}
	if err := json.Unmarshal([]byte(raw), d); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode draft")
	}
	return nil
}

func (s *Store) Save(ctx context.Context, d *Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode draft")
	}
	if err := s.kv.Set(ctx, s.kv.DraftKey(d.ShopID.String(), d.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save draft")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, d *Draft) error {
	if err := s.kv.Del(ctx, s.kv.DraftKey(d.ShopID.String(), d.ID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("delete draft %s", d.ID))
	}
	return nil
}
