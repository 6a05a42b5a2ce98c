package identityinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/redis/go-redis/v9"
)

// RedisLinkStore keeps sign-in links as expiring Redis keys. Consume uses
// GETDEL so a link can be redeemed once even under concurrent requests.
type RedisLinkStore struct {
	rdb *redis.Client
}

func NewRedisLinkStore(rdb *redis.Client) *RedisLinkStore {
	return &RedisLinkStore{rdb: rdb}
}

func linkKey(code string) string { return "signin:link:" + code }

func (s *RedisLinkStore) Save(ctx context.Context, link identity.SignInLink, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return identity.ErrStoreFailure("encode_link", err)
	}
	if err := s.rdb.Set(ctx, linkKey(link.Code), data, ttl).Err(); err != nil {
		return identity.ErrStoreFailure("save_link", err)
	}
	return nil
}

func (s *RedisLinkStore) Consume(ctx context.Context, code string) (*identity.SignInLink, error) {
	data, err := s.rdb.GetDel(ctx, linkKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, identity.ErrInvalidLink()
		}
		return nil, identity.ErrStoreFailure("consume_link", err)
	}

	var link identity.SignInLink
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, identity.ErrStoreFailure("decode_link", err)
	}
	return &link, nil
}

var _ identity.LinkStore = (*RedisLinkStore)(nil)
