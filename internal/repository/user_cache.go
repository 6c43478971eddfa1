package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
)

// CachedUserRepo puts a short-lived Redis cache in front of GetByID, which
// the session gate calls on every authenticated request.  Every write made
// through it drops the cached copy, so a deactivated or deleted user loses
// access on the next request.  With a nil client it is a plain UserRepo.
type CachedUserRepo struct {
	*UserRepo
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func NewCachedUserRepo(base *UserRepo, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedUserRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedUserRepo{UserRepo: base, rdb: rdb, ttl: ttl, prefix: "user", log: log}
}

func (r *CachedUserRepo) key(id uint64) string {
	return r.prefix + ":" + strconv.FormatUint(id, 10)
}

func (r *CachedUserRepo) enabled() bool { return r.rdb != nil && r.ttl > 0 }

// GetByID serves from Redis when possible.  Cache errors fall through to the
// database.
func (r *CachedUserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	if !r.enabled() {
		return r.UserRepo.GetByID(ctx, id)
	}
	if bs, err := r.rdb.Get(ctx, r.key(id)).Bytes(); err == nil {
		if u, err := decodeCachedUser(bs); err == nil {
			return u, nil
		}
	} else if err != redis.Nil {
		r.log.Debug("user cache read failed", zap.Uint64("user_id", id), zap.Error(err))
	}

	u, err := r.UserRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bs, err := encodeCachedUser(u); err == nil {
		if err := r.rdb.Set(ctx, r.key(id), bs, r.ttl).Err(); err != nil {
			r.log.Debug("user cache write failed", zap.Uint64("user_id", id), zap.Error(err))
		}
	}
	return u, nil
}

// encodeCachedUser serializes u for Redis.  model.User hides PasswordHash
// from JSON, so the hash is never written to the cache.
func encodeCachedUser(u *model.User) ([]byte, error) {
	return json.Marshal(u)
}

// decodeCachedUser restores a cached user.  PasswordHash comes back empty;
// credential checks go through GetByUsername, which is not cached.
func decodeCachedUser(bs []byte) (*model.User, error) {
	var u model.User
	if err := json.Unmarshal(bs, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDFresh bypasses the cache.  Admin checks use it.
func (r *CachedUserRepo) GetByIDFresh(ctx context.Context, id uint64) (*model.User, error) {
	return r.UserRepo.GetByID(ctx, id)
}

func (r *CachedUserRepo) invalidate(ctx context.Context, id uint64) {
	if !r.enabled() {
		return
	}
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		r.log.Warn("user cache invalidation failed", zap.Uint64("user_id", id), zap.Error(err))
	}
}

func (r *CachedUserRepo) Delete(ctx context.Context, id uint64) error {
	defer r.invalidate(ctx, id)
	return r.UserRepo.Delete(ctx, id)
}

func (r *CachedUserRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	defer r.invalidate(ctx, id)
	return r.UserRepo.UpdateStatus(ctx, id, status)
}

func (r *CachedUserRepo) TouchLastLogin(ctx context.Context, id uint64, at time.Time) error {
	defer r.invalidate(ctx, id)
	return r.UserRepo.TouchLastLogin(ctx, id, at)
}
