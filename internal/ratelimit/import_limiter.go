package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/aquametric/ratewise/internal/config"
)

const (
	keyImportActor = "import:actor:%s"
	keyCommitLock  = "dataset:commit:lock"
	commitLockTTL  = 30 * time.Second
)

// ImportLimiter throttles dataset imports per actor and serializes
// dataset commits across instances. Disabled when no redis address is
// configured.
type ImportLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewImportLimiter(cfg config.Config) (*ImportLimiter, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, nil
	}
	if cfg.ImportRate <= 0 || cfg.ImportBurst <= 0 {
		return nil, fmt.Errorf("import rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &ImportLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    cfg.ImportRate,
		burst:   cfg.ImportBurst,
	}, nil
}

func (l *ImportLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowImport consumes one import token for the actor.
func (l *ImportLimiter) AllowImport(ctx context.Context, actorID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyImportActor, strings.TrimSpace(actorID)), l.rate, l.burst)
}

// TryLockCommit takes the cross-instance commit lock so only one
// dataset promotion runs at a time.
func (l *ImportLimiter) TryLockCommit(ctx context.Context) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, keyCommitLock, commitLockTTL)
}

func (l *ImportLimiter) ReleaseCommit(ctx context.Context, token string) error {
	if !l.Enabled() {
		return nil
	}
	return l.locker.Release(ctx, keyCommitLock, token)
}
