package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/healthdash/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const leaseKeyPrefix = "healthdash::sync-lease::"

// deletes the key only while it still holds our token
const releaseLeaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Lease is a per-account lock making sync passes mutually exclusive across
// requests and processes. The TTL bounds how long a crashed holder blocks others.
type Lease struct {
	rdb      redis.Cmdable
	key      string
	ttl      time.Duration
	newToken func() (string, error)
}

func NewLease(rdb redis.Cmdable, account string, ttl time.Duration) *Lease {
	return &Lease{
		rdb: rdb,
		key: leaseKeyPrefix + account,
		ttl: ttl,
		newToken: func() (string, error) {
			return pkg.GenerateRandomString(24)
		},
	}
}

// Acquire takes the lease or returns ErrSyncInProgress when someone else holds it.
// The returned func releases it.
func (l *Lease) Acquire(ctx context.Context) (release func(context.Context), err error) {
	token, err := l.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate lease token: %w", err)
	}

	acquired, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sync lease: %w", err)
	}
	if !acquired {
		return nil, ErrSyncInProgress
	}

	return func(ctx context.Context) {
		released, err := l.rdb.Eval(ctx, releaseLeaseScript, []string{l.key}, token).Int()
		if err != nil {
			log.Errorf("release sync lease %s: %s", l.key, err)
			return
		}
		if released == 0 {
			log.Warnf("sync lease %s expired before release", l.key)
		}
	}, nil
}
