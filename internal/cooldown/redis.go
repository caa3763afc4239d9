package cooldown

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rxtech-lab/argo-signal/internal/types"
	argoErrors "github.com/rxtech-lab/argo-signal/pkg/errors"
)

// recordScript stores ARGV[1] (unix millis) unless a later value is present,
// so concurrent writers can never move an entry backwards.
var recordScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// acquireScript sets KEYS[1] to ARGV[1] only when the stored value is at
// least ARGV[3] milliseconds older. Returns 1 on success.
var acquireScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(ARGV[1]) - tonumber(current) < tonumber(ARGV[3]) then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisConfig configures the Redis ledger.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" validate:"required,hostname_port"`
	Password string `json:"password,omitempty" yaml:"password"`
	DB       int    `json:"db" yaml:"db" validate:"gte=0"`
	Prefix   string `json:"prefix" yaml:"prefix"`
	// Retention expires entries after this long; zero keeps them forever
	Retention time.Duration `json:"retention,omitempty" yaml:"retention" jsonschema:"type=string"`
}

// RedisLedger keeps entries as Redis keys prefix:symbol:interval:signal_type
// holding the unix millisecond timestamp of the last fire.
type RedisLedger struct {
	client    redis.UniversalClient
	ownsConn  bool
	prefix    string
	timeout   time.Duration
	retention time.Duration
}

// NewRedisLedger connects to Redis and verifies the connection.
func NewRedisLedger(ctx context.Context, config RedisConfig, timeout time.Duration) (*RedisLedger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()

		return nil, argoErrors.Wrap(argoErrors.ErrCodeStoreOpen, "redis ping failed", err)
	}

	ledger := NewRedisLedgerWithClient(client, config.Prefix, timeout)
	ledger.ownsConn = true
	ledger.retention = config.Retention

	return ledger, nil
}

// NewRedisLedgerWithClient wraps an existing client. Close leaves it open.
func NewRedisLedgerWithClient(client redis.UniversalClient, prefix string, timeout time.Duration) *RedisLedger {
	if prefix == "" {
		prefix = "argo-signal:cooldown"
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &RedisLedger{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (l *RedisLedger) key(key Key) string {
	return strings.Join([]string{l.prefix, key.Symbol, key.Interval.String(), string(key.SignalType)}, ":")
}

func (l *RedisLedger) Allowed(ctx context.Context, key Key, now time.Time) (bool, error) {
	millis, err := l.client.Get(ctx, l.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}

	if err != nil {
		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to read cooldown entry", err)
	}

	return allowedSince(time.UnixMilli(millis), now, l.timeout), nil
}

func (l *RedisLedger) TryAcquire(ctx context.Context, key Key, now time.Time) (bool, error) {
	won, err := acquireScript.Run(ctx, l.client, []string{l.key(key)},
		now.UnixMilli(), l.expiry().Milliseconds(), l.timeout.Milliseconds()).Int()
	if err != nil {
		return false, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to acquire cooldown entry", err)
	}

	return won == 1, nil
}

func (l *RedisLedger) Record(ctx context.Context, key Key, now time.Time) error {
	err := recordScript.Run(ctx, l.client, []string{l.key(key)}, now.UnixMilli(), l.expiry().Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to record cooldown entry", err)
	}

	return nil
}

// expiry is the key TTL. A retention shorter than the timeout would let an
// entry vanish while it still blocks, so it is raised to the timeout.
func (l *RedisLedger) expiry() time.Duration {
	if l.retention > 0 && l.retention < l.timeout {
		return l.timeout
	}

	return l.retention
}

func (l *RedisLedger) Entries(ctx context.Context, symbol string) ([]Entry, error) {
	pattern := l.prefix + ":*"
	if symbol != "" {
		pattern = l.prefix + ":" + symbol + ":*"
	}

	var entries []Entry

	iter := l.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()

		key, ok := l.parseKey(redisKey)
		if !ok {
			continue
		}

		millis, err := l.client.Get(ctx, redisKey).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			return nil, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to read cooldown entry", err)
		}

		entries = append(entries, Entry{Key: key, LastFired: time.UnixMilli(millis).UTC()})
	}

	if err := iter.Err(); err != nil {
		return nil, argoErrors.Wrap(argoErrors.ErrCodeLedgerFailed, "failed to scan cooldown entries", err)
	}

	sortEntries(entries)

	return entries, nil
}

func (l *RedisLedger) parseKey(redisKey string) (Key, bool) {
	rest, ok := strings.CutPrefix(redisKey, l.prefix+":")
	if !ok {
		return Key{}, false
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return Key{}, false
	}

	interval, err := types.ParseInterval(parts[1])
	if err != nil {
		return Key{}, false
	}

	return Key{Symbol: parts[0], Interval: interval, SignalType: types.Direction(parts[2])}, true
}

func (l *RedisLedger) Timeout() time.Duration {
	return l.timeout
}

func (l *RedisLedger) Close() error {
	if l.ownsConn {
		return l.client.Close()
	}

	return nil
}
