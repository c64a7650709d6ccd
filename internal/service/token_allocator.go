package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainRepo "hospital-frontdesk/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrTokenAllocation is returned when a counter backend cannot issue a token
var ErrTokenAllocation = errors.New("token allocation failed")

// TokenAllocator issues gap-free token numbers per (doctor, business day).
// Callers hold the doctor's queue lock around Issue and any Release, and
// call Release with the issued token when the visit could not be stored.
type TokenAllocator interface {
	Issue(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error)
	Release(ctx context.Context, doctorID uuid.UUID, day time.Time, token int) error
}

// =============================================================================
// Memory
// =============================================================================

type MemoryTokenAllocator struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewMemoryTokenAllocator() *MemoryTokenAllocator {
	return &MemoryTokenAllocator{counters: make(map[string]int)}
}

func (a *MemoryTokenAllocator) Issue(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := tokenCounterKey(doctorID, day)
	a.counters[key]++
	return a.counters[key], nil
}

// Release rolls the counter back only if token is the last one issued
func (a *MemoryTokenAllocator) Release(ctx context.Context, doctorID uuid.UUID, day time.Time, token int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := tokenCounterKey(doctorID, day)
	if a.counters[key] == token {
		a.counters[key]--
	}
	return nil
}

// =============================================================================
// Database
// =============================================================================

// DatabaseTokenAllocator increments a token_counters row inside the caller's
// transaction, so a rolled back visit also rolls back its token.
type DatabaseTokenAllocator struct {
	counters domainRepo.TokenCounterRepository
}

func NewDatabaseTokenAllocator(counters domainRepo.TokenCounterRepository) *DatabaseTokenAllocator {
	return &DatabaseTokenAllocator{counters: counters}
}

func (a *DatabaseTokenAllocator) Issue(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	token, err := a.counters.Next(ctx, doctorID, day)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenAllocation, err)
	}
	return token, nil
}

// Release is a no-op; the transaction rollback restores the counter.
func (a *DatabaseTokenAllocator) Release(ctx context.Context, doctorID uuid.UUID, day time.Time, token int) error {
	return nil
}

// =============================================================================
// Redis
// =============================================================================

const (
	// Redis key prefix for per doctor, per day token counters
	RedisTokenKeyPrefix = "visit:token:"

	// Timeout for individual Redis operations
	redisTokenTimeout = 5 * time.Second
)

// issueTokenScript increments the counter if it exists. It returns -1 on a
// cold key so the caller can seed it from the database first.
var issueTokenScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 0 then
		return -1
	end
	local token = redis.call('INCR', KEYS[1])
	redis.call('EXPIRE', KEYS[1], ARGV[1])
	return token
`)

// seedTokenScript raises the counter to ARGV[1] unless it is already higher
var seedTokenScript = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local floor = tonumber(ARGV[1])
	if floor > current then
		redis.call('SET', KEYS[1], floor, 'EX', ARGV[2])
		return floor
	end
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return current
`)

// releaseTokenScript decrements only when the counter still equals ARGV[1]
var releaseTokenScript = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	if current == tonumber(ARGV[1]) then
		redis.call('DECR', KEYS[1])
		return 1
	end
	return 0
`)

// RedisTokenAllocator keeps counters in Redis so several app instances share
// them. Keys expire a day after their business day; a missing key is seeded
// from MAX(token_number) of the visits table before incrementing.
type RedisTokenAllocator struct {
	redisClient *redis.Client
	visits      domainRepo.VisitRepository
	log         *logrus.Logger
}

func NewRedisTokenAllocator(redisClient *redis.Client, visits domainRepo.VisitRepository, log *logrus.Logger) *RedisTokenAllocator {
	return &RedisTokenAllocator{
		redisClient: redisClient,
		visits:      visits,
		log:         log,
	}
}

func (a *RedisTokenAllocator) Issue(ctx context.Context, doctorID uuid.UUID, day time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTokenTimeout)
	defer cancel()

	key := tokenCounterKey(doctorID, day)
	ttl := int(tokenTTL(day).Seconds())

	token, err := issueTokenScript.Run(ctx, a.redisClient, []string{key}, ttl).Int()
	if err != nil {
		a.log.Warnf("Failed Lua script issueToken for %s: %+v", key, err)
		return 0, fmt.Errorf("%w: %v", ErrTokenAllocation, err)
	}
	if token != -1 {
		return token, nil
	}

	maxTokens, err := a.visits.MaxTokensByBusinessDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenAllocation, err)
	}
	if err := seedTokenScript.Run(ctx, a.redisClient, []string{key}, maxTokens[doctorID], ttl).Err(); err != nil {
		a.log.Warnf("Failed to seed token counter %s: %+v", key, err)
		return 0, fmt.Errorf("%w: %v", ErrTokenAllocation, err)
	}

	token, err = issueTokenScript.Run(ctx, a.redisClient, []string{key}, ttl).Int()
	if err != nil || token == -1 {
		a.log.Warnf("Failed to issue token after seeding %s: %v", key, err)
		return 0, fmt.Errorf("%w: counter %s unavailable", ErrTokenAllocation, key)
	}
	return token, nil
}

func (a *RedisTokenAllocator) Release(ctx context.Context, doctorID uuid.UUID, day time.Time, token int) error {
	ctx, cancel := context.WithTimeout(ctx, redisTokenTimeout)
	defer cancel()

	key := tokenCounterKey(doctorID, day)
	released, err := releaseTokenScript.Run(ctx, a.redisClient, []string{key}, token).Int()
	if err != nil {
		a.log.Errorf("Failed to release token %d on %s: %+v", token, key, err)
		return fmt.Errorf("release token %d on %s: %w", token, key, err)
	}
	if released == 0 {
		a.log.Warnf("Token %d on %s was not the last issued; leaving counter as is", token, key)
	}
	return nil
}

// SyncOnStartup raises every counter of the given business day to the
// highest token already stored. Should be called before accepting traffic.
func (a *RedisTokenAllocator) SyncOnStartup(ctx context.Context, day time.Time) error {
	a.log.Info("Starting token counter sync from database...")
	startTime := time.Now()

	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		a.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	maxTokens, err := a.visits.MaxTokensByBusinessDay(ctx, day)
	if err != nil {
		return fmt.Errorf("query max tokens: %w", err)
	}
	if len(maxTokens) == 0 {
		a.log.Info("No visits found for sync")
		return nil
	}

	ttl := int(tokenTTL(day).Seconds())
	pipe := a.redisClient.TxPipeline()
	for doctorID, maxToken := range maxTokens {
		seedTokenScript.Eval(ctx, pipe, []string{tokenCounterKey(doctorID, day)}, maxToken, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		a.log.Errorf("Failed to execute token sync pipeline: %+v", err)
		return fmt.Errorf("pipeline exec: %w", err)
	}

	a.log.Infof("Token counter sync completed: %d doctors synced in %v", len(maxTokens), time.Since(startTime))
	return nil
}

func tokenCounterKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisTokenKeyPrefix, doctorID, day.Format("2006-01-02"))
}

// tokenTTL returns how long a counter must live: until a day after its business day ends
func tokenTTL(day time.Time) time.Duration {
	ttl := time.Until(day.AddDate(0, 0, 2))
	if ttl <= 0 {
		// Past date - short TTL for cleanup
		return 1 * time.Minute
	}
	return ttl
}
