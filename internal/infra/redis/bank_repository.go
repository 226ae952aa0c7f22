package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches question banks from a backing store (embedded content, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, subjectID string) (domain.QuestionBank, error)
}

// BankRepository caches whole question banks in Redis and falls back to a loader on cache miss.
// Banks are stored as JSON: SET bank:{subjectID} {json} EX ttl
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, subjectID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(ctx, subjectID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(subjectID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.cached(ctx, subjectID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, subjectID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if err := bank.Validate(); err != nil {
			return domain.QuestionBank{}, err
		}

		raw, err := json.Marshal(bank)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		// Keyed by the loaded bank so fallback resolutions do not add keys.
		key := subjectID
		if bank.SubjectID != "" {
			key = bank.SubjectID
		}
		if err := r.client.Set(ctx, r.key(key), raw, r.ttlWithJitter()).Err(); err != nil {
			// serving from the loader still works; the next call retries the write
			logging.WithContext(ctx).WithError(err).WithField("subject_id", subjectID).Warn("failed to cache question bank")
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

func (r *BankRepository) cached(ctx context.Context, subjectID string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, r.key(subjectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.WithContext(ctx).WithError(err).Warn("question bank cache read failed")
		}
		return domain.QuestionBank{}, false
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil || bank.Validate() != nil {
		return domain.QuestionBank{}, false
	}
	return bank, true
}

func (r *BankRepository) key(subjectID string) string {
	return "bank:" + subjectID
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
