package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"golang.org/x/sync/singleflight"
)

// BankLoader fetches question banks from a backing store (embedded content, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, subjectID string) (domain.QuestionBank, error)
}

// BankRepository caches question banks with TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, subjectID string) (domain.QuestionBank, error) {
	if bank, ok := r.lookup(subjectID, r.clock()); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(subjectID, func() (interface{}, error) {
		now := r.clock()
		if bank, ok := r.lookup(subjectID, now); ok {
			return bank, nil
		}

		logging.WithContext(ctx).WithField("subject_id", subjectID).Debug("question bank cache miss")
		bank, err := r.loader.LoadBank(ctx, subjectID)
		if err != nil {
			return domain.QuestionBank{}, err
		}
		if err := bank.Validate(); err != nil {
			return domain.QuestionBank{}, err
		}

		r.mu.Lock()
		r.cache[cacheKey(subjectID, bank)] = cachedBank{
			bank:      bank,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// cacheKey is the id of the bank the loader actually returned, so ids that
// resolve to a fallback bank share its entry instead of adding their own.
func cacheKey(requested string, bank domain.QuestionBank) string {
	if bank.SubjectID != "" {
		return bank.SubjectID
	}
	return requested
}

func (r *BankRepository) lookup(subjectID string, now time.Time) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[subjectID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks map[string]domain.QuestionBank) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, subjectID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[subjectID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrSubjectNotFound
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
