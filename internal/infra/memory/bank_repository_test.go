package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"learning-friend-service/internal/content"
	"learning-friend-service/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"math": sampleBank(),
		}),
	}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "math"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background(), "math"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{"math": sampleBank()}),
	}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetBank(context.Background(), "math")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetBank(context.Background(), "math")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryRejectsInvalidBank(t *testing.T) {
	bad := sampleBank()
	bad.Questions[0].CorrectOptionIndex = 7
	repo := NewBankRepository(NewStaticBankLoader(map[string]domain.QuestionBank{"math": bad}), time.Minute)

	if _, err := repo.GetBank(context.Background(), "math"); !errors.Is(err, domain.ErrInvalidQuestionBank) {
		t.Fatalf("expected invalid bank, got %v", err)
	}
}

func TestBankRepositoryUnknownSubject(t *testing.T) {
	repo := NewBankRepository(NewStaticBankLoader(nil), time.Minute)
	if _, err := repo.GetBank(context.Background(), "art"); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, subjectID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, subjectID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		SubjectID: "math",
		Questions: []domain.Question{
			{
				ID:                 "1",
				Kind:               domain.KindSingleChoice,
				PromptPrimary:      "What is 5 + 3?",
				Options:            []string{"6", "7", "8", "9"},
				CorrectOptionIndex: 2,
			},
		},
	}
}

func TestBankRepositoryFallbackSharesOneEntry(t *testing.T) {
	repo := NewBankRepository(content.MustBuiltin(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		bank, err := repo.GetBank(ctx, fmt.Sprintf("junk-%d", i))
		if err != nil {
			t.Fatalf("get bank %d: %v", i, err)
		}
		if bank.SubjectID != "environment" {
			t.Fatalf("expected environment fallback, got %s", bank.SubjectID)
		}
	}

	repo.mu.RLock()
	n := len(repo.cache)
	_, ok := repo.cache["environment"]
	repo.mu.RUnlock()
	if n != 1 || !ok {
		t.Fatalf("expected a single environment entry, got %d entries", n)
	}
}
