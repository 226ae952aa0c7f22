package memory

import (
	"context"
	"testing"
	"time"

	"learning-friend-service/internal/domain"
)

func TestProgressStoreSkipsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := domain.ProgressRecord{ID: "r1", StudentName: "Asha", Grade: 2, SubjectID: "math", Score: 3, Total: 5, CompletedAt: at}
	retry := first
	retry.Score = 5

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, retry, domain.ProgressRecord{ID: "r2", StudentName: "Ravi", Grade: 2, SubjectID: "math", Score: 1, Total: 5, CompletedAt: at}); err != nil {
		t.Fatalf("save retry: %v", err)
	}

	got, err := store.ListByStudent(ctx, domain.Student{Name: "Asha", Grade: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Score != 3 {
		t.Fatalf("expected the first write to win, got %+v", got)
	}
}
