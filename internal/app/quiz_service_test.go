package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/infra/memory"
)

var fixedNow = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

func TestStartSessionHidesAnswerUntilRevealed(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	view, err := service.StartSession(ctx, "math", nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if view.ID == "" || view.Total != 2 || view.CurrentIndex != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Question.CorrectOptionIndex != nil || view.Question.ExplanationPrimary != "" {
		t.Fatalf("answer key leaked before submit: %+v", view.Question)
	}
	if view.Progress != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", view.Progress)
	}

	if _, err := service.SelectOption(ctx, view.ID, 1); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	res, err := service.SubmitAnswer(ctx, view.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !res.Correct || res.Session.Score != 1 {
		t.Fatalf("expected correct answer, got %+v", res)
	}
	q := res.Session.Question
	if q.CorrectOptionIndex == nil || *q.CorrectOptionIndex != 1 || q.ExplanationSecondary == "" {
		t.Fatalf("expected revealed answer key, got %+v", q)
	}
}

func TestFullRunRecordsProgress(t *testing.T) {
	ctx := context.Background()
	service, _, progress := newTestService()

	view, err := service.StartSession(ctx, "math", &domain.Student{Name: "  Asha ", Grade: 3})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for i, choice := range []int{1, 0} {
		if _, err := service.SelectOption(ctx, view.ID, choice); err != nil {
			t.Fatalf("question %d select: %v", i, err)
		}
		if _, err := service.SubmitAnswer(ctx, view.ID); err != nil {
			t.Fatalf("question %d submit: %v", i, err)
		}
		out, err := service.Advance(ctx, view.ID)
		if err != nil {
			t.Fatalf("question %d advance: %v", i, err)
		}
		if i == 1 && (!out.Finished || out.Score != 1 || out.Total != 2) {
			t.Fatalf("expected finished 1/2, got %+v", out.AdvanceResult)
		}
	}

	records, err := progress.ListByStudent(ctx, domain.Student{Name: "Asha", Grade: 3})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ID != view.ID || r.SubjectID != "math" || r.Score != 1 || r.Total != 2 {
		t.Fatalf("unexpected record %+v", r)
	}
	if len(r.Answers) != 2 || !r.Answers[0] || r.Answers[1] {
		t.Fatalf("unexpected answers %v", r.Answers)
	}
	if !r.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completion at %v, got %v", fixedNow, r.CompletedAt)
	}

	// The finished session stays readable until dismissed.
	got, err := service.Session(ctx, view.ID)
	if err != nil || !got.Finished {
		t.Fatalf("expected finished session, got %+v %v", got, err)
	}
	if _, err := service.Advance(ctx, view.ID); !errors.Is(err, domain.ErrSessionFinished) {
		t.Fatalf("expected session finished, got %v", err)
	}
}

func TestAnonymousRunDoesNotRecordProgress(t *testing.T) {
	ctx := context.Background()
	service, _, progress := newTestService()

	view, _ := service.StartSession(ctx, "math", nil)
	for i := 0; i < 2; i++ {
		_, _ = service.SelectOption(ctx, view.ID, 1)
		_, _ = service.SubmitAnswer(ctx, view.ID)
		if _, err := service.Advance(ctx, view.ID); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
	}
	if n := progress.Len(); n != 0 {
		t.Fatalf("expected no records, got %d", n)
	}
}

func TestServiceErrorsLeaveSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()
	view, _ := service.StartSession(ctx, "math", nil)

	if _, err := service.SubmitAnswer(ctx, view.ID); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected no selection, got %v", err)
	}
	if _, err := service.SelectOption(ctx, view.ID, 7); !errors.Is(err, domain.ErrInvalidOptionIndex) {
		t.Fatalf("expected invalid option, got %v", err)
	}
	if _, err := service.Advance(ctx, view.ID); !errors.Is(err, domain.ErrNotRevealed) {
		t.Fatalf("expected not revealed, got %v", err)
	}

	got, err := service.Session(ctx, view.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.SelectedOptionIndex != nil || got.Revealed || got.CurrentIndex != 0 || got.Score != 0 {
		t.Fatalf("session changed after rejected calls: %+v", got)
	}
}

func TestStartSessionValidation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.StartSession(ctx, "math", &domain.Student{Name: " ", Grade: 2}); !errors.Is(err, domain.ErrInvalidStudent) {
		t.Fatalf("expected invalid student, got %v", err)
	}
	if _, err := service.StartSession(ctx, "math", &domain.Student{Name: "Ravi", Grade: 9}); !errors.Is(err, domain.ErrInvalidStudent) {
		t.Fatalf("expected invalid grade, got %v", err)
	}
	if _, err := service.StartSession(ctx, "history", nil); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
}

func TestAbandon(t *testing.T) {
	ctx := context.Background()
	service, sessions, _ := newTestService()
	view, _ := service.StartSession(ctx, "math", nil)

	if err := service.Abandon(ctx, view.ID); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if sessions.Len() != 0 {
		t.Fatalf("expected session removed")
	}
	if _, err := service.Session(ctx, view.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := service.Abandon(ctx, view.ID); err != nil {
		t.Fatalf("second abandon should be a no-op, got %v", err)
	}
}

func TestSubjectsIncludeQuestionCount(t *testing.T) {
	service, _, _ := newTestService()
	subjects, err := service.Subjects(context.Background())
	if err != nil {
		t.Fatalf("subjects failed: %v", err)
	}
	if len(subjects) != 1 || subjects[0].ID != "math" || subjects[0].QuestionCount != 2 {
		t.Fatalf("unexpected subjects %+v", subjects)
	}
}

func TestConcurrentSubmitsCountOnce(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()
	view, _ := service.StartSession(ctx, "math", nil)
	_, _ = service.SelectOption(ctx, view.ID, 1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.SubmitAnswer(ctx, view.ID); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one accepted submit, got %d", success)
	}
	got, _ := service.Session(ctx, view.ID)
	if got.Score != 1 || len(got.AnsweredCorrectly) != 1 {
		t.Fatalf("expected single scored answer, got %+v", got)
	}
}

type staticCatalog []domain.Subject

func (c staticCatalog) Subjects(context.Context) ([]domain.Subject, error) {
	return append([]domain.Subject(nil), c...), nil
}

func newTestService() (*app.QuizService, *memory.SessionStore, *memory.ProgressStore) {
	bank := domain.QuestionBank{
		SubjectID: "math",
		Questions: []domain.Question{
			{
				ID:                   "q1",
				Kind:                 domain.KindSingleChoice,
				PromptPrimary:        "What is 5 + 3?",
				PromptSecondary:      "5 + 3 कितना होता है?",
				Options:              []string{"7", "8", "9", "10"},
				CorrectOptionIndex:   1,
				ExplanationPrimary:   "5 + 3 = 8",
				ExplanationSecondary: "5 + 3 = 8 होता है",
			},
			{
				ID:                 "q2",
				Kind:               domain.KindSingleChoice,
				PromptPrimary:      "Which number is bigger: 15 or 12?",
				Options:            []string{"12", "15", "Both are same"},
				CorrectOptionIndex: 1,
			},
		},
	}
	sessions := memory.NewSessionStore()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{"math": bank}), time.Minute)
	progress := memory.NewProgressStore()
	catalog := staticCatalog{{ID: "math", Title: "Mathematics", HindiTitle: "गणित"}}
	service := app.NewQuizService(sessions, banks, catalog, progress).WithClock(func() time.Time { return fixedNow })
	return service, sessions, progress
}
