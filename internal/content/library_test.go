package content

import (
	"context"
	"errors"
	"testing"

	"learning-friend-service/internal/domain"
)

func TestBuiltinContent(t *testing.T) {
	lib, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}

	subjects, err := lib.Subjects(context.Background())
	if err != nil {
		t.Fatalf("subjects: %v", err)
	}
	if len(subjects) != 4 {
		t.Fatalf("expected 4 subjects, got %d", len(subjects))
	}

	for _, subject := range subjects {
		bank, err := lib.LoadBank(context.Background(), subject.ID)
		if err != nil {
			t.Fatalf("load %s: %v", subject.ID, err)
		}
		if len(bank.Questions) != 5 {
			t.Fatalf("expected 5 questions for %s, got %d", subject.ID, len(bank.Questions))
		}
		for _, q := range bank.Questions {
			if q.PromptSecondary == "" || q.ExplanationSecondary == "" {
				t.Fatalf("question %s/%s missing Hindi text", subject.ID, q.ID)
			}
			if q.Kind != domain.KindSingleChoice {
				t.Fatalf("question %s/%s has kind %q", subject.ID, q.ID, q.Kind)
			}
		}
	}

	math, _ := lib.LoadBank(context.Background(), "math")
	if math.Questions[0].CorrectOptionIndex != 2 || math.Questions[0].Options[2] != "8" {
		t.Fatalf("unexpected first math question: %+v", math.Questions[0])
	}
}

func TestUnknownSubjectFallsBack(t *testing.T) {
	lib := MustBuiltin()
	bank, err := lib.LoadBank(context.Background(), "art")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if bank.SubjectID != "environment" {
		t.Fatalf("expected environment fallback, got %s", bank.SubjectID)
	}
}

func TestLoadBankReturnsCopy(t *testing.T) {
	lib := MustBuiltin()
	bank, _ := lib.LoadBank(context.Background(), "math")
	bank.Questions[0].Options[0] = "mutated"

	again, _ := lib.LoadBank(context.Background(), "math")
	if again.Questions[0].Options[0] == "mutated" {
		t.Fatalf("library content was mutated through a returned bank")
	}
}

func TestParseRejectsBadAnswerKey(t *testing.T) {
	doc := []byte(`
banks:
  - subject: math
    questions:
      - id: "1"
        prompt: "2 + 2?"
        options: ["3", "4"]
        correct: 2
`)
	if _, err := Parse(doc); !errors.Is(err, domain.ErrInvalidQuestionBank) {
		t.Fatalf("expected invalid bank error, got %v", err)
	}
}

func TestParseWithoutFallback(t *testing.T) {
	doc := []byte(`
banks:
  - subject: math
    questions:
      - id: "1"
        prompt: "2 + 2?"
        options: ["3", "4"]
        correct: 1
`)
	lib, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := lib.LoadBank(context.Background(), "science"); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected subject not found, got %v", err)
	}
	bank, _ := lib.LoadBank(context.Background(), "math")
	if bank.Questions[0].Kind != domain.KindSingleChoice {
		t.Fatalf("expected default kind, got %q", bank.Questions[0].Kind)
	}
}
