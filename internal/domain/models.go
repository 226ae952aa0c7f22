package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// QuestionKind enumerates the answer formats a question may declare.
type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single-choice"
	KindTrueFalse    QuestionKind = "true-false"
	KindDragDrop     QuestionKind = "drag-drop"
)

// Question is a bilingual multiple-choice question with exactly one correct option.
type Question struct {
	ID                   string       `json:"id" yaml:"id"`
	Kind                 QuestionKind `json:"kind" yaml:"kind"`
	PromptPrimary        string       `json:"promptPrimary" yaml:"prompt"`
	PromptSecondary      string       `json:"promptSecondary" yaml:"promptHindi"`
	Options              []string     `json:"options" yaml:"options"`
	CorrectOptionIndex   int          `json:"correctOptionIndex" yaml:"correct"`
	ExplanationPrimary   string       `json:"explanationPrimary" yaml:"explanation"`
	ExplanationSecondary string       `json:"explanationSecondary" yaml:"explanationHindi"`
}

// Validate checks the option/answer-key invariant.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: question without id", ErrInvalidQuestionBank)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %s has no options", ErrInvalidQuestionBank, q.ID)
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: question %s correct index %d outside %d options",
			ErrInvalidQuestionBank, q.ID, q.CorrectOptionIndex, len(q.Options))
	}
	return nil
}

// QuestionBank is the ordered question set of one subject.
type QuestionBank struct {
	SubjectID string     `json:"subjectId" yaml:"subject"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Validate rejects empty banks, duplicate ids and out-of-range answer keys.
func (b QuestionBank) Validate() error {
	if len(b.Questions) == 0 {
		return fmt.Errorf("%w: subject %s has no questions", ErrInvalidQuestionBank, b.SubjectID)
	}
	seen := make(map[string]struct{}, len(b.Questions))
	for _, q := range b.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", ErrInvalidQuestionBank, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return nil
}

// Subject is a top-level content category listed on the dashboard.
type Subject struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	HindiTitle    string `json:"hindiTitle" yaml:"hindiTitle"`
	Description   string `json:"description" yaml:"description"`
	TotalLessons  int    `json:"totalLessons" yaml:"totalLessons"`
	QuestionCount int    `json:"questionCount" yaml:"-"`
}

const (
	MinGrade          = 1
	MaxGrade          = 5
	MaxStudentNameLen = 50
)

// Student identifies the learner a finished session is credited to.
type Student struct {
	Name  string `json:"name"`
	Grade int    `json:"grade"`
}

// Normalize trims the name and validates both fields.
func (s Student) Normalize() (Student, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return s, fmt.Errorf("%w: name is required", ErrInvalidStudent)
	}
	if utf8.RuneCountInString(s.Name) > MaxStudentNameLen {
		return s, fmt.Errorf("%w: name longer than %d characters", ErrInvalidStudent, MaxStudentNameLen)
	}
	if s.Grade < MinGrade || s.Grade > MaxGrade {
		return s, fmt.Errorf("%w: grade must be between %d and %d", ErrInvalidStudent, MinGrade, MaxGrade)
	}
	return s, nil
}

// ProgressRecord is one completed lesson run.
type ProgressRecord struct {
	ID          string    `json:"id"`
	StudentName string    `json:"studentName"`
	Grade       int       `json:"grade"`
	SubjectID   string    `json:"subjectId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Answers     []bool    `json:"answers"`
	CompletedAt time.Time `json:"completedAt"`
}

// Validate checks a record received from a client before it is stored.
func (r ProgressRecord) Validate() error {
	if _, err := (Student{Name: r.StudentName, Grade: r.Grade}).Normalize(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProgress, err)
	}
	if r.SubjectID == "" {
		return fmt.Errorf("%w: subjectId is required", ErrInvalidProgress)
	}
	if r.Total <= 0 || r.Score < 0 || r.Score > r.Total {
		return fmt.Errorf("%w: score %d/%d out of range", ErrInvalidProgress, r.Score, r.Total)
	}
	if len(r.Answers) > r.Total {
		return fmt.Errorf("%w: %d answers for %d questions", ErrInvalidProgress, len(r.Answers), r.Total)
	}
	if len(r.Answers) == r.Total {
		correct := 0
		for _, ok := range r.Answers {
			if ok {
				correct++
			}
		}
		if correct != r.Score {
			return fmt.Errorf("%w: score %d does not match %d correct answers", ErrInvalidProgress, r.Score, correct)
		}
	}
	return nil
}

// SubjectProgress aggregates a student's completed runs for one subject.
type SubjectProgress struct {
	SubjectID      string    `json:"subjectId"`
	CompletedRuns  int       `json:"completedRuns"`
	BestScore      int       `json:"bestScore"`
	LastScore      int       `json:"lastScore"`
	Total          int       `json:"total"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}
