// Package content holds the built-in bilingual lesson content.
package content

import (
	"context"
	_ "embed"
	"fmt"

	"learning-friend-service/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed banks.yaml
var builtinYAML []byte

type document struct {
	Fallback string                `yaml:"fallback"`
	Subjects []domain.Subject      `yaml:"subjects"`
	Banks    []domain.QuestionBank `yaml:"banks"`
}

// Library serves subjects and question banks parsed from a YAML document.
// Unknown subject ids resolve to the fallback subject's bank when one is set.
type Library struct {
	fallback string
	subjects []domain.Subject
	banks    map[string]domain.QuestionBank
}

// Builtin parses the embedded content.
func Builtin() (*Library, error) {
	return Parse(builtinYAML)
}

// MustBuiltin is Builtin for wiring code where the embedded content is known good.
func MustBuiltin() *Library {
	lib, err := Builtin()
	if err != nil {
		panic(err)
	}
	return lib
}

// Parse decodes and validates a content document.
func Parse(data []byte) (*Library, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	lib := &Library{
		fallback: doc.Fallback,
		subjects: doc.Subjects,
		banks:    make(map[string]domain.QuestionBank, len(doc.Banks)),
	}
	for _, bank := range doc.Banks {
		for i := range bank.Questions {
			if bank.Questions[i].Kind == "" {
				bank.Questions[i].Kind = domain.KindSingleChoice
			}
		}
		if err := bank.Validate(); err != nil {
			return nil, err
		}
		if _, dup := lib.banks[bank.SubjectID]; dup {
			return nil, fmt.Errorf("%w: duplicate bank for subject %s", domain.ErrInvalidQuestionBank, bank.SubjectID)
		}
		lib.banks[bank.SubjectID] = bank
	}
	for _, subject := range lib.subjects {
		if _, ok := lib.banks[subject.ID]; !ok {
			return nil, fmt.Errorf("%w: subject %s has no bank", domain.ErrInvalidQuestionBank, subject.ID)
		}
	}
	if lib.fallback != "" {
		if _, ok := lib.banks[lib.fallback]; !ok {
			return nil, fmt.Errorf("%w: fallback subject %s has no bank", domain.ErrInvalidQuestionBank, lib.fallback)
		}
	}
	return lib, nil
}

// LoadBank returns the bank for subjectID.
func (l *Library) LoadBank(_ context.Context, subjectID string) (domain.QuestionBank, error) {
	bank, ok := l.banks[subjectID]
	if !ok && l.fallback != "" {
		bank, ok = l.banks[l.fallback]
	}
	if !ok {
		return domain.QuestionBank{}, domain.ErrSubjectNotFound
	}
	return cloneBank(bank), nil
}

// Subjects lists the catalog in document order.
func (l *Library) Subjects(_ context.Context) ([]domain.Subject, error) {
	out := make([]domain.Subject, len(l.subjects))
	copy(out, l.subjects)
	return out, nil
}

// Banks returns every bank keyed by subject id.
func (l *Library) Banks() map[string]domain.QuestionBank {
	out := make(map[string]domain.QuestionBank, len(l.banks))
	for id, bank := range l.banks {
		out[id] = cloneBank(bank)
	}
	return out
}

func cloneBank(bank domain.QuestionBank) domain.QuestionBank {
	questions := make([]domain.Question, len(bank.Questions))
	for i, q := range bank.Questions {
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}
	return domain.QuestionBank{SubjectID: bank.SubjectID, Questions: questions}
}
