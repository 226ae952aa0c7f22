package app

import (
	"context"
	"errors"
	"time"

	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	// Get returns a copy of the stored session.
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the stored session atomically. The store persists the
	// session only when fn returns nil.
	Update(ctx context.Context, id string, fn func(*Session) error) error
	Delete(ctx context.Context, id string) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, subjectID string) (domain.QuestionBank, error)
}

// SubjectCatalog lists the subjects offered on the dashboard.
type SubjectCatalog interface {
	Subjects(ctx context.Context) ([]domain.Subject, error)
}

// QuizService contains the quiz session use cases.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	catalog  SubjectCatalog
	progress ProgressStore
	now      func() time.Time
	newID    func() string
}

// NewQuizService wires the use cases. progress may be nil, in which case finished
// sessions are not recorded.
func NewQuizService(sessions SessionRepository, banks BankRepository, catalog SubjectCatalog, progress ProgressStore) *QuizService {
	return &QuizService{
		sessions: sessions,
		banks:    banks,
		catalog:  catalog,
		progress: progress,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// Subjects returns the catalog with each subject's question count filled in.
func (s *QuizService) Subjects(ctx context.Context) ([]domain.Subject, error) {
	subjects, err := s.catalog.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subject, 0, len(subjects))
	for _, subject := range subjects {
		bank, err := s.banks.GetBank(ctx, subject.ID)
		if err != nil {
			return nil, err
		}
		subject.QuestionCount = len(bank.Questions)
		out = append(out, subject)
	}
	return out, nil
}

// StartSession opens a new session over the subject's question bank.
func (s *QuizService) StartSession(ctx context.Context, subjectID string, student *domain.Student) (SessionView, error) {
	if student != nil {
		normalized, err := student.Normalize()
		if err != nil {
			return SessionView{}, err
		}
		student = &normalized
	}

	bank, err := s.banks.GetBank(ctx, subjectID)
	if err != nil {
		return SessionView{}, err
	}
	session, err := NewSession(s.newID(), bank, student, s.now())
	if err != nil {
		return SessionView{}, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return SessionView{}, err
	}

	logging.WithContext(ctx).WithFields(logrus.Fields{
		"session_id": session.ID(),
		"subject_id": session.SubjectID(),
		"questions":  session.Len(),
	}).Info("quiz session started")
	return NewSessionView(session), nil
}

// Session returns the current view of a session.
func (s *QuizService) Session(ctx context.Context, sessionID string) (SessionView, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return NewSessionView(session), nil
}

// SelectOption records a provisional choice for the current question.
func (s *QuizService) SelectOption(ctx context.Context, sessionID string, index int) (SessionView, error) {
	var view SessionView
	err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		if err := session.SelectOption(index); err != nil {
			return err
		}
		view = NewSessionView(session)
		return nil
	})
	return view, err
}

// SubmitResult is the outcome of submitting the current selection.
type SubmitResult struct {
	Correct bool        `json:"correct"`
	Session SessionView `json:"session"`
}

// SubmitAnswer scores the current selection and reveals the explanation.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string) (SubmitResult, error) {
	var result SubmitResult
	err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		correct, err := session.SubmitAnswer()
		if err != nil {
			return err
		}
		result = SubmitResult{Correct: correct, Session: NewSessionView(session)}
		return nil
	})
	return result, err
}

// AdvanceOutcome is the outcome of moving past a revealed question.
type AdvanceOutcome struct {
	AdvanceResult
	Session SessionView `json:"session"`
}

// Advance moves to the next question. When the last question is passed the
// session finishes and, if it belongs to a student, a progress record is saved.
func (s *QuizService) Advance(ctx context.Context, sessionID string) (AdvanceOutcome, error) {
	var (
		outcome AdvanceOutcome
		record  *domain.ProgressRecord
	)
	err := s.sessions.Update(ctx, sessionID, func(session *Session) error {
		res, err := session.Advance()
		if err != nil {
			return err
		}
		outcome = AdvanceOutcome{AdvanceResult: res, Session: NewSessionView(session)}
		if res.Finished {
			record = s.progressRecord(session)
		}
		return nil
	})
	if err != nil {
		return AdvanceOutcome{}, err
	}

	if outcome.Finished {
		log := logging.WithContext(ctx).WithFields(logrus.Fields{
			"session_id": sessionID,
			"score":      outcome.Score,
			"total":      outcome.Total,
		})
		log.Info("quiz session finished")
		if record != nil && s.progress != nil {
			if err := s.progress.Save(ctx, *record); err != nil {
				log.WithError(err).Warn("failed to record progress")
			}
		}
	}
	return outcome, nil
}

// Abandon discards a session. Unknown sessions are ignored.
func (s *QuizService) Abandon(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	return err
}

func (s *QuizService) progressRecord(session *Session) *domain.ProgressRecord {
	student, ok := session.Student()
	if !ok {
		return nil
	}
	return &domain.ProgressRecord{
		ID:          session.ID(),
		StudentName: student.Name,
		Grade:       student.Grade,
		SubjectID:   session.SubjectID(),
		Score:       session.Score(),
		Total:       session.Len(),
		Answers:     session.AnsweredCorrectly(),
		CompletedAt: s.now(),
	}
}
