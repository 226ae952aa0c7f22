package app

import (
	"fmt"
	"time"

	"learning-friend-service/internal/domain"
)

// Session runs one learner through a subject's question bank, one question at a time.
// A Session is owned by a single caller; it does no locking of its own.
type Session struct {
	id        string
	subjectID string
	student   *domain.Student
	startedAt time.Time

	questions []domain.Question
	current   int
	selected  int
	hasChoice bool
	answered  []bool
	score     int
	revealed  bool
	finished  bool
}

// AdvanceResult reports whether advancing ended the session, and the final tally when it did.
type AdvanceResult struct {
	Finished bool `json:"finished"`
	Score    int  `json:"score"`
	Total    int  `json:"total"`
}

// NewSession starts a session at the first question of bank.
func NewSession(id string, bank domain.QuestionBank, student *domain.Student, startedAt time.Time) (*Session, error) {
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	questions := make([]domain.Question, len(bank.Questions))
	copy(questions, bank.Questions)
	return &Session{
		id:        id,
		subjectID: bank.SubjectID,
		student:   student,
		startedAt: startedAt,
		questions: questions,
		answered:  make([]bool, 0, len(questions)),
	}, nil
}

// SelectOption marks index as the provisional choice for the current question.
func (s *Session) SelectOption(index int) error {
	if s.finished {
		return domain.ErrSessionFinished
	}
	if s.revealed {
		return domain.ErrAlreadyRevealed
	}
	if index < 0 || index >= len(s.questions[s.current].Options) {
		return domain.ErrInvalidOptionIndex
	}
	s.selected = index
	s.hasChoice = true
	return nil
}

// SubmitAnswer scores the current selection and reveals the explanation.
func (s *Session) SubmitAnswer() (bool, error) {
	if s.finished {
		return false, domain.ErrSessionFinished
	}
	if s.revealed {
		return false, domain.ErrAlreadyRevealed
	}
	if !s.hasChoice {
		return false, domain.ErrNoSelection
	}

	correct := s.selected == s.questions[s.current].CorrectOptionIndex
	// answered always has exactly s.current entries while the question is unrevealed.
	s.answered = append(s.answered, correct)
	if correct {
		s.score++
	}
	s.revealed = true
	return correct, nil
}

// Advance moves to the next question, or finishes the session after the last one.
func (s *Session) Advance() (AdvanceResult, error) {
	if s.finished {
		return AdvanceResult{}, domain.ErrSessionFinished
	}
	if !s.revealed {
		return AdvanceResult{}, domain.ErrNotRevealed
	}

	if s.current < len(s.questions)-1 {
		s.current++
		s.selected = 0
		s.hasChoice = false
		s.revealed = false
		return AdvanceResult{Total: len(s.questions)}, nil
	}

	s.finished = true
	return AdvanceResult{Finished: true, Score: s.score, Total: len(s.questions)}, nil
}

// ProgressFraction is (currentIndex+1)/len(questions), always in (0, 1].
func (s *Session) ProgressFraction() float64 {
	return float64(s.current+1) / float64(len(s.questions))
}

func (s *Session) ID() string                       { return s.id }
func (s *Session) SubjectID() string                { return s.subjectID }
func (s *Session) StartedAt() time.Time             { return s.startedAt }
func (s *Session) CurrentIndex() int                { return s.current }
func (s *Session) CurrentQuestion() domain.Question { return s.questions[s.current] }
func (s *Session) Len() int                         { return len(s.questions) }
func (s *Session) Score() int                       { return s.score }
func (s *Session) Revealed() bool                   { return s.revealed }
func (s *Session) Finished() bool                   { return s.finished }

// Student returns the learner the session is credited to, if any.
func (s *Session) Student() (domain.Student, bool) {
	if s.student == nil {
		return domain.Student{}, false
	}
	return *s.student, true
}

// SelectedOption returns the provisional choice for the current question.
func (s *Session) SelectedOption() (int, bool) {
	return s.selected, s.hasChoice
}

// AnsweredCorrectly returns a copy of the per-question outcomes recorded so far.
func (s *Session) AnsweredCorrectly() []bool {
	out := make([]bool, len(s.answered))
	copy(out, s.answered)
	return out
}

// SessionState is the serializable form of a Session, used by stores that keep
// sessions outside the process.
type SessionState struct {
	ID                  string            `json:"id"`
	SubjectID           string            `json:"subjectId"`
	Student             *domain.Student   `json:"student,omitempty"`
	StartedAt           time.Time         `json:"startedAt"`
	Questions           []domain.Question `json:"questions"`
	CurrentIndex        int               `json:"currentIndex"`
	SelectedOptionIndex *int              `json:"selectedOptionIndex,omitempty"`
	AnsweredCorrectly   []bool            `json:"answeredCorrectly"`
	Score               int               `json:"score"`
	Revealed            bool              `json:"revealed"`
	Finished            bool              `json:"finished"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() SessionState {
	state := SessionState{
		ID:                s.id,
		SubjectID:         s.subjectID,
		Student:           s.student,
		StartedAt:         s.startedAt,
		Questions:         s.cloneQuestions(),
		CurrentIndex:      s.current,
		AnsweredCorrectly: s.AnsweredCorrectly(),
		Score:             s.score,
		Revealed:          s.revealed,
		Finished:          s.finished,
	}
	if s.hasChoice {
		selected := s.selected
		state.SelectedOptionIndex = &selected
	}
	return state
}

// Clone returns an independent copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.questions = s.cloneQuestions()
	c.answered = s.AnsweredCorrectly()
	if s.student != nil {
		student := *s.student
		c.student = &student
	}
	return &c
}

func (s *Session) cloneQuestions() []domain.Question {
	out := make([]domain.Question, len(s.questions))
	for i, q := range s.questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// RestoreSession rebuilds a session from a snapshot, rejecting states the
// transitions above could never produce.
func RestoreSession(state SessionState) (*Session, error) {
	bank := domain.QuestionBank{SubjectID: state.SubjectID, Questions: state.Questions}
	s, err := NewSession(state.ID, bank, state.Student, state.StartedAt)
	if err != nil {
		return nil, err
	}

	n := len(state.Questions)
	if state.CurrentIndex < 0 || state.CurrentIndex >= n {
		return nil, fmt.Errorf("restore session %s: current index %d outside %d questions", state.ID, state.CurrentIndex, n)
	}
	wantAnswered := state.CurrentIndex
	if state.Revealed {
		wantAnswered++
	}
	if len(state.AnsweredCorrectly) != wantAnswered {
		return nil, fmt.Errorf("restore session %s: %d answers recorded at index %d", state.ID, len(state.AnsweredCorrectly), state.CurrentIndex)
	}
	if state.Finished && (!state.Revealed || state.CurrentIndex != n-1) {
		return nil, fmt.Errorf("restore session %s: finished before the last answer was revealed", state.ID)
	}
	score := 0
	for _, ok := range state.AnsweredCorrectly {
		if ok {
			score++
		}
	}
	if score != state.Score {
		return nil, fmt.Errorf("restore session %s: score %d does not match %d correct answers", state.ID, state.Score, score)
	}

	s.current = state.CurrentIndex
	s.answered = append(s.answered, state.AnsweredCorrectly...)
	s.score = state.Score
	s.revealed = state.Revealed
	s.finished = state.Finished
	if state.SelectedOptionIndex != nil {
		idx := *state.SelectedOptionIndex
		if idx < 0 || idx >= len(state.Questions[s.current].Options) {
			return nil, fmt.Errorf("restore session %s: %w", state.ID, domain.ErrInvalidOptionIndex)
		}
		s.selected = idx
		s.hasChoice = true
	}
	return s, nil
}
