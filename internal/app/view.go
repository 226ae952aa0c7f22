package app

import "learning-friend-service/internal/domain"

// QuestionView is a question as shown to the learner. The answer key and
// explanation are only present once the answer has been revealed.
type QuestionView struct {
	ID                   string              `json:"id"`
	Kind                 domain.QuestionKind `json:"kind"`
	PromptPrimary        string              `json:"promptPrimary"`
	PromptSecondary      string              `json:"promptSecondary"`
	Options              []string            `json:"options"`
	CorrectOptionIndex   *int                `json:"correctOptionIndex,omitempty"`
	ExplanationPrimary   string              `json:"explanationPrimary,omitempty"`
	ExplanationSecondary string              `json:"explanationSecondary,omitempty"`
}

// SessionView is the read model a presentation layer renders.
type SessionView struct {
	ID                  string       `json:"id"`
	SubjectID           string       `json:"subjectId"`
	CurrentIndex        int          `json:"currentIndex"`
	Total               int          `json:"total"`
	SelectedOptionIndex *int         `json:"selectedOptionIndex"`
	Revealed            bool         `json:"revealed"`
	Finished            bool         `json:"finished"`
	Score               int          `json:"score"`
	AnsweredCorrectly   []bool       `json:"answeredCorrectly"`
	Progress            float64      `json:"progress"`
	Question            QuestionView `json:"question"`
}

// NewSessionView snapshots session for display.
func NewSessionView(session *Session) SessionView {
	q := session.CurrentQuestion()
	question := QuestionView{
		ID:              q.ID,
		Kind:            q.Kind,
		PromptPrimary:   q.PromptPrimary,
		PromptSecondary: q.PromptSecondary,
		Options:         append([]string(nil), q.Options...),
	}
	if session.Revealed() {
		correct := q.CorrectOptionIndex
		question.CorrectOptionIndex = &correct
		question.ExplanationPrimary = q.ExplanationPrimary
		question.ExplanationSecondary = q.ExplanationSecondary
	}

	view := SessionView{
		ID:                session.ID(),
		SubjectID:         session.SubjectID(),
		CurrentIndex:      session.CurrentIndex(),
		Total:             session.Len(),
		Revealed:          session.Revealed(),
		Finished:          session.Finished(),
		Score:             session.Score(),
		AnsweredCorrectly: session.AnsweredCorrectly(),
		Progress:          session.ProgressFraction(),
		Question:          question,
	}
	if idx, ok := session.SelectedOption(); ok {
		view.SelectedOptionIndex = &idx
	}
	return view
}
