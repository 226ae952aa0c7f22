package http

import (
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/content"
	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/infra/memory"
)

func newTestRouterDeps() (*app.QuizService, *app.ProgressService, *memory.SessionStore) {
	sessions := memory.NewSessionStore()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(sampleBanks()), time.Minute)
	progressStore := memory.NewProgressStore()
	quiz := app.NewQuizService(sessions, banks, content.MustBuiltin(), progressStore)
	return quiz, app.NewProgressService(progressStore), sessions
}

// sampleBanks uses the built-in subjects so the catalog and banks agree.
func sampleBanks() map[string]domain.QuestionBank {
	return content.MustBuiltin().Banks()
}
