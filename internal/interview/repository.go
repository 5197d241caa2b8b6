package interview

import (
	"context"

	"hr-interview-bot/internal/questions"
)

// Repository - граница хранения собеседований.
// Методы чтения возвращают ErrNotFound, если запись отсутствует.
type Repository interface {
	SaveCandidate(ctx context.Context, c Candidate) error
	GetCandidate(ctx context.Context, id int64) (Candidate, error)

	SaveInterview(ctx context.Context, s Session) (string, error)
	UpdateInterview(ctx context.Context, s Session, sessionID string) error
	GetInterview(ctx context.Context, sessionID string) (Session, error)
	// GetActiveInterview возвращает последнее начатое собеседование в статусе started или in_progress
	GetActiveInterview(ctx context.Context, candidateID int64) (string, Session, error)

	SaveAnswer(ctx context.Context, sessionID string, a Answer) error
	GetInterviewAnswers(ctx context.Context, sessionID string) ([]Answer, error)

	SaveAnalysis(ctx context.Context, r AnalysisResult) error
	GetCandidateAnalysis(ctx context.Context, candidateID int64) (AnalysisResult, error)
}

// Evaluator оценивает стенограмму и резюме. Методы не возвращают ошибок:
// при сбое оракула возвращается нейтральный результат.
type Evaluator interface {
	Evaluate(ctx context.Context, track questions.Track, answers []Answer) AnalysisResult
	AnalyzeResume(ctx context.Context, track questions.Track, resume string) ResumeAnalysis
}

// Notifier доставляет сообщения участникам
type Notifier interface {
	Deliver(ctx context.Context, participantID int64, reply Reply) error
	// Announce отправляет текст получателю результатов (чат или @канал)
	Announce(ctx context.Context, recipient string, text string) error
}

// Archiver сохраняет завершенные собеседования вне репозитория
type Archiver interface {
	Archive(ctx context.Context, t Transcript) error
}

// Button представляет кнопку с действием
type Button struct {
	Text   string
	Action string
}

// Reply - сообщение участнику с необязательными кнопками (по ряду на строку)
type Reply struct {
	Text    string
	Buttons [][]Button
}
