package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/logger"
	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/prompts"
	"hr-interview-bot/internal/questions"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxLogLen = 200
)

var errEmptyTranscript = errors.New("no answers to evaluate")

// Oracle - внешняя модель, отвечающая текстом на промпт
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Evaluator оценивает собеседования через оракула и никогда не возвращает ошибку:
// при любом сбое возвращается нейтральный результат с Degraded=true.
type Evaluator struct {
	oracle    Oracle
	catalog   *questions.Catalog
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
	maxLogLen int
}

func NewEvaluator(oracle Oracle, catalog *questions.Catalog, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Evaluator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		oracle:    oracle,
		catalog:   catalog,
		timeout:   timeout,
		logger:    logger,
		metrics:   m,
		maxLogLen: defaultMaxLogLen,
	}
}

// Evaluate оценивает ответы на профессиональные вопросы
func (e *Evaluator) Evaluate(ctx context.Context, track questions.Track, answers []interview.Answer) interview.AnalysisResult {
	entries := e.transcript(answers)
	if len(entries) == 0 {
		e.logger.Warn("interview analysis skipped", zap.String("track", string(track)), zap.Error(errEmptyTranscript))
		return EmptyAnalysis()
	}

	raw, err := e.call(ctx, "interview", prompts.GenerateInterviewAnalysisPrompt(track.Code(), entries))
	if err != nil {
		e.logger.Error("interview analysis failed", zap.String("track", string(track)), zap.Error(err))
		return FallbackAnalysis()
	}

	result, err := ParseAnalysis(raw)
	if err != nil {
		e.logger.Error("interview analysis is malformed",
			zap.String("track", string(track)),
			zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
			zap.Error(err),
		)
		return FallbackAnalysis()
	}
	return result
}

// AnalyzeResume извлекает структурированные данные из резюме
func (e *Evaluator) AnalyzeResume(ctx context.Context, track questions.Track, resume string) interview.ResumeAnalysis {
	raw, err := e.call(ctx, "resume", prompts.GenerateResumeAnalysisPrompt(e.catalog.Title(track), resume))
	if err != nil {
		e.logger.Error("resume analysis failed", zap.String("track", string(track)), zap.Error(err))
		return FallbackResume()
	}

	result, err := ParseResume(raw)
	if err != nil {
		e.logger.Error("resume analysis is malformed",
			zap.String("track", string(track)),
			zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
			zap.Error(err),
		)
		return FallbackResume()
	}
	return result
}

func (e *Evaluator) call(ctx context.Context, kind, prompt string) (string, error) {
	if e.oracle == nil {
		return "", errors.New("oracle is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Debug("oracle request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	started := time.Now()
	raw, err := e.oracle.Complete(ctx, prompt)
	e.metrics.IncrementAPICall(err == nil)
	if err != nil {
		return "", fmt.Errorf("oracle %s call: %w", kind, err)
	}

	e.logger.Debug("oracle response",
		zap.String("kind", kind),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)
	return raw, nil
}

// transcript собирает все ответы в порядке собеседования.
// Вопрос, которого больше нет в каталоге, подписывается своим идентификатором.
func (e *Evaluator) transcript(answers []interview.Answer) []prompts.TranscriptEntry {
	entries := make([]prompts.TranscriptEntry, 0, len(answers))
	for _, a := range answers {
		entry := prompts.TranscriptEntry{
			QuestionID: a.QuestionID,
			Question:   a.QuestionID,
			Answer:     a.Text,
			FollowUps:  a.FollowUpAnswers,
		}
		if q, ok := e.catalog.QuestionByID(a.QuestionID); ok {
			entry.Question = q.Text
			entry.Topic = q.Topic
		}
		entries = append(entries, entry)
	}
	return entries
}
