package interview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/questions"
)

// Awaiting описывает, какого ввода машина ждет от участника
type Awaiting int

const (
	AwaitingNothing Awaiting = iota
	AwaitingResumeUpload
	AwaitingAnswer
	AwaitingFollowUpAnswer
)

func (a Awaiting) String() string {
	switch a {
	case AwaitingResumeUpload:
		return "resume_upload"
	case AwaitingAnswer:
		return "answer"
	case AwaitingFollowUpAnswer:
		return "follow_up_answer"
	}
	return "nothing"
}

// Description возвращает описание состояния для кандидата
func (a Awaiting) Description() string {
	switch a {
	case AwaitingResumeUpload:
		return "ожидается резюме"
	case AwaitingAnswer:
		return "ожидается ответ"
	case AwaitingFollowUpAnswer:
		return "ожидается ответ на уточняющий вопрос"
	}
	return "нет активного вопроса"
}

// Participant - данные отправителя из транспорта
type Participant struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

const (
	defaultInterviewTimeout = 30 * time.Minute
	idleConversationTTL     = 24 * time.Hour
)

// Options настраивает машину состояний
type Options struct {
	// MaxFollowUps - бюджет уточнений; 0 отключает уточнения
	MaxFollowUps     int
	InterviewTimeout time.Duration
	// ResultsRecipient - чат или @канал для отчетов HR; пусто - не отправлять
	ResultsRecipient string
	Company          CompanyInfo
	Archive          Archiver
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

type pendingFollowUp struct {
	answer Answer
	prompt string
}

// conversation - состояние диалога одного участника
type conversation struct {
	mu           sync.Mutex
	dropped      bool
	awaiting     Awaiting
	track        questions.Track
	sessionID    string
	session      *Session
	pending      *pendingFollowUp
	lastActivity time.Time
}

func (c *conversation) reset() {
	c.awaiting = AwaitingNothing
	c.track = ""
	c.sessionID = ""
	c.session = nil
	c.pending = nil
}

// Machine проводит собеседования. Ввод одного участника обрабатывается
// последовательно, разные участники обрабатываются независимо.
type Machine struct {
	repo      Repository
	catalog   *questions.Catalog
	evaluator Evaluator
	notifier  Notifier
	opts      Options
	logger    *zap.Logger

	mu            sync.Mutex
	conversations map[int64]*conversation
}

func NewMachine(repo Repository, catalog *questions.Catalog, evaluator Evaluator, notifier Notifier, opts Options, logger *zap.Logger) *Machine {
	if opts.MaxFollowUps < 0 {
		opts.MaxFollowUps = 0
	}
	if opts.InterviewTimeout <= 0 {
		opts.InterviewTimeout = defaultInterviewTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		repo:          repo,
		catalog:       catalog,
		evaluator:     evaluator,
		notifier:      notifier,
		opts:          opts,
		logger:        logger,
		conversations: make(map[int64]*conversation),
	}
}

// acquire возвращает заблокированный диалог участника
func (m *Machine) acquire(id int64) *conversation {
	for {
		m.mu.Lock()
		conv, ok := m.conversations[id]
		if !ok {
			conv = &conversation{lastActivity: m.opts.Now()}
			m.conversations[id] = conv
		}
		m.mu.Unlock()

		conv.mu.Lock()
		if !conv.dropped {
			return conv
		}
		conv.mu.Unlock()
	}
}

func (m *Machine) deliver(ctx context.Context, id int64, reply Reply) {
	if err := m.notifier.Deliver(ctx, id, reply); err != nil {
		m.logger.Warn("failed to deliver message", zap.Int64("participant", id), zap.Error(err))
	}
}

func (m *Machine) say(ctx context.Context, id int64, text string) {
	m.deliver(ctx, id, Reply{Text: text})
}

// Begin регистрирует участника и отправляет приветствие.
// Незавершенный диалог сбрасывается.
func (m *Machine) Begin(ctx context.Context, p Participant) error {
	conv := m.acquire(p.ID)
	defer conv.mu.Unlock()

	c, err := m.repo.GetCandidate(ctx, p.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		c = Candidate{ID: p.ID, CreatedAt: m.opts.Now()}
	case err != nil:
		m.say(ctx, p.ID, msgInternalError)
		return fmt.Errorf("get candidate %d: %w", p.ID, err)
	}
	c.Username = p.Username
	if c.FirstName == "" {
		c.FirstName = p.FirstName
	}
	if c.LastName == "" {
		c.LastName = p.LastName
	}
	if err := m.repo.SaveCandidate(ctx, c); err != nil {
		m.say(ctx, p.ID, msgInternalError)
		return fmt.Errorf("save candidate %d: %w", p.ID, err)
	}

	conv.reset()
	conv.lastActivity = m.opts.Now()
	m.logger.Info("participant started", zap.Int64("participant", p.ID), zap.String("username", p.Username))
	m.deliver(ctx, p.ID, welcomeReply(m.opts.Company))
	return nil
}

// HandleAction обрабатывает нажатие кнопки
func (m *Machine) HandleAction(ctx context.Context, id int64, action string) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	conv.lastActivity = m.opts.Now()

	switch {
	case action == ActionStart:
		m.chooseTrack(ctx, id, conv)
		return nil
	case strings.HasPrefix(action, ActionTrackPrefix):
		return m.selectTrack(ctx, id, conv, questions.Track(strings.TrimPrefix(action, ActionTrackPrefix)))
	case action == ActionWithResume || action == ActionUploadResumeAgain:
		m.requestResume(ctx, id, conv)
		return nil
	case action == ActionWithoutResume || action == ActionSkipResume ||
		action == ActionContinueWithoutResume || action == ActionStartAfterResume:
		return m.startInterview(ctx, id, conv)
	}

	m.logger.Debug("unknown action", zap.Int64("participant", id), zap.String("action", action))
	m.say(ctx, id, msgUnknownAction)
	return nil
}

// ChooseTrack показывает список позиций
func (m *Machine) ChooseTrack(ctx context.Context, id int64) {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	m.chooseTrack(ctx, id, conv)
}

func (m *Machine) chooseTrack(ctx context.Context, id int64, conv *conversation) {
	conv.awaiting = AwaitingNothing
	m.deliver(ctx, id, trackSelectionReply(m.catalog))
}

// SelectTrack запоминает выбранную позицию и предлагает загрузить резюме
func (m *Machine) SelectTrack(ctx context.Context, id int64, track questions.Track) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.selectTrack(ctx, id, conv, track)
}

func (m *Machine) selectTrack(ctx context.Context, id int64, conv *conversation, track questions.Track) error {
	info, ok := m.catalog.Track(track)
	if !ok {
		m.chooseTrack(ctx, id, conv)
		return fmt.Errorf("%w: %q", ErrUnknownTrack, track)
	}
	conv.track = track
	conv.awaiting = AwaitingNothing
	m.logger.Info("track selected", zap.Int64("participant", id), zap.String("track", string(track)))
	m.deliver(ctx, id, resumeOfferReply(info.Title))
	return nil
}

// RequestResume переводит диалог в ожидание резюме
func (m *Machine) RequestResume(ctx context.Context, id int64) {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	m.requestResume(ctx, id, conv)
}

func (m *Machine) requestResume(ctx context.Context, id int64, conv *conversation) {
	if conv.track == "" {
		m.say(ctx, id, msgNoTrack)
		return
	}
	conv.awaiting = AwaitingResumeUpload
	m.deliver(ctx, id, resumeUploadReply())
}

// StartInterview создает собеседование по выбранной позиции и задает первый вопрос
func (m *Machine) StartInterview(ctx context.Context, id int64) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.startInterview(ctx, id, conv)
}

func (m *Machine) startInterview(ctx context.Context, id int64, conv *conversation) error {
	if conv.track == "" {
		m.chooseTrack(ctx, id, conv)
		return nil
	}
	qs := m.catalog.QuestionsFor(conv.track)
	if len(qs) == 0 {
		conv.awaiting = AwaitingNothing
		m.say(ctx, id, msgNoQuestions)
		return nil
	}

	c, err := m.repo.GetCandidate(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		c = Candidate{ID: id, CreatedAt: m.opts.Now()}
	case err != nil:
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("get candidate %d: %w", id, err)
	}
	c.Track = conv.track
	if err := m.repo.SaveCandidate(ctx, c); err != nil {
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("save candidate %d: %w", id, err)
	}

	now := m.opts.Now()
	sess := Session{
		CandidateID:  id,
		Track:        conv.track,
		Status:       StatusStarted,
		StartedAt:    now,
		LastActivity: now,
	}
	sessionID, err := m.repo.SaveInterview(ctx, sess)
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("save interview for %d: %w", id, err)
	}
	sess.ID = sessionID

	conv.sessionID = sessionID
	conv.session = &sess
	conv.pending = nil
	conv.awaiting = AwaitingAnswer
	m.opts.Metrics.IncrementInterviewsStarted()

	m.logger.Info("interview started",
		zap.Int64("participant", id),
		zap.String("session", sessionID),
		zap.String("track", string(conv.track)),
		zap.Int("questions", len(qs)),
	)
	m.ask(ctx, id, conv, qs, true)
	return nil
}

// HandleText обрабатывает текстовое сообщение участника
func (m *Machine) HandleText(ctx context.Context, id int64, text string) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	conv.lastActivity = m.opts.Now()

	switch conv.awaiting {
	case AwaitingResumeUpload:
		return m.submitResume(ctx, id, conv, text)
	case AwaitingAnswer:
		return m.submitAnswer(ctx, id, conv, text)
	case AwaitingFollowUpAnswer:
		return m.submitFollowUp(ctx, id, conv, text)
	}
	return m.resumeOrHelp(ctx, id, conv)
}

// resumeOrHelp продолжает собеседование, сохраненное в репозитории, если оно есть
func (m *Machine) resumeOrHelp(ctx context.Context, id int64, conv *conversation) error {
	sess, err := m.lookup(ctx, id, conv)
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return err
	}
	if sess == nil {
		m.say(ctx, id, msgUseStart)
		return nil
	}
	qs := m.catalog.QuestionsFor(sess.Track)
	if sess.Cursor >= len(qs) {
		return m.complete(ctx, id, conv, qs)
	}
	conv.track = sess.Track
	m.logger.Info("interview resumed",
		zap.Int64("participant", id),
		zap.String("session", conv.sessionID),
		zap.Int("cursor", sess.Cursor),
	)
	m.say(ctx, id, msgResumed)
	// объявление о переходе уже было до перезапуска
	m.ask(ctx, id, conv, qs, false)
	return nil
}

// lookup возвращает активное собеседование из диалога или из репозитория.
// Возвращает nil, если активного собеседования нет.
func (m *Machine) lookup(ctx context.Context, id int64, conv *conversation) (*Session, error) {
	if conv.session != nil {
		return conv.session, nil
	}
	sessionID, sess, err := m.repo.GetActiveInterview(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active interview for %d: %w", id, err)
	}
	answers, err := m.repo.GetInterviewAnswers(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get answers of %s: %w", sessionID, err)
	}
	if len(answers) > 0 {
		sess.Answers = answers
	}
	sess.ID = sessionID
	conv.sessionID = sessionID
	conv.session = &sess
	conv.track = sess.Track
	return &sess, nil
}

// SubmitResume принимает текст резюме
func (m *Machine) SubmitResume(ctx context.Context, id int64, text string) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.submitResume(ctx, id, conv, text)
}

func (m *Machine) submitResume(ctx context.Context, id int64, conv *conversation, text string) error {
	if conv.track == "" {
		conv.awaiting = AwaitingNothing
		m.say(ctx, id, msgNoTrack)
		return nil
	}
	if reason := CheckResume(text); reason != "" {
		m.opts.Metrics.IncrementResume(false)
		m.logger.Info("resume rejected", zap.Int64("participant", id), zap.Int("length", len([]rune(text))))
		m.deliver(ctx, id, resumeRejectedReply(reason))
		return nil
	}

	c, err := m.repo.GetCandidate(ctx, id)
	if errors.Is(err, ErrNotFound) {
		conv.awaiting = AwaitingNothing
		m.say(ctx, id, msgNoCandidate)
		return nil
	}
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("get candidate %d: %w", id, err)
	}

	analysis := m.evaluator.AnalyzeResume(ctx, conv.track, text)
	c.ResumeText = text
	c.Track = conv.track
	if !analysis.Degraded && analysis.ExperienceLevel != "" {
		c.ExperienceLevel = analysis.ExperienceLevel
	}
	if err := m.repo.SaveCandidate(ctx, c); err != nil {
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("save candidate %d: %w", id, err)
	}

	m.opts.Metrics.IncrementResume(true)
	conv.awaiting = AwaitingNothing
	professional := len(m.catalog.ProfessionalQuestionsFor(conv.track))
	m.deliver(ctx, id, resumeAnalysisReply(analysis, conv.track, professional))
	return nil
}

// SubmitAnswer принимает ответ на текущий вопрос
func (m *Machine) SubmitAnswer(ctx context.Context, id int64, text string) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.submitAnswer(ctx, id, conv, text)
}

func (m *Machine) submitAnswer(ctx context.Context, id int64, conv *conversation, text string) error {
	sess, err := m.lookup(ctx, id, conv)
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return err
	}
	if sess == nil {
		conv.awaiting = AwaitingNothing
		m.say(ctx, id, msgNoSession)
		return nil
	}

	qs := m.catalog.QuestionsFor(sess.Track)
	if sess.Cursor >= len(qs) {
		return m.complete(ctx, id, conv, qs)
	}
	q := qs[sess.Cursor]
	answer := Answer{QuestionID: q.ID, Text: text, Timestamp: m.opts.Now()}

	if !q.Category.Scoreable() {
		if q.Field != questions.FieldNone {
			return m.submitContact(ctx, id, conv, qs, q, answer)
		}
		return m.record(ctx, id, conv, qs, answer, 0)
	}

	if NeedsFollowUp(text, sess.FollowUpCount, m.opts.MaxFollowUps) {
		prompt := q.FollowUpPrompt()
		conv.pending = &pendingFollowUp{answer: answer, prompt: prompt}
		conv.awaiting = AwaitingFollowUpAnswer
		m.opts.Metrics.IncrementFollowUpsAsked()
		m.logger.Debug("follow-up requested",
			zap.Int64("participant", id),
			zap.String("question", q.ID),
			zap.Int("follow_ups", sess.FollowUpCount),
		)
		m.say(ctx, id, FormatFollowUp(prompt))
		return nil
	}
	return m.record(ctx, id, conv, qs, answer, 0)
}

func (m *Machine) submitContact(ctx context.Context, id int64, conv *conversation, qs []questions.Question, q questions.Question, answer Answer) error {
	c, err := m.repo.GetCandidate(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		c = Candidate{ID: id, Track: conv.track, CreatedAt: m.opts.Now()}
	case err != nil:
		m.say(ctx, id, msgInternalError)
		return fmt.Errorf("get candidate %d: %w", id, err)
	}

	if err := ApplyContact(&c, q.Field, answer.Text); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			m.logger.Debug("contact rejected", zap.Int64("participant", id), zap.String("field", string(q.Field)))
			m.say(ctx, id, verr.Message)
			return nil
		}
		return err
	}
	if err := m.repo.SaveCandidate(ctx, c); err != nil {
		m.say(ctx, id, msgSaveFailed)
		return fmt.Errorf("save candidate %d: %w", id, err)
	}
	return m.record(ctx, id, conv, qs, answer, 0)
}

// SubmitFollowUp принимает ответ на уточняющий вопрос
func (m *Machine) SubmitFollowUp(ctx context.Context, id int64, text string) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.submitFollowUp(ctx, id, conv, text)
}

func (m *Machine) submitFollowUp(ctx context.Context, id int64, conv *conversation, text string) error {
	sess, err := m.lookup(ctx, id, conv)
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return err
	}
	if sess == nil || conv.pending == nil {
		conv.pending = nil
		conv.awaiting = AwaitingNothing
		m.say(ctx, id, msgFollowUpLost)
		return nil
	}

	answer := conv.pending.answer
	answer.FollowUpAnswers = append(slices.Clone(answer.FollowUpAnswers), text)
	return m.record(ctx, id, conv, m.catalog.QuestionsFor(sess.Track), answer, 1)
}

// record сохраняет ответ и сдвигает курсор. При ошибке сохранения
// курсор не меняется и ответ можно отправить повторно.
func (m *Machine) record(ctx context.Context, id int64, conv *conversation, qs []questions.Question, answer Answer, followUps int) error {
	if err := m.repo.SaveAnswer(ctx, conv.sessionID, answer); err != nil {
		m.say(ctx, id, msgSaveFailed)
		return fmt.Errorf("save answer %s of %s: %w", answer.QuestionID, conv.sessionID, err)
	}

	sess := conv.session
	sess.Answers = append(sess.Answers, answer)
	sess.Cursor++
	sess.FollowUpCount += followUps
	sess.LastActivity = m.opts.Now()
	sess.transition(StatusInProgress)
	conv.pending = nil

	if err := m.repo.UpdateInterview(ctx, *sess, conv.sessionID); err != nil {
		m.logger.Warn("failed to update interview",
			zap.String("session", conv.sessionID),
			zap.Int("cursor", sess.Cursor),
			zap.Error(err),
		)
	}
	return m.advance(ctx, id, conv, qs)
}

func (m *Machine) advance(ctx context.Context, id int64, conv *conversation, qs []questions.Question) error {
	if conv.session.Cursor >= len(qs) {
		return m.complete(ctx, id, conv, qs)
	}
	m.ask(ctx, id, conv, qs, true)
	return nil
}

// ask задает вопрос под курсором. С announce первый профессиональный вопрос
// предваряется объявлением о переходе.
func (m *Machine) ask(ctx context.Context, id int64, conv *conversation, qs []questions.Question, announce bool) {
	sess := conv.session
	q := qs[sess.Cursor]

	contact := m.catalog.ContactQuestionsFor(sess.Track)
	professional := m.catalog.ProfessionalQuestionsFor(sess.Track)
	if announce && sess.Cursor == len(contact) && len(professional) > 0 && q.ID == professional[0].ID {
		m.say(ctx, id, formatTransition(sess.Track, len(professional)))
	}

	conv.awaiting = AwaitingAnswer
	m.opts.Metrics.IncrementQuestionsAsked()
	m.say(ctx, id, FormatQuestion(q, sess.Cursor, len(qs)))
}

// complete завершает собеседование, оценивает ответы и рассылает результаты
func (m *Machine) complete(ctx context.Context, id int64, conv *conversation, qs []questions.Question) error {
	sess := conv.session
	sessionID := conv.sessionID
	now := m.opts.Now()

	if sess.transition(StatusCompleted) {
		sess.CompletedAt = &now
		sess.LastActivity = now
	}
	conv.awaiting = AwaitingNothing
	conv.pending = nil
	if err := m.repo.UpdateInterview(ctx, *sess, sessionID); err != nil {
		m.logger.Warn("failed to mark interview completed", zap.String("session", sessionID), zap.Error(err))
	}

	answers, err := m.repo.GetInterviewAnswers(ctx, sessionID)
	if err != nil || len(answers) == 0 {
		if err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Warn("failed to load answers, using cached", zap.String("session", sessionID), zap.Error(err))
		}
		answers = sess.Answers
	}

	m.say(ctx, id, msgAnalyzing)

	// Оценка не прерывается отменой входящего запроса
	evalCtx := context.WithoutCancel(ctx)
	result := m.evaluator.Evaluate(evalCtx, sess.Track, answers)
	result.CandidateID = id
	result.SessionID = sessionID
	result.Track = sess.Track
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	if result.Degraded {
		m.opts.Metrics.IncrementAnalysesDegraded()
	}
	if err := m.repo.SaveAnalysis(evalCtx, result); err != nil {
		m.logger.Error("failed to save analysis", zap.String("session", sessionID), zap.Error(err))
	}

	c, err := m.repo.GetCandidate(evalCtx, id)
	if err != nil {
		m.logger.Warn("candidate missing on completion", zap.Int64("participant", id), zap.Error(err))
		c = Candidate{ID: id, Track: sess.Track}
	}

	if m.opts.Archive != nil {
		t := Transcript{Candidate: c, Session: *sess, Answers: answers, Analysis: result}
		if err := m.opts.Archive.Archive(evalCtx, t); err != nil {
			m.logger.Warn("failed to archive interview", zap.String("session", sessionID), zap.Error(err))
		}
	}
	if m.opts.ResultsRecipient != "" {
		if err := m.notifier.Announce(evalCtx, m.opts.ResultsRecipient, FormatHRReport(c, *sess, result)); err != nil {
			m.logger.Warn("failed to send results to HR", zap.String("recipient", m.opts.ResultsRecipient), zap.Error(err))
		}
	}

	m.opts.Metrics.IncrementInterviewsCompleted()
	m.logger.Info("interview completed",
		zap.Int64("participant", id),
		zap.String("session", sessionID),
		zap.Int("answers", len(answers)),
		zap.Int("questions", len(qs)),
		zap.Float64("score", result.OverallScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.Bool("degraded", result.Degraded),
	)

	conv.session = nil
	conv.sessionID = ""
	m.say(evalCtx, id, formatCompletion(result))
	return nil
}

// Expire помечает активное собеседование участника как прерванное по таймауту
func (m *Machine) Expire(ctx context.Context, id int64) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()
	return m.expire(ctx, id, conv)
}

func (m *Machine) expire(ctx context.Context, id int64, conv *conversation) error {
	sess, err := m.lookup(ctx, id, conv)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	// живая сессия меняется только после успешного сохранения
	next := *sess
	if !next.transition(StatusTimedOut) {
		return nil
	}
	next.LastActivity = m.opts.Now()
	if err := m.repo.UpdateInterview(ctx, next, conv.sessionID); err != nil {
		return fmt.Errorf("mark %s timed out: %w", conv.sessionID, err)
	}
	*sess = next

	m.logger.Info("interview timed out", zap.Int64("participant", id), zap.String("session", conv.sessionID))
	conv.reset()
	m.opts.Metrics.IncrementInterviewsTimedOut()
	m.say(ctx, id, msgTimedOut)
	return nil
}

// ExpireIdle прерывает собеседования, в которых не было активности дольше таймаута,
// и забывает давно неактивные диалоги. Возвращает число прерванных собеседований.
func (m *Machine) ExpireIdle(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	ids := make([]int64, 0, len(m.conversations))
	for id := range m.conversations {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	expired := 0
	for _, id := range ids {
		m.mu.Lock()
		conv, ok := m.conversations[id]
		m.mu.Unlock()
		if !ok {
			continue
		}

		conv.mu.Lock()
		idle := now.Sub(conv.lastActivity)
		switch {
		case conv.session != nil && idle >= m.opts.InterviewTimeout:
			if err := m.expire(ctx, id, conv); err != nil {
				m.logger.Warn("failed to expire interview", zap.Int64("participant", id), zap.Error(err))
			} else {
				expired++
			}
		case conv.session == nil && idle >= idleConversationTTL:
			conv.dropped = true
			m.mu.Lock()
			delete(m.conversations, id)
			m.mu.Unlock()
		}
		conv.mu.Unlock()
	}
	return expired
}

// RunExpiry периодически вызывает ExpireIdle до отмены контекста
func (m *Machine) RunExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.ExpireIdle(ctx, m.opts.Now()); n > 0 {
				m.logger.Info("expired idle interviews", zap.Int("count", n))
			}
		}
	}
}

// Status отправляет участнику прогресс текущего собеседования
func (m *Machine) Status(ctx context.Context, id int64) error {
	conv := m.acquire(id)
	defer conv.mu.Unlock()

	sess, err := m.lookup(ctx, id, conv)
	if err != nil {
		m.say(ctx, id, msgInternalError)
		return err
	}
	if sess == nil {
		m.say(ctx, id, msgNotStarted)
		return nil
	}
	total := len(m.catalog.QuestionsFor(sess.Track))
	m.say(ctx, id, formatStatus(*sess, total, m.opts.MaxFollowUps, m.catalog.Title(sess.Track), conv.awaiting))
	return nil
}

// Snapshot возвращает состояние диалога участника
func (m *Machine) Snapshot(id int64) (Awaiting, Session, bool) {
	m.mu.Lock()
	conv, ok := m.conversations[id]
	m.mu.Unlock()
	if !ok {
		return AwaitingNothing, Session{}, false
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	if conv.session == nil {
		return conv.awaiting, Session{}, false
	}
	s := *conv.session
	s.Answers = slices.Clone(s.Answers)
	return conv.awaiting, s, true
}
