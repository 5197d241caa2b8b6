package interview_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/metrics"
	"hr-interview-bot/internal/questions"
	"hr-interview-bot/internal/storage"
)

const participant int64 = 1001

var longAnswer = strings.Repeat("Подробный ответ о моем опыте работы. ", 3)

type fakeNotifier struct {
	mu        sync.Mutex
	replies   map[int64][]interview.Reply
	announced []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{replies: make(map[int64][]interview.Reply)}
}

func (n *fakeNotifier) Deliver(_ context.Context, id int64, reply interview.Reply) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies[id] = append(n.replies[id], reply)
	return nil
}

func (n *fakeNotifier) Announce(_ context.Context, recipient, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.announced = append(n.announced, recipient+"|"+text)
	return nil
}

func (n *fakeNotifier) last(id int64) interview.Reply {
	n.mu.Lock()
	defer n.mu.Unlock()
	r := n.replies[id]
	if len(r) == 0 {
		return interview.Reply{}
	}
	return r[len(r)-1]
}

func (n *fakeNotifier) texts(id int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.replies[id]))
	for _, r := range n.replies[id] {
		out = append(out, r.Text)
	}
	return out
}

type fakeEvaluator struct {
	mu       sync.Mutex
	result   interview.AnalysisResult
	resume   interview.ResumeAnalysis
	answers  []interview.Answer
	evaluate int
}

func (e *fakeEvaluator) Evaluate(_ context.Context, _ questions.Track, answers []interview.Answer) interview.AnalysisResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluate++
	e.answers = answers
	return e.result
}

func (e *fakeEvaluator) AnalyzeResume(context.Context, questions.Track, string) interview.ResumeAnalysis {
	return e.resume
}

// flakyRepository отказывает в сохранении ответа или сессии заданное число раз
type flakyRepository struct {
	*storage.MemoryRepository
	mu          sync.Mutex
	failAnswers int
	failUpdates int
}

func (r *flakyRepository) UpdateInterview(ctx context.Context, s interview.Session, sessionID string) error {
	r.mu.Lock()
	if r.failUpdates > 0 {
		r.failUpdates--
		r.mu.Unlock()
		return errors.New("connection reset")
	}
	r.mu.Unlock()
	return r.MemoryRepository.UpdateInterview(ctx, s, sessionID)
}

func (r *flakyRepository) SaveAnswer(ctx context.Context, sessionID string, a interview.Answer) error {
	r.mu.Lock()
	if r.failAnswers > 0 {
		r.failAnswers--
		r.mu.Unlock()
		return errors.New("connection reset")
	}
	r.mu.Unlock()
	return r.MemoryRepository.SaveAnswer(ctx, sessionID, a)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	machine   *interview.Machine
	repo      interview.Repository
	notifier  *fakeNotifier
	evaluator *fakeEvaluator
	catalog   *questions.Catalog
	metrics   *metrics.Metrics
	clock     *clock
}

func newHarness(t *testing.T, repo interview.Repository, maxFollowUps int) *harness {
	t.Helper()

	catalog, err := questions.Default(questions.Branding{Company: "Маджента", HRName: "Анна", HRPosition: "HR"})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if repo == nil {
		repo = storage.NewMemoryRepository()
	}
	h := &harness{
		repo:     repo,
		notifier: newFakeNotifier(),
		evaluator: &fakeEvaluator{result: interview.AnalysisResult{
			OverallScore:   0.75,
			Recommendation: interview.Recommended,
			Summary:        "Сильный кандидат",
		}},
		catalog: catalog,
		metrics: metrics.NewMetrics(),
		clock:   &clock{now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)},
	}
	h.machine = interview.NewMachine(repo, catalog, h.evaluator, h.notifier, interview.Options{
		MaxFollowUps:     maxFollowUps,
		InterviewTimeout: 30 * time.Minute,
		ResultsRecipient: "@hr_results",
		Company:          interview.CompanyInfo{Name: "Маджента", Website: "https://example.com"},
		Metrics:          h.metrics,
		Now:              h.clock.Now,
	}, zaptest.NewLogger(t))
	return h
}

func (h *harness) start(t *testing.T, track questions.Track) {
	t.Helper()
	ctx := context.Background()

	if err := h.machine.Begin(ctx, interview.Participant{ID: participant, Username: "ivan"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := h.machine.HandleAction(ctx, participant, interview.ActionStart); err != nil {
		t.Fatalf("start action: %v", err)
	}
	if err := h.machine.HandleAction(ctx, participant, interview.ActionTrackPrefix+string(track)); err != nil {
		t.Fatalf("select track: %v", err)
	}
	if err := h.machine.HandleAction(ctx, participant, interview.ActionWithoutResume); err != nil {
		t.Fatalf("without resume: %v", err)
	}
}

func (h *harness) send(t *testing.T, text string) {
	t.Helper()
	h.clock.Advance(time.Minute)
	if err := h.machine.HandleText(context.Background(), participant, text); err != nil {
		t.Fatalf("handle %q: %v", text, err)
	}
}

func (h *harness) answerContacts(t *testing.T) {
	t.Helper()
	for _, text := range []string{"Иван Петров, менеджер по продажам", "8 (999) 123-45-67", "Ivan@Example.com", "нет", "Готов"} {
		h.send(t, text)
	}
}

func TestFullInterviewWithOneFollowUp(t *testing.T) {
	h := newHarness(t, nil, interview.DefaultMaxFollowUps)
	h.start(t, questions.TrackSales)

	awaiting, sess, ok := h.machine.Snapshot(participant)
	if !ok || awaiting != interview.AwaitingAnswer || sess.Cursor != 0 {
		t.Fatalf("expected first question, got %v %+v", awaiting, sess)
	}

	h.answerContacts(t)

	texts := h.notifier.texts(participant)
	transition := texts[len(texts)-2]
	if !strings.Contains(transition, "Контактные данные собраны") || !strings.Contains(transition, "**Позиция:** SALES") {
		t.Fatalf("expected transition announcement, got %q", transition)
	}
	if !strings.Contains(texts[len(texts)-1], "Вопрос 6 из 15") {
		t.Fatalf("expected sixth question, got %q", texts[len(texts)-1])
	}

	c, err := h.repo.GetCandidate(context.Background(), participant)
	if err != nil {
		t.Fatalf("candidate: %v", err)
	}
	if c.FirstName != "Иван" || c.Phone != "+79991234567" || c.Email != "ivan@example.com" || c.Portfolio != interview.PortfolioNotProvided {
		t.Fatalf("unexpected candidate %+v", c)
	}
	if c.Track != questions.TrackSales {
		t.Fatalf("expected track on candidate, got %q", c.Track)
	}

	// Первый профессиональный ответ всегда уточняется
	h.send(t, longAnswer)
	awaiting, sess, _ = h.machine.Snapshot(participant)
	if awaiting != interview.AwaitingFollowUpAnswer || sess.Cursor != 5 {
		t.Fatalf("expected follow-up on question 6, got %v cursor=%d", awaiting, sess.Cursor)
	}
	if !strings.HasPrefix(h.notifier.last(participant).Text, "**Уточняющий вопрос:**") {
		t.Fatalf("unexpected follow-up text %q", h.notifier.last(participant).Text)
	}

	h.send(t, "Дополнение к ответу")
	_, sess, _ = h.machine.Snapshot(participant)
	if sess.Cursor != 6 || sess.FollowUpCount != 1 {
		t.Fatalf("expected cursor 6 with one follow-up, got %+v", sess)
	}

	for i := 0; i < 9; i++ {
		h.send(t, longAnswer)
	}

	if _, _, ok := h.machine.Snapshot(participant); ok {
		t.Fatal("session must be released after completion")
	}
	if h.evaluator.evaluate != 1 || len(h.evaluator.answers) != 15 {
		t.Fatalf("expected one evaluation of 15 answers, got %d / %d", h.evaluator.evaluate, len(h.evaluator.answers))
	}
	if got := h.evaluator.answers[5].FollowUpAnswers; len(got) != 1 || got[0] != "Дополнение к ответу" {
		t.Fatalf("follow-up answer not attached: %v", got)
	}

	analysis, err := h.repo.GetCandidateAnalysis(context.Background(), participant)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if analysis.Track != questions.TrackSales || analysis.SessionID == "" {
		t.Fatalf("analysis not linked to session: %+v", analysis)
	}
	if _, _, err := h.repo.GetActiveInterview(context.Background(), participant); !errors.Is(err, interview.ErrNotFound) {
		t.Fatalf("interview must not stay active, got %v", err)
	}

	last := h.notifier.last(participant).Text
	if !strings.Contains(last, "**Ваш результат:** 7.5/10") || !strings.Contains(last, "Рекомендуем к найму") {
		t.Fatalf("unexpected completion message %q", last)
	}
	if len(h.notifier.announced) != 1 || !strings.HasPrefix(h.notifier.announced[0], "@hr_results|📊 **Новые результаты собеседования**") {
		t.Fatalf("unexpected HR announcement %v", h.notifier.announced)
	}

	snap := h.metrics.GetSnapshot()
	if snap.InterviewsStarted != 1 || snap.InterviewsCompleted != 1 || snap.FollowUpsAsked != 1 || snap.QuestionsAsked != 15 {
		t.Fatalf("unexpected metrics %+v", snap)
	}
}

func TestShortAnswersRespectFollowUpBudget(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.start(t, questions.TrackQA)
	h.answerContacts(t)

	h.send(t, "да")
	h.send(t, "нет")
	h.send(t, "да")
	h.send(t, "нет")

	awaiting, sess, _ := h.machine.Snapshot(participant)
	if sess.FollowUpCount != 2 || sess.Cursor != 7 {
		t.Fatalf("expected two follow-ups over two questions, got %+v", sess)
	}
	if awaiting != interview.AwaitingAnswer {
		t.Fatalf("expected plain answer state, got %v", awaiting)
	}

	h.send(t, "кратко")
	_, sess, _ = h.machine.Snapshot(participant)
	if sess.Cursor != 8 || sess.FollowUpCount != 2 {
		t.Fatalf("budget exhausted, expected direct advance, got %+v", sess)
	}
}

func TestZeroBudgetDisablesFollowUps(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.start(t, questions.TrackSales)
	h.answerContacts(t)

	for i := 0; i < 10; i++ {
		h.send(t, "да")
	}
	if h.metrics.GetSnapshot().FollowUpsAsked != 0 {
		t.Fatal("no follow-ups expected with zero budget")
	}
	if h.evaluator.evaluate != 1 {
		t.Fatalf("expected completion, evaluations=%d", h.evaluator.evaluate)
	}
}

func TestInvalidPhoneDoesNotAdvance(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.start(t, questions.TrackSales)
	h.send(t, "Иван Петров, тестировщик")

	for i := 0; i < 2; i++ {
		h.send(t, "12345")
		_, sess, _ := h.machine.Snapshot(participant)
		if sess.Cursor != 1 || len(sess.Answers) != 1 {
			t.Fatalf("invalid phone must not advance, got cursor=%d answers=%d", sess.Cursor, len(sess.Answers))
		}
		if !strings.Contains(h.notifier.last(participant).Text, "корректный номер телефона") {
			t.Fatalf("expected phone hint, got %q", h.notifier.last(participant).Text)
		}
	}

	c, _ := h.repo.GetCandidate(context.Background(), participant)
	if c.Phone != "" {
		t.Fatalf("phone must stay empty, got %q", c.Phone)
	}

	h.send(t, "+7 999 000 11 22")
	_, sess, _ := h.machine.Snapshot(participant)
	if sess.Cursor != 2 {
		t.Fatalf("expected advance after valid phone, got %d", sess.Cursor)
	}
}

func TestShortNameIsRejected(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.start(t, questions.TrackSales)
	h.send(t, "Иван")

	_, sess, _ := h.machine.Snapshot(participant)
	if sess.Cursor != 0 {
		t.Fatalf("expected cursor to stay on introduction, got %d", sess.Cursor)
	}
}

func TestResumeFlow(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.evaluator.resume = interview.ResumeAnalysis{ExperienceLevel: "middle", Recommendations: []string{"Уточнить опыт с CRM"}}
	ctx := context.Background()

	if err := h.machine.Begin(ctx, interview.Participant{ID: participant}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_ = h.machine.HandleAction(ctx, participant, interview.ActionTrackPrefix+string(questions.TrackSales))
	_ = h.machine.HandleAction(ctx, participant, interview.ActionWithResume)

	awaiting, _, _ := h.machine.Snapshot(participant)
	if awaiting != interview.AwaitingResumeUpload {
		t.Fatalf("expected resume upload state, got %v", awaiting)
	}

	h.send(t, "привет")
	awaiting, _, _ = h.machine.Snapshot(participant)
	if awaiting != interview.AwaitingResumeUpload {
		t.Fatalf("rejected resume must keep upload state, got %v", awaiting)
	}
	reply := h.notifier.last(participant)
	if len(reply.Buttons) != 2 || reply.Buttons[0][0].Action != interview.ActionUploadResumeAgain {
		t.Fatalf("expected retry buttons, got %+v", reply.Buttons)
	}
	c, _ := h.repo.GetCandidate(ctx, participant)
	if c.ResumeText != "" {
		t.Fatal("rejected resume must not be stored")
	}

	resume := "Опыт работы 4 года в компании Альфа, должность менеджер. Образование высшее. Навыки: B2B продажи."
	h.send(t, resume)
	reply = h.notifier.last(participant)
	if !strings.Contains(reply.Text, "Резюме проанализировано") || !strings.Contains(reply.Text, "1. Уточнить опыт с CRM") {
		t.Fatalf("unexpected resume reply %q", reply.Text)
	}
	c, _ = h.repo.GetCandidate(ctx, participant)
	if c.ResumeText != resume || c.ExperienceLevel != "middle" {
		t.Fatalf("resume not stored: %+v", c)
	}

	if err := h.machine.HandleAction(ctx, participant, reply.Buttons[0][0].Action); err != nil {
		t.Fatalf("start after resume: %v", err)
	}
	awaiting, sess, ok := h.machine.Snapshot(participant)
	if !ok || awaiting != interview.AwaitingAnswer || sess.Track != questions.TrackSales {
		t.Fatalf("expected interview to start, got %v %+v", awaiting, sess)
	}
	snap := h.metrics.GetSnapshot()
	if snap.ResumesAccepted != 1 || snap.ResumesRejected != 1 {
		t.Fatalf("unexpected resume metrics %+v", snap)
	}
}

func TestDegradedEvaluationStillCompletes(t *testing.T) {
	h := newHarness(t, nil, 0)
	h.evaluator.result = interview.AnalysisResult{
		OverallScore:   0.5,
		Recommendation: interview.NeedsClarification,
		Summary:        "Произошла ошибка при анализе интервью",
		Degraded:       true,
	}
	h.start(t, questions.TrackQA)
	h.answerContacts(t)
	for i := 0; i < 10; i++ {
		h.send(t, longAnswer)
	}

	last := h.notifier.last(participant).Text
	if !strings.Contains(last, "5.0/10") || !strings.Contains(last, "Требует дополнительного рассмотрения") {
		t.Fatalf("unexpected completion %q", last)
	}
	a, err := h.repo.GetCandidateAnalysis(context.Background(), participant)
	if err != nil || !a.Degraded {
		t.Fatalf("degraded analysis not stored: %+v %v", a, err)
	}
	if h.metrics.GetSnapshot().AnalysesDegraded != 1 {
		t.Fatal("expected degraded metric")
	}
}

func TestSaveFailureKeepsCursor(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: storage.NewMemoryRepository()}
	h := newHarness(t, repo, 2)
	h.start(t, questions.TrackSales)

	repo.failAnswers = 1
	err := h.machine.HandleText(context.Background(), participant, "Иван Петров, менеджер")
	if err == nil {
		t.Fatal("expected persistence error")
	}
	_, sess, _ := h.machine.Snapshot(participant)
	if sess.Cursor != 0 || len(sess.Answers) != 0 {
		t.Fatalf("cursor must not move on failed save, got %+v", sess)
	}

	h.send(t, "Иван Петров, менеджер")
	_, sess, _ = h.machine.Snapshot(participant)
	if sess.Cursor != 1 {
		t.Fatalf("expected retry to advance, got %d", sess.Cursor)
	}
}

func TestFailedExpireKeepsSessionActive(t *testing.T) {
	repo := &flakyRepository{MemoryRepository: storage.NewMemoryRepository()}
	h := newHarness(t, repo, 0)
	h.start(t, questions.TrackSales)
	h.send(t, "Иван Петров, менеджер")

	repo.failUpdates = 1
	if n := h.machine.ExpireIdle(context.Background(), h.clock.Now().Add(31*time.Minute)); n != 0 {
		t.Fatalf("failed save must not count as expired, got %d", n)
	}
	awaiting, sess, ok := h.machine.Snapshot(participant)
	if !ok || awaiting != interview.AwaitingAnswer || sess.Status != interview.StatusInProgress {
		t.Fatalf("session must stay in progress, got %v %+v", awaiting, sess)
	}

	for _, text := range []string{"8 (999) 123-45-67", "ivan@example.com", "нет", "Готов"} {
		h.send(t, text)
	}
	for i := 0; i < 10; i++ {
		h.send(t, longAnswer)
	}

	stored, err := h.repo.GetInterview(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get interview: %v", err)
	}
	if stored.Status != interview.StatusCompleted || stored.CompletedAt == nil {
		t.Fatalf("expected completed interview, got status=%s completed_at=%v", stored.Status, stored.CompletedAt)
	}
	if h.evaluator.evaluate != 1 {
		t.Fatalf("expected one evaluation, got %d", h.evaluator.evaluate)
	}
}

func TestExpireIdleMarksTimedOut(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.start(t, questions.TrackSales)
	h.send(t, "Иван Петров, менеджер")

	_, sess, _ := h.machine.Snapshot(participant)

	if n := h.machine.ExpireIdle(context.Background(), h.clock.Now().Add(10*time.Minute)); n != 0 {
		t.Fatalf("nothing should expire yet, got %d", n)
	}
	if n := h.machine.ExpireIdle(context.Background(), h.clock.Now().Add(31*time.Minute)); n != 1 {
		t.Fatalf("expected one expired interview, got %d", n)
	}

	stored, err := h.repo.GetInterview(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get interview: %v", err)
	}
	if stored.Status != interview.StatusTimedOut {
		t.Fatalf("expected timed_out, got %s", stored.Status)
	}
	if !strings.Contains(h.notifier.last(participant).Text, "Время собеседования истекло") {
		t.Fatalf("expected timeout notice, got %q", h.notifier.last(participant).Text)
	}

	if err := h.machine.Expire(context.Background(), participant); err != nil {
		t.Fatalf("second expire must be a no-op: %v", err)
	}
	if h.metrics.GetSnapshot().InterviewsTimedOut != 1 {
		t.Fatal("expected exactly one timeout")
	}
}

func TestResumeAfterRestart(t *testing.T) {
	repo := storage.NewMemoryRepository()
	h := newHarness(t, repo, 2)
	h.start(t, questions.TrackSales)
	h.send(t, "Иван Петров, менеджер")
	h.send(t, "89991234567")

	restarted := newHarness(t, repo, 2)
	if err := restarted.machine.HandleText(context.Background(), participant, "привет"); err != nil {
		t.Fatalf("handle after restart: %v", err)
	}
	if !strings.Contains(restarted.notifier.last(participant).Text, "email") {
		t.Fatalf("expected email question to be re-asked, got %q", restarted.notifier.last(participant).Text)
	}

	restarted.send(t, "ivan@example.com")
	_, sess, ok := restarted.machine.Snapshot(participant)
	if !ok || sess.Cursor != 3 || len(sess.Answers) != 3 {
		t.Fatalf("expected resumed session at cursor 3, got %+v", sess)
	}
}

func TestResumeAtFirstProfessionalQuestionSkipsTransition(t *testing.T) {
	repo := storage.NewMemoryRepository()
	h := newHarness(t, repo, 2)
	h.start(t, questions.TrackSales)
	h.answerContacts(t)

	restarted := newHarness(t, repo, 2)
	if err := restarted.machine.HandleText(context.Background(), participant, "привет"); err != nil {
		t.Fatalf("handle after restart: %v", err)
	}
	for _, text := range restarted.notifier.texts(participant) {
		if strings.Contains(text, "Контактные данные собраны") {
			t.Fatalf("transition announcement must not repeat after restart: %q", text)
		}
	}
	if !strings.Contains(restarted.notifier.last(participant).Text, "Вопрос 6 из 15") {
		t.Fatalf("expected sixth question, got %q", restarted.notifier.last(participant).Text)
	}
}

func TestTextWithoutInterviewShowsHelp(t *testing.T) {
	h := newHarness(t, nil, 2)
	h.send(t, "привет")
	if h.notifier.last(participant).Text != "Используйте /start для начала собеседования или /help для справки." {
		t.Fatalf("unexpected reply %q", h.notifier.last(participant).Text)
	}
}

func TestUnknownTrack(t *testing.T) {
	h := newHarness(t, nil, 2)
	err := h.machine.HandleAction(context.Background(), participant, interview.ActionTrackPrefix+"devops")
	if !errors.Is(err, interview.ErrUnknownTrack) {
		t.Fatalf("expected ErrUnknownTrack, got %v", err)
	}
	reply := h.notifier.last(participant)
	if len(reply.Buttons) != 2 {
		t.Fatalf("expected track selection to be shown again, got %+v", reply)
	}
}

func TestStartWithoutTrackShowsSelection(t *testing.T) {
	h := newHarness(t, nil, 2)
	if err := h.machine.StartInterview(context.Background(), participant); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, ok := h.machine.Snapshot(participant); ok {
		t.Fatal("interview must not start without a track")
	}
	if !strings.Contains(h.notifier.last(participant).Text, "выберите") {
		t.Fatalf("expected track selection, got %q", h.notifier.last(participant).Text)
	}
}
