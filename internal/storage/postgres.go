package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

//go:embed schema.sql
var schema string

// PostgresConfig описывает подключение к базе данных
type PostgresConfig struct {
	// Driver - "pgx" или "postgres" (lib/pq)
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdle     time.Duration
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// OpenPostgres открывает пул соединений и ждет готовности базы
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "pgx"
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(cfg.ConnMaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)
	backoff := 500 * time.Millisecond
	for {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Warn("postgres not ready yet", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}

	return db, nil
}

// PostgresRepository хранит собеседования в PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate создает таблицы, если их нет
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SaveCandidate(ctx context.Context, c interview.Candidate) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO candidates (id, username, first_name, last_name, position, resume_text,
			experience_level, phone, email, portfolio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			position = EXCLUDED.position,
			resume_text = EXCLUDED.resume_text,
			experience_level = EXCLUDED.experience_level,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			portfolio = EXCLUDED.portfolio
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Username, c.FirstName, c.LastName, string(c.Track),
		c.ResumeText, c.ExperienceLevel, c.Phone, c.Email, c.Portfolio, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("save candidate %d: %w", c.ID, err)
	}
	return nil
}

func (r *PostgresRepository) GetCandidate(ctx context.Context, id int64) (interview.Candidate, error) {
	const query = `
		SELECT id, username, first_name, last_name, position, resume_text,
			experience_level, phone, email, portfolio, created_at
		FROM candidates
		WHERE id = $1
	`
	var (
		c     interview.Candidate
		track string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Username, &c.FirstName, &c.LastName, &track,
		&c.ResumeText, &c.ExperienceLevel, &c.Phone, &c.Email, &c.Portfolio, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.Candidate{}, interview.ErrNotFound
		}
		return interview.Candidate{}, fmt.Errorf("get candidate %d: %w", id, err)
	}
	c.Track = questions.Track(track)
	return c, nil
}

func (r *PostgresRepository) SaveInterview(ctx context.Context, s interview.Session) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO interviews (id, candidate_id, position, status, current_question_index,
			follow_up_count, started_at, completed_at, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.CandidateID, string(s.Track), string(s.Status), s.Cursor,
		s.FollowUpCount, s.StartedAt, s.CompletedAt, s.LastActivity)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("interview %s already exists: %w", s.ID, err)
		}
		return "", fmt.Errorf("save interview: %w", err)
	}
	return s.ID, nil
}

func (r *PostgresRepository) UpdateInterview(ctx context.Context, s interview.Session, sessionID string) error {
	const query = `
		UPDATE interviews
		SET status = $2,
			current_question_index = $3,
			follow_up_count = $4,
			completed_at = $5,
			last_activity = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, sessionID, string(s.Status), s.Cursor, s.FollowUpCount,
		s.CompletedAt, s.LastActivity)
	if err != nil {
		return fmt.Errorf("update interview %s: %w", sessionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return interview.ErrNotFound
	}
	return nil
}

const sessionColumns = `id, candidate_id, position, status, current_question_index,
	follow_up_count, started_at, completed_at, last_activity`

func scanSession(row interface{ Scan(...any) error }) (interview.Session, error) {
	var (
		s           interview.Session
		track       string
		status      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.CandidateID, &track, &status, &s.Cursor,
		&s.FollowUpCount, &s.StartedAt, &completedAt, &s.LastActivity); err != nil {
		return interview.Session{}, err
	}
	s.Track = questions.Track(track)
	s.Status = interview.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return s, nil
}

func (r *PostgresRepository) GetInterview(ctx context.Context, sessionID string) (interview.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM interviews WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.Session{}, interview.ErrNotFound
		}
		return interview.Session{}, fmt.Errorf("get interview %s: %w", sessionID, err)
	}
	answers, err := r.GetInterviewAnswers(ctx, sessionID)
	if err != nil {
		return interview.Session{}, err
	}
	s.Answers = answers
	return s, nil
}

func (r *PostgresRepository) GetActiveInterview(ctx context.Context, candidateID int64) (string, interview.Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM interviews
		WHERE candidate_id = $1 AND status IN ($2, $3)
		ORDER BY started_at DESC
		LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, candidateID, string(interview.StatusStarted), string(interview.StatusInProgress))
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", interview.Session{}, interview.ErrNotFound
		}
		return "", interview.Session{}, fmt.Errorf("get active interview of %d: %w", candidateID, err)
	}
	return s.ID, s, nil
}

func (r *PostgresRepository) SaveAnswer(ctx context.Context, sessionID string, a interview.Answer) error {
	followUps := a.FollowUpAnswers
	if followUps == nil {
		followUps = []string{}
	}
	const query = `
		INSERT INTO answers (interview_id, question_id, answer_text, follow_up_answers, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, a.QuestionID, a.Text, pq.Array(followUps), a.Timestamp); err != nil {
		return fmt.Errorf("save answer %s: %w", a.QuestionID, err)
	}
	return nil
}

func (r *PostgresRepository) GetInterviewAnswers(ctx context.Context, sessionID string) ([]interview.Answer, error) {
	const query = `
		SELECT question_id, answer_text, follow_up_answers, created_at
		FROM answers
		WHERE interview_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers of %s: %w", sessionID, err)
	}
	defer rows.Close()

	var answers []interview.Answer
	for rows.Next() {
		var a interview.Answer
		if err := rows.Scan(&a.QuestionID, &a.Text, pq.Array(&a.FollowUpAnswers), &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (r *PostgresRepository) SaveAnalysis(ctx context.Context, a interview.AnalysisResult) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	scores, err := json.Marshal(a.CompetencyScores)
	if err != nil {
		return fmt.Errorf("marshal competency scores: %w", err)
	}
	recs := a.Recommendations
	if recs == nil {
		recs = []string{}
	}
	const query = `
		INSERT INTO analysis (candidate_id, interview_id, position, overall_score, competency_scores,
			communication_skills, experience_level, originality_score, recommendations,
			hr_recommendation, summary, degraded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.db.ExecContext(ctx, query, a.CandidateID, a.SessionID, string(a.Track), a.OverallScore, string(scores),
		a.CommunicationStyle, a.ExperienceLevel, a.OriginalityScore, pq.Array(recs),
		string(a.Recommendation), a.Summary, a.Degraded, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save analysis of %d: %w", a.CandidateID, err)
	}
	return nil
}

const analysisColumns = `candidate_id, interview_id, position, overall_score, competency_scores,
	communication_skills, experience_level, originality_score, recommendations,
	hr_recommendation, summary, degraded, created_at`

func scanAnalysis(row interface{ Scan(...any) error }) (interview.AnalysisResult, error) {
	var (
		a      interview.AnalysisResult
		track  string
		scores []byte
		rec    string
	)
	if err := row.Scan(&a.CandidateID, &a.SessionID, &track, &a.OverallScore, &scores,
		&a.CommunicationStyle, &a.ExperienceLevel, &a.OriginalityScore, pq.Array(&a.Recommendations),
		&rec, &a.Summary, &a.Degraded, &a.CreatedAt); err != nil {
		return interview.AnalysisResult{}, err
	}
	a.Track = questions.Track(track)
	a.Recommendation, _ = interview.ParseRecommendation(rec)
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &a.CompetencyScores); err != nil {
			return interview.AnalysisResult{}, fmt.Errorf("decode competency scores: %w", err)
		}
	}
	return a, nil
}

func (r *PostgresRepository) GetCandidateAnalysis(ctx context.Context, candidateID int64) (interview.AnalysisResult, error) {
	query := `SELECT ` + analysisColumns + `
		FROM analysis
		WHERE candidate_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, candidateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interview.AnalysisResult{}, interview.ErrNotFound
		}
		return interview.AnalysisResult{}, fmt.Errorf("get analysis of %d: %w", candidateID, err)
	}
	return a, nil
}

func (r *PostgresRepository) listAnalyses(ctx context.Context, query string, args ...any) ([]interview.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []interview.AnalysisResult
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecentAnalyses возвращает последние оценки, новые первыми
func (r *PostgresRepository) RecentAnalyses(ctx context.Context, limit int) ([]interview.AnalysisResult, error) {
	return r.listAnalyses(ctx, `SELECT `+analysisColumns+`
		FROM analysis
		ORDER BY created_at DESC, id DESC
		LIMIT $1`, limit)
}

// AnalysesByTrack возвращает последние оценки по позиции
func (r *PostgresRepository) AnalysesByTrack(ctx context.Context, track questions.Track, limit int) ([]interview.AnalysisResult, error) {
	return r.listAnalyses(ctx, `SELECT `+analysisColumns+`
		FROM analysis
		WHERE position = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, string(track), limit)
}

// Statistics считает агрегаты по таблице оценок
func (r *PostgresRepository) Statistics(ctx context.Context, now time.Time) (interview.Statistics, error) {
	stats := interview.Statistics{
		ByTrack:          make(map[questions.Track]int),
		ByRecommendation: make(map[interview.Recommendation]int),
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := now.AddDate(0, 0, -7)

	const totals = `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COALESCE(AVG(overall_score), 0),
			COALESCE(AVG(originality_score), 0)
		FROM analysis
	`
	err := r.db.QueryRowContext(ctx, totals, dayStart, weekStart).Scan(&stats.TotalInterviews,
		&stats.TodayInterviews, &stats.WeekInterviews, &stats.AverageOverallScore, &stats.AverageOriginality)
	if err != nil {
		return interview.Statistics{}, fmt.Errorf("count analyses: %w", err)
	}

	if err := r.groupCount(ctx, `SELECT position, COUNT(*) FROM analysis GROUP BY position`, func(k string, n int) {
		stats.ByTrack[questions.Track(k)] = n
	}); err != nil {
		return interview.Statistics{}, err
	}
	if err := r.groupCount(ctx, `SELECT hr_recommendation, COUNT(*) FROM analysis GROUP BY hr_recommendation`, func(k string, n int) {
		stats.ByRecommendation[interview.Recommendation(k)] = n
	}); err != nil {
		return interview.Statistics{}, err
	}
	return stats, nil
}

func (r *PostgresRepository) groupCount(ctx context.Context, query string, fn func(key string, n int)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("group analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		fn(key, n)
	}
	return rows.Err()
}

// isUniqueViolation понимает ошибки обоих драйверов
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
