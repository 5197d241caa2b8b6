package storage

import "hr-interview-bot/internal/interview"

// InterviewResult представляет архивную запись завершенного собеседования
type InterviewResult struct {
	InterviewID string                   `json:"interview_id"`
	Timestamp   string                   `json:"timestamp"`
	Position    string                   `json:"position"`
	Candidate   CandidateCard            `json:"candidate"`
	Blocks      []BlockResult            `json:"blocks"`
	Analysis    interview.AnalysisResult `json:"analysis"`
}

// CandidateCard содержит контактные данные кандидата
type CandidateCard struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// BlockResult представляет часть собеседования: контакты или профессиональные вопросы
type BlockResult struct {
	BlockID             int    `json:"block_id"`
	BlockName           string `json:"block_name"`
	QuestionsAndAnswers []QA   `json:"questions_and_answers"`
}

// QA представляет один вопрос и ответ
type QA struct {
	QuestionID string   `json:"question_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	FollowUps  []string `json:"follow_up_answers,omitempty"`
}
