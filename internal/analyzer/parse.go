package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"hr-interview-bot/internal/interview"
)

var competencies = []string{"experience", "technical_skills", "communication", "problem_solving"}

type rawAnalysis struct {
	OverallScore        *float64           `mapstructure:"overall_score"`
	CompetencyScores    map[string]float64 `mapstructure:"competency_scores"`
	CommunicationSkills string             `mapstructure:"communication_skills"`
	ExperienceLevel     string             `mapstructure:"experience_level"`
	OriginalityScore    float64            `mapstructure:"originality_score"`
	Recommendations     []string           `mapstructure:"recommendations"`
	HRRecommendation    string             `mapstructure:"hr_recommendation"`
	Summary             string             `mapstructure:"summary"`
}

type rawResume struct {
	ExperienceYears    string   `mapstructure:"experience_years"`
	KeySkills          []string `mapstructure:"key_skills"`
	ExperienceLevel    string   `mapstructure:"experience_level"`
	RelevantExperience string   `mapstructure:"relevant_experience"`
	Education          string   `mapstructure:"education"`
	Summary            string   `mapstructure:"summary"`
	Recommendations    []string `mapstructure:"recommendations"`
}

// FallbackAnalysis - нейтральная оценка на случай сбоя оракула
func FallbackAnalysis() interview.AnalysisResult {
	scores := make(map[string]float64, len(competencies))
	for _, c := range competencies {
		scores[c] = 0.5
	}
	return interview.AnalysisResult{
		OverallScore:       0.5,
		CompetencyScores:   scores,
		CommunicationStyle: "Ошибка анализа",
		ExperienceLevel:    "unknown",
		OriginalityScore:   0.5,
		Recommendations:    []string{"Ошибка анализа интервью"},
		Recommendation:     interview.NeedsClarification,
		Summary:            "Произошла ошибка при анализе интервью",
		Degraded:           true,
	}
}

// EmptyAnalysis - нейтральная оценка собеседования без ответов
func EmptyAnalysis() interview.AnalysisResult {
	r := FallbackAnalysis()
	r.CommunicationStyle = "Нет данных"
	r.Recommendations = []string{"Провести собеседование повторно"}
	r.Summary = "Кандидат не дал ответов для анализа"
	return r
}

// FallbackResume - результат анализа резюме на случай сбоя оракула
func FallbackResume() interview.ResumeAnalysis {
	return interview.ResumeAnalysis{
		ExperienceYears:    "неизвестно",
		KeySkills:          []string{},
		ExperienceLevel:    "unknown",
		RelevantExperience: "не указано",
		Education:          "не указано",
		Summary:            "Ошибка анализа резюме",
		Degraded:           true,
	}
}

// ParseAnalysis разбирает ответ оракула с оценкой собеседования
func ParseAnalysis(raw string) (interview.AnalysisResult, error) {
	var parsed rawAnalysis
	if err := decode(raw, &parsed); err != nil {
		return interview.AnalysisResult{}, err
	}
	if parsed.OverallScore == nil {
		return interview.AnalysisResult{}, errors.New("overall_score is missing")
	}
	if parsed.CompetencyScores == nil {
		return interview.AnalysisResult{}, errors.New("competency_scores is missing")
	}
	if strings.TrimSpace(parsed.HRRecommendation) == "" {
		return interview.AnalysisResult{}, errors.New("hr_recommendation is missing")
	}

	scores := make(map[string]float64, len(parsed.CompetencyScores))
	for k, v := range parsed.CompetencyScores {
		scores[k] = normalizeScore(v)
	}
	rec, ok := interview.ParseRecommendation(strings.ToLower(strings.TrimSpace(parsed.HRRecommendation)))
	if !ok {
		rec = interview.NeedsClarification
	}

	return interview.AnalysisResult{
		OverallScore:       normalizeScore(*parsed.OverallScore),
		CompetencyScores:   scores,
		CommunicationStyle: strings.TrimSpace(parsed.CommunicationSkills),
		ExperienceLevel:    strings.TrimSpace(parsed.ExperienceLevel),
		OriginalityScore:   normalizeScore(parsed.OriginalityScore),
		Recommendations:    parsed.Recommendations,
		Recommendation:     rec,
		Summary:            strings.TrimSpace(parsed.Summary),
	}, nil
}

// ParseResume разбирает ответ оракула с анализом резюме
func ParseResume(raw string) (interview.ResumeAnalysis, error) {
	var parsed rawResume
	if err := decode(raw, &parsed); err != nil {
		return interview.ResumeAnalysis{}, err
	}
	level := strings.TrimSpace(parsed.ExperienceLevel)
	if level == "" {
		level = "unknown"
	}
	return interview.ResumeAnalysis{
		ExperienceYears:    strings.TrimSpace(parsed.ExperienceYears),
		KeySkills:          parsed.KeySkills,
		ExperienceLevel:    level,
		RelevantExperience: strings.TrimSpace(parsed.RelevantExperience),
		Education:          strings.TrimSpace(parsed.Education),
		Summary:            strings.TrimSpace(parsed.Summary),
		Recommendations:    parsed.Recommendations,
	}, nil
}

func decode(raw string, out any) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return errors.New("empty oracle response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("parse oracle response: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode oracle response: %w", err)
	}
	return nil
}

// extractJSON снимает markdown обертку и берет первый JSON объект из текста
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// normalizeScore приводит оценку к диапазону 0..1.
// Значения по шкале до 10 или до 100 пересчитываются.
func normalizeScore(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 10 && v <= 100:
		v /= 100
	case v > 1 && v <= 10:
		v /= 10
	}
	return math.Min(v, 1)
}
