package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hr-interview-bot/internal/interview"
	"hr-interview-bot/internal/questions"
)

// Действия кнопок административной панели
const (
	ActionPrefix       = "admin_"
	ActionResults      = "admin_results"
	ActionTracks       = "admin_tracks"
	ActionStats        = "admin_stats"
	ActionBack         = "admin_back"
	ActionTrackPrefix  = "admin_track_"
	ActionResultPrefix = "admin_result_"
)

const (
	msgAccessDenied = "У вас нет доступа к административной панели."
	msgNoResults    = "Пока нет результатов интервью."
	msgNotFound     = "Результат не найден."
	msgLoadFailed   = "⚠️ Не удалось загрузить данные. Попробуйте позже."
	msgUnknown      = "Неизвестное действие."
)

var (
	backToMenu    = []interview.Button{{Text: "🔙 Назад", Action: ActionBack}}
	backToTracks  = []interview.Button{{Text: "🔙 Назад", Action: ActionTracks}}
	backToResults = []interview.Button{{Text: "🔙 Назад к результатам", Action: ActionResults}}
)

// IsAction сообщает, относится ли действие к административной панели
func IsAction(action string) bool {
	return strings.HasPrefix(action, ActionPrefix)
}

// Menu возвращает главное меню панели
func (r *Reports) Menu(participantID int64) interview.Reply {
	if !r.Authorized(participantID) {
		return interview.Reply{Text: msgAccessDenied}
	}
	return interview.Reply{
		Text: "🔧 **Административная панель HR-бота**\n\nВыберите действие:",
		Buttons: [][]interview.Button{
			{{Text: "📊 Посмотреть результаты", Action: ActionResults}},
			{{Text: "👥 Кандидаты по позициям", Action: ActionTracks}},
			{{Text: "📈 Статистика", Action: ActionStats}},
		},
	}
}

// Handle обрабатывает нажатие кнопки панели
func (r *Reports) Handle(ctx context.Context, participantID int64, action string) interview.Reply {
	if !r.Authorized(participantID) {
		r.logger.Warn("unauthorized admin action", zap.Int64("user_id", participantID), zap.String("action", action))
		return interview.Reply{Text: msgAccessDenied}
	}

	switch {
	case action == ActionBack:
		return r.Menu(participantID)
	case action == ActionResults:
		return r.recentReply(ctx)
	case action == ActionTracks:
		return r.tracksReply()
	case action == ActionStats:
		return r.statsReply(ctx)
	case strings.HasPrefix(action, ActionTrackPrefix):
		return r.trackReply(ctx, questions.Track(strings.TrimPrefix(action, ActionTrackPrefix)))
	case strings.HasPrefix(action, ActionResultPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(action, ActionResultPrefix), 10, 64)
		if err != nil {
			return interview.Reply{Text: msgNotFound, Buttons: [][]interview.Button{backToResults}}
		}
		return r.detailReply(ctx, id)
	}
	return interview.Reply{Text: msgUnknown, Buttons: [][]interview.Button{backToMenu}}
}

func (r *Reports) recentReply(ctx context.Context) interview.Reply {
	rows, err := r.Recent(ctx, DefaultLimit)
	if err != nil {
		r.logger.Error("failed to load recent results", zap.Error(err))
		return interview.Reply{Text: msgLoadFailed, Buttons: [][]interview.Button{backToMenu}}
	}
	if len(rows) == 0 {
		return interview.Reply{Text: msgNoResults, Buttons: [][]interview.Button{backToMenu}}
	}

	var b strings.Builder
	b.WriteString("📊 **Последние результаты интервью:**\n\n")
	buttons := make([][]interview.Button, 0, len(rows)+1)
	for _, row := range rows {
		fmt.Fprintf(&b, "%s **%s** (%s)\n", StatusEmoji(row.Recommendation), row.Name, row.Track.Code())
		fmt.Fprintf(&b, "   Оценка: %.2f/1.0\n", row.OverallScore)
		fmt.Fprintf(&b, "   Рекомендация: %s\n\n", RecommendationText(row.Recommendation))
		buttons = append(buttons, detailButton(row))
	}
	buttons = append(buttons, backToMenu)
	return interview.Reply{Text: strings.TrimSpace(b.String()), Buttons: buttons}
}

func (r *Reports) tracksReply() interview.Reply {
	tracks := r.catalog.Tracks()
	buttons := make([][]interview.Button, 0, len(tracks)+1)
	for _, t := range tracks {
		label := t.Short
		if label == "" {
			label = t.Title
		}
		buttons = append(buttons, []interview.Button{{Text: label, Action: ActionTrackPrefix + string(t.ID)}})
	}
	buttons = append(buttons, backToMenu)
	return interview.Reply{Text: "👥 **Кандидаты по позициям:**", Buttons: buttons}
}

func (r *Reports) trackReply(ctx context.Context, track questions.Track) interview.Reply {
	rows, err := r.ByTrack(ctx, track, DefaultLimit)
	if err != nil {
		if !errors.Is(err, interview.ErrUnknownTrack) {
			r.logger.Error("failed to load track results", zap.String("track", string(track)), zap.Error(err))
			return interview.Reply{Text: msgLoadFailed, Buttons: [][]interview.Button{backToTracks}}
		}
		return interview.Reply{Text: msgUnknown, Buttons: [][]interview.Button{backToTracks}}
	}
	if len(rows) == 0 {
		return interview.Reply{
			Text:    fmt.Sprintf("Нет результатов для позиции %s.", r.catalog.Title(track)),
			Buttons: [][]interview.Button{backToTracks},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Результаты для позиции %s:**\n\n", track.Code())
	buttons := make([][]interview.Button, 0, len(rows)+1)
	for _, row := range rows {
		fmt.Fprintf(&b, "%s **%s**\n", StatusEmoji(row.Recommendation), row.Name)
		fmt.Fprintf(&b, "   Оценка: %.2f/1.0\n", row.OverallScore)
		fmt.Fprintf(&b, "   Дата: %s\n\n", row.CreatedAt.Format("02.01.2006"))
		buttons = append(buttons, detailButton(row))
	}
	buttons = append(buttons, backToTracks)
	return interview.Reply{Text: strings.TrimSpace(b.String()), Buttons: buttons}
}

func (r *Reports) detailReply(ctx context.Context, candidateID int64) interview.Reply {
	d, err := r.Detail(ctx, candidateID)
	if err != nil {
		if !errors.Is(err, interview.ErrNotFound) {
			r.logger.Error("failed to load result", zap.Int64("candidate_id", candidateID), zap.Error(err))
			return interview.Reply{Text: msgLoadFailed, Buttons: [][]interview.Button{backToResults}}
		}
		return interview.Reply{Text: msgNotFound, Buttons: [][]interview.Button{backToResults}}
	}
	return interview.Reply{Text: FormatDetail(d), Buttons: [][]interview.Button{backToResults}}
}

func (r *Reports) statsReply(ctx context.Context) interview.Reply {
	stats, err := r.Stats(ctx)
	if err != nil {
		r.logger.Error("failed to load statistics", zap.Error(err))
		return interview.Reply{Text: msgLoadFailed, Buttons: [][]interview.Button{backToMenu}}
	}
	return interview.Reply{Text: FormatStatistics(stats, r.catalog), Buttons: [][]interview.Button{backToMenu}}
}

func detailButton(row ResultRow) []interview.Button {
	return []interview.Button{{
		Text:   "Подробнее: " + row.Name,
		Action: ActionResultPrefix + strconv.FormatInt(row.CandidateID, 10),
	}}
}

// StatusEmoji возвращает значок рекомендации для списков
func StatusEmoji(r interview.Recommendation) string {
	switch r {
	case interview.Recommended:
		return "✅"
	case interview.NeedsClarification:
		return "⚠️"
	}
	return "❌"
}

// RecommendationText возвращает формулировку рекомендации для HR
func RecommendationText(r interview.Recommendation) string {
	switch r {
	case interview.Recommended:
		return "✅ Рекомендуется к следующему этапу"
	case interview.NeedsClarification:
		return "⚠️ Требуется дополнительное уточнение"
	case interview.NotRecommended:
		return "❌ Не рекомендован"
	}
	return string(r)
}

// FormatDetail форматирует подробный результат кандидата
func FormatDetail(d ResultDetail) string {
	a, c := d.Analysis, d.Candidate

	name := c.DisplayName()
	if name == "" {
		name = fmt.Sprintf("ID: %d", c.ID)
	}
	username := "не указан"
	if c.Username != "" {
		username = "@" + c.Username
	}

	var b strings.Builder
	b.WriteString("📋 **Детальный результат интервью**\n\n")
	fmt.Fprintf(&b, "👤 **Кандидат:** %s\n", name)
	fmt.Fprintf(&b, "📧 **Username:** %s\n", username)
	fmt.Fprintf(&b, "🎯 **Позиция:** %s\n", a.Track.Code())
	fmt.Fprintf(&b, "📅 **Дата:** %s\n\n", a.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "📊 **Общая оценка:** %.2f/1.0\n", a.OverallScore)
	if a.Degraded {
		b.WriteString("⚠️ Автоматический анализ недоступен, оценка нейтральная\n")
	}

	b.WriteString("\n🔍 **Оценка по компетенциям:**\n")
	keys := make([]string, 0, len(a.CompetencyScores))
	for k := range a.CompetencyScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "   • %s: %.2f/1.0\n", k, a.CompetencyScores[k])
	}

	fmt.Fprintf(&b, "\n💬 **Коммуникативные навыки:** %s\n", a.CommunicationStyle)
	fmt.Fprintf(&b, "📈 **Уровень опыта:** %s\n", a.ExperienceLevel)
	fmt.Fprintf(&b, "🎯 **Оригинальность ответов:** %.2f/1.0\n", a.OriginalityScore)

	if len(a.Recommendations) > 0 {
		b.WriteString("\n📝 **Рекомендации:**\n")
		for _, rec := range a.Recommendations {
			fmt.Fprintf(&b, "   • %s\n", rec)
		}
	}

	fmt.Fprintf(&b, "\n✅ **Итоговая рекомендация:** %s\n", RecommendationText(a.Recommendation))
	if a.Summary != "" {
		fmt.Fprintf(&b, "\n📄 **Резюме:**\n%s", a.Summary)
	}
	return strings.TrimSpace(b.String())
}

// FormatStatistics форматирует агрегаты; позиции берутся из каталога
func FormatStatistics(s interview.Statistics, catalog *questions.Catalog) string {
	var b strings.Builder
	b.WriteString("📈 **Статистика интервью**\n\n")
	b.WriteString("📊 **Общая статистика:**\n")
	fmt.Fprintf(&b, "   • Всего интервью: %d\n", s.TotalInterviews)
	fmt.Fprintf(&b, "   • За сегодня: %d\n", s.TodayInterviews)
	fmt.Fprintf(&b, "   • За неделю: %d\n\n", s.WeekInterviews)

	b.WriteString("🎯 **По позициям:**\n")
	for _, t := range catalog.Tracks() {
		label := t.Short
		if label == "" {
			label = t.Title
		}
		fmt.Fprintf(&b, "   • %s: %d\n", label, s.ByTrack[t.ID])
	}

	b.WriteString("\n✅ **Рекомендации:**\n")
	fmt.Fprintf(&b, "   • Рекомендовано: %d\n", s.ByRecommendation[interview.Recommended])
	fmt.Fprintf(&b, "   • Требует уточнения: %d\n", s.ByRecommendation[interview.NeedsClarification])
	fmt.Fprintf(&b, "   • Не рекомендовано: %d\n\n", s.ByRecommendation[interview.NotRecommended])

	b.WriteString("📊 **Средние оценки:**\n")
	fmt.Fprintf(&b, "   • Общая: %.2f/1.0\n", s.AverageOverallScore)
	fmt.Fprintf(&b, "   • Оригинальность: %.2f/1.0", s.AverageOriginality)
	return b.String()
}
