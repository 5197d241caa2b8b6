package interview

import (
	"fmt"
	"strings"

	"hr-interview-bot/internal/questions"
)

// Действия кнопок, которые понимает машина состояний
const (
	ActionStart                 = "start_interview"
	ActionTrackPrefix           = "position_"
	ActionWithResume            = "with_resume"
	ActionWithoutResume         = "without_resume"
	ActionSkipResume            = "skip_resume"
	ActionUploadResumeAgain     = "upload_resume_again"
	ActionContinueWithoutResume = "continue_without_resume"
	ActionStartAfterResume      = "start_interview_after_resume"
)

const (
	msgUseStart       = "Используйте /start для начала собеседования или /help для справки."
	msgNoSession      = "Собеседование не найдено. Используйте /start для начала."
	msgFollowUpLost   = "Ошибка обработки ответа. Пожалуйста, начните собеседование заново."
	msgSaveFailed     = "⚠️ Не удалось сохранить ответ. Пожалуйста, отправьте его еще раз."
	msgInternalError  = "⚠️ Произошла ошибка. Пожалуйста, попробуйте еще раз или начните заново с /start."
	msgNoTrack        = "Ошибка: позиция не выбрана. Начните заново с /start"
	msgNoCandidate    = "Ошибка: кандидат не найден. Начните заново с /start"
	msgNoQuestions    = "Ошибка: вопросы для данной позиции не найдены."
	msgChooseTrack    = "Пожалуйста, выберите, на какую позицию вы проходите собеседование:"
	msgNotStarted     = "Собеседование не начато. Используйте /start для начала."
	msgAnalyzing      = "🎉 Собеседование завершено! Анализирую ваши ответы..."
	msgResumed        = "🔄 Продолжим собеседование с того места, где остановились."
	msgUnknownAction  = "Неизвестное действие. Используйте /start для начала собеседования."
	msgTimedOut       = "⏰ Время собеседования истекло из-за отсутствия активности.\n\nИспользуйте /start, чтобы начать заново."
	msgResumeUpload   = "Пожалуйста, отправьте ваше резюме в виде текста.\n\nВы можете:\n- Скопировать текст резюме в сообщение\n- Или нажать \"Пропустить\" для продолжения без резюме"
	msgQuestionFooter = "💡 Отвечайте подробно и по существу. Это поможет мне лучше понять ваш опыт и навыки."
)

// CompanyInfo содержит данные компании для приветствия
type CompanyInfo struct {
	Name           string
	Website        string
	CareersChannel string
}

func welcomeReply(c CompanyInfo) Reply {
	var b strings.Builder
	b.WriteString("Здравствуйте! 👋\n")
	fmt.Fprintf(&b, "Я — HR-бот компании **%s**.\n", c.Name)
	b.WriteString("Готов провести короткое собеседование (5–7 минут), чтобы лучше узнать вас.\n\n")
	if c.Website != "" || c.CareersChannel != "" {
		b.WriteString("🔗 Прежде чем начнем:\n")
		if c.Website != "" {
			fmt.Fprintf(&b, "- Ознакомьтесь с нами на сайте [%s](%s)\n", c.Website, c.Website)
		}
		if c.CareersChannel != "" {
			fmt.Fprintf(&b, "- Подпишитесь на вакансии: [%s](https://t.me/%s)\n", c.CareersChannel, strings.TrimPrefix(c.CareersChannel, "@"))
		}
		b.WriteString("\n")
	}
	b.WriteString("Готовы? Давайте начнем!")

	return Reply{
		Text:    b.String(),
		Buttons: [][]Button{{{Text: "Да, готов начать! 🚀", Action: ActionStart}}},
	}
}

func trackSelectionReply(c *questions.Catalog) Reply {
	var rows [][]Button
	for _, t := range c.Tracks() {
		label := t.Button
		if label == "" {
			label = t.Title
		}
		rows = append(rows, []Button{{Text: label, Action: ActionTrackPrefix + string(t.ID)}})
	}
	return Reply{Text: msgChooseTrack, Buttons: rows}
}

func resumeOfferReply(title string) Reply {
	text := fmt.Sprintf("🎯 **Выбрана позиция: %s**\n\n"+
		"📋 Хотите загрузить резюме? Это поможет мне:\n"+
		"• Адаптировать вопросы под ваш опыт\n"+
		"• Отметить релевантные навыки для позиции\n"+
		"• Провести более персонализированное собеседование\n\n"+
		"(Можно пропустить — мы проведем стандартное собеседование)", title)
	return Reply{
		Text: text,
		Buttons: [][]Button{
			{{Text: "Да, загружу резюме 📄", Action: ActionWithResume}},
			{{Text: "Пропустить, начнем без резюме ⏭️", Action: ActionWithoutResume}},
		},
	}
}

func resumeUploadReply() Reply {
	return Reply{
		Text:    msgResumeUpload,
		Buttons: [][]Button{{{Text: "Пропустить резюме ⏭️", Action: ActionSkipResume}}},
	}
}

func resumeRejectedReply(reason string) Reply {
	return Reply{
		Text: reason,
		Buttons: [][]Button{
			{{Text: "📄 Загрузить резюме заново", Action: ActionUploadResumeAgain}},
			{{Text: "🚀 Продолжить без резюме", Action: ActionContinueWithoutResume}},
		},
	}
}

func resumeAnalysisReply(a ResumeAnalysis, track questions.Track, professional int) Reply {
	var b strings.Builder
	if a.Degraded {
		b.WriteString("✅ **Резюме сохранено!**\n\n")
		b.WriteString("⚠️ Не удалось проанализировать резюме, но собеседование будет проведено.\n")
	} else {
		b.WriteString("✅ **Резюме проанализировано!**\n\n")
		fmt.Fprintf(&b, "📊 **Уровень опыта:** %s\n", a.ExperienceLevel)
		fmt.Fprintf(&b, "🎯 **Позиция:** %s\n\n", track.Code())
		b.WriteString("💡 **Рекомендации:**\n")
		if len(a.Recommendations) == 0 {
			b.WriteString("• Готовы к собеседованию\n")
		}
		for i, rec := range a.Recommendations {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}
	b.WriteString("\n🎯 **Готовы ли вы перейти к собеседованию?**\n\n")
	b.WriteString("⏱️ **Время:** примерно 5-7 минут\n")
	fmt.Fprintf(&b, "📝 **Вопросов:** %d профессиональных вопросов\n\n", professional)
	b.WriteString("🚀 **Удачи!** Мы верим в ваш успех! 💪")

	return Reply{
		Text:    b.String(),
		Buttons: [][]Button{{{Text: "✅ Да, готов начать!", Action: ActionStartAfterResume}}},
	}
}

// FormatQuestion форматирует вопрос под номером cursor+1 из total
func FormatQuestion(q questions.Question, cursor, total int) string {
	if q.Category == questions.CategoryIntroduction {
		return q.Text
	}
	return fmt.Sprintf("📝 **Вопрос %d из %d**\n\n**%s**\n\n%s", cursor+1, total, q.Text, msgQuestionFooter)
}

// FormatFollowUp форматирует уточняющий вопрос
func FormatFollowUp(prompt string) string {
	return "**Уточняющий вопрос:**\n\n" + prompt
}

func formatTransition(track questions.Track, professional int) string {
	return fmt.Sprintf("🎯 **Отлично! Контактные данные собраны.**\n\n"+
		"Теперь переходим к профессиональной части собеседования.\n\n"+
		"📋 **Позиция:** %s\n"+
		"⏱️ **Время:** примерно 5-7 минут\n"+
		"📝 **Вопросов:** %d\n\n"+
		"Готовы? Начинаем!", track.Code(), professional)
}

// RecommendationText возвращает формулировку рекомендации для кандидата
func RecommendationText(r Recommendation) string {
	switch r {
	case Recommended:
		return "✅ **Рекомендуем к найму**"
	case NotRecommended:
		return "❌ **Не рекомендуется к найму**"
	}
	return "🤔 **Требует дополнительного рассмотрения**"
}

func formatCompletion(r AnalysisResult) string {
	return fmt.Sprintf("🎉 **Собеседование завершено!**\n\n"+
		"📊 **Ваш результат:** %.1f/10\n"+
		"%s\n\n"+
		"💡 **Что дальше:**\n"+
		"• Мы свяжемся с вами в ближайшее время\n"+
		"• Ожидайте звонка от HR-специалиста\n"+
		"• Спасибо за участие!\n\n"+
		"🚀 **Удачи в дальнейшем!** 💪", r.OverallScore*10, RecommendationText(r.Recommendation))
}

func orNotProvided(s string) string {
	if s == "" {
		return PortfolioNotProvided
	}
	return s
}

// FormatHRReport форматирует результаты для HR-специалиста
func FormatHRReport(c Candidate, s Session, r AnalysisResult) string {
	return fmt.Sprintf("📊 **Новые результаты собеседования**\n\n"+
		"👤 **Кандидат:** %s %s\n"+
		"📱 **Телефон:** %s\n"+
		"📧 **Email:** %s\n"+
		"💼 **Портфолио:** %s\n"+
		"🎯 **Позиция:** %s\n"+
		"📅 **Дата:** %s\n\n"+
		"📈 **Результаты анализа:**\n"+
		"• Общий балл: %.1f/10\n"+
		"• Рекомендация: %s\n"+
		"• Уровень опыта: %s\n\n"+
		"💡 **Краткое резюме:**\n%s\n\n"+
		"🔗 **Действия:** Связаться с кандидатом для дальнейших шагов",
		c.FirstName, c.LastName,
		orNotProvided(c.Phone),
		orNotProvided(c.Email),
		orNotProvided(c.Portfolio),
		s.Track.Code(),
		s.StartedAt.Format("02.01.2006 15:04"),
		r.OverallScore*10,
		r.Recommendation,
		r.ExperienceLevel,
		r.Summary,
	)
}

func formatStatus(s Session, total, maxFollowUps int, title string, awaiting Awaiting) string {
	current := s.Cursor + 1
	if current > total {
		current = total
	}
	return fmt.Sprintf("📊 **Прогресс собеседования**\n\n"+
		"🎯 Позиция: %s\n"+
		"📝 Вопрос: %d из %d\n"+
		"🔄 Уточняющих вопросов: %d из %d\n"+
		"⏰ Состояние: %s",
		title, current, total, s.FollowUpCount, maxFollowUps, awaiting.Description())
}
