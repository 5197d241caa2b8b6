package questions

import "strings"

// Track представляет профессиональную позицию, на которую идет собеседование
type Track string

const (
	TrackSales Track = "sales"
	TrackQA    Track = "qa"
)

// Code возвращает короткое обозначение позиции для сообщений
func (t Track) Code() string {
	return strings.ToUpper(string(t))
}

// Category определяет этап собеседования, к которому относится вопрос
type Category string

const (
	CategoryIntroduction Category = "introduction"
	CategoryContact      Category = "contact"
	CategoryProfessional Category = "professional"
)

// Valid сообщает, входит ли категория в закрытый набор
func (c Category) Valid() bool {
	switch c {
	case CategoryIntroduction, CategoryContact, CategoryProfessional:
		return true
	}
	return false
}

// Scoreable сообщает, участвует ли ответ в оценке и уточняющих вопросах
func (c Category) Scoreable() bool {
	return c == CategoryProfessional
}

// ContactField указывает, какое поле кандидата заполняет ответ
type ContactField string

const (
	FieldNone      ContactField = ""
	FieldName      ContactField = "name"
	FieldPhone     ContactField = "phone"
	FieldEmail     ContactField = "email"
	FieldPortfolio ContactField = "portfolio"
)

func (f ContactField) valid() bool {
	switch f {
	case FieldNone, FieldName, FieldPhone, FieldEmail, FieldPortfolio:
		return true
	}
	return false
}

// MaxFollowUpPrompts ограничивает число заготовленных уточнений у вопроса
const MaxFollowUpPrompts = 3

// GenericFollowUp задается, если у вопроса нет заготовленных уточнений
const GenericFollowUp = "Можете рассказать подробнее?"

// Question представляет неизменяемый вопрос каталога
type Question struct {
	ID        string       `yaml:"id" json:"id"`
	Text      string       `yaml:"text" json:"text"`
	Category  Category     `yaml:"category" json:"category"`
	Topic     string       `yaml:"topic" json:"topic,omitempty"`
	Track     Track        `yaml:"-" json:"track,omitempty"`
	Field     ContactField `yaml:"field" json:"field,omitempty"`
	FollowUps []string     `yaml:"follow_ups" json:"follow_ups,omitempty"`
	Required  *bool        `yaml:"required" json:"-"`
}

// IsRequired возвращает признак обязательности (по умолчанию true)
func (q Question) IsRequired() bool {
	return q.Required == nil || *q.Required
}

// FollowUpPrompt возвращает первый заготовленный уточняющий вопрос
func (q Question) FollowUpPrompt() string {
	if len(q.FollowUps) > 0 {
		return q.FollowUps[0]
	}
	return GenericFollowUp
}

// TrackInfo описывает позицию и ее профессиональные вопросы
type TrackInfo struct {
	ID        Track      `yaml:"id"`
	Title     string     `yaml:"title"`
	Button    string     `yaml:"button"`
	Short     string     `yaml:"short"`
	Questions []Question `yaml:"questions"`
}

// Branding содержит данные компании, подставляемые в тексты вопросов
type Branding struct {
	Company    string
	HRName     string
	HRPosition string
}

// document представляет YAML файл каталога
type document struct {
	Contact []Question  `yaml:"contact"`
	Tracks  []TrackInfo `yaml:"tracks"`
}
