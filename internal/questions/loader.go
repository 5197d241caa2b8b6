package questions

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Default возвращает встроенный каталог вопросов
func Default(b Branding) (*Catalog, error) {
	return Parse(defaultCatalog, b)
}

// Load загружает каталог из YAML файла
func Load(filename string, b Branding) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", filename, err)
	}
	return Parse(data, b)
}

// Parse разбирает YAML каталога и проверяет его
func Parse(data []byte, b Branding) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ошибка парсинга YAML: %w", err)
	}

	replacer := strings.NewReplacer(
		"{company}", b.Company,
		"{hr_name}", b.HRName,
		"{hr_position}", b.HRPosition,
	)
	for i := range doc.Contact {
		doc.Contact[i].Text = replacer.Replace(doc.Contact[i].Text)
	}
	for i := range doc.Tracks {
		for j := range doc.Tracks[i].Questions {
			q := &doc.Tracks[i].Questions[j]
			q.Track = doc.Tracks[i].ID
			if q.Category == "" {
				q.Category = CategoryProfessional
			}
		}
	}

	if err := validateDocument(&doc); err != nil {
		return nil, fmt.Errorf("ошибка валидации каталога: %w", err)
	}

	return newCatalog(doc), nil
}

// validateDocument проверяет корректность каталога
func validateDocument(doc *document) error {
	if len(doc.Tracks) == 0 {
		return fmt.Errorf("каталог должен содержать хотя бы одну позицию")
	}

	seen := make(map[string]bool)
	check := func(q Question) error {
		if q.ID == "" {
			return fmt.Errorf("вопрос без id")
		}
		if seen[q.ID] {
			return fmt.Errorf("повторяющийся id вопроса: %s", q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("вопрос %s должен иметь text", q.ID)
		}
		if !q.Category.Valid() {
			return fmt.Errorf("вопрос %s имеет неизвестную категорию %q", q.ID, q.Category)
		}
		if !q.Field.valid() {
			return fmt.Errorf("вопрос %s имеет неизвестное поле %q", q.ID, q.Field)
		}
		if len(q.FollowUps) > MaxFollowUpPrompts {
			return fmt.Errorf("вопрос %s содержит больше %d уточнений", q.ID, MaxFollowUpPrompts)
		}
		return nil
	}

	for _, q := range doc.Contact {
		if err := check(q); err != nil {
			return err
		}
		if q.Category.Scoreable() {
			return fmt.Errorf("контактный вопрос %s не может быть профессиональным", q.ID)
		}
		if len(q.FollowUps) > 0 {
			return fmt.Errorf("контактный вопрос %s не может иметь уточнений", q.ID)
		}
	}

	tracks := make(map[Track]bool)
	for _, t := range doc.Tracks {
		if t.ID == "" {
			return fmt.Errorf("позиция без id")
		}
		if tracks[t.ID] {
			return fmt.Errorf("повторяющаяся позиция: %s", t.ID)
		}
		tracks[t.ID] = true
		if t.Title == "" {
			return fmt.Errorf("позиция %s должна иметь title", t.ID)
		}
		for _, q := range t.Questions {
			if err := check(q); err != nil {
				return err
			}
			if !q.Category.Scoreable() {
				return fmt.Errorf("вопрос %s позиции %s должен быть профессиональным", q.ID, t.ID)
			}
			if q.Field != FieldNone {
				return fmt.Errorf("вопрос %s позиции %s не может заполнять контактное поле", q.ID, t.ID)
			}
		}
	}

	return nil
}
