package questions

import "slices"

// Catalog хранит упорядоченные вопросы для всех позиций.
// Каталог неизменяем после загрузки и безопасен для конкурентного чтения.
type Catalog struct {
	contact []Question
	tracks  []TrackInfo
	byTrack map[Track]TrackInfo
	byID    map[string]Question
}

func newCatalog(doc document) *Catalog {
	c := &Catalog{
		contact: doc.Contact,
		tracks:  doc.Tracks,
		byTrack: make(map[Track]TrackInfo, len(doc.Tracks)),
		byID:    make(map[string]Question),
	}
	for _, q := range doc.Contact {
		c.byID[q.ID] = q
	}
	for _, t := range doc.Tracks {
		c.byTrack[t.ID] = t
		for _, q := range t.Questions {
			c.byID[q.ID] = q
		}
	}
	return c
}

// QuestionsFor возвращает контактные вопросы, за которыми следуют профессиональные
func (c *Catalog) QuestionsFor(track Track) []Question {
	t, ok := c.byTrack[track]
	if !ok {
		return nil
	}
	out := make([]Question, 0, len(c.contact)+len(t.Questions))
	out = append(out, c.contact...)
	return append(out, t.Questions...)
}

// ContactQuestionsFor возвращает общую для всех позиций контактную часть
func (c *Catalog) ContactQuestionsFor(track Track) []Question {
	if _, ok := c.byTrack[track]; !ok {
		return nil
	}
	return slices.Clone(c.contact)
}

// ProfessionalQuestionsFor возвращает профессиональные вопросы позиции
func (c *Catalog) ProfessionalQuestionsFor(track Track) []Question {
	return slices.Clone(c.byTrack[track].Questions)
}

// QuestionByID ищет вопрос по идентификатору во всех позициях
func (c *Catalog) QuestionByID(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Tracks возвращает позиции в порядке объявления
func (c *Catalog) Tracks() []TrackInfo {
	return slices.Clone(c.tracks)
}

// Track возвращает описание позиции
func (c *Catalog) Track(track Track) (TrackInfo, bool) {
	t, ok := c.byTrack[track]
	return t, ok
}

// Title возвращает название позиции или ее код, если позиция неизвестна
func (c *Catalog) Title(track Track) string {
	if t, ok := c.byTrack[track]; ok {
		return t.Title
	}
	return track.Code()
}
