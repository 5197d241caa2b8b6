package admin

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy решает, кому доступна административная панель
type Policy interface {
	IsAuthorized(participantID int64) bool
}

// Allowlist - фиксированный список администраторов
type Allowlist struct {
	ids map[int64]struct{}
}

func NewAllowlist(ids ...int64) *Allowlist {
	a := &Allowlist{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		a.ids[id] = struct{}{}
	}
	return a
}

// ParseAllowlist разбирает список идентификаторов через запятую или пробел
func ParseAllowlist(raw string) (*Allowlist, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return NewAllowlist(ids...), nil
}

func (a *Allowlist) IsAuthorized(participantID int64) bool {
	if a == nil {
		return false
	}
	_, ok := a.ids[participantID]
	return ok
}

// Len возвращает число администраторов
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ids)
}
