package interview

import "unicode/utf8"

// ShortAnswerThreshold - длина ответа в символах, ниже которой ответ считается коротким
const ShortAnswerThreshold = 50

// DefaultMaxFollowUps - бюджет уточняющих вопросов на одно собеседование
const DefaultMaxFollowUps = 2

// NeedsFollowUp решает, нужен ли уточняющий вопрос к профессиональному ответу.
// Уточнение нужно для короткого ответа или если в собеседовании еще не было
// ни одного уточнения, но только пока не исчерпан бюджет maxFollowUps.
func NeedsFollowUp(answerText string, followUpsSoFar, maxFollowUps int) bool {
	needed := utf8.RuneCountInString(answerText) < ShortAnswerThreshold || followUpsSoFar < 1
	return needed && followUpsSoFar < maxFollowUps
}
