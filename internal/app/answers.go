package app

import (
	"sort"

	"edustop-service/internal/domain"
)

// CheckAnswers reports whether submitted matches correct as a multiset of
// exact strings. Order is ignored; case and whitespace are not.
func CheckAnswers(correct, submitted []string) bool {
	if len(correct) != len(submitted) {
		return false
	}
	c := append([]string(nil), correct...)
	s := append([]string(nil), submitted...)
	sort.Strings(c)
	sort.Strings(s)
	for i := range c {
		if c[i] != s[i] {
			return false
		}
	}
	return true
}

// VerifySubmission requires a matching entry for every question. Submissions
// for unknown questions are ignored; if a question is answered twice the
// first entry counts.
func VerifySubmission(questions []domain.Question, submissions []domain.AnswerSubmission) bool {
	byQuestion := make(map[string][]string, len(submissions))
	for _, sub := range submissions {
		if _, seen := byQuestion[sub.QuestionID]; !seen {
			byQuestion[sub.QuestionID] = sub.Answers
		}
	}

	for _, q := range questions {
		answers, ok := byQuestion[q.ID]
		if !ok {
			return false
		}
		if !CheckAnswers(q.Answers, answers) {
			return false
		}
	}
	return true
}
