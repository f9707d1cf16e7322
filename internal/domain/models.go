package domain

import "time"

// Subject is the school subject a task belongs to.
type Subject string

const (
	SubjectMath    Subject = "MATH"
	SubjectEnglish Subject = "ENGLISH"
	SubjectPolish  Subject = "POLISH"
)

// QuestionKind discriminates the Question variants.
type QuestionKind string

const (
	QuestionOpen           QuestionKind = "OPEN"
	QuestionTrueFalse      QuestionKind = "TRUE_FALSE"
	QuestionMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
)

// Option is a selectable answer of a choice question.
type Option struct {
	Key  string `json:"key" yaml:"key"`
	Text string `json:"text" yaml:"text"`
}

// Question is a tagged union over the question kinds. Answers is the
// authoritative set of correct answers for every kind; Options is only
// populated for TRUE_FALSE and MULTIPLE_CHOICE.
type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Kind    QuestionKind `json:"kind" yaml:"kind"`
	Content string       `json:"content" yaml:"content"`
	Answers []string     `json:"answers,omitempty" yaml:"answers"`
	Options []Option     `json:"options,omitempty" yaml:"options"`
}

// HasOptions reports whether the question is a choice question.
func (q Question) HasOptions() bool {
	return q.Kind == QuestionTrueFalse || q.Kind == QuestionMultipleChoice
}

// Redacted returns a copy of the question without its correct answers.
func (q Question) Redacted() Question {
	q.Answers = nil
	if len(q.Options) > 0 {
		q.Options = append([]Option(nil), q.Options...)
	}
	return q
}

// Source is a reference attached to a task.
type Source struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Task is a quiz bundle shown near an EduStop.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Subject     Subject    `json:"subject" yaml:"subject"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
	Sources     []Source   `json:"sources,omitempty" yaml:"sources"`
}

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EduStop is a fixed real-world location that gates task issuance.
type EduStop struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Position returns the stop's coordinate.
func (e EduStop) Position() Coordinate {
	return Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
}

// IssuedTask is the server-side payload bound to a task token.
type IssuedTask struct {
	EduStopID string     `json:"eduStopId"`
	TaskID    string     `json:"taskId"`
	IssuedAt  time.Time  `json:"issuedAt"`
	Questions []Question `json:"questions"`
}

// TaskContent is the client-facing view of an issued task.
type TaskContent struct {
	Subject     Subject    `json:"subject"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Sources     []Source   `json:"sources,omitempty"`
}

// TaskTicket is returned when a task is issued.
type TaskTicket struct {
	TaskID      string      `json:"taskId"`
	Content     TaskContent `json:"content"`
	AccessToken string      `json:"accessToken"`
	TTLMinutes  int         `json:"tokenTTLMinutes"`
}

// AnswerSubmission carries the answers a user gave for one question.
type AnswerSubmission struct {
	QuestionID string   `json:"questionId" binding:"required"`
	Answers    []string `json:"answers" binding:"required"`
}

// VerificationResult summarizes a verified task.
type VerificationResult struct {
	Verified  bool   `json:"verified"`
	EduStopID string `json:"eduStopId"`
	TaskID    string `json:"taskId"`
}

// RankingEntry is one row of the user ranking.
type RankingEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Ranking  int    `json:"ranking"`
	Position int    `json:"position"`
}

// RewardEvent is published whenever a user is rewarded for a task.
type RewardEvent struct {
	UserID  string    `json:"userId"`
	Delta   int       `json:"delta"`
	Ranking int       `json:"ranking"`
	At      time.Time `json:"at"`
}
