package domain

import "time"

// Quiz is an authored quiz. Questions are loaded separately, ordered by id.
type Quiz struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is a multiple-choice question with exactly one correct option.
// CorrectOption is a zero-based index into Options.
type Question struct {
	ID            int64    `json:"id"`
	QuizID        int64    `json:"quizId"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
}

// QuestionDraft is a question as collected by the authoring wizard,
// before the store has assigned identifiers.
type QuestionDraft struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
}

// AnswerRecord is one graded answer ready to be persisted.
type AnswerRecord struct {
	QuestionID     int64
	SelectedOption int
	Correct        bool
}

// QuizResult aggregates one user's recorded answers for a single quiz.
type QuizResult struct {
	QuizID    int64     `json:"quizId"`
	Title     string    `json:"title"`
	Total     int       `json:"total"`
	Correct   int       `json:"correct"`
	LastTaken time.Time `json:"lastTaken"`
}

// QuizSubmission is the structured payload produced by the companion web view.
type QuizSubmission struct {
	QuizID  int64
	Answers []SubmittedAnswer
}

// SubmittedAnswer is a single selection inside a QuizSubmission.
type SubmittedAnswer struct {
	QuestionID     int64
	SelectedOption int
}
