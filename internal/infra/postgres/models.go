package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-bot-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	CreatedBy string    `bun:"created_by,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID            int64  `bun:"id,pk,autoincrement"`
	QuizID        int64  `bun:"quiz_id,notnull"`
	Text          string `bun:"text,notnull"`
	Options       string `bun:"options,notnull"` // JSON-encoded []string
	CorrectOption int    `bun:"correct_option,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:an"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         string    `bun:"user_id,notnull"`
	QuizID         int64     `bun:"quiz_id,notnull"`
	QuestionID     int64     `bun:"question_id,notnull"`
	SelectedOption int       `bun:"selected_option,notnull"`
	Correct        bool      `bun:"correct,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:        r.ID,
		Title:     r.Title,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

func (r questionRow) toDomain() (domain.Question, error) {
	var options []string
	if err := json.Unmarshal([]byte(r.Options), &options); err != nil {
		return domain.Question{}, fmt.Errorf("decode options of question %d: %w", r.ID, err)
	}
	return domain.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		Text:          r.Text,
		Options:       options,
		CorrectOption: r.CorrectOption,
	}, nil
}
