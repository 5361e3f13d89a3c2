package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-bot-service/internal/domain"
)

// QuizStore owns the quiz schema and all reads/writes against it.
// Multi-row writes run inside a single transaction; nothing is ever
// partially persisted.
type QuizStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db, now: time.Now}
}

// ListQuizzes returns all quizzes, newest first.
func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toDomain())
	}
	return quizzes, nil
}

// GetQuiz returns a quiz and its questions ordered by id.
// Returns domain.ErrQuizNotFound when the quiz does not exist.
func (s *QuizStore) GetQuiz(ctx context.Context, id int64) (domain.Quiz, []domain.Question, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("qz.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load quiz: %w", err)
	}

	var questionRows []questionRow
	if err := s.db.NewSelect().Model(&questionRows).Where("qn.quiz_id = ?", id).OrderExpr("id ASC").Scan(ctx); err != nil {
		return domain.Quiz{}, nil, fmt.Errorf("load questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(questionRows))
	for _, qr := range questionRows {
		question, err := qr.toDomain()
		if err != nil {
			return domain.Quiz{}, nil, err
		}
		questions = append(questions, question)
	}
	return row.toDomain(), questions, nil
}

// CreateQuiz inserts the quiz row and its question rows in one transaction
// and returns the new quiz id.
func (s *QuizStore) CreateQuiz(ctx context.Context, title, createdBy string, questions []domain.QuestionDraft) (int64, error) {
	var quizID int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		quiz := &quizRow{Title: title, CreatedBy: createdBy, CreatedAt: s.now().UTC()}
		if _, err := tx.NewInsert().Model(quiz).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		for _, draft := range questions {
			options, err := json.Marshal(draft.Options)
			if err != nil {
				return fmt.Errorf("encode options: %w", err)
			}
			row := &questionRow{
				QuizID:        quiz.ID,
				Text:          draft.Text,
				Options:       string(options),
				CorrectOption: draft.CorrectOption,
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
		quizID = quiz.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return quizID, nil
}

// RecordAnswers appends one answer row per graded tuple, all-or-nothing.
func (s *QuizStore) RecordAnswers(ctx context.Context, userID string, quizID int64, answers []domain.AnswerRecord) error {
	if len(answers) == 0 {
		return nil
	}
	now := s.now().UTC()
	rows := make([]answerRow, 0, len(answers))
	for _, answer := range answers {
		rows = append(rows, answerRow{
			UserID:         userID,
			QuizID:         quizID,
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			Correct:        answer.Correct,
			CreatedAt:      now,
		})
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
		return nil
	})
}

// UserResults aggregates a user's answers per quiz, most recent first.
func (s *QuizStore) UserResults(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	var rows []struct {
		QuizID    int64     `bun:"quiz_id"`
		Title     string    `bun:"title"`
		Total     int       `bun:"total"`
		Correct   int       `bun:"correct"`
		LastTaken time.Time `bun:"last_taken"`
	}
	err := s.db.NewSelect().
		TableExpr("answers AS a").
		ColumnExpr("a.quiz_id AS quiz_id").
		ColumnExpr("q.title AS title").
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("SUM(CASE WHEN a.correct THEN 1 ELSE 0 END) AS correct").
		ColumnExpr("MAX(a.created_at) AS last_taken").
		Join("JOIN quizzes AS q ON q.id = a.quiz_id").
		Where("a.user_id = ?", userID).
		GroupExpr("a.quiz_id, q.title").
		OrderExpr("last_taken DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("user results: %w", err)
	}

	results := make([]domain.QuizResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, domain.QuizResult{
			QuizID:    row.QuizID,
			Title:     row.Title,
			Total:     row.Total,
			Correct:   row.Correct,
			LastTaken: row.LastTaken,
		})
	}
	return results, nil
}
