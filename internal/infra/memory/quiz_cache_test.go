package memory

import (
	"context"
	"testing"
	"time"

	"quiz-bot-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{quizzes: map[int64]domain.Quiz{1: {ID: 1, Title: "Capitals"}}}
	cache := NewQuizCache(source, time.Minute)

	if _, _, err := cache.GetQuiz(ctx, 1); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if source.getCalls != 1 {
		t.Fatalf("expected source hit once, got %d", source.getCalls)
	}

	quiz, _, err := cache.GetQuiz(ctx, 1)
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if source.getCalls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.getCalls)
	}
	if quiz.Title != "Capitals" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
}

func TestQuizCacheDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{quizzes: map[int64]domain.Quiz{}}
	cache := NewQuizCache(source, time.Minute)

	for i := 0; i < 2; i++ {
		if _, _, err := cache.GetQuiz(ctx, 9); err != domain.ErrQuizNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if source.getCalls != 2 {
		t.Fatalf("expected misses to reach the source, got %d calls", source.getCalls)
	}
}

func TestQuizCacheListPassesThrough(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{quizzes: map[int64]domain.Quiz{1: {ID: 1}}}
	cache := NewQuizCache(source, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.ListQuizzes(ctx); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if source.listCalls != 2 {
		t.Fatalf("expected listings uncached, got %d calls", source.listCalls)
	}
}

type countingSource struct {
	quizzes   map[int64]domain.Quiz
	getCalls  int
	listCalls int
}

func (s *countingSource) ListQuizzes(context.Context) ([]domain.Quiz, error) {
	s.listCalls++
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, quiz)
	}
	return out, nil
}

func (s *countingSource) GetQuiz(_ context.Context, id int64) (domain.Quiz, []domain.Question, error) {
	s.getCalls++
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, nil, domain.ErrQuizNotFound
	}
	return quiz, nil, nil
}
