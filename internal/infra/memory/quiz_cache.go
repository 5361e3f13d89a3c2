package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-bot-service/internal/domain"
)

// QuizSource loads quiz content from the backing store.
type QuizSource interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, []domain.Question, error)
}

// QuizCache caches quiz-with-questions reads with TTL so repeated web view
// loads don't hit the database. Listings pass through uncached so freshly
// created quizzes appear immediately.
type QuizCache struct {
	source QuizSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	questions []domain.Question
	expiresAt time.Time
}

func NewQuizCache(source QuizSource, ttl time.Duration) *QuizCache {
	return &QuizCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuiz),
	}
}

func (c *QuizCache) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return c.source.ListQuizzes(ctx)
}

func (c *QuizCache) GetQuiz(ctx context.Context, id int64) (domain.Quiz, []domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.quiz, entry.questions, nil
	}
	c.mu.RUnlock()

	type loaded struct {
		quiz      domain.Quiz
		questions []domain.Question
	}
	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return loaded{quiz: entry.quiz, questions: entry.questions}, nil
		}
		c.mu.RUnlock()

		quiz, questions, err := c.source.GetQuiz(ctx, id)
		if err != nil {
			return loaded{}, err
		}

		c.mu.Lock()
		c.cache[id] = cachedQuiz{
			quiz:      quiz,
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return loaded{quiz: quiz, questions: questions}, nil
	})
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	entry := result.(loaded)
	return entry.quiz, entry.questions, nil
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
