package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/domain"
	"quiz-bot-service/internal/infra/postgres"
	pgmigrations "quiz-bot-service/internal/infra/postgres/migrations"
	infraredis "quiz-bot-service/internal/infra/redis"
)

func TestQuizLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := openMigrated(t, ctx, dsn)
	defer db.Close()
	store := postgres.NewQuizStore(db)

	questions := []domain.QuestionDraft{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: 1},
		{Text: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectOption: 0},
	}
	quizID, err := store.CreateQuiz(ctx, "Mixed bag", "alice", questions)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	quizzes, err := store.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != quizID {
		t.Fatalf("expected the created quiz listed, got %+v", quizzes)
	}

	quiz, stored, err := store.GetQuiz(ctx, quizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Mixed bag" || len(stored) != 2 {
		t.Fatalf("unexpected quiz %+v with %d questions", quiz, len(stored))
	}
	if len(stored[0].Options) != 3 || stored[0].CorrectOption != 1 {
		t.Fatalf("options not round-tripped: %+v", stored[0])
	}

	records := []domain.AnswerRecord{
		{QuestionID: stored[0].ID, SelectedOption: 1, Correct: true},
		{QuestionID: stored[1].ID, SelectedOption: 1, Correct: false},
	}
	if err := store.RecordAnswers(ctx, "bob", quizID, records); err != nil {
		t.Fatalf("record answers: %v", err)
	}

	results, err := store.UserResults(ctx, "bob", 10)
	if err != nil {
		t.Fatalf("user results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result row, got %+v", results)
	}
	if results[0].Title != "Mixed bag" || results[0].Total != 2 || results[0].Correct != 1 {
		t.Fatalf("unexpected aggregate %+v", results[0])
	}
}

func TestCreateQuizRollsBackOnConstraintViolation(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := openMigrated(t, ctx, dsn)
	defer db.Close()
	store := postgres.NewQuizStore(db)

	questions := []domain.QuestionDraft{
		{Text: "Fine", Options: []string{"A", "B"}, CorrectOption: 0},
		{Text: "Broken", Options: []string{"A", "B"}, CorrectOption: -1},
	}
	if _, err := store.CreateQuiz(ctx, "Broken", "alice", questions); err == nil {
		t.Fatalf("expected constraint failure")
	}

	quizzes, err := store.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if len(quizzes) != 0 {
		t.Fatalf("expected rollback, got %+v", quizzes)
	}
}

func TestAuthoringWizardAgainstRedisDrafts(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openMigrated(t, ctx, dsn)
	defer db.Close()
	store := postgres.NewQuizStore(db)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	drafts := infraredis.NewDraftStore(redisClient, 5*time.Minute)
	wizard := app.NewWizard(drafts, store)

	const adminID int64 = 1
	if _, err := wizard.Begin(ctx, adminID); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, input := range []string{"Geography", "Capital of France?", "Paris;Lyon", "1"} {
		if _, err := wizard.HandleText(ctx, adminID, "alice", input); err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
	}
	reply, err := wizard.Finish(ctx, adminID, "alice")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !reply.Created || reply.QuizID == 0 {
		t.Fatalf("expected quiz created, got %+v", reply)
	}

	quiz, questions, err := store.GetQuiz(ctx, reply.QuizID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Geography" || len(questions) != 1 || questions[0].CorrectOption != 0 {
		t.Fatalf("unexpected persisted quiz %+v %+v", quiz, questions)
	}

	if ok, err := wizard.HasDraft(ctx, adminID); err != nil || ok {
		t.Fatalf("expected draft consumed, ok=%v err=%v", ok, err)
	}
}

func openMigrated(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
