package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/domain"
)

// finishCallback is the callback token carried by the wizard's finish button.
const finishCallback = "finish_quiz"

const resultsLimit = 10

const genericErrorText = "Something went wrong, please try again."

// API is the slice of the Telegram client the controller uses; *bot.Bot
// satisfies it.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
}

// QuizAccess is what the controller needs from the quiz store.
type QuizAccess interface {
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, []domain.Question, error)
	RecordAnswers(ctx context.Context, userID string, quizID int64, answers []domain.AnswerRecord) error
	UserResults(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error)
}

// Bot dispatches incoming chat updates to the authoring wizard, the results
// lookup, or the web view submission path.
type Bot struct {
	api       API
	wizard    *app.Wizard
	store     QuizAccess
	admins    map[int64]struct{}
	webAppURL string // empty when no launchable web view is configured
	log       *slog.Logger
}

func New(api API, wizard *app.Wizard, store QuizAccess, adminIDs []int64, webAppURL string, log *slog.Logger) *Bot {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Bot{
		api:       api,
		wizard:    wizard,
		store:     store,
		admins:    admins,
		webAppURL: webAppURL,
		log:       log,
	}
}

// HandleUpdate routes one incoming update. It never panics the poll loop;
// every failure ends as a chat reply or a log line.
func (b *Bot) HandleUpdate(ctx context.Context, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *models.Message) {
	if msg.From == nil {
		return
	}
	if msg.WebAppData != nil {
		b.handleSubmission(ctx, msg)
		return
	}

	switch command(msg.Text) {
	case "start", "help":
		b.sendWelcome(ctx, msg.Chat.ID)
		return
	case "quiz":
		b.sendQuizLink(ctx, msg.Chat.ID)
		return
	case "results":
		b.handleResults(ctx, msg)
		return
	case "create":
		b.handleCreate(ctx, msg)
		return
	}

	// Plain text only matters inside an active wizard dialogue.
	if !b.isAdmin(msg.From.ID) {
		return
	}
	active, err := b.wizard.HasDraft(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("check draft", "user_id", msg.From.ID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}
	if !active {
		return
	}

	reply, err := b.wizard.HandleText(ctx, msg.From.ID, identity(msg.From), msg.Text)
	if err != nil {
		b.log.Error("wizard input", "user_id", msg.From.ID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}
	b.sendReply(ctx, msg.Chat.ID, reply)
}

func (b *Bot) handleCreate(ctx context.Context, msg *models.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	reply, err := b.wizard.Begin(ctx, msg.From.ID)
	if err != nil {
		b.log.Error("begin wizard", "user_id", msg.From.ID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}
	b.sendReply(ctx, msg.Chat.ID, reply)
}

func (b *Bot) handleResults(ctx context.Context, msg *models.Message) {
	results, err := b.store.UserResults(ctx, identity(msg.From), resultsLimit)
	if err != nil {
		b.log.Error("user results", "user_id", msg.From.ID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}
	if len(results) == 0 {
		b.sendText(ctx, msg.Chat.ID, "You have no quiz results yet. Send /quiz to take one!")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your recent results:\n")
	for _, result := range results {
		fmt.Fprintf(&sb, "• %s — %d/%d correct, last taken %s\n",
			result.Title, result.Correct, result.Total, result.LastTaken.Format("02 Jan 2006 15:04"))
	}
	b.sendText(ctx, msg.Chat.ID, sb.String())
}

// handleSubmission grades a web view submission against the stored questions
// and records the outcome. Malformed payloads are logged and dropped.
func (b *Bot) handleSubmission(ctx context.Context, msg *models.Message) {
	submission, err := decodeSubmission(msg.WebAppData.Data)
	if err != nil {
		b.log.Warn("rejected web view payload", "user_id", msg.From.ID, "err", err)
		return
	}

	_, questions, err := b.store.GetQuiz(ctx, submission.QuizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		b.sendText(ctx, msg.Chat.ID, "That quiz no longer exists.")
		return
	}
	if err != nil {
		b.log.Error("load quiz for submission", "quiz_id", submission.QuizID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}

	byID := make(map[int64]domain.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	records := make([]domain.AnswerRecord, 0, len(submission.Answers))
	correct := 0
	for _, answer := range submission.Answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			b.log.Warn("submission references unknown question", "quiz_id", submission.QuizID, "question_id", answer.QuestionID)
			return
		}
		isCorrect := answer.SelectedOption == question.CorrectOption
		if isCorrect {
			correct++
		}
		records = append(records, domain.AnswerRecord{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			Correct:        isCorrect,
		})
	}

	if err := b.store.RecordAnswers(ctx, identity(msg.From), submission.QuizID, records); err != nil {
		b.log.Error("record answers", "quiz_id", submission.QuizID, "err", err)
		b.sendText(ctx, msg.Chat.ID, genericErrorText)
		return
	}
	b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("You got %d out of %d right!", correct, len(records)))
}

func (b *Bot) handleCallback(ctx context.Context, cb *models.CallbackQuery) {
	if cb.Data != finishCallback {
		return
	}
	if _, err := b.api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID}); err != nil {
		b.log.Warn("answer callback", "err", err)
	}
	if !b.isAdmin(cb.From.ID) {
		return
	}

	chatID := cb.From.ID
	messageID := 0
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
		messageID = cb.Message.Message.ID
	}

	reply, err := b.wizard.Finish(ctx, cb.From.ID, identity(&cb.From))
	if errors.Is(err, domain.ErrDraftNotFound) {
		return
	}
	if err != nil {
		b.log.Error("finish wizard", "user_id", cb.From.ID, "err", err)
		b.sendText(ctx, chatID, genericErrorText)
		return
	}

	if reply.ClearFinish && messageID != 0 {
		_, err := b.api.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
			ChatID:      chatID,
			MessageID:   messageID,
			ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{}},
		})
		if err != nil {
			b.log.Warn("clear finish button", "err", err)
		}
	}
	b.sendReply(ctx, chatID, reply)
}

func (b *Bot) sendWelcome(ctx context.Context, chatID int64) {
	params := &bot.SendMessageParams{ChatID: chatID}
	if b.webAppURL != "" {
		params.Text = "Welcome to the quiz bot! Tap the button below to take a quiz."
		params.ReplyMarkup = &models.ReplyKeyboardMarkup{
			ResizeKeyboard: true,
			Keyboard: [][]models.KeyboardButton{{
				{Text: "Take a quiz", WebApp: &models.WebAppInfo{URL: b.webAppURL}},
			}},
		}
	} else {
		params.Text = "Welcome to the quiz bot!\n\n" +
			"/quiz — take a quiz\n" +
			"/results — see your recent results\n" +
			"/create — create a new quiz (admins only)"
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		b.log.Error("send welcome", "err", err)
	}
}

func (b *Bot) sendQuizLink(ctx context.Context, chatID int64) {
	if b.webAppURL == "" {
		b.sendText(ctx, chatID, "The quiz web view is not configured yet.")
		return
	}
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "Ready when you are — open the quiz below.",
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "Open quiz", WebApp: &models.WebAppInfo{URL: b.webAppURL}},
			}},
		},
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		b.log.Error("send quiz link", "err", err)
	}
}

func (b *Bot) sendReply(ctx context.Context, chatID int64, reply app.Reply) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: reply.Text}
	if reply.OfferFinish {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{{
				{Text: "Finish quiz", CallbackData: finishCallback},
			}},
		}
	}
	if _, err := b.api.SendMessage(ctx, params); err != nil {
		b.log.Error("send reply", "err", err)
	}
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		b.log.Error("send message", "err", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

// identity is the user key recorded in the store: username when set,
// numeric id otherwise.
func identity(user *models.User) string {
	if user.Username != "" {
		return user.Username
	}
	return strconv.FormatInt(user.ID, 10)
}

// command extracts a bot command from message text ("/results@MyBot arg"
// yields "results"), or "" when the text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
