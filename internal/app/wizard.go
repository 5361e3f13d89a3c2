package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"quiz-bot-service/internal/domain"
)

// DraftState enumerates the steps of the quiz-authoring dialogue.
type DraftState string

const (
	StateAwaitingTitle        DraftState = "awaiting_title"
	StateAwaitingQuestionText DraftState = "awaiting_question_text"
	StateAwaitingOptions      DraftState = "awaiting_options"
	StateAwaitingCorrectIndex DraftState = "awaiting_correct_index"
)

// Draft is an in-progress quiz keyed by administrator identity. It is
// JSON-serializable so stores can keep it in memory or Redis.
type Draft struct {
	State     DraftState             `json:"state"`
	Title     string                 `json:"title"`
	Questions []domain.QuestionDraft `json:"questions"`
	Current   domain.QuestionDraft   `json:"current"`
}

// DraftStore abstracts where in-progress drafts live (in-memory, Redis, etc).
// At most one draft exists per administrator key.
type DraftStore interface {
	Get(ctx context.Context, adminID int64) (Draft, bool, error)
	Set(ctx context.Context, adminID int64, draft Draft) error
	Delete(ctx context.Context, adminID int64) error
}

// QuizCreator persists a finalized draft.
type QuizCreator interface {
	CreateQuiz(ctx context.Context, title, createdBy string, questions []domain.QuestionDraft) (int64, error)
}

// Reply is what the wizard wants said back to the administrator.
type Reply struct {
	Text        string
	OfferFinish bool  // show the explicit finish affordance
	ClearFinish bool  // remove a previously offered affordance
	Created     bool  // a quiz was persisted
	QuizID      int64 // set when Created
}

// Wizard walks an administrator through quiz creation one message at a time.
// Validation always happens before any mutation, so a rejected input never
// changes the draft.
type Wizard struct {
	drafts  DraftStore
	quizzes QuizCreator
}

func NewWizard(drafts DraftStore, quizzes QuizCreator) *Wizard {
	return &Wizard{drafts: drafts, quizzes: quizzes}
}

// optionsDelimiter separates answer options in a single message.
const optionsDelimiter = ";"

// Begin starts a fresh draft for the administrator, replacing any
// unfinished one.
func (w *Wizard) Begin(ctx context.Context, adminID int64) (Reply, error) {
	draft := Draft{State: StateAwaitingTitle}
	if err := w.drafts.Set(ctx, adminID, draft); err != nil {
		return Reply{}, fmt.Errorf("save draft: %w", err)
	}
	return Reply{Text: "Let's create a new quiz. Send me the quiz title."}, nil
}

// HasDraft reports whether the administrator has an active draft.
func (w *Wizard) HasDraft(ctx context.Context, adminID int64) (bool, error) {
	_, ok, err := w.drafts.Get(ctx, adminID)
	return ok, err
}

// HandleText advances the draft with one message of input. createdBy is the
// identity recorded on the quiz when this input finalizes it.
func (w *Wizard) HandleText(ctx context.Context, adminID int64, createdBy, text string) (Reply, error) {
	draft, ok, err := w.drafts.Get(ctx, adminID)
	if err != nil {
		return Reply{}, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return Reply{}, domain.ErrDraftNotFound
	}

	text = strings.TrimSpace(text)

	switch draft.State {
	case StateAwaitingTitle:
		if text == "" {
			return Reply{Text: "The title cannot be empty. Send me the quiz title."}, nil
		}
		draft.Title = text
		draft.State = StateAwaitingQuestionText
		draft.Current = domain.QuestionDraft{}
		if err := w.drafts.Set(ctx, adminID, draft); err != nil {
			return Reply{}, fmt.Errorf("save draft: %w", err)
		}
		return Reply{Text: fmt.Sprintf("Title set to %q. Now send me the first question text. An empty message finishes the quiz.", draft.Title)}, nil

	case StateAwaitingQuestionText:
		if text == "" {
			return w.finalize(ctx, adminID, createdBy, draft)
		}
		draft.Current.Text = text
		draft.State = StateAwaitingOptions
		if err := w.drafts.Set(ctx, adminID, draft); err != nil {
			return Reply{}, fmt.Errorf("save draft: %w", err)
		}
		return Reply{Text: "Send the answer options separated by semicolons, e.g. Red; Green; Blue."}, nil

	case StateAwaitingOptions:
		options := splitOptions(text)
		if len(options) < 2 {
			return Reply{Text: "I need at least two options. Send them separated by semicolons, e.g. Red; Green; Blue."}, nil
		}
		draft.Current.Options = options
		draft.State = StateAwaitingCorrectIndex
		if err := w.drafts.Set(ctx, adminID, draft); err != nil {
			return Reply{}, fmt.Errorf("save draft: %w", err)
		}
		return Reply{Text: fmt.Sprintf("Which option is correct? Send a number from 1 to %d.", len(options))}, nil

	case StateAwaitingCorrectIndex:
		count := len(draft.Current.Options)
		number, err := strconv.Atoi(text)
		if err != nil || number < 1 || number > count {
			return Reply{Text: fmt.Sprintf("That is not a valid answer number. Send a number from 1 to %d.", count)}, nil
		}
		draft.Current.CorrectOption = number - 1
		draft.Questions = append(draft.Questions, draft.Current)
		draft.Current = domain.QuestionDraft{}
		draft.State = StateAwaitingQuestionText
		if err := w.drafts.Set(ctx, adminID, draft); err != nil {
			return Reply{}, fmt.Errorf("save draft: %w", err)
		}
		return Reply{
			Text:        fmt.Sprintf("Question %d saved. Send the next question text, or finish the quiz.", len(draft.Questions)),
			OfferFinish: true,
		}, nil
	}

	return Reply{}, fmt.Errorf("unknown draft state %q", draft.State)
}

// Finish finalizes the draft via the explicit finish affordance.
func (w *Wizard) Finish(ctx context.Context, adminID int64, createdBy string) (Reply, error) {
	draft, ok, err := w.drafts.Get(ctx, adminID)
	if err != nil {
		return Reply{}, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return Reply{}, domain.ErrDraftNotFound
	}
	reply, err := w.finalize(ctx, adminID, createdBy, draft)
	if err != nil {
		return Reply{}, err
	}
	if reply.Created {
		reply.ClearFinish = true
	}
	return reply, nil
}

func (w *Wizard) finalize(ctx context.Context, adminID int64, createdBy string, draft Draft) (Reply, error) {
	if len(draft.Questions) == 0 {
		return Reply{Text: "The quiz has no questions yet. Send me a question text first."}, nil
	}
	quizID, err := w.quizzes.CreateQuiz(ctx, draft.Title, createdBy, draft.Questions)
	if err != nil {
		return Reply{}, fmt.Errorf("create quiz: %w", err)
	}
	if err := w.drafts.Delete(ctx, adminID); err != nil {
		return Reply{}, fmt.Errorf("drop draft: %w", err)
	}
	return Reply{
		Text:    fmt.Sprintf("Done! Quiz %q created with %d question(s). Its id is %d.", draft.Title, len(draft.Questions), quizID),
		Created: true,
		QuizID:  quizID,
	}, nil
}

// splitOptions splits delimiter-separated options, trimming whitespace and
// discarding empty pieces.
func splitOptions(text string) []string {
	parts := strings.Split(text, optionsDelimiter)
	options := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		options = append(options, part)
	}
	return options
}
