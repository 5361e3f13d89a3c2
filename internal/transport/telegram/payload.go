package telegram

import (
	"encoding/json"
	"fmt"

	"quiz-bot-service/internal/domain"
)

// submissionType is the discriminator the web view sets on its payload.
const submissionType = "quiz_result"

type submissionPayload struct {
	Type    string `json:"type"`
	QuizID  int64  `json:"quizId"`
	Answers []struct {
		QuestionID     int64 `json:"questionId"`
		SelectedOption int   `json:"selectedOption"`
	} `json:"answers"`
}

// decodeSubmission validates the web view payload shape before use. Any
// mismatch is an error so the caller can fail closed.
func decodeSubmission(raw string) (domain.QuizSubmission, error) {
	var payload submissionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.QuizSubmission{}, fmt.Errorf("decode web view payload: %w", err)
	}
	if payload.Type != submissionType {
		return domain.QuizSubmission{}, fmt.Errorf("unexpected payload type %q", payload.Type)
	}
	if payload.QuizID <= 0 {
		return domain.QuizSubmission{}, fmt.Errorf("invalid quiz id %d", payload.QuizID)
	}
	if len(payload.Answers) == 0 {
		return domain.QuizSubmission{}, fmt.Errorf("submission has no answers")
	}

	submission := domain.QuizSubmission{QuizID: payload.QuizID}
	for _, answer := range payload.Answers {
		if answer.QuestionID <= 0 || answer.SelectedOption < 0 {
			return domain.QuizSubmission{}, fmt.Errorf("invalid answer entry (question %d, option %d)", answer.QuestionID, answer.SelectedOption)
		}
		submission.Answers = append(submission.Answers, domain.SubmittedAnswer{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
		})
	}
	return submission, nil
}
