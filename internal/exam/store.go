package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("exam not found")
	ErrEmptySubmission = errors.New("answers must not be empty")
)

type Store interface {
	Create(ctx context.Context, e Exam) (Exam, error)
	Update(ctx context.Context, id, title string, timeLimit, totalQuestions int) error
	Delete(ctx context.Context, id string) error
	ListByChapter(ctx context.Context, chapterID string) ([]Exam, error)

	// GetForTaking returns the exam with total_questions randomly sampled
	// questions from its chapter. Answer keys are included only when
	// includeAnswers is set.
	GetForTaking(ctx context.Context, id string, includeAnswers bool) (Exam, error)

	Submit(ctx context.Context, examID, userID string, answers []Answer) (SubmitResult, error)
	GetResults(ctx context.Context, examID, userID string) (*AttemptRecord, error)
}
