package llm

import "context"

type QuestionRequest struct {
	JobTarget      string
	JobCategory    string
	JobSubCategory string
	Background     string
	Count          int

	// EstimatedDurationMinutes hints the model at how long the whole
	// interview should run, so questions come out answerable in speech.
	EstimatedDurationMinutes int
}

// TextGenerator is the question-generation upstream. Timeouts and retries
// belong to the caller; a single call maps to a single upstream request.
type TextGenerator interface {
	// GenerateQuestions returns up to req.Count ordered interview questions
	// plus the prompt that produced them.
	GenerateQuestions(ctx context.Context, req QuestionRequest) (questions []string, prompt string, err error)

	// GenerateFeedback produces a free-form feedback summary from a Q/A
	// transcript of a finished interview.
	GenerateFeedback(ctx context.Context, transcript string) (string, error)

	Close() error
}
