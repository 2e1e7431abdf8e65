package queue

import "context"

// AnalysisTrigger enqueues a finished session for asynchronous analysis.
// Callers never wait for the analysis itself.
type AnalysisTrigger interface {
	Notify(ctx context.Context, sessionID string) error
}

// StatusPublisher pushes session progress events to any live subscriber
// (the session WebSocket). Best-effort: publish failures are swallowed.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, sessionID string, ev StatusEvent)
}

type StatusEvent struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	QuestionIndex *int   `json:"question_index,omitempty"`
}
