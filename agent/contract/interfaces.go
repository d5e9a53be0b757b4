package contract

import "context"

// TextGateway wraps the external text-generation capability behind a single
// request/response contract. Implementations must enforce their own timeout;
// failures wrap the provider's generation-failure sentinel.
type TextGateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ActionRegistry maps an intent to its required parameters and executor.
// An intent outside the table has no required parameters, and executing it
// yields a structured unknown-intent error rather than a Go error.
type ActionRegistry interface {
	RequiredParameters(intent Intent) []string
	Execute(ctx context.Context, intent Intent, userID string, params map[string]string) ExecutionResult
}

// Transcript directions.
const (
	DirectionUser  = "user"
	DirectionAgent = "agent"
)

// TranscriptLogger is the append-only conversation audit log. It is written
// to by the hosting layer and never consulted by the orchestrator.
type TranscriptLogger interface {
	Append(ctx context.Context, userID, message, direction string) error
}
