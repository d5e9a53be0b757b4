package contract

import "strings"

// Intent is the closed set of actions a user message can be classified as.
type Intent string

const (
	IntentGetOrder       Intent = "get_order"
	IntentGetMyOrders    Intent = "get_my_orders"
	IntentUpdateProfile  Intent = "update_profile"
	IntentSearchProducts Intent = "search_products"
	IntentChat           Intent = "chatting"
	IntentUnknown        Intent = "unknown"
)

// ParseIntent maps a raw model label to a known intent. Anything outside the
// closed set degrades to IntentUnknown, which is a valid terminal state and
// behaves like general chat.
func ParseIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentGetOrder:
		return IntentGetOrder
	case IntentGetMyOrders:
		return IntentGetMyOrders
	case IntentUpdateProfile:
		return IntentUpdateProfile
	case IntentSearchProducts:
		return IntentSearchProducts
	case IntentChat:
		return IntentChat
	default:
		return IntentUnknown
	}
}

// RequiresExecution reports whether the intent dispatches a backend action.
// Chat and unknown intents bypass execution entirely.
func (i Intent) RequiresExecution() bool {
	switch i {
	case IntentChat, IntentUnknown, Intent(""):
		return false
	default:
		return true
	}
}

// Extraction is the shape the model is asked to produce during intent
// extraction: a label plus a flat parameter map.
type Extraction struct {
	Intent     string            `json:"intent"`
	Parameters map[string]string `json:"parameters"`
}

// ExecutionResult is the structured outcome of a dispatched action. Exactly
// one of Payload and Error is set.
type ExecutionResult struct {
	Payload any        `json:"payload,omitempty"`
	Error   *ExecError `json:"error,omitempty"`
}

func (r ExecutionResult) Failed() bool {
	return r.Error != nil
}

// ExecError is the error descriptor surfaced to response formulation instead
// of a protocol-level failure.
type ExecError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Execution error codes.
const (
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeEmpty            = "empty"
	CodeInvalidParameter = "invalid_parameter"
	CodeUnknownIntent    = "unknown_intent"
	CodeBackendError     = "backend_error"
)

func NewExecError(code, message string) *ExecError {
	return &ExecError{Code: code, Message: message}
}
