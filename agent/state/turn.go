package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
)

var (
	ErrInvalidUser = errors.New("user id is empty")
	ErrNilState    = errors.New("turn state is nil")
)

// TurnState is the per-user record carried between turns. It is the unit of
// cross-turn memory: the intent being worked on, the parameters collected so
// far, and the parameters still required before the action can run.
type TurnState struct {
	UserID        string `json:"user_id"`
	LatestMessage string `json:"latest_message,omitempty"`

	Intent     contractx.Intent  `json:"intent"`
	Parameters map[string]string `json:"parameters,omitempty"`

	// MissingParameters is derived: required(intent) minus the parameters
	// present and non-empty. Recompute after every intent/parameter change.
	MissingParameters []string `json:"missing_parameters,omitempty"`

	AssistantReply  string                     `json:"assistant_reply,omitempty"`
	ExecutionResult *contractx.ExecutionResult `json:"execution_result,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewTurnState(userID string, now time.Time) *TurnState {
	return &TurnState{
		UserID:     userID,
		Intent:     contractx.IntentUnknown,
		Parameters: make(map[string]string, 4),
		UpdatedAt:  now.UTC(),
	}
}

func (s *TurnState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureParameters makes sure s.Parameters is initialized.
func (s *TurnState) EnsureParameters() {
	if s.Parameters == nil {
		s.Parameters = make(map[string]string, 4)
	}
}

// SetParameter stores a single parameter value.
func (s *TurnState) SetParameter(key, value string) {
	s.EnsureParameters()
	s.Parameters[key] = value
}

// MergeParameters copies non-empty values into the collected parameters.
// Empty values never overwrite what a previous turn already supplied.
func (s *TurnState) MergeParameters(params map[string]string) {
	s.EnsureParameters()
	for k, v := range params {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		s.Parameters[key] = v
	}
}

// RecomputeMissing rebuilds MissingParameters from the required list,
// preserving the required order.
func (s *TurnState) RecomputeMissing(required []string) {
	if len(required) == 0 {
		s.MissingParameters = nil
		return
	}
	missing := make([]string, 0, len(required))
	for _, key := range required {
		if strings.TrimSpace(s.Parameters[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		s.MissingParameters = nil
		return
	}
	s.MissingParameters = missing
}

// Complete reports whether every required parameter has been collected.
func (s *TurnState) Complete() bool {
	return len(s.MissingParameters) == 0
}

// Validate checks structural invariants before the state is persisted.
func (s *TurnState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if strings.TrimSpace(s.UserID) == "" {
		return ErrInvalidUser
	}
	for _, key := range s.MissingParameters {
		if strings.TrimSpace(s.Parameters[key]) != "" {
			return fmt.Errorf("%w: parameter %q is both collected and missing", contractx.ErrValidation, key)
		}
	}
	if len(s.MissingParameters) > 0 && s.ExecutionResult != nil {
		return fmt.Errorf("%w: executed with missing parameters", contractx.ErrValidation)
	}
	return nil
}

// Clone returns a deep copy, so stored entries never alias a state still
// being mutated by an in-flight turn.
func (s *TurnState) Clone() *TurnState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Parameters != nil {
		out.Parameters = make(map[string]string, len(s.Parameters))
		for k, v := range s.Parameters {
			out.Parameters[k] = v
		}
	}
	if s.MissingParameters != nil {
		out.MissingParameters = append([]string(nil), s.MissingParameters...)
	}
	if s.ExecutionResult != nil {
		res := *s.ExecutionResult
		if s.ExecutionResult.Error != nil {
			e := *s.ExecutionResult.Error
			res.Error = &e
		}
		out.ExecutionResult = &res
	}
	return &out
}
