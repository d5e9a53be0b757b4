package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	promptx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/prompt"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = statex.ErrInvalidUser
)

// Orchestrator drives a single dialogue turn through extraction,
// gap-filling, execution and response formulation. It holds no per-user
// state of its own; cross-turn memory travels through TurnState.
type Orchestrator struct {
	gateway  contractx.TextGateway
	registry contractx.ActionRegistry
	prompts  promptx.Set

	now func() time.Time
}

func New(gateway contractx.TextGateway, registry contractx.ActionRegistry) (*Orchestrator, error) {
	if gateway == nil {
		return nil, errors.New("text gateway is required")
	}
	if registry == nil {
		return nil, errors.New("action registry is required")
	}

	return &Orchestrator{
		gateway:  gateway,
		registry: registry,
		prompts:  promptx.LoadSet(),
		now:      time.Now,
	}, nil
}

// Advance runs one turn for the given user and returns the new TurnState.
// The caller persists the returned state and sends AssistantReply back to
// the user. A corrupted or absent prior state is treated as a fresh turn;
// gateway failures degrade inside the phases and never surface here.
func (o *Orchestrator) Advance(ctx context.Context, userID, message string, prior *statex.TurnState) (*statex.TurnState, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrInvalidMessage
	}

	if prior != nil && prior.Validate() != nil {
		prior = nil
	}

	st := statex.NewTurnState(userID, o.now())
	st.LatestMessage = message

	for ph := phaseExtract; ph != phaseEnd; {
		var err error
		switch ph {
		case phaseExtract:
			err = o.extractIntent(ctx, st, prior)
		case phaseAskMissing:
			err = o.askForMissing(ctx, st)
		case phaseExecute:
			err = o.executeIntent(ctx, st)
		case phaseFormulate:
			err = o.formulateResponse(ctx, st)
		}
		if err != nil {
			return nil, err
		}
		ph = transition(ph, st)
	}

	st.Touch(o.now())
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}
