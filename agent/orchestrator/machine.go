package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
)

type phase int

const (
	phaseExtract phase = iota
	phaseAskMissing
	phaseExecute
	phaseFormulate
	phaseEnd
)

const fallbackReply = "I'm not sure what you mean, could you rephrase?"

// transition is the pure routing function between turn phases. AskForMissing
// is evaluated strictly before ExecuteIntent, and intents without a backend
// action short-circuit to response formulation.
func transition(p phase, st *statex.TurnState) phase {
	switch p {
	case phaseExtract:
		if !st.Complete() {
			return phaseAskMissing
		}
		if st.Intent.RequiresExecution() {
			return phaseExecute
		}
		return phaseFormulate
	case phaseAskMissing:
		// Asking is terminal for the turn; the next inbound message is
		// expected to supply the missing values.
		return phaseEnd
	case phaseExecute:
		return phaseFormulate
	default:
		return phaseEnd
	}
}

// extractIntent resolves the intent and parameters for this turn. A prior
// state still collecting parameters keeps its intent; only the missing
// values are extracted from the new message. Otherwise the model is asked
// for a full extraction, degrading to the unknown intent on any failure.
func (o *Orchestrator) extractIntent(ctx context.Context, st *statex.TurnState, prior *statex.TurnState) error {
	if prior != nil && prior.Intent.RequiresExecution() && len(prior.MissingParameters) > 0 {
		return o.mergeMissing(ctx, st, prior)
	}

	raw, err := o.gateway.Complete(ctx, fmt.Sprintf(o.prompts.Extract, st.LatestMessage))
	if err != nil {
		log.Warn().Err(err).Str("user_id", st.UserID).Msg("intent extraction degraded to unknown")
		st.Intent = contractx.IntentUnknown
		st.RecomputeMissing(nil)
		return nil
	}

	extraction := ParseExtraction(raw)
	st.Intent = contractx.ParseIntent(extraction.Intent)
	st.MergeParameters(extraction.Parameters)
	st.RecomputeMissing(o.registry.RequiredParameters(st.Intent))
	return nil
}

// mergeMissing continues collection for a known intent: one targeted gateway
// call restricted to the still-missing parameters, never a full re-extraction.
func (o *Orchestrator) mergeMissing(ctx context.Context, st *statex.TurnState, prior *statex.TurnState) error {
	st.Intent = prior.Intent
	st.MergeParameters(prior.Parameters)

	prompt := fmt.Sprintf(o.prompts.Merge,
		st.Intent,
		strings.Join(prior.MissingParameters, ", "),
		st.LatestMessage,
	)
	raw, err := o.gateway.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("user_id", st.UserID).Msg("parameter merge degraded, keeping prior collection")
	} else {
		st.MergeParameters(ParseExtraction(raw).Parameters)
	}

	st.RecomputeMissing(o.registry.RequiredParameters(st.Intent))
	return nil
}

// askForMissing formulates the clarification question naming every missing
// parameter. The turn ends after the reply is set.
func (o *Orchestrator) askForMissing(ctx context.Context, st *statex.TurnState) error {
	missing := strings.Join(st.MissingParameters, ", ")
	raw, err := o.gateway.Complete(ctx, fmt.Sprintf(o.prompts.Clarify, st.Intent, missing))
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			log.Warn().Err(err).Str("user_id", st.UserID).Msg("clarification degraded to static question")
		}
		st.AssistantReply = fmt.Sprintf("Could you provide the following to continue: %s?", missing)
		return nil
	}
	st.AssistantReply = strings.TrimSpace(raw)
	return nil
}

// executeIntent dispatches to the registry. Executor failures arrive as a
// structured error result, never as a Go error.
func (o *Orchestrator) executeIntent(ctx context.Context, st *statex.TurnState) error {
	result := o.registry.Execute(ctx, st.Intent, st.UserID, st.Parameters)
	st.ExecutionResult = &result
	return nil
}

// formulateResponse produces the final natural-language reply, embedding the
// execution result when an action ran.
func (o *Orchestrator) formulateResponse(ctx context.Context, st *statex.TurnState) error {
	var prompt string
	if st.Intent.RequiresExecution() && st.ExecutionResult != nil {
		prompt = fmt.Sprintf(o.prompts.Summarize, st.LatestMessage, st.Intent, describeResult(st.ExecutionResult))
	} else {
		prompt = fmt.Sprintf(o.prompts.Chat, st.LatestMessage)
	}

	raw, err := o.gateway.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			log.Warn().Err(err).Str("user_id", st.UserID).Msg("response formulation degraded to static reply")
		}
		st.AssistantReply = staticReply(st)
		return nil
	}
	st.AssistantReply = strings.TrimSpace(raw)
	return nil
}

func describeResult(result *contractx.ExecutionResult) string {
	payload, err := json.Marshal(result)
	if err != nil {
		return "(result unavailable)"
	}
	return string(payload)
}

// staticReply covers formulation failures so the user still gets an answer.
func staticReply(st *statex.TurnState) string {
	if st.ExecutionResult == nil {
		return fallbackReply
	}
	if st.ExecutionResult.Failed() {
		return "Sorry, I couldn't complete that request: " + st.ExecutionResult.Error.Message
	}
	return "All set!"
}
