package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
)

// Engine is the dialogue orchestrator as the hosting layer sees it.
type Engine interface {
	Advance(ctx context.Context, userID, message string, prior *statex.TurnState) (*statex.TurnState, error)
}

// Server hosts the dialogue engine over HTTP. It owns the per-turn
// bookkeeping the orchestrator deliberately does not: loading prior state,
// persisting the new one, and appending both transcript directions.
type Server struct {
	engine     Engine
	store      statex.Store
	locker     statex.Locker
	transcript contractx.TranscriptLogger
}

func New(engine Engine, store statex.Store, locker statex.Locker, transcript contractx.TranscriptLogger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("dialogue engine is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if locker == nil {
		return nil, errors.New("session locker is required")
	}
	if transcript == nil {
		transcript = noopTranscript{}
	}

	return &Server{
		engine:     engine,
		store:      store,
		locker:     locker,
		transcript: transcript,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/message", s.handleMessage)
	r.Post("/terminate_session", s.handleTerminate)
	return r
}

type messageRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type messageResponse struct {
	Reply             string           `json:"reply"`
	Intent            contractx.Intent `json:"intent"`
	MissingParameters []string         `json:"missing_parameters,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(req.UserID)
	message := strings.TrimSpace(req.Message)
	if userID == "" || message == "" {
		http.Error(w, "user_id and message are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Serialize turns per user across the whole read-compute-write cycle.
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		http.Error(w, "could not acquire session", http.StatusServiceUnavailable)
		return
	}
	defer unlock()

	if err := s.transcript.Append(ctx, userID, message, contractx.DirectionUser); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("transcript append failed for inbound message")
	}

	prior, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, statex.ErrStateNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("unreadable prior state treated as fresh turn")
		}
		prior = nil
	}

	st, err := s.engine.Advance(ctx, userID, message, prior)
	if err != nil {
		turnsTotal.WithLabelValues("none", "error").Inc()
		log.Error().Err(err).Str("user_id", userID).Msg("turn failed")
		http.Error(w, "could not process message", http.StatusInternalServerError)
		return
	}

	if err := s.store.Put(ctx, st); err != nil {
		turnsTotal.WithLabelValues(string(st.Intent), "error").Inc()
		log.Error().Err(err).Str("user_id", userID).Msg("persist turn state failed")
		http.Error(w, "could not persist session", http.StatusInternalServerError)
		return
	}

	if err := s.transcript.Append(ctx, userID, st.AssistantReply, contractx.DirectionAgent); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("transcript append failed for outbound message")
	}

	turnsTotal.WithLabelValues(string(st.Intent), "ok").Inc()
	writeJSON(w, http.StatusOK, messageResponse{
		Reply:             st.AssistantReply,
		Intent:            st.Intent,
		MissingParameters: st.MissingParameters,
	})
}

type terminateRequest struct {
	UserID string `json:"user_id"`
}

type terminateResponse struct {
	Terminated bool `json:"terminated"`
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	var req terminateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	terminated, err := s.store.Evict(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("session eviction failed")
		http.Error(w, "could not terminate session", http.StatusInternalServerError)
		return
	}

	terminationsTotal.WithLabelValues(strconv.FormatBool(terminated)).Inc()
	writeJSON(w, http.StatusOK, terminateResponse{Terminated: terminated})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("response encode failed")
	}
}

type noopTranscript struct{}

func (noopTranscript) Append(context.Context, string, string, string) error {
	return nil
}
