package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
)

type fakeEngine struct {
	reply  string
	err    error
	priors []*statex.TurnState
}

func (f *fakeEngine) Advance(ctx context.Context, userID, message string, prior *statex.TurnState) (*statex.TurnState, error) {
	f.priors = append(f.priors, prior)
	if f.err != nil {
		return nil, f.err
	}
	st := statex.NewTurnState(userID, time.Now())
	st.LatestMessage = message
	st.Intent = contractx.IntentChat
	st.AssistantReply = f.reply
	return st, nil
}

type transcriptEntry struct {
	userID    string
	message   string
	direction string
}

type fakeTranscript struct {
	err     error
	entries []transcriptEntry
}

func (f *fakeTranscript) Append(ctx context.Context, userID, message, direction string) error {
	f.entries = append(f.entries, transcriptEntry{userID: userID, message: message, direction: direction})
	return f.err
}

func newTestServer(t *testing.T, engine Engine, transcript contractx.TranscriptLogger) (*Server, *statex.MemoryStore) {
	t.Helper()
	store := statex.NewMemoryStore()
	srv, err := New(engine, store, statex.NewMemoryLocker(), transcript)
	require.NoError(t, err)
	return srv, store
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleMessage(t *testing.T) {
	engine := &fakeEngine{reply: "Hello there!"}
	transcript := &fakeTranscript{}
	srv, store := newTestServer(t, engine, transcript)
	router := srv.Router()

	rec := postJSON(t, router, "/message", messageRequest{UserID: "u1", Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello there!", resp.Reply)
	assert.Equal(t, contractx.IntentChat, resp.Intent)
	assert.Empty(t, resp.MissingParameters)

	// The turn state must have been persisted for the next message.
	st, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "hi", st.LatestMessage)

	// Both directions were transcribed.
	require.Len(t, transcript.entries, 2)
	assert.Equal(t, transcriptEntry{userID: "u1", message: "hi", direction: contractx.DirectionUser}, transcript.entries[0])
	assert.Equal(t, transcriptEntry{userID: "u1", message: "Hello there!", direction: contractx.DirectionAgent}, transcript.entries[1])

	// A second message sees the persisted state as its prior.
	rec = postJSON(t, router, "/message", messageRequest{UserID: "u1", Message: "and again"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.priors, 2)
	assert.Nil(t, engine.priors[0])
	require.NotNil(t, engine.priors[1])
	assert.Equal(t, "hi", engine.priors[1].LatestMessage)
}

func TestHandleMessageBadRequest(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEngine{reply: "ok"}, nil)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/message", messageRequest{UserID: "  ", Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, router, "/message", messageRequest{UserID: "u1", Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessageEngineError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("model exploded")}
	srv, store := newTestServer(t, engine, nil)

	rec := postJSON(t, srv.Router(), "/message", messageRequest{UserID: "u1", Message: "hi"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err := store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, statex.ErrStateNotFound)
}

func TestHandleMessageTranscriptFailureIsNotFatal(t *testing.T) {
	transcript := &fakeTranscript{err: errors.New("conversations table is gone")}
	srv, _ := newTestServer(t, &fakeEngine{reply: "still here"}, transcript)

	rec := postJSON(t, srv.Router(), "/message", messageRequest{UserID: "u1", Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "still here", resp.Reply)
}

func TestHandleTerminate(t *testing.T) {
	srv, _ := newTestServer(t, &fakeEngine{reply: "bye"}, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/message", messageRequest{UserID: "u1", Message: "hi"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/terminate_session", terminateRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp terminateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Terminated)

	// Terminating an already-evicted session is not an error.
	rec = postJSON(t, router, "/terminate_session", terminateRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Terminated)

	rec = postJSON(t, router, "/terminate_session", terminateRequest{UserID: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcurrentTurnsAreSerializedPerUser(t *testing.T) {
	engine := &fakeEngine{reply: "ok"}
	srv, _ := newTestServer(t, engine, nil)
	router := srv.Router()

	done := make(chan int, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			body := fmt.Sprintf(`{"user_id":"u1","message":"msg %d"}`, i)
			req := httptest.NewRequest(http.MethodPost, "/message", bytes.NewReader([]byte(body)))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			done <- rec.Code
		}(i)
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, <-done)
	}

	// Every turn after the first must have observed some prior state.
	require.Len(t, engine.priors, 10)
	var fresh int
	for _, prior := range engine.priors {
		if prior == nil {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}
