package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansshul10/Chatifyzone07/internal/analytics"
	"github.com/ansshul10/Chatifyzone07/internal/models"
	"github.com/ansshul10/Chatifyzone07/internal/store"
	"github.com/ansshul10/Chatifyzone07/internal/ws"
)

func newTestHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	hub := ws.NewHub(st, analytics.NewRecorder(st), 0)
	t.Cleanup(func() {
		hub.Close()
		st.Close()
	})
	return NewHandler(st, hub, 2), st
}

func TestHistoryHandlerReturnsOrderedMessages(t *testing.T) {
	h, st := newTestHandler(t)

	for _, text := range []string{"one", "two"} {
		msg := &models.Message{Sender: "alice", Recipient: "bob", Text: text}
		require.NoError(t, st.SaveMessage(msg))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/messages/alice/bob", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var messages []*models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Text)
	assert.Equal(t, "two", messages[1].Text)
}

func TestHistoryHandlerHonorsCap(t *testing.T) {
	h, st := newTestHandler(t) // historyLimit is 2

	for i := 0; i < 5; i++ {
		msg := &models.Message{Sender: "alice", Recipient: "bob", Text: "m"}
		require.NoError(t, st.SaveMessage(msg))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/messages/alice/bob", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var messages []*models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	assert.Len(t, messages, 2)
}

func TestHistoryHandlerEmptyPairIsEmptyArray(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/messages/nobody/noone", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestOnlineUsersHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/online", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
