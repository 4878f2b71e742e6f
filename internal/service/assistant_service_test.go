package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/mobile-core/internal/assistant"
	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/repository"
)

func newAssistantService(t *testing.T) (*AssistantService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	responder := assistant.NewResponder(func() time.Time { return testNow })
	return NewAssistantService(responder, env.events), env
}

func TestAssistantChat_KeywordReply(t *testing.T) {
	svc, _ := newAssistantService(t)

	rec, err := doJSON(t, svc.Chat, http.MethodPost, "/api/assistant/messages",
		`{"message":"I think I have the flu"}`, "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reply assistant.Message `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, assistant.MessageTypeAssistant, resp.Reply.Type)
	assert.Contains(t, resp.Reply.Content, "Flu symptoms")
	assert.Equal(t, testNow, resp.Reply.Timestamp)
}

func TestAssistantChat_EmptyMessage(t *testing.T) {
	svc, _ := newAssistantService(t)

	_, err := doJSON(t, svc.Chat, http.MethodPost, "/api/assistant/messages", `{"message":""}`, "tok")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestHistory_NewestFirst(t *testing.T) {
	env := newTestEnv(t)

	// Свой журнал с идущими часами, чтобы порядок был однозначным.
	clock := testNow
	events := repository.NewGormEventLog(env.db, func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	responder := assistant.NewResponder(func() time.Time { return testNow })
	svc := NewAssistantService(responder, events)

	ctx := context.Background()
	require.NoError(t, events.Append(ctx, model.EventTypeAppointmentBooked, "a1", "first"))
	require.NoError(t, events.Append(ctx, model.EventTypeAppointmentCancelled, "a1", "second"))

	rec, err := doJSON(t, svc.History, http.MethodGet, "/api/history", "", "tok")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []model.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, model.EventTypeAppointmentCancelled, resp.Events[0].EventType)
}
