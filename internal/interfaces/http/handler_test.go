package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warelay/internal/entities"
	"warelay/internal/interfaces"
	"warelay/internal/repository"
	"warelay/internal/usecases"
)

type stubAI struct{}

func (stubAI) GenerateResponse(context.Context, string) (string, error) {
	return "stub reply", nil
}

type recordingMessenger struct {
	mu        sync.Mutex
	texts     []string
	templates []string
}

func (m *recordingMessenger) SendText(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, to+":"+body)
	return nil
}

func (m *recordingMessenger) SendTemplate(_ context.Context, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = append(m.templates, to)
	return nil
}

type testEnv struct {
	router    *gin.Engine
	store     *repository.MemoryStore
	messenger *recordingMessenger
	service   *usecases.MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	messenger := &recordingMessenger{}
	configRepo := repository.NewConfigRepository(nil)
	usageRepo := repository.NewUsageRepository(nil)

	service := usecases.NewMessageService(
		store,
		stubAI{},
		map[string]interfaces.Messenger{entities.ChannelWhatsApp: messenger},
		configRepo,
		usageRepo,
		nil,
	)

	auth := usecases.NewAuthUsecase(repository.NewUserRepository(nil), "test-secret")
	dashboard := usecases.NewDashboardUsecase(configRepo, usageRepo, store)

	handler := NewHandler(service, store, "hook-token", nil)
	admin := NewAdminHandler(auth, dashboard, store, nil)

	router := gin.New()
	SetupRoutes(router, handler, admin, NewMiddleware("test-secret"))

	return &testEnv{router: router, store: store, messenger: messenger, service: service}
}

func (e *testEnv) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestVerifyWebhook(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=hook-token&hub.challenge=12345", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String(), "challenge echoed verbatim")

	w = env.do(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/webhook?hub.mode=unsubscribe&hub.verify_token=hook-token&hub.challenge=12345", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReceiveWebhook(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte(`{
		"entry": [{"changes": [{"value": {
			"metadata": {"display_phone_number": "15550001111"},
			"messages": [{"id": "wamid.1", "from": "628111", "timestamp": "1700000100", "type": "text", "text": {"body": "hi"}}]
		}}]}]
	}`)

	w := env.do(http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var result entities.WebhookResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, entities.WebhookResult{Received: 1, Stored: 1}, result)

	env.service.Flush()
	assert.Equal(t, []string{"628111"}, env.messenger.templates)
}

func TestReceiveWebhookGarbage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/webhook", []byte(`not json at all`))
	require.Equal(t, http.StatusOK, w.Code, "unparsable payloads are acknowledged, not retried forever")

	var result entities.WebhookResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, entities.WebhookResult{}, result)
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/send", []byte(`{"number": "+62 811", "text": "manual"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"62811:manual"}, env.messenger.texts)

	w = env.do(http.MethodPost, "/send", []byte(`{"number": "no-digits", "text": "manual"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/send", []byte(`{"number": "62811"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code, "text is required")
}

func TestGetMessages(t *testing.T) {
	env := newTestEnv(t)
	env.store.Append(context.Background(), []entities.MessageEvent{
		{ID: "m1", From: "628111", Timestamp: "1700000100", Type: entities.TypeText, Body: "a"},
		{ID: "m2", From: "628111", Timestamp: "1700000200", Type: entities.TypeText, Body: "b"},
	})

	w := env.do(http.MethodPost, "/get", []byte(`{"number": "+62 8111", "limit": 1}`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count    int                     `json:"count"`
		Messages []entities.MessageEvent `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "b", resp.Messages[0].Body)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/dashboard/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityHeadersApplied(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=hook-token&hub.challenge=1", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
