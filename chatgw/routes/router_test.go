package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chatgw/chatgw/config"
	"chatgw/chatgw/middlewares"
	"chatgw/chatgw/services/chat"
	"chatgw/chatgw/services/llm"
	"chatgw/chatgw/utils/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdefghijklmnopqrstuvwxyz"

type fakeOllama struct {
	up        bool
	has       bool
	hasErr    error
	answer    string
	chatErr   error
	chatCalls atomic.Int32
}

func (f *fakeOllama) Ping(context.Context) bool { return f.up }

func (f *fakeOllama) HasModel(context.Context, string) (bool, error) { return f.has, f.hasErr }

func (f *fakeOllama) Chat(context.Context, []llm.Message, string, ...llm.ChatOption) (string, error) {
	f.chatCalls.Add(1)
	return f.answer, f.chatErr
}

func testConfig() config.Config {
	return config.Config{
		APIKey:             testKey,
		OllamaHost:         "http://localhost:11434",
		OllamaModel:        "phi",
		APIURL:             "http://localhost:8000/api/chat",
		ChatTimeout:        time.Second,
		DefaultTemperature: 0.2,
	}
}

func newServer(t *testing.T, cfg config.Config, o *fakeOllama) *httptest.Server {
	t.Helper()
	svc := chat.NewService(o, cfg.OllamaModel, cfg.DefaultTemperature)
	srv := httptest.NewServer(NewRouter(cfg, Deps{Pinger: o, Chat: svc}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, auth, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func detailString(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	return body.Detail
}

const question = `{"messages":[{"role":"user","content":"What is 2+2?"}],"model":"phi"}`

func TestChat_Answer(t *testing.T) {
	o := &fakeOllama{has: true, answer: "4"}
	srv := newServer(t, testConfig(), o)

	code, data := post(t, srv, "Bearer "+testKey, question)
	require.Equal(t, http.StatusOK, code, string(data))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "4", resp["answer"])
	assert.Equal(t, "phi", resp["model"])
	assert.Contains(t, resp, "notice")
	assert.Nil(t, resp["notice"])
	assert.Regexp(t, `^sess-[0-9a-f]{8}$`, resp["session_id"])
}

func TestChat_ModelMissing(t *testing.T) {
	o := &fakeOllama{has: false, answer: "never"}
	srv := newServer(t, testConfig(), o)

	code, data := post(t, srv, "Bearer "+testKey, question)
	require.Equal(t, http.StatusOK, code)

	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Empty(t, resp.Answer)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, chat.NotInstalledNotice("phi"), *resp.Notice)
	assert.Zero(t, o.chatCalls.Load())
}

func TestChat_OllamaDown(t *testing.T) {
	o := &fakeOllama{has: true, chatErr: &llm.Error{Kind: llm.KindUnreachable, Message: "chat: cannot reach ollama"}}
	srv := newServer(t, testConfig(), o)

	code, data := post(t, srv, "Bearer "+testKey, question)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, detailString(t, data), "Ollama is unavailable")
}

func TestChat_Auth(t *testing.T) {
	o := &fakeOllama{has: true, answer: "4"}
	srv := newServer(t, testConfig(), o)

	code, data := post(t, srv, "", question)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, middlewares.MsgMissingToken, detailString(t, data))

	code, data = post(t, srv, "Bearer nope", question)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, middlewares.MsgInvalidKey, detailString(t, data))

	assert.Zero(t, o.chatCalls.Load())
}

func TestChat_Validation(t *testing.T) {
	srv := newServer(t, testConfig(), &fakeOllama{has: true, answer: "4"})

	code, _ := post(t, srv, "Bearer "+testKey, `{"messages":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = post(t, srv, "Bearer "+testKey, `{"messages":[{"role":"user","content":"hi"}],"temperature":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestChat_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	srv := newServer(t, cfg, &fakeOllama{has: true, answer: "4"})

	code, _ := post(t, srv, "Bearer "+testKey, question)
	assert.Equal(t, http.StatusOK, code)
	code, _ = post(t, srv, "Bearer "+testKey, question)
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestHealth_AlwaysOK(t *testing.T) {
	for _, up := range []bool{true, false} {
		srv := newServer(t, testConfig(), &fakeOllama{up: up})

		resp, err := srv.Client().Get(srv.URL + "/api/health")
		require.NoError(t, err)
		var got types.HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, types.HealthResponse{Status: "ok", Ollama: up, DefaultModel: "phi"}, got)
	}
}

func TestRoot(t *testing.T) {
	srv := newServer(t, testConfig(), &fakeOllama{})

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var info types.ServiceInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.True(t, info.OK)
	assert.Equal(t, "/api/chat", info.Chat)
}
