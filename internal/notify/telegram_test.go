package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/types"
)

type botServer struct {
	mu       sync.Mutex
	messages []map[string]string
	reply    string
	status   int
}

func (b *botServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var msg map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		b.mu.Lock()
		b.messages = append(b.messages, msg)
		b.mu.Unlock()

		if b.status != 0 {
			w.WriteHeader(b.status)
		}
		reply := b.reply
		if reply == "" {
			reply = `{"ok":true,"result":{"message_id":1}}`
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func newNotifier(server *httptest.Server, log logging.Logger) *Telegram {
	return NewTelegram(Options{
		APIURL:     server.URL,
		BotToken:   "TOKEN",
		ChatID:     "42",
		HTTPClient: server.Client(),
		Logger:     log,
	})
}

func TestSend_Success(t *testing.T) {
	bot := &botServer{}
	n := newNotifier(bot.start(t), logging.Discard())

	assert.True(t, n.Send(context.Background(), "hello", "Markdown"))
	require.Len(t, bot.messages, 1)
	assert.Equal(t, map[string]string{"chat_id": "42", "text": "hello", "parse_mode": "Markdown"}, bot.messages[0])
}

func TestSend_OmitsEmptyParseMode(t *testing.T) {
	bot := &botServer{}
	n := newNotifier(bot.start(t), logging.Discard())

	assert.True(t, n.Send(context.Background(), "hello", ""))
	_, ok := bot.messages[0]["parse_mode"]
	assert.False(t, ok)
}

func TestSend_RejectedByAPI(t *testing.T) {
	bot := &botServer{status: http.StatusBadRequest, reply: `{"ok":false,"description":"Bad Request: chat not found"}`}
	rec := logging.NewRecorder()
	n := newNotifier(bot.start(t), rec)

	assert.False(t, n.Send(context.Background(), "hello", ""))
	assert.True(t, rec.Contains("WARN", "Failed to send Telegram notification"))
	assert.Contains(t, rec.String(), "chat not found")
}

func TestSend_MalformedResponse(t *testing.T) {
	bot := &botServer{reply: `<html>oops</html>`}
	n := newNotifier(bot.start(t), logging.Discard())

	assert.False(t, n.Send(context.Background(), "hello", ""))
}

func TestSend_UnreachableRedactsToken(t *testing.T) {
	rec := logging.NewRecorder()
	n := NewTelegram(Options{APIURL: "http://127.0.0.1:1", BotToken: "SECRET123", ChatID: "1", Logger: rec})

	assert.False(t, n.Send(context.Background(), "hello", ""))
	assert.NotContains(t, rec.String(), "SECRET123")
}

func TestNotifyHelpers(t *testing.T) {
	bot := &botServer{}
	n := newNotifier(bot.start(t), logging.Discard())
	ctx := context.Background()

	assert.True(t, n.NotifyStart(ctx, types.ModeGeneric))
	assert.True(t, n.NotifySuccess(ctx, "https://cdn/x.pdf", types.ModeJobDescription))
	assert.True(t, n.NotifyFailure(ctx, "Timeout waiting for PDF generation", types.ModeGeneric))
	assert.True(t, n.NotifyInterrupted(ctx))

	require.Len(t, bot.messages, 4)
	assert.Contains(t, bot.messages[0]["text"], "Mode: Generic Optimisation")
	assert.Contains(t, bot.messages[1]["text"], "PDF URL: https://cdn/x.pdf")
	assert.Contains(t, bot.messages[1]["text"], "Mode: JD-Optimised")
	assert.Contains(t, bot.messages[2]["text"], "Error: Timeout waiting for PDF generation")
	assert.Equal(t, "Pipeline interrupted by user", bot.messages[3]["text"])
}
