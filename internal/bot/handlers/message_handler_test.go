package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tmazur/personabot/internal/ai"
	"github.com/tmazur/personabot/internal/config"
	"github.com/tmazur/personabot/internal/database"
)

// fakeStore is an in-memory Store recording every interaction.
type fakeStore struct {
	mu          sync.Mutex
	blacklisted map[int64]bool
	records     map[database.IdentityKey]*database.UserRecord
	loads       int
	saved       []*database.UserRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blacklisted: make(map[int64]bool),
		records:     make(map[database.IdentityKey]*database.UserRecord),
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) LoadUserRecord(_ context.Context, chatID, userID int64) *database.UserRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if rec, ok := f.records[database.IdentityKey{ChatID: chatID, UserID: userID}]; ok {
		return rec
	}
	return database.NewUserRecord(chatID, userID)
}

func (f *fakeStore) SaveUserRecord(_ context.Context, rec *database.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Key()] = rec
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeStore) ListIdentityKeys(context.Context) ([]database.IdentityKey, error) {
	return nil, nil
}

func (f *fakeStore) IsBlacklisted(_ context.Context, userID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blacklisted[userID]
}

func (f *fakeStore) Ban(context.Context, int64) (bool, error)   { return false, nil }
func (f *fakeStore) Unban(context.Context, int64) (bool, error) { return false, nil }
func (f *fakeStore) ListBlacklist(context.Context) ([]int64, error) {
	return nil, nil
}
func (f *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

// fakeAIClient returns a canned reply or a canned error.
type fakeAIClient struct {
	reply string
	err   error
}

func (f *fakeAIClient) Complete(context.Context, []ai.Message) (string, error) {
	return f.reply, f.err
}

// telegramAPIStub fakes the Telegram HTTP API and records the text of every
// sendMessage call.
type telegramAPIStub struct {
	mu        sync.Mutex
	sentTexts []string
}

func (s *telegramAPIStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		var result string
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			s.mu.Lock()
			s.sentTexts = append(s.sentTexts, sentText(r, body))
			s.mu.Unlock()
			result = `{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}`
		case strings.HasSuffix(r.URL.Path, "/getUserProfilePhotos"):
			result = `{"total_count":0,"photos":[]}`
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			result = `{"id":999,"is_bot":true,"first_name":"bot","username":"mybot"}`
		default:
			result = `true`
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":` + result + `}`))
	}
}

// sentText extracts the "text" parameter from a sendMessage request body,
// accepting either a JSON or a form-encoded payload.
func sentText(r *http.Request, body []byte) string {
	var params struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &params); err == nil && params.Text != "" {
		return params.Text
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return r.FormValue("text")
}

func (s *telegramAPIStub) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sentTexts...)
}

type pipelineFixture struct {
	handler tgbot.HandlerFunc
	bot     *tgbot.Bot
	store   *fakeStore
	api     *telegramAPIStub
}

func newPipelineFixture(t *testing.T, aiClient ai.Client) *pipelineFixture {
	t.Helper()

	api := &telegramAPIStub{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	b, err := tgbot.New("123:test",
		tgbot.WithServerURL(srv.URL),
		tgbot.WithSkipGetMe(),
	)
	if err != nil {
		t.Fatalf("creating bot: %v", err)
	}

	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			BotInfo: &models.User{ID: 999, Username: "mybot"},
		},
		AI: config.AIConfig{Instruction: "persona"},
		Bot: config.BotConfig{
			ReplyDelay: 0,
			Messages:   config.DefaultBotMessages,
		},
	}

	store := newFakeStore()
	deps := HandlerDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:   cfg,
		Store:    store,
		AIClient: aiClient,
	}

	return &pipelineFixture{
		handler: NewMessageHandler(deps),
		bot:     b,
		store:   store,
		api:     api,
	}
}

func privateMessage(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   1,
			Text: text,
			From: &models.User{ID: 2, FirstName: "Alice", Username: "alice"},
			Chat: models.Chat{ID: 1, Type: models.ChatTypePrivate},
		},
	}
}

func TestMessagePipeline_SegmentsGeneratedReply(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t, &fakeAIClient{reply: "Hi there! How are you? I'm fine."})
	fx.handler(context.Background(), fx.bot, privateMessage("hello"))

	want := []string{"Hi there!", "How are you?", "I'm fine."}
	got := fx.api.sent()
	if len(got) != len(want) {
		t.Fatalf("sent %d chunks %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMessagePipeline_FallbackIsSingleChunk(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t, &fakeAIClient{err: errors.New("service unavailable")})
	fx.handler(context.Background(), fx.bot, privateMessage("hello"))

	got := fx.api.sent()
	if len(got) != 1 {
		t.Fatalf("sent %d chunks %v, want exactly 1 fallback chunk", len(got), got)
	}
	if got[0] != config.DefaultBotMessages.Fallback {
		t.Errorf("chunk = %q, want the fallback text", got[0])
	}

	// The fallback still lands in the transcript as an assistant turn.
	rec := fx.store.records[database.IdentityKey{ChatID: 1, UserID: 2}]
	if rec == nil {
		t.Fatal("record was not saved")
	}
	last := rec.Transcript[len(rec.Transcript)-1]
	if last.Role != database.RoleAssistant || last.Content != config.DefaultBotMessages.Fallback {
		t.Errorf("last turn = (%s, %q), want the fallback as an assistant turn", last.Role, last.Content)
	}
}

func TestMessagePipeline_BlacklistedUserIsSilentlyIgnored(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t, &fakeAIClient{reply: "should never be sent"})
	fx.store.blacklisted[2] = true

	fx.handler(context.Background(), fx.bot, privateMessage("hello"))

	if got := fx.api.sent(); len(got) != 0 {
		t.Errorf("sent %v, want no messages to a blacklisted user", got)
	}
	if fx.store.loads != 0 {
		t.Errorf("record loads = %d, want 0 after the gate check", fx.store.loads)
	}
	if len(fx.store.saved) != 0 {
		t.Errorf("record saves = %d, want 0 for a blacklisted user", len(fx.store.saved))
	}
}
