package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrongjunior/eventboard/internal/command"
	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/credentials"
	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/repository"
	"github.com/wrongjunior/eventboard/internal/repository/repotest"
	"github.com/wrongjunior/eventboard/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type signer struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newSigner(t *testing.T) *signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &signer{pub: pub, priv: priv}
}

func (s *signer) publicHex() string { return hex.EncodeToString(s.pub) }

func (s *signer) request(t *testing.T, path, body string) *http.Request {
	t.Helper()
	ts := "1700000000"
	sig := ed25519.Sign(s.priv, []byte(ts+body))
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(HeaderSignature, hex.EncodeToString(sig))
	req.Header.Set(HeaderTimestamp, ts)
	return req
}

type fakeDispatcher struct {
	calls  int
	result command.Result
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, in *discord.Interaction) command.Result {
	f.calls++
	if in.Type == discord.InteractionPing {
		return command.Result{Response: discord.Pong()}
	}
	return f.result
}

// recordingRunner проверяет, что подтверждение уже отправлено к моменту запуска задачи.
type recordingRunner struct {
	rec       *httptest.ResponseRecorder
	tasks     []string
	sawFlush  bool
	sawStatus int
}

func (r *recordingRunner) Go(name string, task func(ctx context.Context)) {
	r.tasks = append(r.tasks, name)
	r.sawFlush = r.rec.Flushed
	r.sawStatus = r.rec.Code
}

func TestHandlerRejectsBadSignature(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{}
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), d, &recordingRunner{}, testLogger())

	for name, mutate := range map[string]func(*http.Request){
		"tampered signature": func(r *http.Request) { r.Header.Set(HeaderSignature, strings.Repeat("00", 64)) },
		"missing signature":  func(r *http.Request) { r.Header.Del(HeaderSignature) },
		"other timestamp":    func(r *http.Request) { r.Header.Set(HeaderTimestamp, "1700000001") },
	} {
		t.Run(name, func(t *testing.T) {
			req := s.request(t, "/interactions", `{"type":1}`)
			mutate(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Invalid signature", rec.Body.String())
		})
	}
	assert.Zero(t, d.calls)
}

func TestHandlerWithoutKeyFailsClosed(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{}
	h := NewHandler(discord.NewVerifier("", testLogger()), d, &recordingRunner{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, "/interactions", `{"type":1}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, d.calls)
}

func TestHandlerPing(t *testing.T) {
	s := newSigner(t)
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), &fakeDispatcher{}, &recordingRunner{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, "/interactions", `{"type":1}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":1}`, rec.Body.String())
}

func TestHandlerBadJSON(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{}
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), d, &recordingRunner{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, "/interactions", `{"type":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", rec.Body.String())
	assert.Zero(t, d.calls)
}

func TestHandlerBodyTooLarge(t *testing.T) {
	s := newSigner(t)
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), &fakeDispatcher{}, &recordingRunner{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, "/interactions", strings.Repeat("a", maxBodyBytes+1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUnmatched(t *testing.T) {
	s := newSigner(t)
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), &fakeDispatcher{}, &recordingRunner{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, s.request(t, "/interactions", `{"type":2,"data":{"name":"unknown"}}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerDeferredRunsAfterAck(t *testing.T) {
	s := newSigner(t)
	d := &fakeDispatcher{result: command.Result{
		Response: discord.Deferred(),
		Task:     "events add",
		Deferred: func(context.Context) {},
	}}
	rec := httptest.NewRecorder()
	runner := &recordingRunner{rec: rec}
	h := NewHandler(discord.NewVerifier(s.publicHex(), testLogger()), d, runner, testLogger())

	h.ServeHTTP(rec, s.request(t, "/interactions", `{"type":2,"data":{"name":"events"}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":5}`, rec.Body.String())
	assert.Equal(t, []string{"events add"}, runner.tasks)
	assert.True(t, runner.sawFlush)
	assert.Equal(t, http.StatusOK, runner.sawStatus)
}

// fakeDiscordAPI записывает запросы к REST API.
type fakeDiscordAPI struct {
	mu       sync.Mutex
	requests []string
	contents map[string]string
	next     int
}

func (f *fakeDiscordAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.Method + " " + r.URL.EscapedPath()
	f.requests = append(f.requests, key)
	f.contents[key] = body.Content
	f.next++
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"id":"m-`+strconv.Itoa(f.next)+`","content":""}`)
}

func (f *fakeDiscordAPI) content(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contents[key]
	return c, ok
}

func TestRouterDeferredAddEndToEnd(t *testing.T) {
	s := newSigner(t)
	logger := testLogger()

	api := &fakeDiscordAPI{contents: map[string]string{}}
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	client := discord.NewClient(discord.ClientConfig{
		BaseURL:       apiSrv.URL,
		ApplicationID: "app",
		Tokens:        credentials.NewCached(credentials.Static("bot-token")),
		Logger:        logger,
	})
	repo := repository.NewDynamoDBRepository(repotest.NewDynamoDBServer(), "events")
	events := service.NewEventService(repo, logger)
	feed := NewFeed(logger)
	feed.Run()
	t.Cleanup(feed.Shutdown)
	dashboards := service.NewDashboardService(repo, client, feed, logger)
	runner := service.NewRunner(logger)
	dispatcher := command.NewDispatcher(events, dashboards, client, logger)

	cfg := config.Default().Server
	router := SetupRouter(cfg, NewHandler(discord.NewVerifier(s.publicHex(), logger), dispatcher, runner, logger), feed, logger)

	body := `{"type":2,"application_id":"app","token":"itok","data":{"name":"events","options":[
		{"name":"add","type":1,"options":[
			{"name":"title","type":3,"value":"Meetup"},
			{"name":"datetime","type":3,"value":"2025/10/01 10:00"}]}]}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, s.request(t, cfg.InteractionsPath, body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":5}`, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))

	content, ok := api.content("PATCH /webhooks/app/itok/messages/@original")
	require.True(t, ok, "deferred response was not delivered: %v", api.requests)
	assert.Contains(t, content, "Meetup")

	listed, err := events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Meetup", listed[0].Title)
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := SetupRouter(config.Default().Server, http.NotFoundHandler(), nil, testLogger())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventboard_http_requests_total")
}
