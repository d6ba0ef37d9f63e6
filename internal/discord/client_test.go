package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrongjunior/eventboard/internal/domain"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) { return s.token, s.err }

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeDiscord struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	reply    string
}

func (f *fakeDiscord) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	status, reply := f.status, f.reply
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, reply)
}

func newTestClient(t *testing.T, f *fakeDiscord, tokens TokenSource) *Client {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{
		BaseURL:       srv.URL + "/api/v10",
		ApplicationID: "app-1",
		Tokens:        tokens,
		RateLimit:     100,
		RateBurst:     10,
		Logger:        discardLogger(),
	})
}

func TestClientSendMessage(t *testing.T) {
	f := &fakeDiscord{reply: `{"id":"m-1","channel_id":"c-1","content":"hi"}`}
	c := newTestClient(t, f, staticTokens{token: "secret"})

	msg, err := c.SendMessage(context.Background(), "c-1", "hi", true)
	require.NoError(t, err)
	assert.Equal(t, "m-1", msg.ID)

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v10/channels/c-1/messages", req.Path)
	assert.Equal(t, "Bot secret", req.Auth)
	assert.Equal(t, "hi", req.Body["content"])
	assert.EqualValues(t, MessageFlagSuppressEmbeds, req.Body["flags"])
}

func TestClientEditCalls(t *testing.T) {
	f := &fakeDiscord{reply: `{}`}
	c := newTestClient(t, f, staticTokens{token: "secret"})
	ctx := context.Background()

	require.NoError(t, c.EditMessage(ctx, "c-1", "m-1", "updated"))
	require.NoError(t, c.EditOriginalResponse(ctx, "", "tok", "done"))
	require.NoError(t, c.EditOriginalResponse(ctx, "app-2", "tok", "done"))

	require.Len(t, f.requests, 3)
	assert.Equal(t, http.MethodPatch, f.requests[0].Method)
	assert.Equal(t, "/api/v10/channels/c-1/messages/m-1", f.requests[0].Path)
	assert.Equal(t, "updated", f.requests[0].Body["content"])
	assert.Equal(t, "/api/v10/webhooks/app-1/tok/messages/@original", f.requests[1].Path)
	assert.Equal(t, "/api/v10/webhooks/app-2/tok/messages/@original", f.requests[2].Path)
}

func TestClientDeliveryErrors(t *testing.T) {
	f := &fakeDiscord{status: http.StatusForbidden, reply: `{"message": "Missing Access", "code": 50001}`}
	c := newTestClient(t, f, staticTokens{token: "secret"})
	ctx := context.Background()

	_, err := c.SendMessage(ctx, "c-1", "hi", false)
	require.Error(t, err)
	assert.Equal(t, domain.KindChannel, domain.KindOf(err))

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, http.StatusForbidden, derr.Status)
	assert.Contains(t, derr.Body, "Missing Access")

	err = c.EditMessage(ctx, "c-1", "m-1", "x")
	assert.Equal(t, domain.KindDashboard, domain.KindOf(err))

	err = c.EditOriginalResponse(ctx, "", "tok", "x")
	assert.Equal(t, domain.KindDelivery, domain.KindOf(err))
}

func TestClientKeepsCredentialKind(t *testing.T) {
	f := &fakeDiscord{}
	tokenErr := domain.E(domain.KindCredential, "fetch bot token", errors.New("parameter not found"))
	c := newTestClient(t, f, staticTokens{err: tokenErr})

	_, err := c.SendMessage(context.Background(), "c-1", "hi", false)
	assert.Equal(t, domain.KindCredential, domain.KindOf(err))
	assert.Empty(t, f.requests)
}

func TestClientBulkOverwriteCommands(t *testing.T) {
	f := &fakeDiscord{reply: `[{"id":"1","name":"events","description":"Manage events"}]`}
	c := newTestClient(t, f, staticTokens{token: "secret"})

	registered, err := c.BulkOverwriteCommands(context.Background(), EventCommands())
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, "1", registered[0].ID)
	assert.Equal(t, http.MethodPut, f.requests[0].Method)
	assert.Equal(t, "/api/v10/applications/app-1/commands", f.requests[0].Path)
}

func TestEventCommandsSchema(t *testing.T) {
	cmds := EventCommands()
	require.Len(t, cmds, 1)
	subs := map[string]ApplicationCommandOption{}
	for _, o := range cmds[0].Options {
		subs[o.Name] = o
	}
	require.Len(t, subs, 5)
	assert.Len(t, subs[SubCommandAdd].Options, 5)
	assert.Empty(t, subs[SubCommandList].Options)
	assert.True(t, subs[SubCommandDelete].Options[0].Required)
	for _, o := range subs[SubCommandSetup].Options {
		assert.Equal(t, OptionTypeChannel, o.Type)
		assert.True(t, o.Required)
	}
}

func TestOptionStringValueUnmarshalled(t *testing.T) {
	var opts []Option
	require.NoError(t, json.Unmarshal([]byte(`[
		{"name":"title","type":3,"value":"Meetup"},
		{"name":"count","type":4,"value":42},
		{"name":"flag","type":5,"value":true},
		{"name":"none","type":3}
	]`), &opts))

	v, ok := opts[0].StringValue()
	assert.True(t, ok)
	assert.Equal(t, "Meetup", v)
	v, _ = opts[1].StringValue()
	assert.Equal(t, "42", v)
	v, _ = opts[2].StringValue()
	assert.Equal(t, "true", v)
	_, ok = opts[3].StringValue()
	assert.False(t, ok)
}
