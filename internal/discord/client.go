package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wrongjunior/eventboard/internal/domain"
	"github.com/wrongjunior/eventboard/internal/metrics"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 4096
)

// TokenSource выдаёт токен бота.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// DeliveryError возвращается, когда Discord ответил неуспешным статусом.
type DeliveryError struct {
	Op     string
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("discord %s failed: status %d: %s", e.Op, e.Status, e.Body)
}

// Message описывает созданное сообщение канала.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
}

// ClientConfig настраивает REST-клиент Discord.
type ClientConfig struct {
	BaseURL       string
	ApplicationID string
	Tokens        TokenSource
	HTTPClient    *http.Client
	RateLimit     float64
	RateBurst     int
	Logger        *slog.Logger
}

// Client отправляет и редактирует сообщения через REST API Discord.
type Client struct {
	baseURL       string
	applicationID string
	tokens        TokenSource
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *slog.Logger
}

// NewClient создаёт клиент. Лимитер ограничивает частоту исходящих запросов.
func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		applicationID: cfg.ApplicationID,
		tokens:        cfg.Tokens,
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(limit, burst),
		logger:        cfg.Logger,
	}
}

type messagePayload struct {
	Content string `json:"content"`
	Flags   int    `json:"flags,omitempty"`
}

// SendMessage публикует сообщение в канале.
func (c *Client) SendMessage(ctx context.Context, channelID, content string, suppressEmbeds bool) (*Message, error) {
	payload := messagePayload{Content: content}
	if suppressEmbeds {
		payload.Flags = MessageFlagSuppressEmbeds
	}
	var msg Message
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	if err := c.do(ctx, "send_message", http.MethodPost, path, payload, &msg); err != nil {
		return nil, tag(domain.KindChannel, "send message", err)
	}
	return &msg, nil
}

// EditMessage заменяет текст существующего сообщения.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	path := "/channels/" + url.PathEscape(channelID) + "/messages/" + url.PathEscape(messageID)
	if err := c.do(ctx, "edit_message", http.MethodPatch, path, messagePayload{Content: content}, nil); err != nil {
		return tag(domain.KindDashboard, "edit message", err)
	}
	return nil
}

// EditOriginalResponse заполняет отложенный ответ на взаимодействие.
// Пустой applicationID заменяется настроенным.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, token, content string) error {
	if applicationID == "" {
		applicationID = c.applicationID
	}
	path := "/webhooks/" + url.PathEscape(applicationID) + "/" + url.PathEscape(token) + "/messages/@original"
	if err := c.do(ctx, "edit_original_response", http.MethodPatch, path, messagePayload{Content: content}, nil); err != nil {
		return tag(domain.KindDelivery, "edit original response", err)
	}
	return nil
}

// BulkOverwriteCommands заменяет все глобальные команды приложения.
func (c *Client) BulkOverwriteCommands(ctx context.Context, commands []ApplicationCommand) ([]ApplicationCommand, error) {
	if c.applicationID == "" {
		return nil, domain.E(domain.KindDelivery, "register commands", fmt.Errorf("application id is not set"))
	}
	var registered []ApplicationCommand
	path := "/applications/" + url.PathEscape(c.applicationID) + "/commands"
	if err := c.do(ctx, "bulk_overwrite_commands", http.MethodPut, path, commands, &registered); err != nil {
		return nil, tag(domain.KindDelivery, "register commands", err)
	}
	return registered, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveDiscordRequest(op, 0)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveDiscordRequest(op, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		derr := &DeliveryError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
		c.logger.Error("Discord request failed", "op", op, "status", resp.StatusCode, "body", derr.Body)
		return derr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// tag помечает ошибку видом, не перекрывая ошибку получения токена.
func tag(kind domain.Kind, op string, err error) error {
	if domain.KindOf(err) == domain.KindCredential {
		return err
	}
	return domain.E(kind, op, err)
}
