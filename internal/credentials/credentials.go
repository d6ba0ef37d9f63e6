// Package credentials provides the bot token used for Discord REST calls.
package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/domain"
)

// Provider выдаёт токен бота.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Static возвращает заранее известный токен.
type Static string

// Token возвращает токен или ошибку, если он пуст.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", domain.E(domain.KindCredential, "static token", fmt.Errorf("token is empty"))
	}
	return string(s), nil
}

// SSMAPI описывает подмножество клиента SSM, которое нужно провайдеру.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMProvider читает токен из SecureString-параметра.
type SSMProvider struct {
	client SSMAPI
	name   string
}

// NewSSMProvider создаёт провайдер для параметра parameterName.
func NewSSMProvider(client SSMAPI, parameterName string) *SSMProvider {
	return &SSMProvider{client: client, name: parameterName}
}

// Token читает параметр с расшифровкой.
func (p *SSMProvider) Token(ctx context.Context) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(p.name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", domain.E(domain.KindCredential, "fetch bot token", err)
	}
	if out.Parameter == nil || strings.TrimSpace(aws.ToString(out.Parameter.Value)) == "" {
		return "", domain.E(domain.KindCredential, "fetch bot token", fmt.Errorf("parameter %s is empty", p.name))
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}

// Cached запрашивает токен у источника один раз за время жизни процесса.
// Ошибки не кэшируются: следующий вызов повторит запрос.
type Cached struct {
	src   Provider
	mu    sync.Mutex
	token string
}

// NewCached оборачивает источник src кэшем.
func NewCached(src Provider) *Cached {
	return &Cached{src: src}
}

// Token возвращает сохранённый токен или запрашивает его у источника.
func (c *Cached) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.src.Token(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

// FromConfig выбирает источник токена: статический токен важнее параметра SSM.
// Результат кэшируется на всё время жизни процесса.
func FromConfig(cfg config.DiscordConfig, awsCfg aws.Config) *Cached {
	if cfg.BotToken != "" {
		return NewCached(Static(cfg.BotToken))
	}
	return NewCached(NewSSMProvider(ssm.NewFromConfig(awsCfg), cfg.TokenParameter))
}

// NeedsAWS сообщает, нужен ли AWS для получения токена.
func NeedsAWS(cfg config.DiscordConfig) bool {
	return cfg.BotToken == "" && cfg.TokenParameter != ""
}
