package discord

import (
	"encoding/json"
	"strconv"
)

// Типы входящих взаимодействий.
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
)

// Типы ответов на взаимодействие.
const (
	ResponsePong                   = 1
	ResponseChannelMessage         = 4
	ResponseDeferredChannelMessage = 5
)

// Флаги сообщений.
const (
	MessageFlagSuppressEmbeds = 1 << 2
)

// Типы опций и команд в схеме.
const (
	OptionTypeSubCommand            = 1
	OptionTypeString                = 3
	OptionTypeChannel               = 7
	ApplicationCommandTypeChatInput = 1
)

// Interaction это тело запроса, которое Discord присылает на вебхук.
type Interaction struct {
	ID            string       `json:"id"`
	ApplicationID string       `json:"application_id"`
	Type          int          `json:"type"`
	Token         string       `json:"token"`
	Data          *CommandData `json:"data,omitempty"`
}

// CommandData содержит имя команды и дерево опций.
type CommandData struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Options []Option `json:"options,omitempty"`
}

// Option является узлом дерева опций: подкомандой или аргументом.
type Option struct {
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Options []Option        `json:"options,omitempty"`
}

// StringValue возвращает значение аргумента строкой. Числа и булевы значения
// приводятся к их текстовому виду.
func (o Option) StringValue() (string, bool) {
	if len(o.Value) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(o.Value, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(o.Value, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(o.Value, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// InteractionResponse отправляется в ответ на вебхук.
type InteractionResponse struct {
	Type int           `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData содержит текст ответа и флаги сообщения.
type ResponseData struct {
	Content string `json:"content,omitempty"`
	Flags   int    `json:"flags,omitempty"`
}

// Pong отвечает на проверку доступности.
func Pong() *InteractionResponse {
	return &InteractionResponse{Type: ResponsePong}
}

// ChannelMessage формирует немедленный ответ с текстом.
func ChannelMessage(content string) *InteractionResponse {
	return &InteractionResponse{Type: ResponseChannelMessage, Data: &ResponseData{Content: content}}
}

// Deferred резервирует ответ; содержимое придёт позже через EditOriginalResponse.
func Deferred() *InteractionResponse {
	return &InteractionResponse{Type: ResponseDeferredChannelMessage}
}
