package domain

import (
	"strings"
	"time"
)

// Role определяет, для кого отрисовывается дашборд.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePublic Role = "public"
)

// Roles перечисляет оба дашборда в порядке обновления.
var Roles = []Role{RoleAdmin, RolePublic}

// Зарезервированные ключи записей конфигурации дашбордов.
// Символ '#' не встречается в UUID, поэтому идентификаторы событий с ними не пересекаются.
const (
	AdminDashboardKey  = "dashboard#admin"
	PublicDashboardKey = "dashboard#public"
)

// DashboardKey возвращает зарезервированный ключ для роли.
func DashboardKey(role Role) string {
	if role == RoleAdmin {
		return AdminDashboardKey
	}
	return PublicDashboardKey
}

// IsReservedID сообщает, занят ли id записью конфигурации.
func IsReservedID(id string) bool {
	return id == AdminDashboardKey || id == PublicDashboardKey
}

// EventOptions содержит поля события, которые задаёт пользователь.
type EventOptions struct {
	Title       string `json:"title"`
	Datetime    string `json:"datetime"`
	Location    string `json:"location,omitempty"`
	URL         string `json:"url,omitempty"`
	MessageLink string `json:"message_link,omitempty"`
}

// Event представляет сохранённое событие.
type Event struct {
	ID string `json:"id"`
	EventOptions
	CreatedAt time.Time `json:"createdAt"`
}

// EventPatch описывает частичное обновление: nil-поля не меняются.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Datetime    *string `json:"datetime,omitempty"`
	Location    *string `json:"location,omitempty"`
	URL         *string `json:"url,omitempty"`
	MessageLink *string `json:"message_link,omitempty"`
}

// PatchFromArgs собирает патч из аргументов команды, пропуская пустые значения.
func PatchFromArgs(args map[string]string) EventPatch {
	pick := func(name string) *string {
		v, ok := args[name]
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		return &v
	}
	return EventPatch{
		Title:       pick("title"),
		Datetime:    pick("datetime"),
		Location:    pick("location"),
		URL:         pick("url"),
		MessageLink: pick("message_link"),
	}
}

// IsEmpty возвращает true, если патч ничего не меняет.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Datetime == nil && p.Location == nil && p.URL == nil && p.MessageLink == nil
}

// Apply возвращает копию события с применённым патчем.
func (p EventPatch) Apply(ev Event) Event {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Datetime != nil {
		ev.Datetime = *p.Datetime
	}
	if p.Location != nil {
		ev.Location = *p.Location
	}
	if p.URL != nil {
		ev.URL = *p.URL
	}
	if p.MessageLink != nil {
		ev.MessageLink = *p.MessageLink
	}
	return ev
}

// DashboardConfig указывает на закреплённое сообщение дашборда.
type DashboardConfig struct {
	Role      Role      `json:"role"`
	ChannelID string    `json:"channelId"`
	MessageID string    `json:"messageId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DashboardSnapshot рассылается подписчикам ленты после каждой отрисовки публичного дашборда.
type DashboardSnapshot struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}
