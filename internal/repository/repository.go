package repository

import (
	"context"
	"time"

	"github.com/wrongjunior/eventboard/internal/domain"
)

// EventRepository хранит события и указатели на сообщения дашбордов в одной таблице.
// GetEvent и GetDashboard возвращают ошибку errors.NotFound, если записи нет.
type EventRepository interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	PutEvent(ctx context.Context, event domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	GetDashboard(ctx context.Context, role domain.Role) (*domain.DashboardConfig, error)
	PutDashboard(ctx context.Context, cfg domain.DashboardConfig) error
}

// Значения дискриминатора kind.
const (
	kindEvent     = "event"
	kindDashboard = "dashboard"
)

// timeLayout совпадает с Date.toISOString: миллисекунды и суффикс Z.
const timeLayout = "2006-01-02T15:04:05.000Z"

// record хранит строку таблицы: событие либо конфигурацию дашборда.
type record struct {
	ID          string `dynamodbav:"id"`
	Kind        string `dynamodbav:"kind,omitempty"`
	Title       string `dynamodbav:"title,omitempty"`
	Datetime    string `dynamodbav:"datetime,omitempty"`
	Location    string `dynamodbav:"location,omitempty"`
	URL         string `dynamodbav:"url,omitempty"`
	MessageLink string `dynamodbav:"message_link,omitempty"`
	ChannelID   string `dynamodbav:"channelId,omitempty"`
	MessageID   string `dynamodbav:"messageId,omitempty"`
	CreatedAt   string `dynamodbav:"createdAt,omitempty"`
}

// isEvent: записи без kind остались от старых версий и считаются событиями.
func (r record) isEvent() bool {
	return r.Kind == kindEvent || (r.Kind == "" && !domain.IsReservedID(r.ID))
}

func eventRecord(ev domain.Event) record {
	return record{
		ID:          ev.ID,
		Kind:        kindEvent,
		Title:       ev.Title,
		Datetime:    ev.Datetime,
		Location:    ev.Location,
		URL:         ev.URL,
		MessageLink: ev.MessageLink,
		CreatedAt:   formatTime(ev.CreatedAt),
	}
}

func (r record) event() domain.Event {
	return domain.Event{
		ID: r.ID,
		EventOptions: domain.EventOptions{
			Title:       r.Title,
			Datetime:    r.Datetime,
			Location:    r.Location,
			URL:         r.URL,
			MessageLink: r.MessageLink,
		},
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func dashboardRecord(cfg domain.DashboardConfig) record {
	return record{
		ID:        domain.DashboardKey(cfg.Role),
		Kind:      kindDashboard,
		ChannelID: cfg.ChannelID,
		MessageID: cfg.MessageID,
		CreatedAt: formatTime(cfg.CreatedAt),
	}
}

func (r record) dashboard(role domain.Role) domain.DashboardConfig {
	return domain.DashboardConfig{
		Role:      role,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
