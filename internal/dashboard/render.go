// Package dashboard renders the event list into dashboard message text.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/wrongjunior/eventboard/internal/domain"
)

// NoEventsText возвращается вместо пустого тела.
const NoEventsText = "📭 No events are currently scheduled."

const (
	adminHeading  = "📋 **Event list (admin)**"
	publicHeading = "📅 **Upcoming events**"
)

// Форматы, в которых пользователи обычно вводят дату.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006/01/02",
	"2006/1/2",
	"2006-01-02",
}

// ParseDatetime пытается разобрать пользовательскую дату.
func ParseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sort упорядочивает события по дате. Неразобранные даты идут в конце
// в исходном порядке.
func Sort(events []domain.Event) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]key, len(events))
	for _, ev := range events {
		t, ok := ParseDatetime(ev.Datetime)
		keys[ev.ID] = key{t, ok}
	}
	sort.SliceStable(events, func(i, j int) bool {
		a, b := keys[events[i].ID], keys[events[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.t.Before(b.t)
	})
}

// Render формирует текст дашборда для роли.
func Render(events []domain.Event, role domain.Role) string {
	visible := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if !domain.IsReservedID(ev.ID) {
			visible = append(visible, ev)
		}
	}
	if len(visible) == 0 {
		return NoEventsText
	}
	Sort(visible)

	var b strings.Builder
	if role == domain.RoleAdmin {
		b.WriteString(adminHeading)
	} else {
		b.WriteString(publicHeading)
	}
	b.WriteString("\n")

	for _, ev := range visible {
		b.WriteString("\n**")
		b.WriteString(ev.Title)
		b.WriteString("**\n🕒 ")
		b.WriteString(ev.Datetime)
		b.WriteString("\n")
		if ev.Location != "" {
			b.WriteString("📍 " + ev.Location + "\n")
		}
		if role == domain.RoleAdmin {
			b.WriteString("🆔 `" + ev.ID + "`\n")
		}
		if ev.URL != "" {
			b.WriteString("🔗 " + ev.URL + "\n")
		}
		if ev.MessageLink != "" {
			b.WriteString("💬 " + ev.MessageLink + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
