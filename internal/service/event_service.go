package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/wrongjunior/eventboard/internal/domain"
	"github.com/wrongjunior/eventboard/internal/repository"
)

// EventService реализует операции над событиями поверх репозитория.
type EventService struct {
	repo   repository.EventRepository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewEventService создаёт новый экземпляр сервиса.
func NewEventService(repo repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// List возвращает все события.
func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

// Add создаёт событие с новым id и временем создания.
func (s *EventService) Add(ctx context.Context, opts domain.EventOptions) (*domain.Event, error) {
	if strings.TrimSpace(opts.Title) == "" || strings.TrimSpace(opts.Datetime) == "" {
		return nil, errors.NotValidf("event without title or datetime")
	}
	event := domain.Event{
		ID:           s.newID(),
		EventOptions: opts,
		CreatedAt:    s.now().UTC(),
	}
	if domain.IsReservedID(event.ID) {
		return nil, errors.Errorf("generated id %q collides with a reserved key", event.ID)
	}
	if err := s.repo.PutEvent(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Info("Event added", "event_id", event.ID, "title", event.Title)
	return &event, nil
}

// Update применяет частичное обновление. Если события нет, возвращает errors.NotFound
// и ничего не записывает. Чтение и запись не атомарны: побеждает последняя запись.
func (s *EventService) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	if domain.IsReservedID(id) {
		return nil, errors.NotFoundf("event %q", id)
	}
	existing, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*existing)
	if err := s.repo.PutEvent(ctx, updated); err != nil {
		return nil, err
	}
	s.logger.Info("Event updated", "event_id", id)
	return &updated, nil
}

// Delete удаляет событие. Отсутствующий id ошибкой не считается.
// Зарезервированные ключи конфигурации не удаляются.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if domain.IsReservedID(id) {
		s.logger.Warn("Refusing to delete reserved key", "event_id", id)
		return nil
	}
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Event deleted", "event_id", id)
	return nil
}
