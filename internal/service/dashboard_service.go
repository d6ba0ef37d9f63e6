package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juju/errors"

	"github.com/wrongjunior/eventboard/internal/dashboard"
	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/domain"
	"github.com/wrongjunior/eventboard/internal/metrics"
	"github.com/wrongjunior/eventboard/internal/repository"
)

// PlaceholderText публикуется при создании дашборда до первой отрисовки.
const PlaceholderText = "⏳ Preparing dashboard..."

// Messenger отправляет и редактирует сообщения каналов.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, content string, suppressEmbeds bool) (*discord.Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
}

// Publisher получает снимки публичного дашборда (WebSocket-лента).
type Publisher interface {
	Publish(snapshot domain.DashboardSnapshot)
}

// DashboardService создаёт и обновляет сообщения дашбордов.
type DashboardService struct {
	repo      repository.EventRepository
	messenger Messenger
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewDashboardService создаёт сервис. publisher может быть nil.
func NewDashboardService(repo repository.EventRepository, messenger Messenger, publisher Publisher, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		repo:      repo,
		messenger: messenger,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Setup публикует два новых сообщения-заглушки, сохраняет их адреса и сразу
// отрисовывает актуальное содержимое. Повторная настройка перезаписывает адреса.
func (s *DashboardService) Setup(ctx context.Context, adminChannelID, publicChannelID string) error {
	channels := map[domain.Role]string{
		domain.RoleAdmin:  adminChannelID,
		domain.RolePublic: publicChannelID,
	}
	for _, role := range domain.Roles {
		msg, err := s.messenger.SendMessage(ctx, channels[role], PlaceholderText, true)
		if err != nil {
			return fmt.Errorf("create %s dashboard: %w", role, err)
		}
		cfg := domain.DashboardConfig{
			Role:      role,
			ChannelID: channels[role],
			MessageID: msg.ID,
			CreatedAt: s.now().UTC(),
		}
		if err := s.repo.PutDashboard(ctx, cfg); err != nil {
			return fmt.Errorf("save %s dashboard: %w", role, err)
		}
		s.logger.Info("Dashboard created", "role", role, "channel_id", cfg.ChannelID, "message_id", cfg.MessageID)
	}
	return s.Refresh(ctx)
}

// Refresh перерисовывает оба дашборда. Дашборды обновляются независимо:
// ошибка одного не откатывает и не останавливает другой.
func (s *DashboardService) Refresh(ctx context.Context) error {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("refresh dashboards: %w", err)
	}

	var errs []error
	for _, role := range domain.Roles {
		content := dashboard.Render(events, role)
		if role == domain.RolePublic && s.publisher != nil {
			s.publisher.Publish(domain.DashboardSnapshot{Role: role, Content: content, UpdatedAt: s.now().UTC()})
		}
		if err := s.refreshOne(ctx, role, content); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (s *DashboardService) refreshOne(ctx context.Context, role domain.Role, content string) error {
	cfg, err := s.repo.GetDashboard(ctx, role)
	if errors.Is(err, errors.NotFound) {
		s.logger.Debug("Dashboard is not set up", "role", role)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s dashboard: %w", role, err)
	}

	err = s.messenger.EditMessage(ctx, cfg.ChannelID, cfg.MessageID, content)
	metrics.ObserveDashboardRefresh(string(role), err == nil)
	if err != nil {
		s.logger.Error("Dashboard update failed", "role", role, "error", err)
		return fmt.Errorf("update %s dashboard: %w", role, err)
	}
	return nil
}
