package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/juju/errors"

	"github.com/wrongjunior/eventboard/internal/dashboard"
	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/domain"
	"github.com/wrongjunior/eventboard/internal/metrics"
)

// EventStore описывает операции над событиями, которые нужны командам.
type EventStore interface {
	List(ctx context.Context) ([]domain.Event, error)
	Add(ctx context.Context, opts domain.EventOptions) (*domain.Event, error)
	Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id string) error
}

// Dashboards создаёт и перерисовывает сообщения дашбордов.
type Dashboards interface {
	Setup(ctx context.Context, adminChannelID, publicChannelID string) error
	Refresh(ctx context.Context) error
}

// Responder дописывает отложенный ответ на взаимодействие.
type Responder interface {
	EditOriginalResponse(ctx context.Context, applicationID, token, content string) error
}

// Result содержит итог разбора взаимодействия.
//
// Response == nil означает, что команда не распознана. Deferred, если задан,
// запускается только после того, как Response отправлен клиенту.
type Result struct {
	Response *discord.InteractionResponse
	Task     string
	Deferred func(ctx context.Context)
}

// Исходы для метрик.
const (
	outcomeOK      = "ok"
	outcomeWarning = "warning"
	outcomeError   = "error"
)

// Dispatcher маршрутизирует команду /events по подкомандам.
type Dispatcher struct {
	events     EventStore
	dashboards Dashboards
	responder  Responder
	logger     *slog.Logger
}

// NewDispatcher создаёт диспетчер команд.
func NewDispatcher(events EventStore, dashboards Dashboards, responder Responder, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		events:     events,
		dashboards: dashboards,
		responder:  responder,
		logger:     logger,
	}
}

// Dispatch разбирает проверенное взаимодействие и возвращает ответ.
func (d *Dispatcher) Dispatch(ctx context.Context, in *discord.Interaction) Result {
	switch in.Type {
	case discord.InteractionPing:
		return Result{Response: discord.Pong()}
	case discord.InteractionApplicationCommand:
	default:
		d.logger.Warn("Unsupported interaction type", "type", in.Type)
		return Result{}
	}

	if in.Data == nil || in.Data.Name != discord.CommandEvents {
		d.logger.Warn("Unknown command", "interaction_id", in.ID)
		return Result{}
	}
	if len(in.Data.Options) == 0 {
		metrics.ObserveInteraction("", outcomeWarning)
		return Result{Response: discord.ChannelMessage(MsgNoSubCommand)}
	}

	sub := in.Data.Options[0]
	args := flatten(sub.Options)
	d.logger.Info("Command received", "subcommand", sub.Name, "interaction_id", in.ID)

	switch sub.Name {
	case discord.SubCommandList:
		return d.list(ctx)
	case discord.SubCommandAdd:
		return d.deferred(in, sub.Name, func(ctx context.Context) (string, string) {
			return d.add(ctx, args)
		})
	case discord.SubCommandDelete:
		id := strings.TrimSpace(args[discord.ArgEventID])
		if id == "" {
			metrics.ObserveInteraction(sub.Name, outcomeWarning)
			return Result{Response: discord.ChannelMessage(MsgMissingEventID)}
		}
		return d.deferred(in, sub.Name, func(ctx context.Context) (string, string) {
			return d.delete(ctx, id)
		})
	case discord.SubCommandUpdate:
		id := strings.TrimSpace(args[discord.ArgEventID])
		if id == "" {
			metrics.ObserveInteraction(sub.Name, outcomeWarning)
			return Result{Response: discord.ChannelMessage(MsgMissingEventID)}
		}
		patch := domain.PatchFromArgs(args)
		if patch.IsEmpty() {
			metrics.ObserveInteraction(sub.Name, outcomeWarning)
			return Result{Response: discord.ChannelMessage(MsgNothingToUpdate)}
		}
		return d.deferred(in, sub.Name, func(ctx context.Context) (string, string) {
			return d.update(ctx, id, patch)
		})
	case discord.SubCommandSetup:
		admin := strings.TrimSpace(args[discord.ArgAdminChannel])
		public := strings.TrimSpace(args[discord.ArgPublicChannel])
		if admin == "" || public == "" {
			metrics.ObserveInteraction(sub.Name, outcomeWarning)
			return Result{Response: discord.ChannelMessage(MsgMissingChannels)}
		}
		return d.deferred(in, sub.Name, func(ctx context.Context) (string, string) {
			return d.setup(ctx, admin, public)
		})
	}

	d.logger.Warn("Unknown subcommand", "subcommand", sub.Name)
	return Result{}
}

// flatten сворачивает аргументы подкоманды в map. При повторе имени
// остаётся первое значение.
func flatten(opts []discord.Option) map[string]string {
	args := make(map[string]string, len(opts))
	for _, opt := range opts {
		if _, seen := args[opt.Name]; seen {
			continue
		}
		if v, ok := opt.StringValue(); ok {
			args[opt.Name] = v
		}
	}
	return args
}

func (d *Dispatcher) list(ctx context.Context) Result {
	events, err := d.events.List(ctx)
	if err != nil {
		d.logger.Error("Failed to list events", "error", err)
		metrics.ObserveInteraction(discord.SubCommandList, outcomeError)
		return Result{Response: discord.ChannelMessage(FailureMessage(discord.SubCommandList, err))}
	}
	metrics.ObserveInteraction(discord.SubCommandList, outcomeOK)
	return Result{Response: discord.ChannelMessage(dashboard.Render(events, domain.RoleAdmin))}
}

// deferred отвечает подтверждением и откладывает работу. Что бы ни случилось
// внутри work, взаимодействие получает финальный текст.
func (d *Dispatcher) deferred(in *discord.Interaction, sub string, work func(ctx context.Context) (string, string)) Result {
	appID, token := in.ApplicationID, in.Token
	run := func(ctx context.Context) {
		content, outcome := d.guard(ctx, sub, work)
		metrics.ObserveInteraction(sub, outcome)
		if err := d.responder.EditOriginalResponse(ctx, appID, token, content); err != nil {
			d.logger.Error("Failed to deliver deferred response", "subcommand", sub, "error", err)
		}
	}
	return Result{
		Response: discord.Deferred(),
		Task:     "events " + sub,
		Deferred: run,
	}
}

func (d *Dispatcher) guard(ctx context.Context, sub string, work func(ctx context.Context) (string, string)) (content, outcome string) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("Subcommand panicked", "subcommand", sub, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			content, outcome = FailureMessage(sub, nil), outcomeError
		}
	}()
	return work(ctx)
}

func (d *Dispatcher) add(ctx context.Context, args map[string]string) (string, string) {
	ev, err := d.events.Add(ctx, domain.EventOptions{
		Title:       strings.TrimSpace(args[discord.ArgTitle]),
		Datetime:    strings.TrimSpace(args[discord.ArgDatetime]),
		Location:    strings.TrimSpace(args[discord.ArgLocation]),
		URL:         strings.TrimSpace(args[discord.ArgURL]),
		MessageLink: strings.TrimSpace(args[discord.ArgMessageLink]),
	})
	if err != nil {
		return d.fail(discord.SubCommandAdd, err)
	}
	return d.withRefresh(ctx, addedMessage(ev))
}

func (d *Dispatcher) delete(ctx context.Context, id string) (string, string) {
	if err := d.events.Delete(ctx, id); err != nil {
		return d.fail(discord.SubCommandDelete, err)
	}
	return d.withRefresh(ctx, deletedMessage(id))
}

func (d *Dispatcher) update(ctx context.Context, id string, patch domain.EventPatch) (string, string) {
	ev, err := d.events.Update(ctx, id, patch)
	if errors.Is(err, errors.NotFound) {
		return notFoundMessage(id), outcomeWarning
	}
	if err != nil {
		return d.fail(discord.SubCommandUpdate, err)
	}
	return d.withRefresh(ctx, updatedMessage(ev))
}

func (d *Dispatcher) setup(ctx context.Context, adminChannelID, publicChannelID string) (string, string) {
	if err := d.dashboards.Setup(ctx, adminChannelID, publicChannelID); err != nil {
		return d.fail(discord.SubCommandSetup, err)
	}
	return MsgSetupDone, outcomeOK
}

// withRefresh перерисовывает дашборды после изменения. Изменение уже
// сохранено, поэтому ошибка обновления только дописывается к подтверждению.
func (d *Dispatcher) withRefresh(ctx context.Context, confirmation string) (string, string) {
	if err := d.dashboards.Refresh(ctx); err != nil {
		d.logger.Error("Dashboard refresh after change failed", "error", err)
		return confirmation + "\n" + MsgDashboardStale, outcomeWarning
	}
	return confirmation, outcomeOK
}

func (d *Dispatcher) fail(sub string, err error) (string, string) {
	kind := domain.KindOf(err)
	if kind == domain.KindInvalid {
		d.logger.Warn("Subcommand rejected", "subcommand", sub, "error", err)
		return FailureMessage(sub, err), outcomeWarning
	}
	d.logger.Error("Subcommand failed", "subcommand", sub, "kind", kind, "error", err)
	return FailureMessage(sub, err), outcomeError
}
