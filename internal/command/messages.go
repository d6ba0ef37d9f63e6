package command

import (
	"fmt"

	"github.com/wrongjunior/eventboard/internal/discord"
	"github.com/wrongjunior/eventboard/internal/domain"
)

// Предупреждения о неполных аргументах.
const (
	MsgNoSubCommand    = "⚠️ No subcommand was given. Try `/events list`."
	MsgMissingEventID  = "⚠️ Please specify the event ID."
	MsgNothingToUpdate = "⚠️ Please specify at least one field to update."
	MsgMissingChannels = "⚠️ Please specify both the admin and the public channel."
	MsgMissingFields   = "⚠️ Title and date/time are required."
)

const (
	MsgSetupDone      = "✅ Dashboards are set up."
	MsgDashboardStale = "⚠️ The dashboards could not be refreshed. They will catch up on the next change."
)

const (
	msgChannelSetup = "❌ Failed to create the dashboard messages. Check the channel permissions."
	msgChannel      = "❌ Failed to send the message. Check the channel permissions."
	msgDashboard    = "❌ Failed to update the dashboards."
	msgCredential   = "❌ Bot authentication failed. Check the configuration."
)

var defaultFailures = map[string]string{
	discord.SubCommandSetup:  "❌ An error occurred during setup.",
	discord.SubCommandAdd:    "❌ An error occurred while adding the event.",
	discord.SubCommandDelete: "❌ An error occurred while deleting the event.",
	discord.SubCommandUpdate: "❌ An error occurred while updating the event.",
	discord.SubCommandList:   "❌ An error occurred while loading the events.",
}

var storeFailures = map[string]string{
	discord.SubCommandSetup:  "❌ Failed to save the settings. Check the database connection.",
	discord.SubCommandAdd:    "❌ Failed to save the event.",
	discord.SubCommandDelete: "❌ Failed to delete the event.",
	discord.SubCommandUpdate: "❌ Failed to save the event.",
	discord.SubCommandList:   "❌ Failed to load the events.",
}

// FailureMessage переводит ошибку подкоманды в текст для пользователя.
// Категория берётся из domain.KindOf; nil и неизвестные ошибки дают общий текст.
func FailureMessage(sub string, err error) string {
	switch domain.KindOf(err) {
	case domain.KindInvalid:
		if sub == discord.SubCommandAdd {
			return MsgMissingFields
		}
	case domain.KindChannel:
		if sub == discord.SubCommandSetup {
			return msgChannelSetup
		}
		return msgChannel
	case domain.KindDashboard:
		return msgDashboard
	case domain.KindStore:
		if msg, ok := storeFailures[sub]; ok {
			return msg
		}
	case domain.KindCredential:
		return msgCredential
	}
	if msg, ok := defaultFailures[sub]; ok {
		return msg
	}
	return "❌ An unexpected error occurred."
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("⚠️ Event `%s` was not found.", id)
}

func addedMessage(ev *domain.Event) string {
	return fmt.Sprintf("✅ Event added: **%s** (ID: `%s`)", ev.Title, ev.ID)
}

func deletedMessage(id string) string {
	return fmt.Sprintf("🗑️ Event deleted (ID: `%s`)", id)
}

func updatedMessage(ev *domain.Event) string {
	return fmt.Sprintf("✏️ Event updated: **%s** (ID: `%s`)", ev.Title, ev.ID)
}
