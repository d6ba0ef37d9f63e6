package discord

// ApplicationCommand описывает slash-команду для регистрации.
type ApplicationCommand struct {
	ID          string                     `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string                     `json:"name" yaml:"name"`
	Description string                     `json:"description" yaml:"description"`
	Type        int                        `json:"type,omitempty" yaml:"type,omitempty"`
	Options     []ApplicationCommandOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// ApplicationCommandOption описывает подкоманду или аргумент.
type ApplicationCommandOption struct {
	Name        string                     `json:"name" yaml:"name"`
	Description string                     `json:"description" yaml:"description"`
	Type        int                        `json:"type" yaml:"type"`
	Required    bool                       `json:"required,omitempty" yaml:"required,omitempty"`
	Options     []ApplicationCommandOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// Имена команды, подкоманд и аргументов.
const (
	CommandEvents = "events"

	SubCommandAdd    = "add"
	SubCommandList   = "list"
	SubCommandDelete = "delete"
	SubCommandUpdate = "update"
	SubCommandSetup  = "setup"

	ArgEventID       = "event_id"
	ArgTitle         = "title"
	ArgDatetime      = "datetime"
	ArgLocation      = "location"
	ArgURL           = "url"
	ArgMessageLink   = "message_link"
	ArgAdminChannel  = "admin_channel"
	ArgPublicChannel = "public_channel"
)

func str(name, description string, required bool) ApplicationCommandOption {
	return ApplicationCommandOption{Name: name, Description: description, Type: OptionTypeString, Required: required}
}

func channel(name, description string) ApplicationCommandOption {
	return ApplicationCommandOption{Name: name, Description: description, Type: OptionTypeChannel, Required: true}
}

func sub(name, description string, options ...ApplicationCommandOption) ApplicationCommandOption {
	return ApplicationCommandOption{Name: name, Description: description, Type: OptionTypeSubCommand, Options: options}
}

// EventCommands возвращает схему команды /events.
func EventCommands() []ApplicationCommand {
	return []ApplicationCommand{{
		Name:        CommandEvents,
		Description: "Manage events",
		Type:        ApplicationCommandTypeChatInput,
		Options: []ApplicationCommandOption{
			sub(SubCommandAdd, "Add a new event",
				str(ArgTitle, "Event title", true),
				str(ArgDatetime, "Event date and time (e.g. 2025/10/29 14:30)", true),
				str(ArgLocation, "Event location or voice channel link", false),
				str(ArgURL, "Event URL", false),
				str(ArgMessageLink, "Message link", false),
			),
			sub(SubCommandList, "Show the event list"),
			sub(SubCommandDelete, "Delete an event",
				str(ArgEventID, "ID of the event to delete", true),
			),
			sub(SubCommandUpdate, "Update an existing event",
				str(ArgEventID, "ID of the event to update", true),
				str(ArgTitle, "New title (optional)", false),
				str(ArgDatetime, "New date and time (optional)", false),
				str(ArgLocation, "New location (optional)", false),
				str(ArgURL, "New URL (optional)", false),
				str(ArgMessageLink, "New message link (optional)", false),
			),
			sub(SubCommandSetup, "Set up the event dashboards",
				channel(ArgAdminChannel, "Channel for the admin dashboard"),
				channel(ArgPublicChannel, "Channel for the public dashboard"),
			),
		},
	}}
}
