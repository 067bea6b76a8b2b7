package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command is one entry in the Telegram command menu and the /help text.
type Command struct {
	Name        string
	Args        string // Shown in /help only, e.g. "<query>"
	Description string
	Hidden      bool // Left out of /help
}

var botCommands = []Command{
	{Name: "add", Description: "List a surplus material"},
	{Name: "publish", Description: "Publish the current draft"},
	{Name: "cancel", Description: "Cancel the current action"},
	{Name: "browse", Args: "[search]", Description: "Browse available materials"},
	{Name: "search", Args: "<query>", Description: "Search materials"},
	{Name: "watch", Args: "<query>", Description: "Get alerts for new materials"},
	{Name: "watches", Description: "Manage your alerts"},
	{Name: "stats", Description: "Show campus impact"},
	{Name: "login", Description: "Sign in", Hidden: true},
	{Name: "signup", Description: "Create a profile", Hidden: true},
	{Name: "logout", Description: "Sign out"},
	{Name: "help", Description: "Show help", Hidden: true},
}

// helpText renders the visible commands as a Markdown list.
func helpText() string {
	var sb strings.Builder
	sb.WriteString("*Commands*")
	for _, cmd := range botCommands {
		if cmd.Hidden {
			continue
		}
		sb.WriteString("\n/" + cmd.Name)
		if cmd.Args != "" {
			sb.WriteString(" `" + cmd.Args + "`")
		}
		sb.WriteString(" - " + strings.ToLower(cmd.Description))
	}
	return sb.String()
}

// RegisterCommands publishes the command menu. Failures are logged only.
func RegisterCommands(tg BotAPI) {
	menu := make([]tgbotapi.BotCommand, 0, len(botCommands))
	for _, cmd := range botCommands {
		menu = append(menu, tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description})
	}

	if _, err := tg.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
		return
	}
	log.Info().Int("count", len(menu)).Msg("registered bot commands")
}
