package telegram

import (
	"encoding/json"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type handler func(b *Bot, msg *tgbotapi.Message) (responses, error)

type command struct {
	tgbotapi.BotCommand
	handler handler
}

var (
	StartCmd = command{
		BotCommand: tgbotapi.BotCommand{
			Command:     "start",
			Description: "Registrierung und Hauptmenü",
		},
		handler: (*Bot).handleStart,
	}
	NewDebtCmd = command{
		BotCommand: tgbotapi.BotCommand{
			Command:     "schuld",
			Description: "Neue Schuld eintragen",
		},
		handler: (*Bot).handleNewDebt,
	}
	MyDebtsCmd = command{
		BotCommand: tgbotapi.BotCommand{
			Command:     "ichschulde",
			Description: "Wem schulde ich was?",
		},
		handler: (*Bot).handleMyDebts,
	}
	MyClaimsCmd = command{
		BotCommand: tgbotapi.BotCommand{
			Command:     "ichbekomme",
			Description: "Wer schuldet mir was?",
		},
		handler: (*Bot).handleMyClaims,
	}
)

var commands = map[string]*command{
	StartCmd.Command:    &StartCmd,
	NewDebtCmd.Command:  &NewDebtCmd,
	MyDebtsCmd.Command:  &MyDebtsCmd,
	MyClaimsCmd.Command: &MyClaimsCmd,
}

// commandFor matches a command name case-insensitively, so the camel-cased
// keyboard shortcuts (/ichSchulde, /ichBekomme) reach their handlers.
func commandFor(name string) (*command, bool) {
	cmd, ok := commands[strings.ToLower(name)]
	return cmd, ok
}

// setMyCommands registers the command menu with the Bot API.
func (b *Bot) setMyCommands() error {
	params := make(tgbotapi.Params)
	data, err := json.Marshal([]tgbotapi.BotCommand{
		StartCmd.BotCommand,
		NewDebtCmd.BotCommand,
		MyDebtsCmd.BotCommand,
		MyClaimsCmd.BotCommand,
	})
	if err != nil {
		return err
	}
	params.AddNonEmpty("commands", string(data))
	if _, err := b.client.api.MakeRequest("setMyCommands", params); err != nil {
		return err
	}
	return nil
}
