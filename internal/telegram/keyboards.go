package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/daniel11609/schuldenbot/internal/notify"
	"github.com/daniel11609/schuldenbot/internal/storage"
)

const (
	buttonCancel     = "Abbrechen ✖"
	buttonBack       = "Zurück"
	buttonOtherEntry = "Sonstiges"
)

// stripDecoration removes the emoji suffixes the keyboards decorate their
// labels with, so drafts store the bare value.
var stripDecoration = strings.NewReplacer(
	" 🍻", "", " 🍕", "", " 🚗", "", " 🧞", "",
	" 🏘", "", " 💸", "", " 🧳", "", " 📝", "", " 🗓", "", "👤 ", "",
)

var startKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/schuld")),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/ichBekomme")),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton("/ichSchulde")),
)

var categoryKeyboard = oneTimeKeyboard([][]string{
	{"Getränke 🍻", "Essen 🍕", "Mobilität 🚗"},
	{"Gefallen 🧞", "Haushalt 🏘", "Geld 💸"},
	{buttonBack, "Sonstiges 🧳", buttonCancel},
})

var amountEuroKeyboard = oneTimeKeyboard([][]string{
	{"1€", "2€", "3€"},
	{"5€", "7.5€", "10€"},
	{buttonBack, "Sonstiges 📝", buttonCancel},
})

var amountKmKeyboard = oneTimeKeyboard([][]string{
	{"1km", "2km", "5km"},
	{"10km", "20km", "50km"},
	{buttonBack, "Sonstiges 📝", buttonCancel},
})

var deadlineKeyboard = oneTimeKeyboard([][]string{
	{"Heute", "Morgen"},
	{"Eine Woche", "Zwei Wochen"},
	{"Ein Monat", "3 Monate"},
	{"Sonstiges 🗓"},
	{buttonBack, buttonCancel},
})

func oneTimeKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	var keyboardRows [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.KeyboardButton
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboardRows = append(keyboardRows, buttons)
	}
	keyboard := tgbotapi.NewReplyKeyboard(keyboardRows...)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// userKeyboard lists every registered user except the caller as a debtor
// candidate.
func userKeyboard(users []storage.User, selfChatID string) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]string{{buttonCancel}}
	for _, user := range users {
		if user.ChatID == selfChatID {
			continue
		}
		rows = append(rows, []string{"👤 " + user.Name})
	}
	return oneTimeKeyboard(rows)
}

// debtListKeyboard turns open debts into one selectable inline button per
// entry; label renders one entry's button text.
func debtListKeyboard(items []storage.Debt, action notify.Action, label func(storage.Debt) string) (*tgbotapi.InlineKeyboardMarkup, error) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, debt := range items {
		data, err := notify.Payload{Action: action, DebtID: debt.ID}.Encode()
		if err != nil {
			return nil, err
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label(debt), data),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard, nil
}
