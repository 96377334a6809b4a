package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/daniel11609/schuldenbot/internal/debts"
	"github.com/daniel11609/schuldenbot/internal/notify"
	"github.com/daniel11609/schuldenbot/internal/storage"
)

type responses []tgbotapi.Chattable

const (
	txtNoOpenEntries    = "Es sind keine offenen Einträge vorhanden."
	txtChooseUser       = "Bitte wähle einen Benutzer aus:"
	txtEnterCategory    = "Bitte gebe eine Kategorie ein:"
	txtEnterAmount      = "Bitte gebe eine Anzahl ein:"
	txtEnterDate        = "Bitte gebe ein gültiges Datum ein (dd.mm.yyyy):"
	txtCancelling       = "Breche ab...."
	txtMenu             = "Klicke auf ➡ /schuld um Schulden einzutragen...\n" +
		"Klicke auf ➡ /ichSchulde um einzusehen, wem du was schuldest..." +
		"\nKlicke auf ➡ /ichBekomme um einzusehen, was dir wer schuldet..."
	txtUsernameMissing  = "Achtung: Um unseren Service nutzen zu können, benötigst du einen Telegram Username.\n" +
		"Diesen kannst du unter \"Einstellungen -> Benutzername\" festlegen.\n" +
		"Du kannst dich anschließend mit /start registrieren!"
	txtRegisterQuestion = "Möchtest Du dich registrieren?"
	txtRegisterDeclined = "Schade!\nFalls Du es dir anders überlegst, kannst du mit /start den Prozess neu starten.\U0001F47C"
	txtDebtAccepted     = "Du hast die Schuld angenommen."
	txtDebtRejected     = "Du hast die Schuld abgelehnt."
	txtAskDebtPaid      = "Hast du die Schuld bereits beglichen?"
	txtAskClaimPaid     = "Wurde die Schuld bereits beglichen?"
	txtPaidConfirmed    = "Die Schuld ist nun als beglichen markiert."
	txtPaidDisputed     = "Der Schuldner wurde benachrichtigt. Die Schuld ist noch nicht beglichen."
	txtClaimClosed      = "Die Schuld wurde als beglichen markiert"
	txtDebtNotOpen      = "Diese Schuld ist nicht mehr offen."
	txtOk               = "Ok"
	txtInternalError    = "Es ist ein Fehler aufgetreten. Bitte versuche es später erneut."
)

func (b *Bot) handleMessage(msg *tgbotapi.Message) (responses, error) {
	sess := b.session(msg.Chat.ID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// A top-level command interrupts whatever dialog is running and
	// discards the draft. The keyboard shortcuts arrive as plain "/..."
	// text, so both forms are routed here.
	if name, ok := commandName(msg); ok {
		cmd, known := commandFor(name)
		if !known {
			return responses{tgbotapi.NewMessage(msg.Chat.ID, txtMenu)}, nil
		}
		sess.reset()
		return cmd.handler(b, msg)
	}

	switch sess.state {
	case stateAwaitingUser:
		return b.handleUserSelection(msg, sess)
	case stateAwaitingCategory:
		return b.handleCategorySelection(msg, sess)
	case stateAwaitingAmount:
		return b.handleAmountSelection(msg, sess)
	case stateAwaitingDeadline:
		return b.handleDeadlineSelection(msg, sess)
	}

	res := tgbotapi.NewMessage(msg.Chat.ID, txtMenu)
	res.ReplyMarkup = startKeyboard
	return responses{res}, nil
}

func commandName(msg *tgbotapi.Message) (string, bool) {
	if msg.IsCommand() {
		return msg.Command(), true
	}
	if strings.HasPrefix(msg.Text, "/") {
		return strings.TrimPrefix(strings.Fields(msg.Text)[0], "/"), true
	}
	return "", false
}

func isCancel(text string) bool {
	return strings.HasPrefix(text, "Abbrechen")
}

func chatIDOf(msg *tgbotapi.Message) string {
	return strconv.FormatInt(msg.Chat.ID, 10)
}

// --- commands ---

func (b *Bot) handleStart(msg *tgbotapi.Message) (responses, error) {
	chatID := chatIDOf(msg)
	firstName := msg.From.FirstName

	if b.store.UserExists(chatID) {
		res := tgbotapi.NewMessage(msg.Chat.ID,
			"Hey "+firstName+"!\nWillkommen zurück!\U0001F609")
		res.ReplyMarkup = startKeyboard
		return responses{res}, nil
	}

	welcome := tgbotapi.NewMessage(msg.Chat.ID,
		"Hey "+firstName+"!\nWillkommen bei Deinem lokalen Anbieter für Schuldeneintreibung!\U0001F609")

	if msg.From.UserName == "" {
		return responses{welcome, tgbotapi.NewMessage(msg.Chat.ID, txtUsernameMissing)}, nil
	}

	keyboard, err := notify.YesNoKeyboard(notify.ActionRegister, "")
	if err != nil {
		return responses{welcome}, err
	}
	question := tgbotapi.NewMessage(msg.Chat.ID, txtRegisterQuestion)
	question.ReplyMarkup = *keyboard
	return responses{welcome, question}, nil
}

func (b *Bot) handleNewDebt(msg *tgbotapi.Message) (responses, error) {
	chatID := chatIDOf(msg)
	if !b.store.UserExists(chatID) {
		return b.handleStart(msg)
	}

	sess := b.session(msg.Chat.ID)
	sess.reset()
	sess.state = stateAwaitingUser

	res := tgbotapi.NewMessage(msg.Chat.ID, txtChooseUser)
	res.ReplyMarkup = userKeyboard(b.store.Users(), chatID)
	return responses{res}, nil
}

func (b *Bot) handleMyDebts(msg *tgbotapi.Message) (responses, error) {
	chatID := chatIDOf(msg)
	if !b.store.UserExists(chatID) {
		return b.handleStart(msg)
	}

	open := b.store.OpenDebtsFor(chatID)
	if len(open) == 0 {
		return responses{tgbotapi.NewMessage(msg.Chat.ID, txtNoOpenEntries)}, nil
	}

	keyboard, err := debtListKeyboard(open, notify.ActionPickDebt, func(d storage.Debt) string {
		return fmt.Sprintf("%s - %s an %s bis %s",
			d.Category, d.Amount, b.userName(d.CreditorID), d.DeadlineDisplay())
	})
	if err != nil {
		return nil, err
	}

	res := tgbotapi.NewMessage(msg.Chat.ID, "Hier siehst du deine Schulden")
	res.ReplyMarkup = *keyboard
	return responses{res}, nil
}

func (b *Bot) handleMyClaims(msg *tgbotapi.Message) (responses, error) {
	chatID := chatIDOf(msg)
	if !b.store.UserExists(chatID) {
		return b.handleStart(msg)
	}

	open := b.store.OpenClaimsFor(chatID)
	if len(open) == 0 {
		return responses{tgbotapi.NewMessage(msg.Chat.ID, txtNoOpenEntries)}, nil
	}

	keyboard, err := debtListKeyboard(open, notify.ActionPickClaim, func(d storage.Debt) string {
		return fmt.Sprintf("%s - %s von %s bis %s",
			d.Category, d.Amount, b.userName(d.DebtorID), d.DeadlineDisplay())
	})
	if err != nil {
		return nil, err
	}

	res := tgbotapi.NewMessage(msg.Chat.ID, "Hier siehst du, was dir noch geschuldet wird")
	res.ReplyMarkup = *keyboard
	return responses{res}, nil
}

func (b *Bot) userName(chatID string) string {
	if user := b.store.UserByChatID(chatID); user != nil {
		return user.Name
	}
	return chatID
}

// --- new-debt dialog ---

func (b *Bot) cancelDialog(msg *tgbotapi.Message, sess *session) (responses, error) {
	sess.reset()
	res := tgbotapi.NewMessage(msg.Chat.ID, txtCancelling)
	res.ReplyMarkup = startKeyboard
	return responses{res}, nil
}

func (b *Bot) handleUserSelection(msg *tgbotapi.Message, sess *session) (responses, error) {
	if isCancel(msg.Text) {
		return b.cancelDialog(msg, sess)
	}

	name := stripDecoration.Replace(msg.Text)
	user := b.store.UserByName(name)
	if user == nil || user.ChatID == chatIDOf(msg) {
		return responses{tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Tut uns leid, aber wir konnten '%s' leider nicht in unserer Datenbank finden."+
				"\nDu kannst es aber gerne erneut versuchen.", name))}, nil
	}

	sess.debtor = name
	sess.state = stateAwaitingCategory

	res := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("In welcher Kategorie schuldet dir '%s' etwas?", sess.debtor))
	res.ReplyMarkup = categoryKeyboard
	return responses{res}, nil
}

func (b *Bot) handleCategorySelection(msg *tgbotapi.Message, sess *session) (responses, error) {
	switch {
	case isCancel(msg.Text):
		return b.cancelDialog(msg, sess)

	case msg.Text == buttonBack:
		sess.debtor = ""
		sess.state = stateAwaitingUser
		res := tgbotapi.NewMessage(msg.Chat.ID, txtChooseUser)
		res.ReplyMarkup = userKeyboard(b.store.Users(), chatIDOf(msg))
		return responses{res}, nil

	case strings.HasPrefix(msg.Text, buttonOtherEntry):
		return responses{tgbotapi.NewMessage(msg.Chat.ID, txtEnterCategory)}, nil
	}

	sess.category = stripDecoration.Replace(msg.Text)
	sess.mobility = sess.category == "Mobilität"
	sess.state = stateAwaitingAmount

	res := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Welchen Wert schuldet dir %s in Kategorie %s?", sess.debtor, sess.category))
	res.ReplyMarkup = b.amountKeyboard(sess)
	return responses{res}, nil
}

func (b *Bot) amountKeyboard(sess *session) tgbotapi.ReplyKeyboardMarkup {
	if sess.mobility {
		return amountKmKeyboard
	}
	return amountEuroKeyboard
}

func (b *Bot) handleAmountSelection(msg *tgbotapi.Message, sess *session) (responses, error) {
	switch {
	case isCancel(msg.Text):
		return b.cancelDialog(msg, sess)

	case msg.Text == buttonBack:
		sess.category = ""
		sess.state = stateAwaitingCategory
		res := tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("In welcher Kategorie schuldet dir %s etwas?", sess.debtor))
		res.ReplyMarkup = categoryKeyboard
		return responses{res}, nil

	case strings.HasPrefix(msg.Text, buttonOtherEntry):
		return responses{tgbotapi.NewMessage(msg.Chat.ID, txtEnterAmount)}, nil
	}

	sess.amount = msg.Text
	sess.state = stateAwaitingDeadline

	res := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Bis wann soll %s die Schuld beglichen haben?", sess.debtor))
	res.ReplyMarkup = deadlineKeyboard
	return responses{res}, nil
}

func (b *Bot) handleDeadlineSelection(msg *tgbotapi.Message, sess *session) (responses, error) {
	switch {
	case isCancel(msg.Text):
		return b.cancelDialog(msg, sess)

	case msg.Text == buttonBack:
		sess.amount = ""
		sess.state = stateAwaitingAmount
		res := tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Welchen Wert schuldet dir %s in Kategorie %s?", sess.debtor, sess.category))
		res.ReplyMarkup = b.amountKeyboard(sess)
		return responses{res}, nil

	case strings.HasPrefix(msg.Text, buttonOtherEntry):
		return responses{tgbotapi.NewMessage(msg.Chat.ID, txtEnterDate)}, nil
	}

	debt, err := b.debts.Propose(context.Background(),
		chatIDOf(msg), sess.debtor, sess.category, sess.amount, msg.Text)

	switch {
	case errors.Is(err, debts.ErrUnparseableDate):
		// Invalid input keeps the draft; only the deadline is re-asked.
		return responses{tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Fehler: Konnte '%s' nicht als Datum einordnen."+
				"\nGebe 'Abbrechen' ein, um den Vorgang zu beenden."+
				"\n"+txtEnterDate, msg.Text))}, nil

	case errors.Is(err, debts.ErrDateOutOfRange):
		return responses{tgbotapi.NewMessage(msg.Chat.ID,
			fmt.Sprintf("Fehler: '%s' liegt nicht innerhalb des gültigen Zeitraums."+
				"\nBitte Wähle einen Zeitpunkt innerhalb des nächsten Jahres aus.", msg.Text))}, nil

	case err != nil:
		sess.reset()
		res := tgbotapi.NewMessage(msg.Chat.ID, txtInternalError)
		res.ReplyMarkup = startKeyboard
		return responses{res}, err
	}

	debtor := sess.debtor
	sess.reset()

	res := tgbotapi.NewMessage(msg.Chat.ID,
		fmt.Sprintf("Folgende Schuld wurde in Auftrag gegeben:\n"+
			"Schuldner: %s\nSchuld: %s - %s\nDeadline: %s",
			debtor, debt.Category, debt.Amount, debt.DeadlineDisplay()))
	res.ReplyMarkup = startKeyboard
	return responses{res}, nil
}

// --- callback queries ---

func (b *Bot) handleQuery(query *tgbotapi.CallbackQuery) (responses, error) {
	if query.Message == nil {
		return nil, errors.New("callback query received without message")
	}

	payload, err := notify.DecodePayload(query.Data)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	chatID, msgID := query.Message.Chat.ID, query.Message.MessageID

	switch payload.Action {
	case notify.ActionRegister:
		return b.handleRegistration(ctx, query, payload)

	case notify.ActionAcceptDebt:
		if _, err := b.debts.Accept(ctx, payload.DebtID, payload.Value); err != nil {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtInternalError)}, err
		}
		text := txtDebtRejected
		if payload.Value {
			text = txtDebtAccepted
		}
		return responses{tgbotapi.NewEditMessageText(chatID, msgID, text)}, nil

	case notify.ActionPickDebt:
		keyboard, err := notify.YesNoKeyboard(notify.ActionAssertPaid, payload.DebtID)
		if err != nil {
			return nil, err
		}
		return responses{tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, txtAskDebtPaid, *keyboard)}, nil

	case notify.ActionPickClaim:
		keyboard, err := notify.YesNoKeyboard(notify.ActionCloseClaim, payload.DebtID)
		if err != nil {
			return nil, err
		}
		return responses{tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, txtAskClaimPaid, *keyboard)}, nil

	case notify.ActionAssertPaid:
		if !payload.Value {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtOk)}, nil
		}
		debt, requested, err := b.debts.AssertPaid(payload.DebtID)
		if err != nil {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtInternalError)}, err
		}
		if debt == nil {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtOk)}, nil
		}
		if !requested {
			// Stale button: the debt settled in the meantime, nobody was asked.
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtDebtNotOpen)}, nil
		}
		return responses{tgbotapi.NewEditMessageText(chatID, msgID,
			fmt.Sprintf("%s wird verständigt.", b.userName(debt.CreditorID)))}, nil

	case notify.ActionConfirmPaid:
		if _, err := b.debts.ResolvePaid(ctx, payload.DebtID, payload.Value); err != nil {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtInternalError)}, err
		}
		text := txtPaidDisputed
		if payload.Value {
			text = txtPaidConfirmed
		}
		return responses{tgbotapi.NewEditMessageText(chatID, msgID, text)}, nil

	case notify.ActionCloseClaim:
		if !payload.Value {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtOk)}, nil
		}
		if _, err := b.debts.CloseClaim(ctx, payload.DebtID); err != nil {
			return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtInternalError)}, err
		}
		return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtClaimClosed)}, nil
	}

	return nil, errors.Errorf("unknown callback action %q", payload.Action)
}

func (b *Bot) handleRegistration(ctx context.Context, query *tgbotapi.CallbackQuery, payload notify.Payload) (responses, error) {
	chatID, msgID := query.Message.Chat.ID, query.Message.MessageID

	if !payload.Value {
		return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtRegisterDeclined)}, nil
	}

	if _, err := b.store.AddUser(ctx, strconv.FormatInt(chatID, 10), query.From.UserName); err != nil {
		return responses{tgbotapi.NewEditMessageText(chatID, msgID, txtInternalError)}, err
	}

	menu := tgbotapi.NewMessage(chatID, txtMenu)
	menu.ReplyMarkup = startKeyboard
	return responses{
		tgbotapi.NewEditMessageText(chatID, msgID, "Bitte wähle dein Anliegen aus:"),
		menu,
	}, nil
}
