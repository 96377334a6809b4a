package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/daniel11609/schuldenbot/internal/storage"
)

// Sender delivers one message to one chat. Implemented by the telegram
// client; faked in tests.
type Sender interface {
	SendText(chatID string, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
}

// Dispatcher translates debt lifecycle events into the outbound messages to
// creditor and debtor. It holds no state of its own.
type Dispatcher struct {
	sender Sender
	store  *storage.Store
	logger *zap.SugaredLogger
}

func NewDispatcher(sender Sender, store *storage.Store, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		store:  store,
		logger: logger,
	}
}

// YesNoKeyboard builds the standard thumbs up / thumbs down keyboard whose
// buttons carry the given action and debt id.
func YesNoKeyboard(action Action, debtID string) (*tgbotapi.InlineKeyboardMarkup, error) {
	yes, err := Payload{Action: action, DebtID: debtID, Value: true}.Encode()
	if err != nil {
		return nil, err
	}
	no, err := Payload{Action: action, DebtID: debtID, Value: false}.Encode()
	if err != nil {
		return nil, err
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001F44D", yes),
			tgbotapi.NewInlineKeyboardButtonData("\U0001F44E", no),
		),
	)
	return &keyboard, nil
}

// DebtProposed asks the debtor whether they accept the new debt.
func (d *Dispatcher) DebtProposed(debt *storage.Debt) error {
	creditor := d.store.UserByChatID(debt.CreditorID)
	if creditor == nil {
		return errors.Errorf("creditor %s not found for debt %s", debt.CreditorID, debt.ID)
	}

	keyboard, err := YesNoKeyboard(ActionAcceptDebt, debt.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Willst Du folgende Schuld annehmen?\n"+
		"Gläubiger: %s\n"+
		"Schuld %s - %s\n"+
		"Deadline: %s",
		creditor.Name, debt.Category, debt.Amount, debt.DeadlineDisplay())

	return d.sender.SendText(debt.DebtorID, text, keyboard)
}

// DebtAccepted tells the creditor that the debtor took the debt on.
func (d *Dispatcher) DebtAccepted(debt *storage.Debt) error {
	debtor := d.store.UserByChatID(debt.DebtorID)
	if debtor == nil {
		return errors.Errorf("debtor %s not found for debt %s", debt.DebtorID, debt.ID)
	}

	text := fmt.Sprintf("%s hat die Schuld über %s - %s angenommen.",
		debtor.Name, debt.Category, debt.Amount)
	return d.sender.SendText(debt.CreditorID, text, nil)
}

// DebtRejected tells the creditor that the debtor turned the debt down.
func (d *Dispatcher) DebtRejected(debt *storage.Debt) error {
	debtor := d.store.UserByChatID(debt.DebtorID)
	if debtor == nil {
		return errors.Errorf("debtor %s not found for debt %s", debt.DebtorID, debt.ID)
	}

	text := fmt.Sprintf("%s hat die Schuld über %s - %s abgelehnt.",
		debtor.Name, debt.Category, debt.Amount)
	return d.sender.SendText(debt.CreditorID, text, nil)
}

// PaymentAsserted asks the creditor to confirm the debtor's claim that the
// debt is settled.
func (d *Dispatcher) PaymentAsserted(debt *storage.Debt) error {
	debtor := d.store.UserByChatID(debt.DebtorID)
	if debtor == nil {
		return errors.Errorf("debtor %s not found for debt %s", debt.DebtorID, debt.ID)
	}

	keyboard, err := YesNoKeyboard(ActionConfirmPaid, debt.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Wurde die Schuld über %s - %s mit der Frist zum %s von %s beglichen?",
		debt.Category, debt.Amount, debt.DeadlineDisplay(), debtor.Name)
	return d.sender.SendText(debt.CreditorID, text, keyboard)
}

// PaymentDisputed tells the debtor that the creditor declined the paid
// claim.
func (d *Dispatcher) PaymentDisputed(debt *storage.Debt) error {
	creditor := d.store.UserByChatID(debt.CreditorID)
	if creditor == nil {
		return errors.Errorf("creditor %s not found for debt %s", debt.CreditorID, debt.ID)
	}

	text := fmt.Sprintf("%s hat deine Anfrage zum Begleichen von %s - %s nicht akzeptiert.",
		creditor.Name, debt.Category, debt.Amount)
	return d.sender.SendText(debt.DebtorID, text, nil)
}

// Remind sends the recurring reminder pair. The two sends are independent:
// a failure on one side is logged and must not block the other.
func (d *Dispatcher) Remind(debt *storage.Debt) {
	creditor := d.store.UserByChatID(debt.CreditorID)
	debtor := d.store.UserByChatID(debt.DebtorID)

	deadline := debt.DeadlineDisplay()
	what := debt.Amount + " " + debt.Category

	if debtor == nil {
		d.logger.Errorw("debtor missing at reminder time, skipping creditor message",
			"debt_id", debt.ID, "debtor_id", debt.DebtorID)
	} else {
		text := fmt.Sprintf("%s schuldet dir noch %s bis zum %s", debtor.Name, what, deadline)
		if err := d.sender.SendText(debt.CreditorID, text, nil); err != nil {
			d.logger.Errorw("failed to remind creditor", "debt_id", debt.ID, "err", err)
		}
	}

	if creditor == nil {
		d.logger.Errorw("creditor missing at reminder time, skipping debtor message",
			"debt_id", debt.ID, "creditor_id", debt.CreditorID)
	} else {
		text := fmt.Sprintf("Du schuldest %s noch %s bis zum %s", creditor.Name, what, deadline)
		if err := d.sender.SendText(debt.DebtorID, text, nil); err != nil {
			d.logger.Errorw("failed to remind debtor", "debt_id", debt.ID, "err", err)
		}
	}
}
