package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/daniel11609/schuldenbot/internal/debts"
	"github.com/daniel11609/schuldenbot/internal/storage"
)

// Client is the thin outbound side of the transport. It exists separately
// from Bot so the notification dispatcher can send messages without
// depending on the update loop.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *zap.SugaredLogger
}

// NewClient authorizes against the Bot API.
func NewClient(token string, logger *zap.SugaredLogger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create bot api")
	}
	logger.Infof("authorized on account %q", api.Self.UserName)
	return &Client{api: api, logger: logger}, nil
}

// SendText sends one message to one chat, with an optional inline keyboard.
// Implements notify.Sender.
func (c *Client) SendText(chatID string, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid chat id %q", chatID)
	}
	msg := tgbotapi.NewMessage(id, text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := c.api.Send(msg); err != nil {
		return errors.Wrapf(err, "failed to send message to chat %s", chatID)
	}
	return nil
}

// Bot routes inbound updates to the dialog state machine and the lifecycle
// engine.
type Bot struct {
	wg     *sync.WaitGroup
	client *Client
	store  *storage.Store
	debts  *debts.Service
	logger *zap.SugaredLogger

	sessionMutex sync.Mutex
	sessions     map[int64]*session
}

// NewBot wires the update loop to its collaborators.
func NewBot(client *Client, store *storage.Store, service *debts.Service, logger *zap.SugaredLogger) (*Bot, error) {
	bot := &Bot{
		wg:       &sync.WaitGroup{},
		client:   client,
		store:    store,
		debts:    service,
		logger:   logger,
		sessions: make(map[int64]*session),
	}

	if err := bot.setMyCommands(); err != nil {
		return nil, err
	}

	return bot, nil
}

func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	config := tgbotapi.NewUpdate(0)
	config.Timeout = 30

	updates := b.client.api.GetUpdatesChan(config)

	for {
		select {
		case update := <-updates:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				if errs := b.handle(&update); errs != nil {
					for _, err := range errs {
						b.logger.Errorw("error occured", "err", err)
					}
				}
			}()
		case <-ctx.Done():
			b.logger.Infof("stopping bot: %v", ctx.Err())
			b.client.api.StopReceivingUpdates()
			return nil
		}
	}
}

func (b *Bot) handle(update *tgbotapi.Update) []error {
	var res responses
	var err error
	errs := make([]error, 0)
	switch {
	case update.Message != nil:
		res, err = b.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		res, err = b.handleQuery(update.CallbackQuery)
	default:
		errs = append(errs, errors.New("unable to handle such update"))
	}
	if err != nil {
		errs = append(errs, err)
	}
	for _, resp := range res {
		if err := b.send(resp); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	if c == nil {
		return nil
	}
	if _, err := b.client.api.Send(c); err != nil {
		return errors.Wrap(err, "failed to send response")
	}
	return nil
}

// session returns the dialog state for a chat, creating an idle one on
// first contact.
func (b *Bot) session(chatID int64) *session {
	b.sessionMutex.Lock()
	defer b.sessionMutex.Unlock()

	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{}
		b.sessions[chatID] = s
	}
	return s
}
