// ABOUTME: Telegram transport built on telebot, wiring commands to the conversation engine
// ABOUTME: Handles user bookkeeping, blocked-user gating, and duplicate update suppression

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/ai4business/advisor-bot/internal/assistant"
	"github.com/ai4business/advisor-bot/internal/dedupe"
	"github.com/ai4business/advisor-bot/internal/session"
	"github.com/ai4business/advisor-bot/internal/store"
)

const (
	dedupeTTL     = 5 * time.Minute
	dedupeMaxSize = 10000

	longPollTimeout = 10 * time.Second
)

// ConversationEngine is the slice of the engine the transport needs.
type ConversationEngine interface {
	StartSession(ctx context.Context, userID int64, variantKey string) (*session.Session, error)
	SendMessage(ctx context.Context, userID int64, text string) ([]string, error)
	EndSession(ctx context.Context, userID int64) error
	Status(userID int64) (string, error)
}

// UserStore is the slice of the store the transport needs.
type UserStore interface {
	UpsertContact(ctx context.Context, u *store.User) error
	Get(ctx context.Context, telegramID int64) (*store.User, error)
	Register(ctx context.Context, telegramID int64) error
}

// Bot runs the Telegram side of the advisor service.
type Bot struct {
	tb       *tele.Bot
	engine   ConversationEngine
	users    UserStore
	registry *assistant.Registry
	seen     *dedupe.Suppressor
	logger   *slog.Logger

	variantBtn tele.Btn
}

// New creates the bot and registers its handlers. It does not start polling.
func New(token string, engine ConversationEngine, users UserStore, registry *assistant.Registry, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: longPollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	b := &Bot{
		tb:       tb,
		engine:   engine,
		users:    users,
		registry: registry,
		seen:     dedupe.New(dedupeTTL, dedupeMaxSize),
		logger:   logger.With("component", "telegram"),
	}
	b.variantBtn = (&tele.ReplyMarkup{}).Data("", "variant")

	b.registerHandlers()
	return b, nil
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.guard("/start", b.handleStart))
	b.tb.Handle("/help", b.guard("/help", b.handleHelp))
	b.tb.Handle("/chat", b.guard("/chat", b.handleChat))
	b.tb.Handle("/end", b.guard("/end", b.handleEnd))
	b.tb.Handle("/status", b.guard("/status", b.handleStatus))
	b.tb.Handle(&b.variantBtn, b.guard("variant", b.handleVariantSelect))
	b.tb.Handle(tele.OnText, b.guard("text", b.handleText))
}

// Start begins long polling and blocks until the context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		b.tb.Stop()
		b.seen.Close()
	}()

	b.logger.Info("telegram bot starting", "username", b.tb.Me.Username)
	b.tb.Start()
	return nil
}

// guard wraps a handler with dedupe, user bookkeeping, and blocked gating.
func (b *Bot) guard(name string, handler func(c tele.Context) error) func(c tele.Context) error {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		if msg := c.Message(); msg != nil {
			key := dedupe.UpdateKey(sender.ID, msg.ID)
			if cb := c.Callback(); cb != nil {
				// A second tap on the same button is a duplicate, but picking
				// a different button on the same keyboard is not.
				key = "cb:" + key + ":" + cb.Data
			}
			if b.seen.Duplicate(key) {
				b.logger.Debug("duplicate update dropped", "handler", name, "user_id", sender.ID)
				return nil
			}
		}

		ctx := context.Background()
		u := &store.User{
			TelegramID: sender.ID,
			Username:   sender.Username,
			FirstName:  sender.FirstName,
			LastName:   sender.LastName,
		}
		if err := b.users.UpsertContact(ctx, u); err != nil {
			b.logger.Error("recording user contact", "user_id", sender.ID, "error", err)
		}

		known, err := b.users.Get(ctx, sender.ID)
		if err == nil && known.Status == store.StatusBlocked {
			b.logger.Info("blocked user rejected", "user_id", sender.ID, "handler", name)
			return nil
		}

		b.logger.Info("handling update", "handler", name, "user_id", sender.ID)
		if err := handler(c); err != nil {
			b.logger.Error("handler failed", "handler", name, "user_id", sender.ID, "error", err)
			return c.Send(msgInternalError)
		}
		return nil
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	if err := b.registerIfNew(userID); err != nil {
		return fmt.Errorf("registering user %d: %w", userID, err)
	}

	name := c.Sender().FirstName
	if name == "" {
		name = c.Sender().Username
	}
	return c.Send(welcomeMessage(name), b.variantKeyboard())
}

// registerIfNew promotes a first-time user to registered. Statuses set by
// an operator (premium, blocked) are left alone.
func (b *Bot) registerIfNew(userID int64) error {
	ctx := context.Background()
	u, err := b.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Status != store.StatusNew && u.Status != store.StatusUser {
		return nil
	}
	return b.users.Register(ctx, userID)
}

// requireRegistered prompts unregistered users toward /start. Returns true
// when the conversation handlers may proceed.
func (b *Bot) requireRegistered(c tele.Context) (bool, error) {
	u, err := b.users.Get(context.Background(), c.Sender().ID)
	if err != nil {
		return false, err
	}
	if !u.IsRegistered() {
		return false, c.Send(msgNotRegistered)
	}
	return true, nil
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpMessage(b.registry.Variants()))
}

func (b *Bot) handleChat(c tele.Context) error {
	if ok, err := b.requireRegistered(c); !ok {
		return err
	}
	return c.Send(msgPickAdvisor, b.variantKeyboard())
}

func (b *Bot) handleEnd(c tele.Context) error {
	err := b.engine.EndSession(context.Background(), c.Sender().ID)
	if errors.Is(err, session.ErrNoSession) {
		return c.Send(msgNoActiveSession)
	}
	if err != nil {
		return err
	}
	return c.Send(msgSessionEnded)
}

func (b *Bot) handleStatus(c tele.Context) error {
	key, err := b.engine.Status(c.Sender().ID)
	if errors.Is(err, session.ErrNoSession) {
		return c.Send(msgNoActiveSession)
	}
	if err != nil {
		return err
	}
	v, ok := b.registry.Resolve(key)
	if !ok {
		return c.Send(msgNoActiveSession)
	}
	return c.Send(statusMessage(v))
}

func (b *Bot) handleVariantSelect(c tele.Context) error {
	if ok, err := b.requireRegistered(c); !ok {
		_ = c.Respond(&tele.CallbackResponse{})
		return err
	}

	key := c.Data()
	v, ok := b.registry.Resolve(key)
	if !ok {
		_ = c.Respond(&tele.CallbackResponse{Text: msgUnknownAdvisor})
		return nil
	}

	if _, err := b.engine.StartSession(context.Background(), c.Sender().ID, key); err != nil {
		b.logger.Error("starting session", "user_id", c.Sender().ID, "variant", key, "error", err)
		_ = c.Respond(&tele.CallbackResponse{})
		return c.Send(msgSessionStartFailed)
	}

	_ = c.Respond(&tele.CallbackResponse{})
	return c.Send(sessionStartedMessage(v))
}

func (b *Bot) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := c.Text()
	if text == "" {
		return nil
	}

	if ok, err := b.requireRegistered(c); !ok {
		return err
	}

	_ = c.Notify(tele.Typing)

	chunks, err := b.engine.SendMessage(context.Background(), userID, text)
	if err != nil {
		reply, internal := replyForSendError(err)
		if internal {
			return err
		}
		return c.Send(reply)
	}

	if len(chunks) == 0 {
		return c.Send(msgEmptyReply)
	}
	for _, chunk := range chunks {
		if err := c.Send(chunk); err != nil {
			return fmt.Errorf("delivering reply chunk: %w", err)
		}
	}
	return nil
}

// variantKeyboard builds one inline button per configured advisor.
func (b *Bot) variantKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, v := range b.registry.Variants() {
		btn := markup.Data(v.DisplayName, b.variantBtn.Unique, v.Key)
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)
	return markup
}
