package telegram

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/log"
)

const baseContextKey = "base_context"

type Bot struct {
	bot    *tele.Bot
	chat   core.ChatService
	sender *sender
	// telegram user id → business user id
	users    map[int64]int64
	timezone string
}

func NewBot(
	ctx context.Context,
	cfg core.TelegramConfig,
	chat core.ChatService,
	timezone string,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.GetTelegramToken(),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newBot(ctx, b, cfg.GetTelegramUsers(), chat, timezone), nil
}

func newBot(ctx context.Context, b *tele.Bot, users map[int64]int64, chat core.ChatService, timezone string) *Bot {
	bot := &Bot{
		bot:      b,
		chat:     chat,
		sender:   newSender(b),
		users:    users,
		timezone: timezone,
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Only mapped users get through; everybody else is ignored silently.
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil {
				return nil
			}
			if _, ok := bot.users[c.Sender().ID]; !ok {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	return bot
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Int("users", len(b.users)).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	userID := b.users[c.Sender().ID]
	logger := log.FromCtx(ctx).With().
		Int64("telegram_id", c.Sender().ID).
		Int64("user_id", userID).
		Logger()
	ctx = logger.WithContext(ctx)

	_ = c.Notify(tele.Typing)

	resp, err := b.chat.Handle(ctx, userID, core.ChatRequest{
		Message:  c.Text(),
		Timezone: b.timezone,
	})
	if err != nil {
		logger.Error().Err(err).Msg("chat request failed")
		return c.Send(core.UserMessage(err))
	}

	return b.sender.sendMarkdown(ctx, c.Recipient(), renderResponse(resp))
}

// renderResponse appends the cited document ids to search answers.
func renderResponse(resp core.ChatResponse) string {
	if resp.Kind != core.ResponseSearch || len(resp.DocumentIDs) == 0 {
		return resp.Answer
	}
	refs := ""
	for i, id := range resp.DocumentIDs {
		if i > 0 {
			refs += ", "
		}
		refs += "`" + id + "`"
	}
	return resp.Answer + "\n\n_참고 문서: " + refs + "_"
}
