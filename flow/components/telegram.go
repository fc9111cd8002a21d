package components

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rakunlabs/flow"
)

// Telegram sends each received package's text as a Telegram message to a
// fixed chat, the minimal single-send counterpart to Discord.
type Telegram struct {
	In flow.PortID

	Token  string
	ChatID int64

	bot *tgbotapi.BotAPI
}

func (c *Telegram) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Telegram) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Telegram) Outputs() *flow.Ports     { return flow.NewPorts(nil) }

func (c *Telegram) client() (*tgbotapi.BotAPI, error) {
	if c.bot != nil {
		return c.bot, nil
	}
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, err
	}
	c.bot = bot
	return bot, nil
}

func (c *Telegram) Run(ctx *flow.Context) (flow.Signal, error) {
	bot, err := c.client()
	if err != nil {
		return flow.Continue, fmt.Errorf("components: telegram: %w", err)
	}

	for _, pkg := range ctx.ReceiveAll(c.In) {
		msg := tgbotapi.NewMessage(c.ChatID, packageText(pkg))
		if _, err := bot.Send(msg); err != nil {
			return flow.Continue, fmt.Errorf("components: telegram: send: %w", err)
		}
	}
	return flow.Continue, nil
}
