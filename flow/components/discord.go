package components

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rakunlabs/flow"
)

// Discord posts each received package's text to a Discord channel via a
// plain REST session (no gateway connection — the engine only ever needs
// to send, not receive, so the gateway/session machinery the teacher's bot
// commands rely on is not wired here).
type Discord struct {
	In flow.PortID

	Token     string
	ChannelID string

	session *discordgo.Session
}

func (c *Discord) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Discord) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Discord) Outputs() *flow.Ports     { return flow.NewPorts(nil) }

func (c *Discord) client() (*discordgo.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	session, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, err
	}
	c.session = session
	return session, nil
}

func (c *Discord) Run(ctx *flow.Context) (flow.Signal, error) {
	session, err := c.client()
	if err != nil {
		return flow.Continue, fmt.Errorf("components: discord: %w", err)
	}

	for _, pkg := range ctx.ReceiveAll(c.In) {
		text := packageText(pkg)
		if _, err := session.ChannelMessageSend(c.ChannelID, text); err != nil {
			return flow.Continue, fmt.Errorf("components: discord: send: %w", err)
		}
	}
	return flow.Continue, nil
}
