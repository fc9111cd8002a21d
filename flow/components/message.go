// Package components is a library of ready-made flow.Component
// implementations exercising the engine's surrounding ecosystem: logging,
// scripting, templating, HTTP, mail, chat, databases, git, and OAuth2.
// None of them is special-cased by the scheduler; they are ordinary
// components built against the flow.Context contract.
package components

import (
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// Message is an entry component: it has no input ports and emits a single,
// pre-configured variant.Value once, during cycle 1.
type Message struct {
	// Port is the output port the value is sent on.
	Port flow.PortID
	// Value is emitted verbatim (not cloned further; the scheduler clones on
	// fan-out as needed).
	Value variant.Value

	sent bool
}

func (c *Message) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Message) Inputs() *flow.Ports      { return flow.NewPorts(nil) }
func (c *Message) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Port}}) }

func (c *Message) Run(ctx *flow.Context) (flow.Signal, error) {
	ctx.Send(c.Port, c.Value)
	c.sent = true
	return flow.Continue, nil
}
