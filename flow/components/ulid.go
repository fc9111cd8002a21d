package components

import (
	"github.com/oklog/ulid/v2"
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// ULIDStamp stamps each received package with a fresh ULID and the firing's
// cycle number, emitting an object of {id, cycle, data}. Grounded on the
// teacher's use of oklog/ulid for run/session identifiers throughout the
// store packages.
type ULIDStamp struct {
	In  flow.PortID
	Out flow.PortID
}

func (c *ULIDStamp) Kind() flow.ComponentKind { return flow.Lazy }
func (c *ULIDStamp) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *ULIDStamp) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *ULIDStamp) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		out, err := variant.FromAny(map[string]any{
			"id":    ulid.Make().String(),
			"cycle": float64(ctx.Cycle()),
			"data":  toPlain(pkg),
		})
		if err != nil {
			return flow.Continue, err
		}
		ctx.Send(c.Out, out)
	}
	return flow.Continue, nil
}
