package components

import (
	"fmt"
	"strings"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// Template renders a Go text/template (with the mugo function map, same as
// the teacher's internal/render package) against each received package and
// sends the rendered string back out as a variant.String.
type Template struct {
	In  flow.PortID
	Out flow.PortID

	// Tmpl is the template source.
	Tmpl string
}

func (c *Template) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Template) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Template) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *Template) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		rendered, err := renderTemplate(c.Tmpl, toPlain(pkg))
		if err != nil {
			return flow.Continue, fmt.Errorf("components: template: %w", err)
		}
		ctx.Send(c.Out, variant.String(strings.TrimSpace(rendered)))
	}
	return flow.Continue, nil
}
