package components

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// Script runs a JS handler body (not a full function declaration, same
// convention as the teacher's ExecuteJSHandler) over each received package,
// exposed to the script as `data`, and sends the JS return value onward.
//
// Example handler: "return data.name + '!';"
type Script struct {
	In  flow.PortID
	Out flow.PortID

	Handler string
}

func (c *Script) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Script) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Script) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *Script) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		result, err := c.execute(toPlain(pkg))
		if err != nil {
			return flow.Continue, fmt.Errorf("components: script: %w", err)
		}

		out, err := variant.FromAny(result)
		if err != nil {
			return flow.Continue, fmt.Errorf("components: script: result: %w", err)
		}
		ctx.Send(c.Out, out)
	}
	return flow.Continue, nil
}

func (c *Script) execute(data any) (any, error) {
	vm := goja.New()
	if err := vm.Set("data", data); err != nil {
		return nil, fmt.Errorf("setup VM: %w", err)
	}

	script := "(function() {\n" + c.Handler + "\n})()"
	val, err := vm.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}

	exported := val.Export()
	switch v := exported.(type) {
	case string, bool, float64:
		return v, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), nil
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return string(raw), nil
		}
		return parsed, nil
	}
}
