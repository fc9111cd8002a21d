package components

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
	"github.com/rakunlabs/logi"
	"github.com/rytsh/mugo/fstore"
	_ "github.com/rytsh/mugo/fstore/registry"
	"github.com/rytsh/mugo/templatex"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Log logs every package it receives through rakunlabs/logi at a configured
// level, then passes the package through unchanged on its Out port.
// Message supports a Go text/template rendered against the package
// converted to a plain value tree (see variant.ToAny).
type Log struct {
	In  flow.PortID
	Out flow.PortID

	// Level is "debug" | "info" | "warn" | "error" (default "info").
	Level string
	// Message is a text/template string rendered with the received package
	// as its data; empty means a static "received package" message.
	Message string
}

func (c *Log) Kind() flow.ComponentKind { return flow.Lazy }
func (c *Log) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *Log) Outputs() *flow.Ports     { return flow.NewPorts([]flow.Port{{ID: c.Out}}) }

func (c *Log) level() slog.Level {
	level, ok := logLevels[strings.ToLower(c.Level)]
	if !ok {
		return slog.LevelInfo
	}
	return level
}

func (c *Log) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		data := toPlain(pkg)

		msg := "received package"
		if c.Message != "" {
			rendered, err := renderTemplate(c.Message, data)
			if err != nil {
				return flow.Continue, fmt.Errorf("components: log: %w", err)
			}
			msg = rendered
		}

		logi.Ctx(ctx.StdContext()).Log(ctx.StdContext(), c.level(), msg, "data", data)
		ctx.Send(c.Out, pkg)
	}
	return flow.Continue, nil
}

// toPlain converts a flow.Package into the map/slice/scalar shape templates
// and structured logging expect. variant.Value packages convert exactly;
// any other Package type is logged/rendered as-is.
func toPlain(pkg flow.Package) any {
	if v, ok := pkg.(variant.Value); ok {
		return variant.ToAny(v)
	}
	return pkg
}

// packageText extracts a best-effort text representation of a package, for
// components (chat senders) that need plain text rather than structured
// data. variant.String values are returned as-is; everything else falls
// back to fmt's default formatting.
func packageText(pkg flow.Package) string {
	if v, ok := pkg.(variant.Value); ok {
		if s, ok := v.String(); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", toPlain(pkg))
}

func renderTemplate(tmpl string, data any) (string, error) {
	t := templatex.New(
		templatex.WithAddFuncMapWithOpts(func(o templatex.Option) map[string]any {
			return fstore.FuncMap(
				fstore.WithTrust(true),
				fstore.WithExecuteTemplate(o.T),
			)
		}),
	)

	var buf strings.Builder
	if err := t.Execute(
		templatex.WithIO(&buf),
		templatex.WithContent(tmpl),
		templatex.WithData(data),
	); err != nil {
		return "", err
	}
	return buf.String(), nil
}
