package components

import (
	"context"
	"testing"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
)

// runOnce builds a two-component flow — c1 feeding c2 — and runs it to
// completion, failing the test on any build or run error.
func runOnce(t *testing.T, c1, c2 flow.Component, fromPort, toPort flow.PortID) {
	t.Helper()

	f := flow.NewFlow()
	if err := f.AddComponent(1, c1); err != nil {
		t.Fatalf("add component 1: %v", err)
	}
	if err := f.AddComponent(2, c2); err != nil {
		t.Fatalf("add component 2: %v", err)
	}
	if err := f.AddConnection(1, fromPort, 2, toPort); err != nil {
		t.Fatalf("add connection: %v", err)
	}

	if _, err := f.Run(context.Background(), flow.NewGlobalBag()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

// capture is a tiny sink used to inspect what a component sent downstream.
type capture struct {
	in       flow.PortID
	received []flow.Package
}

func (c *capture) Kind() flow.ComponentKind { return flow.Lazy }
func (c *capture) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.in}}) }
func (c *capture) Outputs() *flow.Ports     { return flow.NewPorts(nil) }
func (c *capture) Run(ctx *flow.Context) (flow.Signal, error) {
	c.received = append(c.received, ctx.ReceiveAll(c.in)...)
	return flow.Continue, nil
}

func TestMessageEmitsConfiguredValue(t *testing.T) {
	msg := &Message{Port: 0, Value: variant.String("hi")}
	sink := &capture{in: 0}

	runOnce(t, msg, sink, 0, 0)

	if !msg.sent {
		t.Fatal("expected Message to have fired")
	}
	if len(sink.received) != 1 {
		t.Fatalf("sink received %d packages, want 1", len(sink.received))
	}
	s, ok := sink.received[0].(variant.Value).String()
	if !ok || s != "hi" {
		t.Fatalf("sink received %q, want %q", s, "hi")
	}
}

func TestLogPassesThroughUnchanged(t *testing.T) {
	msg := &Message{Port: 0, Value: variant.String("payload")}
	log := &Log{In: 0, Out: 0, Level: "info"}
	sink := &capture{in: 0}

	f := flow.NewFlow()
	mustAdd(t, f, 1, msg)
	mustAdd(t, f, 2, log)
	mustAdd(t, f, 3, sink)
	mustConnect(t, f, 1, 0, 2, 0)
	mustConnect(t, f, 2, 0, 3, 0)

	if _, err := f.Run(context.Background(), flow.NewGlobalBag()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.received) != 1 {
		t.Fatalf("sink received %d packages, want 1", len(sink.received))
	}
	s, ok := sink.received[0].(variant.Value).String()
	if !ok || s != "payload" {
		t.Fatalf("sink received %q, want %q", s, "payload")
	}
}

func TestLogUnknownLevelFallsBackToInfo(t *testing.T) {
	log := &Log{Level: "bogus"}
	if log.level().String() != "INFO" {
		t.Fatalf("unknown level should fall back to info, got %v", log.level())
	}
}

func TestTemplateRendersPackage(t *testing.T) {
	msg := &Message{Port: 0, Value: variant.String("Ada")}
	tmpl := &Template{In: 0, Out: 0, Tmpl: "hello {{ . }}"}
	sink := &capture{in: 0}

	f := flow.NewFlow()
	mustAdd(t, f, 1, msg)
	mustAdd(t, f, 2, tmpl)
	mustAdd(t, f, 3, sink)
	mustConnect(t, f, 1, 0, 2, 0)
	mustConnect(t, f, 2, 0, 3, 0)

	if _, err := f.Run(context.Background(), flow.NewGlobalBag()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.received) != 1 {
		t.Fatalf("sink received %d packages, want 1", len(sink.received))
	}
	s, ok := sink.received[0].(variant.Value).String()
	if !ok || s != "hello Ada" {
		t.Fatalf("sink received %q, want %q", s, "hello Ada")
	}
}

func TestScriptTransformsPackage(t *testing.T) {
	msg := &Message{Port: 0, Value: variant.String("world")}
	script := &Script{In: 0, Out: 0, Handler: "return 'hello ' + data;"}
	sink := &capture{in: 0}

	f := flow.NewFlow()
	mustAdd(t, f, 1, msg)
	mustAdd(t, f, 2, script)
	mustAdd(t, f, 3, sink)
	mustConnect(t, f, 1, 0, 2, 0)
	mustConnect(t, f, 2, 0, 3, 0)

	if _, err := f.Run(context.Background(), flow.NewGlobalBag()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.received) != 1 {
		t.Fatalf("sink received %d packages, want 1", len(sink.received))
	}
	s, ok := sink.received[0].(variant.Value).String()
	if !ok || s != "hello world" {
		t.Fatalf("sink received %q, want %q", s, "hello world")
	}
}

func TestULIDStampAddsIDAndCycle(t *testing.T) {
	msg := &Message{Port: 0, Value: variant.String("x")}
	stamp := &ULIDStamp{In: 0, Out: 0}
	sink := &capture{in: 0}

	f := flow.NewFlow()
	mustAdd(t, f, 1, msg)
	mustAdd(t, f, 2, stamp)
	mustAdd(t, f, 3, sink)
	mustConnect(t, f, 1, 0, 2, 0)
	mustConnect(t, f, 2, 0, 3, 0)

	if _, err := f.Run(context.Background(), flow.NewGlobalBag()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(sink.received) != 1 {
		t.Fatalf("sink received %d packages, want 1", len(sink.received))
	}
	obj, ok := sink.received[0].(variant.Value).Object()
	if !ok {
		t.Fatal("expected an object result")
	}
	if _, ok := obj["id"]; !ok {
		t.Fatal("expected an 'id' field")
	}
	cycle, ok := obj["cycle"].Number()
	if !ok || cycle != 2 {
		t.Fatalf("cycle = %v, want 2", cycle)
	}
}

func mustAdd(t *testing.T, f *flow.Flow, id flow.ComponentID, c flow.Component) {
	t.Helper()
	if err := f.AddComponent(id, c); err != nil {
		t.Fatalf("add component %d: %v", id, err)
	}
}

func mustConnect(t *testing.T, f *flow.Flow, fromID flow.ComponentID, outPort flow.PortID, toID flow.ComponentID, inPort flow.PortID) {
	t.Helper()
	if err := f.AddConnection(fromID, outPort, toID, inPort); err != nil {
		t.Fatalf("add connection: %v", err)
	}
}
