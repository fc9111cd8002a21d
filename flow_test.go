package flow

import (
	"context"
	"errors"
	"testing"
)

// stringPkg is a minimal flow.Package used throughout the tests.
type stringPkg struct {
	id    int // identity marker; Clone copies it unchanged
	value string
}

func (p stringPkg) Clone() Package {
	return stringPkg{id: p.id, value: p.value}
}

// onceEmit fires once (it has no input ports) and sends value on port 0,
// then returns Continue.
type onceEmit struct {
	value string
	sent  bool
}

func (c *onceEmit) Kind() ComponentKind { return Lazy }
func (c *onceEmit) Inputs() *Ports      { return NewPorts(nil) }
func (c *onceEmit) Outputs() *Ports     { return NewPorts([]Port{{ID: 0}}) }
func (c *onceEmit) Run(ctx *Context) (Signal, error) {
	ctx.Send(0, stringPkg{value: c.value})
	c.sent = true
	return Continue, nil
}

// sink drains its single input port each firing and records everything it
// has ever seen.
type sink struct {
	received []Package
}

func (c *sink) Kind() ComponentKind { return Lazy }
func (c *sink) Inputs() *Ports      { return NewPorts([]Port{{ID: 0}}) }
func (c *sink) Outputs() *Ports     { return NewPorts(nil) }
func (c *sink) Run(ctx *Context) (Signal, error) {
	for _, pkg := range ctx.ReceiveAll(0) {
		c.received = append(c.received, pkg)
	}
	return Continue, nil
}

// counterGlobal is the Global Bag slot type used by the hello+world scenario.
type counterGlobal struct {
	count int
}

// incrementingSink behaves like sink but also bumps a global counter.
type incrementingSink struct {
	sink
}

func (c *incrementingSink) Run(ctx *Context) (Signal, error) {
	for _, pkg := range ctx.ReceiveAll(0) {
		c.received = append(c.received, pkg)
		_, _, err := GlobalWithMut(ctx.Global(), func(g *counterGlobal) struct{} {
			g.count++
			return struct{}{}
		})
		if err != nil {
			return Continue, err
		}
	}
	return Continue, nil
}

func TestHelloWorldToLog(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &onceEmit{value: "Hello"}))
	must(t, f.AddComponent(2, &onceEmit{value: "World"}))
	logComp := &incrementingSink{}
	must(t, f.AddComponent(3, logComp))

	must(t, f.AddConnection(1, 0, 3, 0))
	must(t, f.AddConnection(2, 0, 3, 0))

	global := NewGlobalBag()
	GlobalAdd(global, counterGlobal{})

	result, err := f.Run(context.Background(), global)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	count, ok, err := GlobalWith(result, func(g *counterGlobal) int { return g.count })
	if err != nil || !ok {
		t.Fatalf("read counter: ok=%v err=%v", ok, err)
	}
	if count != 2 {
		t.Fatalf("counter = %d, want 2", count)
	}
	if len(logComp.received) != 2 {
		t.Fatalf("log received %d packages, want 2", len(logComp.received))
	}
}

func TestFanOutClonesToEveryDownstream(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &onceEmit{value: "X"}))
	s2 := &sink{}
	s3 := &sink{}
	must(t, f.AddComponent(2, s2))
	must(t, f.AddComponent(3, s3))

	must(t, f.AddConnection(1, 0, 2, 0))
	must(t, f.AddConnection(1, 0, 3, 0))

	if _, err := f.Run(context.Background(), NewGlobalBag()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(s2.received) != 1 || len(s3.received) != 1 {
		t.Fatalf("expected exactly one package at each sink, got %d and %d", len(s2.received), len(s3.received))
	}

	p2 := s2.received[0].(stringPkg)
	p3 := s3.received[0].(stringPkg)
	if p2.value != "X" || p3.value != "X" {
		t.Fatalf("unexpected payloads: %+v, %+v", p2, p3)
	}
}

// passThrough forwards whatever it receives on input 0 to output 0.
type passThrough struct {
	firings int
}

func (c *passThrough) Kind() ComponentKind { return Lazy }
func (c *passThrough) Inputs() *Ports      { return NewPorts([]Port{{ID: 0}}) }
func (c *passThrough) Outputs() *Ports     { return NewPorts([]Port{{ID: 0}}) }
func (c *passThrough) Run(ctx *Context) (Signal, error) {
	c.firings++
	for _, pkg := range ctx.ReceiveAll(0) {
		ctx.Send(0, pkg)
	}
	return Continue, nil
}

// eagerJoin is Eager and records the cycle it fired on each time.
type eagerJoin struct {
	fireCycles []uint32
}

func (c *eagerJoin) Kind() ComponentKind { return Eager }
func (c *eagerJoin) Inputs() *Ports      { return NewPorts([]Port{{ID: 0}, {ID: 1}}) }
func (c *eagerJoin) Outputs() *Ports     { return NewPorts(nil) }
func (c *eagerJoin) Run(ctx *Context) (Signal, error) {
	c.fireCycles = append(c.fireCycles, ctx.Cycle())
	ctx.ReceiveAll(0)
	ctx.ReceiveAll(1)
	return Continue, nil
}

func TestEagerBarrierDefersWhileAncestorReady(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &onceEmit{value: "a"}))
	must(t, f.AddComponent(2, &onceEmit{value: "b"}))
	must(t, f.AddComponent(3, &passThrough{}))
	must(t, f.AddComponent(4, &passThrough{}))
	join := &eagerJoin{}
	must(t, f.AddComponent(5, join))

	must(t, f.AddConnection(1, 0, 3, 0))
	must(t, f.AddConnection(2, 0, 4, 0))
	must(t, f.AddConnection(3, 0, 5, 0))
	must(t, f.AddConnection(4, 0, 5, 1))
	// Direct edges from the entries make 5 a candidate in cycle 2, while its
	// ancestors 3 and 4 are candidates too, so Eager has to hold it back.
	must(t, f.AddConnection(1, 0, 5, 0))
	must(t, f.AddConnection(2, 0, 5, 1))

	if _, err := f.Run(context.Background(), NewGlobalBag()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(join.fireCycles) != 1 || join.fireCycles[0] != 3 {
		t.Fatalf("eager join fired on cycles %v, want [3]", join.fireCycles)
	}
}

func TestAddConnectionSelfLoopFails(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &passThrough{}))

	err := f.AddConnection(1, 0, 1, 0)
	if !errors.Is(err, ErrLoopCreated) {
		t.Fatalf("err = %v, want ErrLoopCreated", err)
	}
}

func TestAddConnectionCycleOfLengthThreeFails(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &passThrough{}))
	must(t, f.AddComponent(2, &passThrough{}))
	must(t, f.AddComponent(3, &passThrough{}))

	must(t, f.AddConnection(1, 0, 2, 0))
	must(t, f.AddConnection(2, 0, 3, 0))

	err := f.AddConnection(3, 0, 1, 0)
	if !errors.Is(err, ErrLoopCreated) {
		t.Fatalf("err = %v, want ErrLoopCreated", err)
	}

	// the graph must be unchanged: re-adding 1->2 should still report a
	// duplicate, not silently succeed because the failed add mutated state.
	err = f.AddConnection(1, 0, 2, 0)
	if !errors.Is(err, ErrConnectionAlreadyExist) {
		t.Fatalf("err = %v, want ErrConnectionAlreadyExist", err)
	}
}

// silentComponent never reads or closes any input.
type silentComponent struct{}

func (c *silentComponent) Kind() ComponentKind { return Lazy }
func (c *silentComponent) Inputs() *Ports      { return NewPorts([]Port{{ID: 0}}) }
func (c *silentComponent) Outputs() *Ports     { return NewPorts(nil) }
func (c *silentComponent) Run(ctx *Context) (Signal, error) {
	return Continue, nil
}

func TestNoPackageConsumedFaultsTheRun(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &onceEmit{value: "x"}))
	must(t, f.AddComponent(2, &silentComponent{}))
	must(t, f.AddConnection(1, 0, 2, 0))

	_, err := f.Run(context.Background(), NewGlobalBag())

	var npc *NoPackageConsumedError
	if !errors.As(err, &npc) {
		t.Fatalf("err = %v, want *NoPackageConsumedError", err)
	}
	if npc.ID != 2 {
		t.Fatalf("NoPackageConsumedError.ID = %d, want 2", npc.ID)
	}
}

// breaksOnFirstFiring drains its single input and returns Break on every
// firing, so its first firing ends the run.
type breaksOnFirstFiring struct {
	firings int
}

func (c *breaksOnFirstFiring) Kind() ComponentKind { return Lazy }
func (c *breaksOnFirstFiring) Inputs() *Ports      { return NewPorts([]Port{{ID: 0}}) }
func (c *breaksOnFirstFiring) Outputs() *Ports     { return NewPorts(nil) }
func (c *breaksOnFirstFiring) Run(ctx *Context) (Signal, error) {
	c.firings++
	ctx.ReceiveAll(0)
	return Break, nil
}

type emitThree struct{}

func (c *emitThree) Kind() ComponentKind { return Lazy }
func (c *emitThree) Inputs() *Ports      { return NewPorts(nil) }
func (c *emitThree) Outputs() *Ports     { return NewPorts([]Port{{ID: 0}}) }
func (c *emitThree) Run(ctx *Context) (Signal, error) {
	ctx.SendAll(0, []Package{stringPkg{value: "1"}, stringPkg{value: "2"}, stringPkg{value: "3"}})
	return Continue, nil
}

func TestBreakShortCircuitsTheRun(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &emitThree{}))
	brk := &breaksOnFirstFiring{}
	must(t, f.AddComponent(2, brk))
	must(t, f.AddConnection(1, 0, 2, 0))

	global, err := f.Run(context.Background(), NewGlobalBag())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if global == nil {
		t.Fatal("expected global to be returned on Break")
	}
	if brk.firings != 1 {
		t.Fatalf("firings = %d, want 1", brk.firings)
	}
}

func TestIdempotentBuildErrorsWithoutMutating(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &passThrough{}))

	err := f.AddComponent(1, &passThrough{})
	if !errors.Is(err, ErrComponentAlreadyExist) {
		t.Fatalf("err = %v, want ErrComponentAlreadyExist", err)
	}

	must(t, f.AddComponent(2, &passThrough{}))
	must(t, f.AddConnection(1, 0, 2, 0))

	err = f.AddConnection(1, 0, 2, 0)
	if !errors.Is(err, ErrConnectionAlreadyExist) {
		t.Fatalf("err = %v, want ErrConnectionAlreadyExist", err)
	}
}

func TestAddConnectionUnknownPorts(t *testing.T) {
	f := NewFlow()
	must(t, f.AddComponent(1, &passThrough{}))
	must(t, f.AddComponent(2, &passThrough{}))

	if err := f.AddConnection(1, 99, 2, 0); !errors.Is(err, ErrOutPortNotFound) {
		t.Fatalf("err = %v, want ErrOutPortNotFound", err)
	}
	if err := f.AddConnection(1, 0, 2, 99); !errors.Is(err, ErrInPortNotFound) {
		t.Fatalf("err = %v, want ErrInPortNotFound", err)
	}
	if err := f.AddConnection(1, 0, 3, 0); !errors.Is(err, ErrComponentNotFound) {
		t.Fatalf("err = %v, want ErrComponentNotFound", err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
