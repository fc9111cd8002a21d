package flow

import (
	"context"
	"fmt"
)

// Context is a component's per-firing view of the engine: send buffers per
// output port, receive queues per input port, a handle to the shared
// Global Bag, its own identity, and the current cycle number. It is the
// only surface a component body uses (spec §4.5).
//
// At any moment a Context is used either by the scheduler (between
// firings) or by the single firing currently running — never both. The
// Context stays in the scheduler's pool throughout; the scheduler only
// resets it before spawning the firing and does not read or route into it
// again until the cycle's barrier has seen every firing return.
type Context struct {
	id      ComponentID
	kind    ComponentKind
	inputs  *Ports
	outputs *Ports

	send    map[PortID][]Package
	receive map[PortID]*portQueue

	consumed bool
	cycle    uint32

	global *GlobalBag
	stdctx context.Context
}

func newContext(id ComponentID, kind ComponentKind, inputs, outputs *Ports, global *GlobalBag) *Context {
	receive := make(map[PortID]*portQueue, inputs.Len())
	for _, p := range inputs.IDs() {
		receive[p] = newPortQueue()
	}

	return &Context{
		id:      id,
		kind:    kind,
		inputs:  inputs,
		outputs: outputs,
		send:    make(map[PortID][]Package, outputs.Len()),
		receive: receive,
		global:  global,
	}
}

// ID returns the component's stable identity.
func (c *Context) ID() ComponentID { return c.id }

// Cycle returns the cycle number this firing belongs to.
func (c *Context) Cycle() uint32 { return c.cycle }

// Global returns the handle to the run's shared Global Bag. Use the
// package-level GlobalWith / GlobalWithMut functions to access a typed slot.
func (c *Context) Global() *GlobalBag { return c.global }

// StdContext returns the run-scoped standard library context, derived from
// the context passed to Flow.Run and cancelled if any firing in the run
// errors. Component bodies that perform blocking I/O (HTTP calls, database
// queries, …) should thread this through rather than using context.Background.
func (c *Context) StdContext() context.Context {
	if c.stdctx == nil {
		return context.Background()
	}
	return c.stdctx
}

func (c *Context) queue(port PortID) *portQueue {
	q, ok := c.receive[port]
	if !ok {
		panic(fmt.Sprintf("%v: component %d: %v", ErrQueueNotCreated, c.id, port))
	}
	return q
}

// Receive pops one package from the given input queue, or returns
// (nil, false) if it is empty or closed. Sets consumed=true. Panics if port
// is not one of the component's declared input ports.
func (c *Context) Receive(port PortID) (Package, bool) {
	c.consumed = true
	return c.queue(port).pop()
}

// ReceiveAll drains the given input queue to a slice (possibly empty). Sets
// consumed=true. Panics on an unknown port.
func (c *Context) ReceiveAll(port PortID) []Package {
	c.consumed = true
	return c.queue(port).drain()
}

// ReceiveMany pops one package from each of the given input queues,
// atomically within this firing: either every listed queue has at least one
// package and one is popped from each, or nothing is popped and (nil, false)
// is returned. Sets consumed=true regardless of outcome. Panics on an
// unknown or duplicate port.
func (c *Context) ReceiveMany(ports []PortID) ([]Package, bool) {
	c.consumed = true

	seen := make(map[PortID]struct{}, len(ports))
	queues := make([]*portQueue, len(ports))
	for i, p := range ports {
		if _, dup := seen[p]; dup {
			panic(fmt.Sprintf("flow: component %d: duplicate port %v in ReceiveMany", c.id, p))
		}
		seen[p] = struct{}{}
		queues[i] = c.queue(p)
	}

	for _, q := range queues {
		if !q.ready() {
			return nil, false
		}
	}

	result := make([]Package, len(queues))
	for i, q := range queues {
		pkg, _ := q.pop()
		result[i] = pkg
	}
	return result, true
}

// Close marks an input as closed: queued packages are discarded and any
// future routed deliveries are silently dropped. Sets consumed=true. Panics
// on an unknown port.
func (c *Context) Close(port PortID) {
	c.consumed = true
	c.queue(port).close()
}

// Send enqueues a package on an output buffer, to be fanned out once this
// firing returns. Panics if port is not one of the component's declared
// output ports.
func (c *Context) Send(port PortID, pkg Package) {
	if !c.outputs.Contains(port) {
		panic(fmt.Sprintf("%v: component %d: output %v", ErrQueueNotCreated, c.id, port))
	}
	c.send[port] = append(c.send[port], pkg)
}

// SendAll enqueues many packages on an output buffer, preserving order.
func (c *Context) SendAll(port PortID, pkgs []Package) {
	if !c.outputs.Contains(port) {
		panic(fmt.Sprintf("%v: component %d: output %v", ErrQueueNotCreated, c.id, port))
	}
	c.send[port] = append(c.send[port], pkgs...)
}

// resetForFiring prepares the context for a new firing: clears consumed,
// stamps the cycle number, and ensures send buffers start empty (any
// previous cycle's buffers were already moved out during fan-out).
func (c *Context) resetForFiring(cycle uint32, stdctx context.Context) {
	c.consumed = false
	c.cycle = cycle
	c.stdctx = stdctx
	for port := range c.send {
		c.send[port] = nil
	}
}

// ready reports whether every declared input queue satisfies the base
// candidate rule: non-empty and open.
func (c *Context) ready() bool {
	if c.inputs.IsEmpty() {
		return false
	}
	for _, port := range c.inputs.IDs() {
		if !c.receive[port].ready() {
			return false
		}
	}
	return true
}
