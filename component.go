package flow

// ComponentKind selects a component's firing rule.
type ComponentKind int

const (
	// Lazy fires whenever all of its input queues hold at least one
	// package. This is the default kind.
	Lazy ComponentKind = iota
	// Eager additionally defers if any ancestor is simultaneously ready,
	// giving that ancestor its cycle first.
	Eager
)

func (k ComponentKind) String() string {
	if k == Eager {
		return "eager"
	}
	return "lazy"
}

// Signal is the result of a single firing: whether the run should continue
// to the next cycle, or stop here.
type Signal int

const (
	// Continue proceeds to the next cycle as usual.
	Continue Signal = iota
	// Break terminates the run immediately after this cycle's firings,
	// returning the Global Bag as it stands. It is not an error.
	Break
)

// Component is the interface every node in a Flow implements: static
// input/output port descriptors plus an asynchronous body that runs once
// per firing.
type Component interface {
	// Kind selects the firing rule. Most components are Lazy.
	Kind() ComponentKind

	// Inputs declares the component's input ports. A component with no
	// input ports is an entry component: it fires exactly once, in the
	// first cycle.
	Inputs() *Ports

	// Outputs declares the component's output ports.
	Outputs() *Ports

	// Run executes one firing. It must read from or close at least one
	// input queue (via ctx) unless this is the component's first firing as
	// an entry component, or the run fails with NoPackageConsumedError.
	Run(ctx *Context) (Signal, error)
}
