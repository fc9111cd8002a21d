package flow

// Package is the opaque, clonable value routed between components. The
// engine never inspects a Package's contents; it only moves and clones it
// during fan-out. Component bodies and the optional variant façade
// (package flow/variant) are the only code that ever looks inside one.
type Package interface {
	// Clone produces an independent copy, used whenever an output endpoint
	// fans out to more than one downstream input (see Flow's fan-out step).
	// The original object is reused for the last downstream target; Clone is
	// only called for the other k-1 targets.
	Clone() Package
}

// ComponentID is a stable integer identity, unique within a Flow.
type ComponentID int
