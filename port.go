package flow

import "fmt"

// PortID identifies a named input or output slot on a component. Port
// identity is a small integer; labels and descriptions are purely advisory
// and never consulted by the scheduler.
type PortID int

// Port is static metadata describing one input or output slot. Immutable
// once a component has been constructed.
type Port struct {
	ID          PortID
	Label       string
	Description string
}

// Ports is an ordered, duplicate-free sequence of Port metadata — either a
// component's inputs or its outputs. Build one with NewPorts.
type Ports struct {
	ordered []Port
	byID    map[PortID]int
	byLabel map[string]struct{}
}

// NewPorts builds a Ports set from an ordered list. Duplicate ids or
// duplicate non-empty labels are a construction-time programmer error: the
// port set is static metadata supplied by the component author, so NewPorts
// panics rather than returning an error, the same way the macro-generated
// port descriptors in the reference implementation reject malformed input
// at compile time.
func NewPorts(ports []Port) *Ports {
	p := &Ports{
		ordered: make([]Port, 0, len(ports)),
		byID:    make(map[PortID]int, len(ports)),
		byLabel: make(map[string]struct{}, len(ports)),
	}

	for _, port := range ports {
		if _, exists := p.byID[port.ID]; exists {
			panic(fmt.Sprintf("flow: duplicate port id %d", port.ID))
		}
		if port.Label != "" {
			if _, exists := p.byLabel[port.Label]; exists {
				panic(fmt.Sprintf("flow: duplicate port label %q", port.Label))
			}
			p.byLabel[port.Label] = struct{}{}
		}

		p.byID[port.ID] = len(p.ordered)
		p.ordered = append(p.ordered, port)
	}

	return p
}

// Contains reports whether id names a port in this set.
func (p *Ports) Contains(id PortID) bool {
	if p == nil {
		return false
	}
	_, ok := p.byID[id]
	return ok
}

// IsEmpty reports whether the set declares no ports at all.
func (p *Ports) IsEmpty() bool {
	return p == nil || len(p.ordered) == 0
}

// IDs returns the declared port ids in declaration order.
func (p *Ports) IDs() []PortID {
	if p == nil {
		return nil
	}
	ids := make([]PortID, len(p.ordered))
	for i, port := range p.ordered {
		ids[i] = port.ID
	}
	return ids
}

// Len returns the number of declared ports.
func (p *Ports) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ordered)
}
