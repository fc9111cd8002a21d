package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Run executes the flow to completion, driving cycles until the graph
// quiesces, a firing returns Break, or a firing errors. It consumes global:
// on success the same bag (as mutated by every firing) is returned; on
// error it is dropped.
//
// Run is the Scheduler described in spec §4.6. Parallel firings within a
// cycle run as goroutines under an errgroup, which doubles as the per-cycle
// barrier and as the "first error cancels the rest" propagation the
// concurrency model calls for.
func (f *Flow) Run(ctx context.Context, global *GlobalBag) (*GlobalBag, error) {
	pool := make(map[ComponentID]*Context, len(f.components))
	for id, c := range f.components {
		pool[id] = newContext(id, c.Kind(), c.Inputs(), c.Outputs(), global)
	}

	entry := f.entrySet()

	for cycle := uint32(1); ; cycle++ {
		var ready []ComponentID
		if cycle == 1 {
			ready = entry
		} else {
			ready = f.readySet(pool)
		}

		if len(ready) == 0 {
			return global, nil
		}

		signals, err := f.fireCycle(ctx, cycle, ready, pool)
		if err != nil {
			return nil, err
		}

		brokeEarly := false
		for _, sig := range signals {
			if sig == Break {
				brokeEarly = true
				break
			}
		}
		if brokeEarly {
			return global, nil
		}

		for _, id := range ready {
			if cycle == 1 {
				// entry components never require consumption on their
				// first (and only) firing.
				continue
			}
			if !pool[id].consumed {
				return nil, &NoPackageConsumedError{ID: id}
			}
		}

		f.fanOut(ready, pool)
	}
}

// entrySet returns every component with zero declared input ports, in
// insertion order. These fire exactly once, in cycle 1.
func (f *Flow) entrySet() []ComponentID {
	var entry []ComponentID
	for _, id := range f.order {
		if f.components[id].Inputs().IsEmpty() {
			entry = append(entry, id)
		}
	}
	return entry
}

// readySet computes Ready(state) per spec §4.6: base candidates are
// components with at least one input port, all of whose input queues are
// non-empty and open; Eager candidates are then dropped if any other
// candidate is their ancestor.
func (f *Flow) readySet(pool map[ComponentID]*Context) []ComponentID {
	var candidates []ComponentID
	for _, id := range f.order {
		if pool[id].ready() {
			candidates = append(candidates, id)
		}
	}

	var ready []ComponentID
	for _, id := range candidates {
		if f.components[id].Kind() == Eager {
			others := make([]ComponentID, 0, len(candidates)-1)
			for _, c := range candidates {
				if c != id {
					others = append(others, c)
				}
			}
			if f.graph.anyAncestorOf(others, id) {
				continue
			}
		}
		ready = append(ready, id)
	}

	return ready
}

// fireCycle resets and fires every ready component concurrently, using an
// errgroup as the per-cycle barrier: if any firing errors, the remaining
// in-flight firings are cancelled (per the errgroup's context) and the
// first error is returned. Each firing works on its own Context, which
// stays in pool; the caller touches those contexts again only after this
// function returns. When the group errors, the whole run aborts and the
// pool is discarded by the caller.
func (f *Flow) fireCycle(ctx context.Context, cycle uint32, ready []ComponentID, pool map[ComponentID]*Context) (map[ComponentID]Signal, error) {
	group, groupCtx := errgroup.WithContext(ctx)

	signals := make(map[ComponentID]Signal, len(ready))
	var mu sync.Mutex

	for _, id := range ready {
		id := id
		c := f.components[id]
		fctx := pool[id]
		fctx.resetForFiring(cycle, groupCtx)

		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{ID: id, Value: r}
				}
			}()

			sig, runErr := c.Run(fctx)
			if runErr != nil {
				return fmt.Errorf("component %d: %w", id, runErr)
			}

			mu.Lock()
			signals[id] = sig
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return signals, nil
}

// fanOut distributes every pending output package from this cycle's firings
// to its downstream input queues, per spec §4.6 step 7: an output with no
// downstream targets drops its buffer; one target gets the buffer moved
// as-is; k>1 targets each get a full copy, with the last target receiving
// the original packages (saving one Clone per package). Closed input queues
// silently discard what's routed to them.
func (f *Flow) fanOut(fired []ComponentID, pool map[ComponentID]*Context) {
	for _, id := range fired {
		fctx := pool[id]
		ports := make([]PortID, 0, len(fctx.send))
		for port := range fctx.send {
			ports = append(ports, port)
		}
		sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })

		for _, port := range ports {
			buf := fctx.send[port]
			fctx.send[port] = nil
			if len(buf) == 0 {
				continue
			}

			targets := f.graph.targetsOf(id, port)
			if len(targets) == 0 {
				continue
			}

			for _, pkg := range buf {
				for i, target := range targets {
					deliver := pkg
					if i != len(targets)-1 {
						deliver = pkg.Clone()
					}
					pool[target.ID].receive[target.Port].push(deliver)
				}
			}
		}
	}
}
