package flow

import (
	"reflect"
	"sync"
)

// GlobalBag is the shared, type-indexed container read and written by
// components during a run, per spec §4.7. The top-level map is built up by
// the caller before a run starts and is immutable while a run is in flight;
// each per-type slot is guarded by its own reader/writer lock so unrelated
// types never contend with each other.
type GlobalBag struct {
	mu    sync.RWMutex
	slots map[reflect.Type]*globalSlot
}

type globalSlot struct {
	mu       sync.RWMutex
	value    any
	poisoned bool
}

// NewGlobalBag returns an empty bag, ready for GlobalAdd calls before a run.
func NewGlobalBag() *GlobalBag {
	return &GlobalBag{slots: make(map[reflect.Type]*globalSlot)}
}

// GlobalAdd installs or replaces the slot for T's type.
func GlobalAdd[T any](b *GlobalBag, value T) {
	t := reflect.TypeFor[T]()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[t] = &globalSlot{value: value}
}

// GlobalRemove removes and returns the slot for T, if any.
func GlobalRemove[T any](b *GlobalBag) (T, bool) {
	t := reflect.TypeFor[T]()

	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.slots[t]
	if !ok {
		var zero T
		return zero, false
	}
	delete(b.slots, t)

	v, _ := slot.value.(T)
	return v, true
}

// GlobalWith acquires a reader lock on T's slot and invokes f, returning
// f's result. ok is false iff no slot for T exists (not an error). err is
// ErrCannotAccessGlobal iff f panics during this access or the slot is
// already considered poisoned because a previous access to it panicked.
func GlobalWith[T any, R any](b *GlobalBag, f func(*T) R) (result R, ok bool, err error) {
	return globalAccess[T, R](b, false, f)
}

// GlobalWithMut is GlobalWith with a writer lock, for mutating access.
func GlobalWithMut[T any, R any](b *GlobalBag, f func(*T) R) (result R, ok bool, err error) {
	return globalAccess[T, R](b, true, f)
}

func globalAccess[T any, R any](b *GlobalBag, write bool, f func(*T) R) (result R, ok bool, err error) {
	t := reflect.TypeFor[T]()

	b.mu.RLock()
	slot, found := b.slots[t]
	b.mu.RUnlock()

	if !found {
		return result, false, nil
	}

	if write {
		slot.mu.Lock()
		defer slot.mu.Unlock()
	} else {
		slot.mu.RLock()
		defer slot.mu.RUnlock()
	}

	if slot.poisoned {
		return result, true, ErrCannotAccessGlobal
	}

	defer func() {
		if r := recover(); r != nil {
			slot.poisoned = true
			ok = true
			err = ErrCannotAccessGlobal
		}
	}()

	// GlobalAdd stores the slot's value by value, so f operates on the
	// address of a local copy; for GlobalWithMut the mutated copy is written
	// back under the same write lock once f returns.
	stored, _ := slot.value.(T)
	result = f(&stored)
	if write {
		slot.value = stored
	}
	return result, true, nil
}
