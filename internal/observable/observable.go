// Package observable provides per-property change subscription and named
// signals for stateful editor objects.
//
// An owning type embeds Observable and gives every tracked property exactly
// one setter method. The setter stores the new value and then calls Publish,
// which synchronously invokes the subscribers of that property:
//
//	type Heliostat struct {
//	    observable.Observable[Property, Signal]
//	    name string
//	}
//
//	func (h *Heliostat) SetName(name string) {
//	    h.name = name
//	    h.Publish(PropName, name)
//	}
//
// Setters are the only sanctioned mutation path. Writing the field directly
// bypasses notification.
//
// Signals are argument-less events raised by the owner with Notify.
// Consumers bind with Subscribe or Connect and never call Publish or Notify
// on an object they do not own.
package observable

import "sync"

// Unsubscribe removes the subscription it was returned for.
// Calling it more than once is a no-op.
type Unsubscribe func()

type propertyEntry struct {
	id uint64
	fn func(value any)
}

type signalEntry struct {
	id uint64
	fn func()
}

// Observable holds the subscriber tables of one object. P is the closed set of
// property names and S the closed set of signal names of the owning type.
//
// The zero value is ready to use. An Observable must not be copied after
// first use.
type Observable[P ~string, S ~string] struct {
	mu sync.RWMutex

	// Keys are present only while at least one entry is registered.
	properties map[P][]propertyEntry
	signals    map[S][]signalEntry

	nextID uint64
}

// Subscribe registers fn to be called with the new value whenever the owner
// publishes name. Subscribers run in registration order.
func (o *Observable[P, S]) Subscribe(name P, fn func(value any)) Unsubscribe {
	if fn == nil {
		panic("observable: nil property callback")
	}

	o.mu.Lock()
	if o.properties == nil {
		o.properties = make(map[P][]propertyEntry)
	}
	o.nextID++
	id := o.nextID
	o.properties[name] = append(o.properties[name], propertyEntry{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { o.removeProperty(name, id) })
	}
}

// Connect registers fn to be called whenever the owner notifies signal.
func (o *Observable[P, S]) Connect(signal S, fn func()) Unsubscribe {
	if fn == nil {
		panic("observable: nil signal callback")
	}

	o.mu.Lock()
	if o.signals == nil {
		o.signals = make(map[S][]signalEntry)
	}
	o.nextID++
	id := o.nextID
	o.signals[signal] = append(o.signals[signal], signalEntry{id: id, fn: fn})
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { o.removeSignal(signal, id) })
	}
}

// Publish invokes every subscriber of name with value, synchronously and in
// the caller's goroutine. It must be called by the owner after the new value
// has been stored.
func (o *Observable[P, S]) Publish(name P, value any) {
	o.mu.RLock()
	entries := o.properties[name]
	snapshot := make([]propertyEntry, len(entries))
	copy(snapshot, entries)
	o.mu.RUnlock()

	for _, e := range snapshot {
		e.fn(value)
	}
}

// Notify invokes every listener connected to signal. Notifying a signal with
// no listeners does nothing.
func (o *Observable[P, S]) Notify(signal S) {
	o.mu.RLock()
	entries := o.signals[signal]
	snapshot := make([]signalEntry, len(entries))
	copy(snapshot, entries)
	o.mu.RUnlock()

	for _, e := range snapshot {
		e.fn()
	}
}

// Subscribers returns the number of callbacks subscribed to name.
func (o *Observable[P, S]) Subscribers(name P) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.properties[name])
}

// Listeners returns the number of callbacks connected to signal.
func (o *Observable[P, S]) Listeners(signal S) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.signals[signal])
}

// HasSubscribers reports whether any property or signal has a callback.
func (o *Observable[P, S]) HasSubscribers() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.properties) > 0 || len(o.signals) > 0
}

func (o *Observable[P, S]) removeProperty(name P, id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entries := o.properties[name]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		next := append(entries[:i:i], entries[i+1:]...)
		if len(next) == 0 {
			delete(o.properties, name)
		} else {
			o.properties[name] = next
		}
		return
	}
}

func (o *Observable[P, S]) removeSignal(signal S, id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entries := o.signals[signal]
	for i, e := range entries {
		if e.id != id {
			continue
		}
		next := append(entries[:i:i], entries[i+1:]...)
		if len(next) == 0 {
			delete(o.signals, signal)
		} else {
			o.signals[signal] = next
		}
		return
	}
}

// Subscriber is the property subscription side of an Observable.
type Subscriber[P ~string] interface {
	Subscribe(name P, fn func(value any)) Unsubscribe
}

// Watch subscribes to name with a typed callback. Published values whose
// dynamic type is not T are ignored.
func Watch[T any, P ~string](src Subscriber[P], name P, fn func(T)) Unsubscribe {
	if fn == nil {
		panic("observable: nil property callback")
	}
	return src.Subscribe(name, func(value any) {
		if v, ok := value.(T); ok {
			fn(v)
		}
	})
}
