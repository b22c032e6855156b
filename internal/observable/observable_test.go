package observable

import (
	"sync"
	"sync/atomic"
	"testing"
)

type testProperty string

type testSignal string

const (
	propX    testProperty = "x"
	propName testProperty = "name"

	sigS     testSignal = "s"
	sigOther testSignal = "other"
)

// point is a minimal owner with one setter per tracked property.
type point struct {
	Observable[testProperty, testSignal]
	x    int
	name string
}

func (p *point) SetX(x int) {
	p.x = x
	p.Publish(propX, x)
}

func (p *point) SetName(name string) {
	p.name = name
	p.Publish(propName, name)
}

func TestSubscribe_DeliversNewValue(t *testing.T) {
	p := &point{}

	var calls int
	var got any
	unsub := p.Subscribe(propX, func(v any) {
		calls++
		got = v
	})

	p.SetX(5)

	if calls != 1 {
		t.Fatalf("callback called %d times, want 1", calls)
	}
	if got != 5 {
		t.Errorf("callback value = %v, want 5", got)
	}

	unsub()
	p.SetX(6)

	if calls != 1 {
		t.Errorf("callback called after unsubscribe: %d calls", calls)
	}
	if p.x != 6 {
		t.Errorf("x = %d, want 6", p.x)
	}
}

func TestSubscribe_ValueStoredBeforeNotification(t *testing.T) {
	p := &point{}
	var seen int
	p.Subscribe(propX, func(any) { seen = p.x })

	p.SetX(42)

	if seen != 42 {
		t.Errorf("subscriber observed x = %d, want 42", seen)
	}
}

func TestSubscribe_OtherPropertyDoesNotFire(t *testing.T) {
	p := &point{}
	var calls int
	p.Subscribe(propName, func(any) { calls++ })

	p.SetX(1)

	if calls != 0 {
		t.Errorf("name subscriber called %d times for x write", calls)
	}
}

func TestSubscribe_NeverAssignedProperty(t *testing.T) {
	p := &point{}
	p.Subscribe(testProperty("never"), func(any) {
		t.Error("callback for unassigned property fired")
	})
	p.SetX(1)
	p.SetName("a")
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	p := &point{}
	var order []int
	for i := 0; i < 5; i++ {
		p.Subscribe(propX, func(any) { order = append(order, i) })
	}

	p.SetX(1)

	if len(order) != 5 {
		t.Fatalf("got %d calls, want 5", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	p := &point{}
	var a, b int
	unsubA := p.Subscribe(propX, func(any) { a++ })
	p.Subscribe(propX, func(any) { b++ })

	unsubA()
	unsubA()

	if n := p.Subscribers(propX); n != 1 {
		t.Errorf("Subscribers = %d, want 1", n)
	}

	p.SetX(1)
	if a != 0 || b != 1 {
		t.Errorf("a = %d, b = %d, want 0 and 1", a, b)
	}
}

func TestUnsubscribe_LastRemovesKey(t *testing.T) {
	p := &point{}
	u1 := p.Subscribe(propX, func(any) {})
	u2 := p.Subscribe(propX, func(any) {})
	c1 := p.Connect(sigS, func() {})

	u1()
	if _, ok := p.properties[propX]; !ok {
		t.Fatal("key removed while a subscriber remains")
	}
	u2()
	if _, ok := p.properties[propX]; ok {
		t.Error("empty subscriber set left behind for x")
	}

	c1()
	if _, ok := p.signals[sigS]; ok {
		t.Error("empty listener set left behind for s")
	}
	if p.HasSubscribers() {
		t.Error("HasSubscribers = true after all unsubscribed")
	}
}

func TestPublish_UnsubscribeDuringCallback(t *testing.T) {
	p := &point{}
	var first, second int

	var unsubFirst Unsubscribe
	unsubFirst = p.Subscribe(propX, func(any) {
		first++
		unsubFirst()
	})
	p.Subscribe(propX, func(any) { second++ })

	p.SetX(1)
	p.SetX(2)

	if first != 1 {
		t.Errorf("self-removing subscriber called %d times, want 1", first)
	}
	if second != 2 {
		t.Errorf("second subscriber called %d times, want 2", second)
	}
}

func TestPublish_SubscribeDuringCallback(t *testing.T) {
	p := &point{}
	var late int
	p.Subscribe(propX, func(any) {
		p.Subscribe(propX, func(any) { late++ })
	})

	p.SetX(1)
	if late != 0 {
		t.Errorf("subscriber added during delivery was called in the same delivery")
	}

	p.SetX(2)
	if late != 1 {
		t.Errorf("late subscriber called %d times, want 1", late)
	}
}

func TestConnect_FanOut(t *testing.T) {
	p := &point{}
	var a, b, other int
	p.Connect(sigS, func() { a++ })
	p.Connect(sigS, func() { b++ })
	p.Connect(sigOther, func() { other++ })

	p.Notify(sigS)

	if a != 1 || b != 1 {
		t.Errorf("listeners called a=%d b=%d, want 1 each", a, b)
	}
	if other != 0 {
		t.Errorf("unrelated listener called %d times", other)
	}
}

func TestNotify_NoListeners(t *testing.T) {
	p := &point{}
	p.Notify(sigS)

	disconnect := p.Connect(sigS, func() { t.Error("disconnected listener fired") })
	disconnect()
	disconnect()
	p.Notify(sigS)

	if n := p.Listeners(sigS); n != 0 {
		t.Errorf("Listeners = %d, want 0", n)
	}
}

func TestWatch_Typed(t *testing.T) {
	p := &point{}
	var got []string
	unsub := Watch(p, propName, func(v string) { got = append(got, v) })

	p.SetName("A")
	p.Publish(propName, 17) // wrong dynamic type is ignored
	p.SetName("B")
	unsub()
	p.SetName("C")

	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("got %v, want [A B]", got)
	}
}

func TestNilCallbackPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(p *point)
	}{
		{"subscribe", func(p *point) { p.Subscribe(propX, nil) }},
		{"connect", func(p *point) { p.Connect(sigS, nil) }},
		{"watch", func(p *point) { Watch[int](p, propX, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn(&point{})
		})
	}
}

func TestObservable_ConcurrentSubscribe(t *testing.T) {
	p := &point{}
	var count atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := p.Subscribe(propX, func(any) { count.Add(1) })
			p.Publish(propX, 1)
			unsub()
		}()
	}
	wg.Wait()

	if p.HasSubscribers() {
		t.Error("subscribers remain after concurrent unsubscribe")
	}
	if count.Load() < 20 {
		t.Errorf("count = %d, want at least 20", count.Load())
	}
}
