package notify

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMultiplexer(t *testing.T) {
	m := NewMultiplexer[int]("test")
	if _, ok := m.Latest(); ok {
		t.Fatal("Latest before any Send")
	}
	a := make(chan int, 4)
	b := make(chan int, 4)
	m.Subscribe("a", a)
	m.Subscribe("b", b)
	m.Send(1)
	m.Send(2)
	m.Unsubscribe(a)
	m.Send(3)
	close(a)
	close(b)
	got := map[string][]int{}
	for v := range a {
		got["a"] = append(got["a"], v)
	}
	for v := range b {
		got["b"] = append(got["b"], v)
	}
	expected := map[string][]int{"a": {1, 2}, "b": {1, 2, 3}}
	if !cmp.Equal(got, expected) {
		t.Fatalf("diff: %s", cmp.Diff(expected, got))
	}
	latest, ok := m.Latest()
	if !ok || latest != 3 {
		t.Fatalf("latest %d %t", latest, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", m.Len())
	}
}

func TestMultiplexerTimeout(t *testing.T) {
	m := NewMultiplexer[int]("test")
	m.timeout = 10 * time.Millisecond
	stuck := make(chan int)
	ok := make(chan int, 1)
	m.Subscribe("stuck", stuck)
	m.Subscribe("ok", ok)
	done := make(chan struct{})
	go func() {
		m.Send(1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a stuck subscriber")
	}
	if v := <-ok; v != 1 {
		t.Fatalf("got %d", v)
	}
}

func TestUnsubscribeTwice(t *testing.T) {
	m := NewMultiplexer[int]("test")
	c := make(chan int)
	m.Subscribe("c", c)
	m.Unsubscribe(c)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	m.Unsubscribe(c)
}
