package actuator

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func TestBreakerNotifierForwards(t *testing.T) {
	var got []string
	b := NewBreakerNotifier(NotifierFunc(func(msg string) error {
		got = append(got, msg)
		return nil
	}), 3, time.Minute)

	if err := b.Notify("hello"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("unexpected messages: %v", got)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}

func TestBreakerNotifierOpensAfterFailures(t *testing.T) {
	calls := 0
	down := errors.New("broker down")
	b := NewBreakerNotifier(NotifierFunc(func(string) error {
		calls++
		return down
	}), 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Notify("x"); !errors.Is(err, down) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open after 3 failures, got %v", b.State())
	}

	err := b.Notify("x")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open state error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("open breaker must not call through, got %d calls", calls)
	}
}

func TestBreakerNotifierHalfOpenRecovers(t *testing.T) {
	fail := true
	b := NewBreakerNotifier(NotifierFunc(func(string) error {
		if fail {
			return errors.New("down")
		}
		return nil
	}), 1, 10*time.Millisecond)

	_ = b.Notify("x")
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	fail = false
	time.Sleep(20 * time.Millisecond)
	if err := b.Notify("x"); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}
