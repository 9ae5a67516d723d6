package bgapi

import (
	"errors"
	"testing"
	"time"
)

func TestBusFireCountsAndHandlers(t *testing.T) {
	b := NewBus()
	var got []any
	b.On(EventGapDiscover, func(p any) { got = append(got, p) })

	if b.Count(EventGapDiscover) != 0 {
		t.Fatalf("Count = %d, want 0", b.Count(EventGapDiscover))
	}
	b.Fire(EventGapDiscover, 1)
	b.Fire(EventGapDiscover, 2)
	if b.Count(EventGapDiscover) != 2 {
		t.Fatalf("Count = %d, want 2", b.Count(EventGapDiscover))
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("handler saw %v", got)
	}
}

func TestBusReadUntilConsumesExistingFire(t *testing.T) {
	b := NewBus()
	b.Fire(EventGapDiscover, nil)
	dispatch := func(time.Duration) (bool, error) {
		t.Fatal("dispatch should not be called when a fire is already pending")
		return false, nil
	}
	ok, err := b.ReadUntil(EventGapDiscover, time.Second, dispatch)
	if err != nil || !ok {
		t.Fatalf("ReadUntil = %v, %v, want true, nil", ok, err)
	}
	if b.Count(EventGapDiscover) != 0 {
		t.Fatalf("Count after consume = %d, want 0 (ReadUntil consumes the pending fire)", b.Count(EventGapDiscover))
	}
	// A second ReadUntil must not see the same fire again.
	dispatched := false
	ok, err = b.ReadUntil(EventGapDiscover, 10*time.Millisecond, func(time.Duration) (bool, error) {
		dispatched = true
		return true, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("ReadUntil reported success with nothing pending")
	}
	if !dispatched {
		t.Fatal("expected ReadUntil to pump dispatch while waiting")
	}
}

func TestBusReadUntilTimesOut(t *testing.T) {
	b := NewBus()
	calls := 0
	dispatch := func(time.Duration) (bool, error) {
		calls++
		return true, nil // simulate repeated timeouts
	}
	ok, err := b.ReadUntil(EventGapDiscover, 30*time.Millisecond, dispatch)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected timeout (ok=false)")
	}
	if calls == 0 {
		t.Fatal("expected dispatch to be invoked at least once")
	}
}

func TestBusReadUntilPropagatesDispatchError(t *testing.T) {
	b := NewBus()
	wantErr := errors.New("boom")
	_, err := b.ReadUntil(EventGapDiscover, time.Second, func(time.Duration) (bool, error) {
		return false, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestBusReadUntilFiresDuringPump(t *testing.T) {
	b := NewBus()
	n := 0
	dispatch := func(time.Duration) (bool, error) {
		n++
		if n == 3 {
			b.Fire(EventGapDiscover, "payload")
		}
		return false, nil
	}
	ok, err := b.ReadUntil(EventGapDiscover, time.Second, dispatch)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected ReadUntil to observe the fire")
	}
	if n != 3 {
		t.Fatalf("dispatch called %d times, want 3", n)
	}
}
