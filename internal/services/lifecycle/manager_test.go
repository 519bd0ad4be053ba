package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"db", "cache", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := m.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	want := []string{"http", "cache", "db"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	boom := errors.New("boom")
	ran := false
	m.Register("first", func(context.Context) error { ran = true; return nil })
	m.Register("second", func(context.Context) error { return boom })

	if err := m.Shutdown(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Shutdown err = %v, want boom", err)
	}
	if !ran {
		t.Error("hooks after a failure should still run")
	}
}

func TestGoCancelsOnFailure(t *testing.T) {
	m := New(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boom := errors.New("listen failed")
	m.Go(ctx, cancel, "server", func(context.Context) error { return boom })
	m.Go(ctx, cancel, "worker", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := m.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait err = %v, want %v", err, boom)
	}
	if ctx.Err() == nil {
		t.Error("context should be cancelled after a component fails")
	}
}
