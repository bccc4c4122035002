// v0
// internal/circuitbreaker/breaker_test.go
package circuitbreaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("test", Config{MaxFailures: 3, ResetTimeout: time.Minute}, testLogger(), nil)
	boom := errors.New("boom")
	op := func(ctx context.Context) error { return boom }

	for i := 0; i < 2; i++ {
		if err := b.Execute(context.Background(), op); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: err=%v want boom", i, err)
		}
	}
	// Third failure trips the breaker; the caller sees ErrOpen from then on.
	if err := b.Execute(context.Background(), op); !errors.Is(err, ErrOpen) {
		t.Fatalf("tripping call err=%v want ErrOpen", err)
	}
	if b.State() != Open {
		t.Fatalf("state=%v want Open", b.State())
	}
	if err := b.Execute(context.Background(), op); !errors.Is(err, ErrOpen) {
		t.Fatalf("fast-fail err=%v want ErrOpen", err)
	}
}

func TestBreakerClosesAfterSuccessfulProbe(t *testing.T) {
	probed := false
	b := New("test", Config{MaxFailures: 1, ResetTimeout: time.Millisecond}, testLogger(),
		func(ctx context.Context) error { probed = true; return nil })

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errors.New("down") })
	if b.State() != Open {
		t.Fatalf("state=%v want Open", b.State())
	}

	time.Sleep(5 * time.Millisecond)
	if err := b.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("recovery call: %v", err)
	}
	if !probed {
		t.Fatalf("probe was not run before the half-open op")
	}
	if b.State() != Closed {
		t.Fatalf("state=%v want Closed", b.State())
	}
}

func TestBreakerReopensWhenHalfOpenOpFails(t *testing.T) {
	b := New("test", Config{MaxFailures: 1, ResetTimeout: time.Millisecond}, testLogger(), nil)
	down := errors.New("still down")

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return down })
	time.Sleep(5 * time.Millisecond)

	if err := b.Execute(context.Background(), func(ctx context.Context) error { return down }); !errors.Is(err, down) {
		t.Fatalf("half-open op err=%v want down", err)
	}
	if b.State() != Open {
		t.Fatalf("state=%v want Open after failed half-open op", b.State())
	}
}

type fakeWriter struct {
	fails int
	calls int
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.calls <= f.fails {
		return errors.New("broker unavailable")
	}
	return nil
}

func TestWrappedWriterFastFails(t *testing.T) {
	inner := &fakeWriter{fails: 100}
	w := WrapWriter("plant.ledger", inner, Config{MaxFailures: 2, ResetTimeout: time.Minute}, testLogger())

	_ = w.WriteMessages(context.Background(), kafka.Message{Value: []byte("x")})
	_ = w.WriteMessages(context.Background(), kafka.Message{Value: []byte("x")})
	callsAtTrip := inner.calls

	if err := w.WriteMessages(context.Background(), kafka.Message{Value: []byte("x")}); !errors.Is(err, ErrOpen) {
		t.Fatalf("err=%v want ErrOpen", err)
	}
	if inner.calls != callsAtTrip {
		t.Fatalf("open breaker still reached the broker: %d calls", inner.calls)
	}
}
