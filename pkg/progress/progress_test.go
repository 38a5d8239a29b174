package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu       sync.Mutex
	updates  []Snapshot
	finishes []Snapshot
}

func (r *recorder) Update(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, s)
}

func (r *recorder) Finish(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishes = append(r.finishes, s)
}

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func sendAll(t *testing.T, ch *Channel, events ...Event) {
	t.Helper()
	for _, ev := range events {
		if err := ch.Send(context.Background(), ev); err != nil {
			t.Fatalf("Send(%+v) error: %v", ev, err)
		}
	}
}

func TestAggregatorMonotonic(t *testing.T) {
	ch := NewChannel(8)
	var cur int64
	for _, n := range []int64{10, 20, 5} {
		cur += n
		sendAll(t, ch, Event{Current: cur, Total: 35})
	}
	sendAll(t, ch, Event{Current: cur, Total: 35, Done: true})

	rec := &recorder{}
	final := NewAggregator(WithClock(fakeClock(time.Millisecond))).Run(ch, rec)

	want := []int64{10, 30, 35}
	if len(rec.updates) != len(want) {
		t.Fatalf("got %d updates, want %d", len(rec.updates), len(want))
	}
	for i, w := range want {
		if rec.updates[i].Current != w {
			t.Errorf("update[%d].Current = %d, want %d", i, rec.updates[i].Current, w)
		}
		if rec.updates[i].Done {
			t.Errorf("update[%d].Done = true before terminal event", i)
		}
	}
	if len(rec.finishes) != 1 {
		t.Fatalf("Finish called %d times, want 1", len(rec.finishes))
	}
	if !final.Done || final.Current != 35 || final.Total != 35 {
		t.Errorf("final = %+v, want done at 35/35", final)
	}
	if !ch.IsClosed() {
		t.Error("channel should be closed after Run returns")
	}
}

func TestAggregatorAdoptsFirstKnownTotal(t *testing.T) {
	ch := NewChannel(8)
	sendAll(t, ch,
		Event{Current: 5, Total: -1},
		Event{Current: 10, Total: 100},
		Event{Current: 15, Total: -1},
		Event{Current: 20, Total: 200, Done: true},
	)

	rec := &recorder{}
	final := NewAggregator().Run(ch, rec)

	if rec.updates[0].Total != -1 {
		t.Errorf("first Total = %d, want -1", rec.updates[0].Total)
	}
	for i := 1; i < len(rec.updates); i++ {
		if rec.updates[i].Total != 100 {
			t.Errorf("update[%d].Total = %d, want 100", i, rec.updates[i].Total)
		}
	}
	if final.Total != 100 {
		t.Errorf("final Total = %d, want 100", final.Total)
	}
}

func TestAggregatorThroughputInterval(t *testing.T) {
	ch := NewChannel(8)
	sendAll(t, ch,
		Event{Current: 100, Total: -1},
		Event{Current: 200, Total: -1},
		Event{Current: 300, Total: -1, Done: true},
	)

	// Each clock read advances 500ms: the first event lands half an
	// interval after the mark (no estimate), the second a full interval.
	rec := &recorder{}
	NewAggregator(
		WithInterval(time.Second),
		WithClock(fakeClock(500*time.Millisecond)),
	).Run(ch, rec)

	if got := rec.updates[0].Throughput; got != 0 {
		t.Errorf("throughput before interval = %v, want 0", got)
	}
	if got := rec.updates[1].Throughput; got != 200 {
		t.Errorf("throughput = %v, want 200 B/s", got)
	}
}

func TestAggregatorStopsWhenSenderFinishes(t *testing.T) {
	ch := NewChannel(8)
	sendAll(t, ch, Event{Current: 7, Total: 10})
	ch.Finish()

	rec := &recorder{}
	final := NewAggregator().Run(ch, rec)

	if final.Done {
		t.Error("final.Done = true without a Done event")
	}
	if final.Current != 7 {
		t.Errorf("final.Current = %d, want 7", final.Current)
	}
	if len(rec.finishes) != 1 {
		t.Errorf("Finish called %d times, want 1", len(rec.finishes))
	}
}

func TestAggregatorConcurrentSender(t *testing.T) {
	ch := NewChannel(1)
	rec := &recorder{}
	done := make(chan Snapshot)
	go func() { done <- NewAggregator().Run(ch, rec) }()

	for i := int64(1); i <= 50; i++ {
		sendAll(t, ch, Event{Current: i, Total: 50, Done: i == 50})
	}

	final := <-done
	if final.Current != 50 || !final.Done {
		t.Errorf("final = %+v", final)
	}
	for i := 1; i < len(rec.updates); i++ {
		if rec.updates[i].Current <= rec.updates[i-1].Current {
			t.Fatalf("non-increasing progress at %d: %d after %d", i, rec.updates[i].Current, rec.updates[i-1].Current)
		}
	}
}

func TestChannelSendAfterClose(t *testing.T) {
	ch := NewChannel(1)
	ch.Close()
	ch.Close()

	err := ch.Send(context.Background(), Event{Current: 1})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestChannelSendUnblocksOnClose(t *testing.T) {
	ch := NewChannel(1)
	sendAll(t, ch, Event{Current: 1})

	errc := make(chan error, 1)
	go func() { errc <- ch.Send(context.Background(), Event{Current: 2}) }()

	ch.Close()
	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("blocked Send = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send did not unblock after Close")
	}
}

func TestChannelSendContextCancel(t *testing.T) {
	ch := NewChannel(1)
	sendAll(t, ch, Event{Current: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ch.Send(ctx, Event{Current: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("Send on full channel with canceled ctx = %v, want context.Canceled", err)
	}
}

func TestSnapshotFraction(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want float64
	}{
		{"unknown total", Snapshot{Current: 10, Total: -1}, 0},
		{"unknown total done", Snapshot{Current: 10, Total: -1, Done: true}, 1},
		{"half", Snapshot{Current: 5, Total: 10}, 0.5},
		{"overshoot", Snapshot{Current: 12, Total: 10}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Fraction(); got != tt.want {
				t.Errorf("Fraction() = %v, want %v", got, tt.want)
			}
		})
	}
}
