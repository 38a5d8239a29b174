package progress

import "time"

// DefaultInterval is the minimum spacing between throughput estimates.
const DefaultInterval = 100 * time.Millisecond

// Snapshot is a rendering-agnostic view of one transfer.
type Snapshot struct {
	Current    int64   // Bytes written so far
	Total      int64   // Best known total, -1 until a total is reported
	Throughput float64 // Bytes per second over the last estimation window
	Done       bool    // Transfer reported completion
}

// Fraction returns completion in [0, 1], or 0 when the total is unknown.
func (s Snapshot) Fraction() float64 {
	if s.Total <= 0 {
		if s.Done {
			return 1
		}
		return 0
	}
	f := float64(s.Current) / float64(s.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Observer receives snapshots from an Aggregator. Update is called after
// every event; Finish is called exactly once when the aggregator stops.
type Observer interface {
	Update(Snapshot)
	Finish(Snapshot)
}

// NopObserver discards all snapshots.
type NopObserver struct{}

func (NopObserver) Update(Snapshot) {}
func (NopObserver) Finish(Snapshot) {}

// Aggregator consumes one transfer's events and derives snapshots.
type Aggregator struct {
	interval time.Duration
	now      func() time.Time
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithInterval overrides the throughput estimation interval.
func WithInterval(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.interval = d }
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// NewAggregator returns an aggregator estimating throughput every
// DefaultInterval.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{interval: DefaultInterval, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run consumes events from ch until a Done event arrives, or until the
// sender finishes and the buffer is drained. It then closes ch, calls
// obs.Finish and returns the final snapshot. A nil obs is allowed.
func (a *Aggregator) Run(ch *Channel, obs Observer) Snapshot {
	if obs == nil {
		obs = NopObserver{}
	}
	defer ch.Close()

	st := &state{
		snap:     Snapshot{Total: -1},
		mark:     a.now(),
		interval: a.interval,
		now:      a.now,
	}

	for {
		select {
		case ev := <-ch.Events():
			if st.apply(ev, obs) {
				obs.Finish(st.snap)
				return st.snap
			}
		case <-ch.Finished():
			for {
				select {
				case ev := <-ch.Events():
					if st.apply(ev, obs) {
						obs.Finish(st.snap)
						return st.snap
					}
				default:
					obs.Finish(st.snap)
					return st.snap
				}
			}
		}
	}
}

type state struct {
	snap      Snapshot
	mark      time.Time
	markBytes int64
	interval  time.Duration
	now       func() time.Time
}

// apply folds ev into the snapshot and reports whether it was terminal.
func (s *state) apply(ev Event, obs Observer) bool {
	s.snap.Current = ev.Current
	if s.snap.Total < 0 && ev.TotalKnown() {
		s.snap.Total = ev.Total
	}

	now := s.now()
	if elapsed := now.Sub(s.mark); elapsed >= s.interval && elapsed > 0 {
		s.snap.Throughput = float64(s.snap.Current-s.markBytes) / elapsed.Seconds()
		s.mark = now
		s.markBytes = s.snap.Current
	}

	if ev.Done {
		s.snap.Done = true
		return true
	}
	obs.Update(s.snap)
	return false
}
