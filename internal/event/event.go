// Package event provides a small, lossy progress bus for long-running
// generation and search operations. Producers never block on a slow
// or absent listener; a full bus simply drops its oldest event.
package event

import "sync"

// Kind discriminates the payload carried by an Event.
type Kind uint8

const (
	// Progress reports overall completion, in the range [0,1].
	Progress Kind = iota
	// Batch reports a lifecycle transition of one chain batch as it
	// moves through a producer.
	Batch
	// ComputationStepStarted reports that a filtration segment's batch
	// loop is about to begin: ColStart and ColEnd give the range
	// of columns this segment advances chains through, BatchCount the
	// number of batches that will be dispatched for it.
	ComputationStepStarted
	// ComputationStepFinished reports that a filtration segment's batch
	// loop has completed and its chains were filtered; UniqueChains is
	// the surviving chain count after deduplication.
	ComputationStepFinished
)

// Status discriminates the lifecycle stage a Batch event reports,
// mirroring the stages a GPU-backed producer would pass a batch through:
// host-to-device transfer, on-device computation, and the transfer back.
type Status uint8

const (
	// CopyHostToDevice reports a batch's endpoints being staged for the
	// producer (the CPU backend stages them into its own call frame).
	CopyHostToDevice Status = iota
	// ComputationStarted reports the producer beginning its kernel run.
	ComputationStarted
	// CopyDeviceToHost reports a finished batch's endpoints being
	// written back into the chain table.
	CopyDeviceToHost
	// FiltrationStarted reports the start of an endpoint-map dedup pass.
	FiltrationStarted
	// FiltrationFinished reports a completed dedup pass.
	FiltrationFinished
)

// Event is one point-in-time notification about a generation pass.
type Event struct {
	Kind Kind

	// Fraction is set for Progress events.
	Fraction float64

	// Producer identifies which producer in the pool emitted a Batch
	// event.
	Producer int

	// Status is set for Batch events, giving the lifecycle stage being
	// reported.
	Status Status

	// BatchNumber, BatchCount and ColStart/ColEnd are set for Batch
	// events: the nth of batchCount batches, advancing chains through
	// columns [ColStart, ColEnd). ComputationStepStarted events set
	// BatchCount and ColStart/ColEnd only.
	BatchNumber, BatchCount int
	ColStart, ColEnd        uint64

	// UniqueChains is set for ComputationStepFinished events: the chain
	// count surviving that segment's filtration pass.
	UniqueChains int
}

// Bus is a buffered, lossy fan-out point from any number of producers to
// one consumer. Emit may be called concurrently from multiple producer
// goroutines.
type Bus struct {
	mu sync.Mutex
	ch chan Event
}

// NewBus returns a bus buffering up to capacity events before it
// starts dropping the oldest unread one.
func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{ch: make(chan Event, capacity)}
}

// Emit publishes ev without blocking. If the buffer is full, the
// oldest pending event is discarded to make room — callers care about
// the latest state, not every intermediate one.
func (b *Bus) Emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case b.ch <- ev:
	default:
		select {
		case <-b.ch:
		default:
		}
		select {
		case b.ch <- ev:
		default:
		}
	}
}

// Recv returns the next event, or ok=false once Close has been called
// and the buffer has drained.
func (b *Bus) Recv() (Event, bool) {
	ev, ok := <-b.ch
	return ev, ok
}

// Events exposes the receive side directly, for use in a select
// statement alongside a cancellation channel.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close signals that no further events will be published. Recv drains
// any buffered events before reporting ok=false.
func (b *Bus) Close() {
	close(b.ch)
}
