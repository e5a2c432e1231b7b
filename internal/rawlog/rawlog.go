// internal/rawlog/rawlog.go
package rawlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is the raw traffic of one transaction. Immutable once published;
// Tx or Rx may be nil when that direction was not observed.
type Entry struct {
	At time.Time
	Tx []byte
	Rx []byte
}

type subscriber struct {
	id uuid.UUID
	fn func(Entry)
}

// Broadcaster fans entries out to subscribers synchronously, in
// subscription order. One entry per transaction, not per byte, so
// synchronous delivery is acceptable; slow subscribers block the publisher.
type Broadcaster struct {
	pubMu sync.Mutex // serializes deliveries so observed order = emission order
	mu    sync.Mutex // guards subs
	subs  []subscriber
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers fn for future entries and returns its cancel func.
// Calling cancel twice is a no-op. A subscriber added while a publish is in
// flight does not receive that entry.
func (b *Broadcaster) Subscribe(fn func(Entry)) (cancel func()) {
	id := uuid.New()

	b.mu.Lock()
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i := range b.subs {
				if b.subs[i].id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish stamps the buffers and delivers one entry to every subscriber
// registered when the call started. Buffers are copied up front, so callers
// may reuse theirs and subscribers may retain the entry.
func (b *Broadcaster) Publish(tx, rx []byte) {
	e := Entry{
		At: time.Now(),
		Tx: cloneBytes(tx),
		Rx: cloneBytes(rx),
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(e)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
