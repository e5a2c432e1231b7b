// internal/monitor/monitor.go
package monitor

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrParse reports cell input that is neither valid hex nor decimal.
	ErrParse = errors.New("monitor: cannot parse value")
	// ErrOutOfRange reports an address or index outside the snapshot.
	ErrOutOfRange = errors.New("monitor: address outside snapshot")
	// ErrDataMissing reports a write range not fully covered by the snapshot.
	ErrDataMissing = errors.New("monitor: range not covered by snapshot")
)

type observer struct {
	id uuid.UUID
	fn func(start uint16, values []uint16)
}

// Monitor holds the last successfully read register range. Index i of the
// snapshot represents register start+i. The snapshot is replaced wholesale
// by a fresh read and patched in place by cell edits and post-write
// reconciliation.
type Monitor struct {
	mu     sync.Mutex
	start  uint16
	values []uint16
	obs    []observer
}

func New() *Monitor {
	return &Monitor{}
}

// Replace swaps the whole snapshot. Values are copied. Any selection held
// by the caller is invalid afterwards and must be renewed against the new
// range.
func (m *Monitor) Replace(start uint16, values []uint16) {
	m.mu.Lock()
	m.start = start
	m.values = cloneRegs(values)
	m.mu.Unlock()

	m.notify()
}

// Snapshot returns the start address and a copy of the current values.
func (m *Monitor) Snapshot() (uint16, []uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start, cloneRegs(m.values)
}

// ExtractWriteRange returns the snapshot values for [start, start+count).
// The whole range must be covered: a range that falls outside the snapshot,
// even partially, fails with ErrDataMissing. Callers must read before they
// can write a derived range.
func (m *Monitor) ExtractWriteRange(start uint16, count int) ([]uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if count <= 0 {
		return nil, ErrDataMissing
	}

	lo := int(start) - int(m.start)
	if lo < 0 || lo+count > len(m.values) {
		return nil, ErrDataMissing
	}

	return cloneRegs(m.values[lo : lo+count]), nil
}

// ReconcileAfterWrite overlays fresh values onto the snapshot at the
// corresponding addresses. Cells outside the snapshot are ignored; cells
// outside the overlay keep their current value.
func (m *Monitor) ReconcileAfterWrite(start uint16, fresh []uint16) {
	m.mu.Lock()

	touched := false
	for i, v := range fresh {
		idx := int(start) + i - int(m.start)
		if idx < 0 || idx >= len(m.values) {
			continue
		}
		m.values[idx] = v
		touched = true
	}

	m.mu.Unlock()

	if touched {
		m.notify()
	}
}

// Subscribe registers fn to run after every snapshot change. fn receives a
// copy. Calling the returned cancel twice is a no-op.
func (m *Monitor) Subscribe(fn func(start uint16, values []uint16)) (cancel func()) {
	id := uuid.New()

	m.mu.Lock()
	m.obs = append(m.obs, observer{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i := range m.obs {
				if m.obs[i].id == id {
					m.obs = append(m.obs[:i], m.obs[i+1:]...)
					return
				}
			}
		})
	}
}

func (m *Monitor) notify() {
	m.mu.Lock()
	start := m.start
	values := cloneRegs(m.values)
	obs := make([]observer, len(m.obs))
	copy(obs, m.obs)
	m.mu.Unlock()

	for _, o := range obs {
		o.fn(start, values)
	}
}

func cloneRegs(v []uint16) []uint16 {
	if v == nil {
		return nil
	}
	out := make([]uint16, len(v))
	copy(out, v)
	return out
}
