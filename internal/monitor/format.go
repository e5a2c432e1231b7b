// internal/monitor/format.go
package monitor

import (
	"fmt"
	"math"
	"strconv"
)

// Format selects how a 16-bit register cell is decoded for display.
type Format int

const (
	FormatHex Format = iota
	FormatUnsigned
	FormatSigned
	FormatUint32
	FormatFloat32
	FormatASCII
)

func (f Format) String() string {
	switch f {
	case FormatHex:
		return "hex"
	case FormatUnsigned:
		return "unsigned"
	case FormatSigned:
		return "signed"
	case FormatUint32:
		return "uint32"
	case FormatFloat32:
		return "float32"
	case FormatASCII:
		return "ascii"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a format name to its Format. Accepted names are the
// String() spellings.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "hex":
		return FormatHex, nil
	case "unsigned":
		return FormatUnsigned, nil
	case "signed":
		return FormatSigned, nil
	case "uint32":
		return FormatUint32, nil
	case "float32":
		return FormatFloat32, nil
	case "ascii":
		return FormatASCII, nil
	default:
		return 0, fmt.Errorf("monitor: unknown format %q", s)
	}
}

// wide reports whether the format consumes a register pair.
func (f Format) wide() bool {
	return f == FormatUint32 || f == FormatFloat32
}

// Value is one rendered cell. Hidden marks the odd-indexed half of a
// register pair in 32-bit formats; such cells carry no text and are
// suppressed from rendering (the pair is shown once, at the even address).
type Value struct {
	Address uint16
	Text    string
	Hidden  bool
}

// Cell decodes the register at snapshot index i under format f.
// An index outside the snapshot fails with ErrOutOfRange.
func (m *Monitor) Cell(i int, f Format) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cellLocked(i, f)
}

// Render decodes the whole snapshot under format f.
func (m *Monitor) Render(f Format) []Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Value, len(m.values))
	for i := range m.values {
		out[i], _ = m.cellLocked(i, f)
	}
	return out
}

func (m *Monitor) cellLocked(i int, f Format) (Value, error) {
	if i < 0 || i >= len(m.values) {
		return Value{}, ErrOutOfRange
	}

	addr := m.start + uint16(i)

	if f.wide() {
		if i%2 != 0 {
			return Value{Address: addr, Hidden: true}, nil
		}
		word := m.wordLocked(i)
		switch f {
		case FormatUint32:
			return Value{Address: addr, Text: strconv.FormatUint(uint64(word), 10)}, nil
		default: // FormatFloat32
			f32 := math.Float32frombits(word)
			return Value{Address: addr, Text: strconv.FormatFloat(float64(f32), 'g', -1, 32)}, nil
		}
	}

	v := m.values[i]
	switch f {
	case FormatHex:
		return Value{Address: addr, Text: fmt.Sprintf("0x%04X", v)}, nil
	case FormatUnsigned:
		return Value{Address: addr, Text: strconv.FormatUint(uint64(v), 10)}, nil
	case FormatSigned:
		return Value{Address: addr, Text: strconv.FormatInt(int64(int16(v)), 10)}, nil
	case FormatASCII:
		return Value{Address: addr, Text: asciiPair(v)}, nil
	default:
		return Value{}, fmt.Errorf("monitor: unknown format %d", int(f))
	}
}

// wordLocked combines the register at even index i (high half) with the one
// at i+1 (low half, 0 when absent) into a 32-bit big-endian word.
func (m *Monitor) wordLocked(i int) uint32 {
	hi := uint32(m.values[i])
	var lo uint32
	if i+1 < len(m.values) {
		lo = uint32(m.values[i+1])
	}
	return hi<<16 | lo
}

// asciiPair renders the register's high and low bytes as characters,
// substituting '.' outside the printable range 32..126.
func asciiPair(v uint16) string {
	return string([]byte{printable(byte(v >> 8)), printable(byte(v))})
}

func printable(b byte) byte {
	if b >= 32 && b <= 126 {
		return b
	}
	return '.'
}
