// internal/monitor/edit.go
package monitor

import (
	"strconv"
	"strings"
)

// EditCell parses raw and stores the result at the given register address.
// Hex is assumed when the text is 0x-prefixed, or when the active display
// format is hex and the text is hex digits only; everything else parses as
// decimal, with a leading '-' accepted and stored as two's complement.
// Parse failure leaves the snapshot untouched.
func (m *Monitor) EditCell(address uint16, raw string, active Format) error {
	v, err := parseCell(raw, active)
	if err != nil {
		return err
	}

	m.mu.Lock()

	idx := int(address) - int(m.start)
	if idx < 0 || idx >= len(m.values) {
		m.mu.Unlock()
		return ErrOutOfRange
	}
	m.values[idx] = v

	m.mu.Unlock()

	m.notify()
	return nil
}

func parseCell(raw string, active Format) (uint16, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, ErrParse
	}

	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, err := strconv.ParseUint(text[2:], 16, 16)
		if err != nil {
			return 0, ErrParse
		}
		return uint16(v), nil
	}

	if active == FormatHex && isHexDigits(text) {
		v, err := strconv.ParseUint(text, 16, 16)
		if err != nil {
			return 0, ErrParse
		}
		return uint16(v), nil
	}

	if strings.HasPrefix(text, "-") {
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return 0, ErrParse
		}
		return uint16(int16(v)), nil
	}

	v, err := strconv.ParseUint(text, 10, 16)
	if err != nil {
		return 0, ErrParse
	}
	return uint16(v), nil
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ---- SELECTION ----

// Selection is a range over snapshot indices. Either endpoint may be the
// numerically larger one.
type Selection struct {
	A int
	B int
}

// Normalize returns the selection as an ordered [lo, hi] pair.
func (s Selection) Normalize() (lo, hi int) {
	if s.A <= s.B {
		return s.A, s.B
	}
	return s.B, s.A
}

// CopyRange renders the selected cells under format f, one string per
// visible cell. Hidden cells (odd halves of register pairs) are skipped.
// A selection reaching outside the snapshot fails with ErrOutOfRange.
func (m *Monitor) CopyRange(sel Selection, f Format) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo, hi := sel.Normalize()
	if lo < 0 || hi >= len(m.values) {
		return nil, ErrOutOfRange
	}

	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		v, err := m.cellLocked(i, f)
		if err != nil {
			return nil, err
		}
		if v.Hidden {
			continue
		}
		out = append(out, v.Text)
	}
	return out, nil
}
