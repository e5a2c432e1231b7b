// internal/monitor/monitor_test.go
package monitor

import (
	"errors"
	"strconv"
	"testing"
)

func newTestMonitor(start uint16, values ...uint16) *Monitor {
	m := New()
	m.Replace(start, values)
	return m
}

func cellText(t *testing.T, m *Monitor, i int, f Format) string {
	t.Helper()
	v, err := m.Cell(i, f)
	if err != nil {
		t.Fatalf("Cell(%d, %v) err=%v", i, f, err)
	}
	return v.Text
}

func TestCell_Signed(t *testing.T) {
	m := newTestMonitor(0, 65535, 32768, 0, 32767)

	if got := cellText(t, m, 0, FormatSigned); got != "-1" {
		t.Fatalf("signed 65535: expected -1, got %s", got)
	}
	if got := cellText(t, m, 1, FormatSigned); got != "-32768" {
		t.Fatalf("signed 32768: expected -32768, got %s", got)
	}
	if got := cellText(t, m, 2, FormatSigned); got != "0" {
		t.Fatalf("signed 0: expected 0, got %s", got)
	}
	if got := cellText(t, m, 3, FormatSigned); got != "32767" {
		t.Fatalf("signed 32767: expected 32767, got %s", got)
	}
}

func TestCell_Hex(t *testing.T) {
	m := newTestMonitor(0, 0x001F)

	if got := cellText(t, m, 0, FormatHex); got != "0x001F" {
		t.Fatalf("expected 0x001F, got %s", got)
	}
}

func TestCell_Uint32(t *testing.T) {
	m := newTestMonitor(0x0100, 0x0001, 0x0002)

	if got := cellText(t, m, 0, FormatUint32); got != "65538" {
		t.Fatalf("uint32 [0x0001 0x0002]: expected 65538, got %s", got)
	}

	v, err := m.Cell(1, FormatUint32)
	if err != nil {
		t.Fatalf("Cell(1) err=%v", err)
	}
	if !v.Hidden {
		t.Fatalf("odd index not hidden in 32-bit format")
	}
	if v.Address != 0x0101 {
		t.Fatalf("expected address 0x0101, got 0x%04X", v.Address)
	}
}

func TestCell_Uint32_MissingLowHalf(t *testing.T) {
	// Trailing even index pairs with an absent register; low half reads 0.
	m := newTestMonitor(0, 0x0001)

	if got := cellText(t, m, 0, FormatUint32); got != "65536" {
		t.Fatalf("expected 65536, got %s", got)
	}
}

func TestCell_Float32(t *testing.T) {
	m := newTestMonitor(0, 0x3F80, 0x0000)

	if got := cellText(t, m, 0, FormatFloat32); got != "1" {
		t.Fatalf("float32 [0x3F80 0x0000]: expected 1, got %s", got)
	}
}

func TestCell_ASCII(t *testing.T) {
	m := newTestMonitor(0, 0x4142, 0x0001)

	if got := cellText(t, m, 0, FormatASCII); got != "AB" {
		t.Fatalf("ascii 0x4142: expected AB, got %s", got)
	}
	if got := cellText(t, m, 1, FormatASCII); got != ".." {
		t.Fatalf("ascii 0x0001: expected .., got %s", got)
	}
}

func TestCell_IndexOutOfRange(t *testing.T) {
	m := newTestMonitor(0, 1, 2)

	if _, err := m.Cell(2, FormatHex); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := m.Cell(-1, FormatHex); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestUnsigned_EditRoundTrip(t *testing.T) {
	m := newTestMonitor(0, 0)

	// decode(edit(v)) == v across the full u16 range
	for v := 0; v <= 0xFFFF; v++ {
		if err := m.EditCell(0, strconv.Itoa(v), FormatUnsigned); err != nil {
			t.Fatalf("EditCell(%d) err=%v", v, err)
		}
		if got := cellText(t, m, 0, FormatUnsigned); got != strconv.Itoa(v) {
			t.Fatalf("round trip %d: got %s", v, got)
		}
	}
}

func TestEditCell_HexPrefix(t *testing.T) {
	m := newTestMonitor(0x0010, 0)

	if err := m.EditCell(0x0010, "0x1F", FormatUnsigned); err != nil {
		t.Fatalf("EditCell err=%v", err)
	}
	_, values := m.Snapshot()
	if values[0] != 31 {
		t.Fatalf("expected 31, got %d", values[0])
	}
}

func TestEditCell_HexByActiveFormat(t *testing.T) {
	m := newTestMonitor(0, 0)

	// Unprefixed hex digits parse as hex only under the hex display format.
	if err := m.EditCell(0, "FF", FormatHex); err != nil {
		t.Fatalf("EditCell err=%v", err)
	}
	_, values := m.Snapshot()
	if values[0] != 255 {
		t.Fatalf("expected 255, got %d", values[0])
	}

	if err := m.EditCell(0, "FF", FormatUnsigned); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for bare hex outside hex format, got %v", err)
	}
}

func TestEditCell_NegativeDecimal(t *testing.T) {
	m := newTestMonitor(0, 0)

	if err := m.EditCell(0, "-1", FormatSigned); err != nil {
		t.Fatalf("EditCell err=%v", err)
	}
	_, values := m.Snapshot()
	if values[0] != 0xFFFF {
		t.Fatalf("expected 0xFFFF, got 0x%04X", values[0])
	}
}

func TestEditCell_ParseErrorLeavesSnapshot(t *testing.T) {
	m := newTestMonitor(0, 42)

	if err := m.EditCell(0, "abc!", FormatUnsigned); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	_, values := m.Snapshot()
	if values[0] != 42 {
		t.Fatalf("snapshot mutated on parse failure: %d", values[0])
	}
}

func TestEditCell_AddressOutOfRange(t *testing.T) {
	m := newTestMonitor(0x0100, 1, 2, 3)

	if err := m.EditCell(0x0103, "1", FormatUnsigned); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.EditCell(0x00FF, "1", FormatUnsigned); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestExtractWriteRange(t *testing.T) {
	m := newTestMonitor(0x0100, 10, 20, 30, 40)

	got, err := m.ExtractWriteRange(0x0101, 2)
	if err != nil {
		t.Fatalf("ExtractWriteRange err=%v", err)
	}
	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("expected [20 30], got %v", got)
	}
}

func TestExtractWriteRange_PartialOutside(t *testing.T) {
	m := newTestMonitor(0x0100, 10, 20, 30, 40)

	// Last index 0x0104 is one past the snapshot.
	if _, err := m.ExtractWriteRange(0x0102, 3); !errors.Is(err, ErrDataMissing) {
		t.Fatalf("expected ErrDataMissing, got %v", err)
	}
	if _, err := m.ExtractWriteRange(0x00FF, 2); !errors.Is(err, ErrDataMissing) {
		t.Fatalf("expected ErrDataMissing, got %v", err)
	}
}

func TestExtractWriteRange_CopyIsolated(t *testing.T) {
	m := newTestMonitor(0, 7)

	got, err := m.ExtractWriteRange(0, 1)
	if err != nil {
		t.Fatalf("ExtractWriteRange err=%v", err)
	}
	got[0] = 99

	_, values := m.Snapshot()
	if values[0] != 7 {
		t.Fatalf("extracted slice aliases snapshot")
	}
}

func TestReconcileAfterWrite(t *testing.T) {
	m := newTestMonitor(0x0100, 1, 2, 3, 4)

	// Overlay straddles the snapshot end; the cell past it is dropped.
	m.ReconcileAfterWrite(0x0102, []uint16{30, 40, 50})

	_, values := m.Snapshot()
	want := []uint16{1, 2, 30, 40}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("index %d: expected %d, got %d", i, want[i], values[i])
		}
	}
}

func TestReconcileAfterWrite_BeforeStart(t *testing.T) {
	m := newTestMonitor(0x0100, 1, 2)

	// Overlay begins below the snapshot; only the overlap lands.
	m.ReconcileAfterWrite(0x00FF, []uint16{90, 91, 92})

	_, values := m.Snapshot()
	if values[0] != 91 || values[1] != 92 {
		t.Fatalf("expected [91 92], got %v", values)
	}
}

func TestSubscribe_NotifyAndCancel(t *testing.T) {
	m := New()

	var gotStart uint16
	var gotLen int
	calls := 0
	cancel := m.Subscribe(func(start uint16, values []uint16) {
		gotStart = start
		gotLen = len(values)
		calls++
	})

	m.Replace(0x0200, []uint16{1, 2, 3})
	if calls != 1 || gotStart != 0x0200 || gotLen != 3 {
		t.Fatalf("replace notify: calls=%d start=0x%04X len=%d", calls, gotStart, gotLen)
	}

	if err := m.EditCell(0x0201, "5", FormatUnsigned); err != nil {
		t.Fatalf("EditCell err=%v", err)
	}
	if calls != 2 {
		t.Fatalf("edit notify: calls=%d", calls)
	}

	// Overlay entirely outside the snapshot changes nothing and stays quiet.
	m.ReconcileAfterWrite(0x0900, []uint16{1})
	if calls != 2 {
		t.Fatalf("no-op reconcile notified: calls=%d", calls)
	}

	cancel()
	cancel()
	m.Replace(0, []uint16{9})
	if calls != 2 {
		t.Fatalf("cancelled observer still notified: calls=%d", calls)
	}
}

func TestSelection_Normalize(t *testing.T) {
	lo, hi := Selection{A: 5, B: 2}.Normalize()
	if lo != 2 || hi != 5 {
		t.Fatalf("expected [2 5], got [%d %d]", lo, hi)
	}

	lo, hi = Selection{A: 3, B: 3}.Normalize()
	if lo != 3 || hi != 3 {
		t.Fatalf("expected [3 3], got [%d %d]", lo, hi)
	}
}

func TestCopyRange(t *testing.T) {
	m := newTestMonitor(0, 0x0001, 0x0002, 0x0003, 0x0004)

	got, err := m.CopyRange(Selection{A: 2, B: 0}, FormatUnsigned)
	if err != nil {
		t.Fatalf("CopyRange err=%v", err)
	}
	if len(got) != 3 || got[0] != "1" || got[1] != "2" || got[2] != "3" {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	// 32-bit format: hidden odd halves collapse out of the copy.
	got, err = m.CopyRange(Selection{A: 0, B: 3}, FormatUint32)
	if err != nil {
		t.Fatalf("CopyRange err=%v", err)
	}
	if len(got) != 2 || got[0] != "65538" || got[1] != "196612" {
		t.Fatalf("expected [65538 196612], got %v", got)
	}

	if _, err := m.CopyRange(Selection{A: 0, B: 4}, FormatHex); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"hex", "unsigned", "signed", "uint32", "float32", "ascii"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q) err=%v", name, err)
		}
		if f.String() != name {
			t.Fatalf("round trip %q: got %q", name, f.String())
		}
	}

	if _, err := ParseFormat("binary"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
