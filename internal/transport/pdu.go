// internal/transport/pdu.go
package transport

import "encoding/binary"

// PDU builders for the mirror. The transport library frames and sends its
// own copies; these exist only so telemetry can show what went on the wire.

// readRequestPDU builds FC(1) Address(2) Quantity(2).
func readRequestPDU(fc uint8, addr, qty uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = fc
	binary.BigEndian.PutUint16(pdu[1:3], addr)
	binary.BigEndian.PutUint16(pdu[3:5], qty)
	return pdu
}

// readResponsePDU builds FC(1) ByteCount(1) Data(N) from the data the
// library already stripped.
func readResponsePDU(fc uint8, data []byte) []byte {
	pdu := make([]byte, 2+len(data))
	pdu[0] = fc
	pdu[1] = byte(len(data))
	copy(pdu[2:], data)
	return pdu
}

// writeSinglePDU builds FC(1) Address(2) Value(2).
func writeSinglePDU(fc uint8, addr, value uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = fc
	binary.BigEndian.PutUint16(pdu[1:3], addr)
	binary.BigEndian.PutUint16(pdu[3:5], value)
	return pdu
}

// writeMultiplePDU builds FC(1) Address(2) Quantity(2) ByteCount(1) Data(N).
func writeMultiplePDU(fc uint8, addr, qty uint16, payload []byte) []byte {
	pdu := make([]byte, 6+len(payload))
	pdu[0] = fc
	binary.BigEndian.PutUint16(pdu[1:3], addr)
	binary.BigEndian.PutUint16(pdu[3:5], qty)
	pdu[5] = byte(len(payload))
	copy(pdu[6:], payload)
	return pdu
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			out[i] = false
			continue
		}
		out[i] = (data[byteIdx]&(1<<bitIdx) != 0)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

// packBits packs nonzero values as set bits, LSB-first per byte.
func packBits(values []uint16) []byte {
	n := (len(values) + 7) / 8
	out := make([]byte, n)
	for i, v := range values {
		if v != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
