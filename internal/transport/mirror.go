// internal/transport/mirror.go
package transport

import (
	"encoding/binary"

	"github.com/sigurn/crc16"

	"github.com/tamzrod/modbus-workbench/internal/config"
)

var rtuCRCTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// mirror rebuilds wire-level ADUs for telemetry. The library does not
// expose its transmit/receive buffers, so standard calls are reconstructed
// from their PDUs here; raw sends store the library's actual frames via
// setRaw. Reconstructed TCP transaction ids run on their own counter and
// need not match the ones the library used.
type mirror struct {
	mode    config.Mode
	slaveID uint8
	tid     uint16
	tx      []byte
	rx      []byte
}

// record stores the ADU pair of one standard transaction. A nil respPDU
// means no usable response was observed and clears rx.
func (m *mirror) record(reqPDU, respPDU []byte) {
	m.tid++

	m.tx = m.frame(reqPDU)
	if respPDU == nil {
		m.rx = nil
		return
	}
	m.rx = m.frame(respPDU)
}

// setRaw stores already-framed ADUs.
func (m *mirror) setRaw(tx, rx []byte) {
	m.tx = cloneBytes(tx)
	m.rx = cloneBytes(rx)
}

// last returns copies of the stored pair.
func (m *mirror) last() (tx, rx []byte) {
	return cloneBytes(m.tx), cloneBytes(m.rx)
}

// frame wraps a PDU in MBAP (TCP) or slave address + CRC (RTU).
//
// MBAP:
//
//	TID(2) PID(2=0) LEN(2) UID(1)
//
// RTU:
//
//	UID(1) PDU(N) CRC(2, low byte first)
func (m *mirror) frame(pdu []byte) []byte {
	if m.mode == config.ModeTCP {
		adu := make([]byte, 7+len(pdu))
		binary.BigEndian.PutUint16(adu[0:2], m.tid)
		binary.BigEndian.PutUint16(adu[2:4], 0)
		binary.BigEndian.PutUint16(adu[4:6], uint16(len(pdu)+1))
		adu[6] = m.slaveID
		copy(adu[7:], pdu)
		return adu
	}

	adu := make([]byte, 0, 1+len(pdu)+2)
	adu = append(adu, m.slaveID)
	adu = append(adu, pdu...)
	crc := crc16.Checksum(adu, rtuCRCTable)
	return append(adu, byte(crc), byte(crc>>8))
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
