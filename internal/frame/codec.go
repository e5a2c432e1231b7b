// internal/frame/codec.go
package frame

import (
	"errors"
)

// ErrPayloadTooLarge reports a register list whose byte count does not fit
// the single-byte count field of the request body.
var ErrPayloadTooLarge = errors.New("frame: payload exceeds 255 bytes")

//
// ---- Custom register-write body builder (LOCKED) ----
//
// Layout (big-endian):
// 0–1  Start address
// 2–3  Register count
// 4    Byte count (register count * 2)
// 5+   Register values, 16-bit each
//
// This is the body of a vendor-specific write request. The function code
// byte is not part of the body; the transport prepends it when framing.
//

// EncodeRegisterWrite builds the request body for a register write issued
// under a vendor-specific function code. Register values are signed 16-bit
// and emitted as two's complement, so negative inputs round-trip.
// Pure: no IO, no side effects.
func EncodeRegisterWrite(address uint16, regs []int16) ([]byte, error) {
	if len(regs)*2 > 255 {
		return nil, ErrPayloadTooLarge
	}

	body := make([]byte, 5, 5+2*len(regs))

	putU16(body[0:2], address)
	putU16(body[2:4], uint16(len(regs)))
	body[4] = byte(len(regs) * 2)

	for _, r := range regs {
		body = append(body, byte(uint16(r)>>8), byte(uint16(r)))
	}

	return body, nil
}

func putU16(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}
