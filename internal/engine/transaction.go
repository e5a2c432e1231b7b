// internal/engine/transaction.go
package engine

import (
	"fmt"

	"github.com/tamzrod/modbus-workbench/internal/frame"
)

// Read runs one read transaction under function codes 1-4. Coil and
// discrete-input results are normalized to 0/1 registers. After the
// transport call, success or not, the observed ADUs go to the traffic log.
func (e *Engine) Read(fc uint8, addr, count uint16) ([]uint16, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.link == nil {
		return nil, ErrNotConnected
	}
	if err := checkExtent(addr, count); err != nil {
		return nil, err
	}

	e.inFlight.Store(true)
	defer e.inFlight.Store(false)

	var (
		regs []uint16
		err  error
	)

	switch fc {
	case 1:
		var bits []bool
		bits, err = e.link.ReadCoils(addr, count)
		regs = bitsToRegisters(bits)
	case 2:
		var bits []bool
		bits, err = e.link.ReadDiscreteInputs(addr, count)
		regs = bitsToRegisters(bits)
	case 3:
		regs, err = e.link.ReadHoldingRegisters(addr, count)
	case 4:
		regs, err = e.link.ReadInputRegisters(addr, count)
	default:
		return nil, fmt.Errorf("%w: %d (read)", ErrUnsupportedFunctionCode, fc)
	}

	e.publishTraffic()

	if err != nil {
		return nil, fmt.Errorf("engine: read fc=%d addr=%d count=%d: %w", fc, addr, count, err)
	}
	return regs, nil
}

// Write runs one write transaction. Codes 5, 6, 15 and 16 go through the
// transport's standard operations and their failures propagate. Any other
// code is vendor-specific: the request body is hand-built and sent as a
// raw frame, and a transport rejection is logged as a warning but not
// returned. Frame-size violations still propagate; they fail before
// transmission.
func (e *Engine) Write(fc uint8, addr uint16, values []uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.link == nil {
		return ErrNotConnected
	}
	if len(values) == 0 {
		return fmt.Errorf("engine: write fc=%d requires at least one value", fc)
	}

	extent := uint16(1)
	if fc != 5 && fc != 6 {
		if len(values) > 0xFFFF {
			return fmt.Errorf("%w: %d values", ErrAddressRange, len(values))
		}
		extent = uint16(len(values))
	}
	if err := checkExtent(addr, extent); err != nil {
		return err
	}

	e.inFlight.Store(true)
	defer e.inFlight.Store(false)

	var err error
	switch fc {
	case 5:
		err = e.link.WriteSingleCoil(addr, values[0])
	case 6:
		err = e.link.WriteSingleRegister(addr, values[0])
	case 15:
		err = e.link.WriteMultipleCoils(addr, values)
	case 16:
		err = e.link.WriteMultipleRegisters(addr, values)
	default:
		return e.writeCustom(fc, addr, values)
	}

	e.publishTraffic()

	if err != nil {
		return fmt.Errorf("engine: write fc=%d addr=%d: %w", fc, addr, err)
	}
	return nil
}

// writeCustom sends a hand-built register write under a vendor-specific
// function code. Called with the engine locked and the in-flight flag set.
func (e *Engine) writeCustom(fc uint8, addr uint16, values []uint16) error {
	body, err := frame.EncodeRegisterWrite(addr, toSigned(values))
	if err != nil {
		return fmt.Errorf("engine: write fc=%d: %w", fc, err)
	}

	_, sendErr := e.link.SendRaw(fc, body)
	e.publishTraffic()

	if sendErr != nil {
		// Deliberate discard: vendor-specific writes are best effort. The
		// caller sees success; the rejection survives only as this warning.
		e.log.Warn().
			Err(sendErr).
			Uint8("fc", fc).
			Uint16("addr", addr).
			Msg("custom write rejected by transport")
	}
	return nil
}

// checkExtent enforces address + extent - 1 <= 0xFFFF.
func checkExtent(addr, extent uint16) error {
	if extent == 0 {
		return fmt.Errorf("engine: zero-length range at address %d", addr)
	}
	if int(addr)+int(extent)-1 > 0xFFFF {
		return fmt.Errorf("%w: addr=%d extent=%d", ErrAddressRange, addr, extent)
	}
	return nil
}

// bitsToRegisters normalizes coil/discrete results to 0/1 registers.
func bitsToRegisters(bits []bool) []uint16 {
	out := make([]uint16, len(bits))
	for i, b := range bits {
		if b {
			out[i] = 1
		}
	}
	return out
}

func toSigned(values []uint16) []int16 {
	out := make([]int16, len(values))
	for i, v := range values {
		out[i] = int16(v)
	}
	return out
}
