// internal/transport/transport.go
package transport

import (
	"fmt"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-workbench/internal/config"
)

// handler joins the library's packager/transporter pair with the close side
// of its lifecycle. Both the TCP and the RTU handler satisfy it.
type handler interface {
	modbus.ClientHandler
	Close() error
}

// Client is one live connection to one slave, TCP or RTU. It serializes
// calls: the underlying goburrow handler is not safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	handler handler
	client  modbus.Client
	mirror  mirror
}

// Open dials per the active mode and returns a connected client. The
// returned error is the transport's own; callers add context.
func Open(s config.Settings) (*Client, error) {
	switch s.Mode {
	case config.ModeTCP:
		h := modbus.NewTCPClientHandler(fmt.Sprintf("%s:%d", s.IP, s.Port))
		h.Timeout = s.Timeout()
		h.SlaveId = s.SlaveID

		if err := h.Connect(); err != nil {
			return nil, err
		}

		return &Client{
			handler: h,
			client:  modbus.NewClient(h),
			mirror:  mirror{mode: s.Mode, slaveID: s.SlaveID},
		}, nil

	case config.ModeRTU:
		h := modbus.NewRTUClientHandler(s.SerialPort)
		h.Timeout = s.Timeout()
		h.SlaveId = s.SlaveID
		h.BaudRate = s.BaudRate
		h.DataBits = s.DataBits
		h.Parity = parityCode(s.Parity)
		h.StopBits = s.StopBits

		if err := h.Connect(); err != nil {
			return nil, err
		}

		return &Client{
			handler: h,
			client:  modbus.NewClient(h),
			mirror:  mirror{mode: s.Mode, slaveID: s.SlaveID},
		}, nil

	default:
		return nil, fmt.Errorf("transport: unknown mode %q", s.Mode)
	}
}

// parityCode maps config parity to the serial library's one-letter code.
func parityCode(p config.Parity) string {
	switch p {
	case config.ParityEven:
		return "E"
	case config.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// Close closes the underlying handler.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// LastTraffic returns copies of the ADUs mirrored for the most recent call.
// rx is nil when no response was observed; both are nil before any call.
func (c *Client) LastTraffic() (tx, rx []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror.last()
}

// ---- standard reads (FC 1-4) ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := readRequestPDU(1, addr, qty)
	data, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		c.mirror.record(req, nil)
		return nil, err
	}
	c.mirror.record(req, readResponsePDU(1, data))

	return unpackBits(data, int(qty)), nil
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := readRequestPDU(2, addr, qty)
	data, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		c.mirror.record(req, nil)
		return nil, err
	}
	c.mirror.record(req, readResponsePDU(2, data))

	return unpackBits(data, int(qty)), nil
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := readRequestPDU(3, addr, qty)
	data, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		c.mirror.record(req, nil)
		return nil, err
	}
	c.mirror.record(req, readResponsePDU(3, data))

	return unpackRegisters(data), nil
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := readRequestPDU(4, addr, qty)
	data, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		c.mirror.record(req, nil)
		return nil, err
	}
	c.mirror.record(req, readResponsePDU(4, data))

	return unpackRegisters(data), nil
}

// ---- standard writes (FC 5, 6, 15, 16) ----

func (c *Client) WriteSingleCoil(addr, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Wire encoding for a single coil is 0xFF00 (on) / 0x0000 (off).
	wire := uint16(0x0000)
	if value != 0 {
		wire = 0xFF00
	}

	req := writeSinglePDU(5, addr, wire)
	_, err := c.client.WriteSingleCoil(addr, wire)
	if err != nil {
		c.mirror.record(req, nil)
		return err
	}

	// FC 5 responses echo the request.
	c.mirror.record(req, req)
	return nil
}

func (c *Client) WriteSingleRegister(addr, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := writeSinglePDU(6, addr, value)
	_, err := c.client.WriteSingleRegister(addr, value)
	if err != nil {
		c.mirror.record(req, nil)
		return err
	}

	c.mirror.record(req, req)
	return nil
}

func (c *Client) WriteMultipleCoils(addr uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := uint16(len(values))
	payload := packBits(values)

	req := writeMultiplePDU(15, addr, qty, payload)
	_, err := c.client.WriteMultipleCoils(addr, qty, payload)
	if err != nil {
		c.mirror.record(req, nil)
		return err
	}

	// FC 15 responses echo address and quantity only.
	c.mirror.record(req, req[:5])
	return nil
}

func (c *Client) WriteMultipleRegisters(addr uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := uint16(len(values))
	payload := packRegisters(values)

	req := writeMultiplePDU(16, addr, qty, payload)
	_, err := c.client.WriteMultipleRegisters(addr, qty, payload)
	if err != nil {
		c.mirror.record(req, nil)
		return err
	}

	c.mirror.record(req, req[:5])
	return nil
}

// ---- raw frames (vendor-specific function codes) ----

// SendRaw frames body under fc, puts it on the wire and returns the
// response body. The library's packager does the framing, so the mirrored
// tx/rx here are the actual wire bytes, not reconstructions.
func (c *Client) SendRaw(fc uint8, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	request := modbus.ProtocolDataUnit{
		FunctionCode: fc,
		Data:         body,
	}

	aduRequest, err := c.handler.Encode(&request)
	if err != nil {
		return nil, fmt.Errorf("transport: encode raw frame: %w", err)
	}

	aduResponse, err := c.handler.Send(aduRequest)
	if err != nil {
		c.mirror.setRaw(aduRequest, nil)
		return nil, fmt.Errorf("transport: send raw frame: %w", err)
	}
	c.mirror.setRaw(aduRequest, aduResponse)

	if err := c.handler.Verify(aduRequest, aduResponse); err != nil {
		return nil, fmt.Errorf("transport: verify raw response: %w", err)
	}

	response, err := c.handler.Decode(aduResponse)
	if err != nil {
		return nil, fmt.Errorf("transport: decode raw response: %w", err)
	}

	// An exception reply echoes the function code with the high bit set.
	if response.FunctionCode != fc {
		mbErr := &modbus.ModbusError{FunctionCode: response.FunctionCode}
		if len(response.Data) > 0 {
			mbErr.ExceptionCode = response.Data[0]
		}
		return nil, mbErr
	}

	return response.Data, nil
}
