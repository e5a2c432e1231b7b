// internal/engine/engine.go
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-workbench/internal/config"
	"github.com/tamzrod/modbus-workbench/internal/rawlog"
	"github.com/tamzrod/modbus-workbench/internal/transport"
)

var (
	// ErrNotConnected reports a transaction issued without a live handle.
	ErrNotConnected = errors.New("engine: not connected")
	// ErrUnsupportedFunctionCode reports a read under a code outside 1-4.
	ErrUnsupportedFunctionCode = errors.New("engine: unsupported function code")
	// ErrAddressRange reports a request whose extent runs past 0xFFFF.
	ErrAddressRange = errors.New("engine: address range exceeds 0xFFFF")
)

// Link is the exact transport contract the engine drives.
// IMPORTANT: There must be NO other version of this interface anywhere.
type Link interface {
	ReadCoils(addr, qty uint16) ([]bool, error)
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)
	WriteSingleCoil(addr, value uint16) error
	WriteSingleRegister(addr, value uint16) error
	WriteMultipleCoils(addr uint16, values []uint16) error
	WriteMultipleRegisters(addr uint16, values []uint16) error
	SendRaw(fc uint8, body []byte) ([]byte, error)
	LastTraffic() (tx, rx []byte)
	Close() error
}

// Dialer opens a link for the given settings.
type Dialer func(config.Settings) (Link, error)

// DialTransport is the Dialer used outside tests: it opens a live
// connection through the transport adapter.
func DialTransport(s config.Settings) (Link, error) {
	return transport.Open(s)
}

// Engine owns the single connection handle and runs one transaction at a
// time. The mutex serializes every operation; the in-flight flag is
// readable without it so the poll loop can skip busy ticks instead of
// queueing behind them.
type Engine struct {
	dial    Dialer
	traffic *rawlog.Broadcaster
	log     zerolog.Logger

	mu       sync.Mutex
	link     Link // nil while disconnected
	inFlight atomic.Bool
}

func New(dial Dialer, traffic *rawlog.Broadcaster, logger zerolog.Logger) *Engine {
	return &Engine{
		dial:    dial,
		traffic: traffic,
		log:     logger.With().Str("component", "engine").Logger(),
	}
}

// Connect validates and normalizes the settings, then replaces the handle.
// Any previous handle is closed first, best effort: a close failure is
// logged, not fatal. The new handle is installed only after a successful
// open; on failure the engine stays disconnected.
func (e *Engine) Connect(s config.Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.link != nil {
		if err := e.link.Close(); err != nil {
			e.log.Warn().Err(err).Msg("closing previous connection failed")
		}
		e.link = nil
	}

	if err := config.Validate(&s); err != nil {
		return fmt.Errorf("engine: connection failed: %w", err)
	}
	config.Normalize(&s)

	link, err := e.dial(s)
	if err != nil {
		return fmt.Errorf("engine: connection failed: %w", err)
	}
	e.link = link

	e.log.Info().
		Str("mode", string(s.Mode)).
		Uint8("slave_id", s.SlaveID).
		Msg("connected")
	return nil
}

// Disconnect closes and clears the handle. Already disconnected is a
// successful no-op. The handle is cleared even when close fails.
func (e *Engine) Disconnect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.link == nil {
		return nil
	}

	err := e.link.Close()
	e.link = nil
	if err != nil {
		return fmt.Errorf("engine: disconnect: %w", err)
	}

	e.log.Info().Msg("disconnected")
	return nil
}

// Connected reports whether a handle is installed.
func (e *Engine) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link != nil
}

// InFlight reports whether a transaction is currently executing. Safe to
// call from other goroutines; the poll loop uses it to skip busy ticks.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// publishTraffic mirrors the link's last tx/rx pair into the traffic log.
// Telemetry is best effort: nothing observed means nothing published.
func (e *Engine) publishTraffic() {
	if e.traffic == nil || e.link == nil {
		return
	}
	tx, rx := e.link.LastTraffic()
	if tx == nil && rx == nil {
		return
	}
	e.traffic.Publish(tx, rx)
}
