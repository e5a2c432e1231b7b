// internal/session/session.go
package session

import (
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-workbench/internal/config"
	"github.com/tamzrod/modbus-workbench/internal/engine"
	"github.com/tamzrod/modbus-workbench/internal/monitor"
	"github.com/tamzrod/modbus-workbench/internal/poll"
)

// Session ties the engine, the register monitor and the poll loop into one
// command surface for a front end. Reads land in the monitor; standard
// writes re-read what they changed so the snapshot tracks the device, not
// our intent.
type Session struct {
	eng  *engine.Engine
	mon  *monitor.Monitor
	loop *poll.Loop
	log  zerolog.Logger

	pollOpts []poll.Option
}

type Option func(*Session)

// WithPollOptions forwards options to the embedded poll loop.
func WithPollOptions(opts ...poll.Option) Option {
	return func(s *Session) { s.pollOpts = opts }
}

func New(eng *engine.Engine, mon *monitor.Monitor, logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		eng: eng,
		mon: mon,
		log: logger.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loop = poll.New(eng, mon, logger, s.pollOpts...)
	return s
}

// Connect opens the device link described by cfg, replacing any previous one.
func (s *Session) Connect(cfg config.Settings) error {
	return s.eng.Connect(cfg)
}

// Disconnect closes the device link. An engaged poll loop stays engaged
// and skips its ticks until the next Connect.
func (s *Session) Disconnect() error {
	return s.eng.Disconnect()
}

func (s *Session) Connected() bool {
	return s.eng.Connected()
}

// Read issues one read transaction and replaces the monitor snapshot with
// the result.
func (s *Session) Read(fc uint8, addr, count uint16) error {
	values, err := s.eng.Read(fc, addr, count)
	if err != nil {
		return err
	}
	s.mon.Replace(addr, values)
	return nil
}

// Write issues one write transaction. After a successful standard write the
// written range is re-read from the paired table (fc 1 for coils, fc 3 for
// registers) and reconciled into the snapshot. Vendor codes have no table
// to re-read and are never refreshed.
func (s *Session) Write(fc uint8, addr uint16, values []uint16) error {
	if err := s.eng.Write(fc, addr, values); err != nil {
		return err
	}

	readFC, ok := refreshFC(fc)
	if !ok {
		return nil
	}
	count := uint16(1)
	if fc == 15 || fc == 16 {
		count = uint16(len(values))
	}

	// Deliberate discard: the write itself succeeded, so a failed refresh
	// read is reported here and dropped rather than failing the call.
	fresh, err := s.eng.Read(readFC, addr, count)
	if err != nil {
		s.log.Warn().
			Err(err).
			Uint8("fc", fc).
			Uint16("addr", addr).
			Msg("post-write refresh failed")
		return nil
	}
	s.mon.ReconcileAfterWrite(addr, fresh)
	return nil
}

// WriteCells pushes locally edited cells back to the device as one fc 16
// write. The values come from the snapshot itself, so the range must be
// fully resident: missing data fails before anything is transmitted.
func (s *Session) WriteCells(start uint16, count int) error {
	values, err := s.mon.ExtractWriteRange(start, count)
	if err != nil {
		return err
	}
	return s.Write(16, start, values)
}

// StartPoll engages the timed auto poll. The provider is consulted every
// tick, so the front end can retarget it without a restart.
func (s *Session) StartPoll(get func() poll.Request) error {
	return s.loop.Start(get)
}

// StopPoll disengages the auto poll. Safe to call when idle.
func (s *Session) StopPoll() {
	s.loop.Stop()
}

// Polling reports whether the auto poll is engaged.
func (s *Session) Polling() bool {
	return s.loop.Running()
}

// refreshFC maps a standard write code to the read code for the same table.
func refreshFC(writeFC uint8) (uint8, bool) {
	switch writeFC {
	case 5, 15:
		return 1, true
	case 6, 16:
		return 3, true
	}
	return 0, false
}
