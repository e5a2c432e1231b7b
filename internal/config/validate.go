// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
)

// ErrMissingField reports a field the active mode requires but the settings
// do not carry.
var ErrMissingField = errors.New("config: missing required field")

// Validate checks settings correctness for the active mode.
// It performs declarative validation only. Fields that Normalize defaults
// are accepted at their zero value here.
// It MUST NOT mutate settings.
func Validate(s *Settings) error {
	switch s.Mode {
	case ModeTCP:
		if s.IP == "" {
			return fmt.Errorf("%w: ip (tcp mode)", ErrMissingField)
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("config: tcp port %d out of range", s.Port)
		}

	case ModeRTU:
		if s.SerialPort == "" {
			return fmt.Errorf("%w: serial_port (rtu mode)", ErrMissingField)
		}
		if s.BaudRate < 0 {
			return fmt.Errorf("config: baud rate %d out of range", s.BaudRate)
		}
		switch s.DataBits {
		case 0, 7, 8:
		default:
			return fmt.Errorf("config: data bits must be 7 or 8, got %d", s.DataBits)
		}
		switch s.Parity {
		case "", ParityNone, ParityEven, ParityOdd:
		default:
			return fmt.Errorf("config: unknown parity %q", s.Parity)
		}
		switch s.StopBits {
		case 0, 1, 2:
		default:
			return fmt.Errorf("config: stop bits must be 1 or 2, got %d", s.StopBits)
		}

	default:
		return fmt.Errorf("config: unknown mode %q", s.Mode)
	}

	if s.SlaveID < 1 || s.SlaveID > 247 {
		return fmt.Errorf("config: slave id %d out of range 1-247", s.SlaveID)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("config: timeout %d ms out of range", s.TimeoutMs)
	}

	return nil
}
