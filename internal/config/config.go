// internal/config/config.go
package config

import "time"

type Mode string

const (
	ModeRTU Mode = "rtu"
	ModeTCP Mode = "tcp"
)

type Parity string

const (
	ParityNone Parity = "none"
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

// ---- CONNECTION ----

// Settings describes the single slave connection. Both the TCP and the RTU
// field sets are retained regardless of the active mode so a mode switch
// does not lose the inactive side; only the active mode's fields are
// meaningful and validated.
type Settings struct {
	Mode      Mode  `yaml:"mode"`
	SlaveID   uint8 `yaml:"slave_id"`
	TimeoutMs int   `yaml:"timeout_ms"`

	// TCP
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`

	// RTU
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	DataBits   int    `yaml:"data_bits"`
	Parity     Parity `yaml:"parity"`
	StopBits   int    `yaml:"stop_bits"`
}

// Timeout returns the per-transaction timeout as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// ---- PERSISTED FRONT-END STATE ----

// State is what the front end persists between runs: last-used connection
// settings plus display preferences. The engine neither reads nor writes
// this; it accepts a Settings value per call.
type State struct {
	Connection     Settings `yaml:"connection"`
	DisplayFormat  string   `yaml:"display_format"`
	PollIntervalMs int      `yaml:"poll_interval_ms"`
}
