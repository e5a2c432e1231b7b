// internal/config/normalize.go
package config

// Normalize applies post-validation defaults.
// It is allowed to mutate settings.
// It MUST be called only after Validate().
func Normalize(s *Settings) {
	if s == nil {
		return
	}

	if s.TimeoutMs == 0 {
		s.TimeoutMs = 1000
	}

	// Both field sets get defaults, active or not, so a later mode switch
	// starts from usable values.
	if s.Port == 0 {
		s.Port = 502
	}
	if s.BaudRate == 0 {
		s.BaudRate = 9600
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.Parity == "" {
		s.Parity = ParityNone
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
}
