// internal/ports/ports.go
package ports

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial"
)

// Port is one enumerated serial device.
type Port struct {
	Path string
}

// List enumerates the serial ports visible to the process. An empty list
// is not an error.
func List() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("ports: enumerate: %w", err)
	}
	return fromNames(names), nil
}

// fromNames filters and orders raw enumeration results. macOS exposes each
// device twice; the /dev/tty. callin variant is dropped in favour of the
// /dev/cu. one.
func fromNames(names []string) []Port {
	out := make([]Port, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, "/dev/tty.") {
			continue
		}
		out = append(out, Port{Path: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
