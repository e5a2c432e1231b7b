// cmd/workbench/render.go
package main

import (
	"fmt"

	"github.com/tamzrod/modbus-workbench/internal/rawlog"
)

// showTable prints the monitor snapshot under the active display format.
// Hidden cells (odd halves of 32-bit pairs) are skipped; the pair shows
// once, at the even address.
func (r *repl) showTable() {
	start, values := r.mon.Snapshot()
	if len(values) == 0 {
		r.printf("monitor empty; read something first\n")
		return
	}
	f := r.format()
	r.printf("format %s, %d register(s) from %d (0x%04X)\n", f, len(values), start, start)
	for _, v := range r.mon.Render(f) {
		if v.Hidden {
			continue
		}
		r.printf("  %5d  0x%04X  %s\n", v.Address, v.Address, v.Text)
	}
}

// printTraffic writes one hex line per observed direction. Subscribed to
// the traffic broadcaster unless -quiet-traffic is set.
func printTraffic(e rawlog.Entry) {
	if e.Tx != nil {
		fmt.Printf("TX → % X\n", e.Tx)
	}
	if e.Rx != nil {
		fmt.Printf("RX ← % X\n", e.Rx)
	}
}
