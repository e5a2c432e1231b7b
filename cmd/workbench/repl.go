// cmd/workbench/repl.go
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-workbench/internal/config"
	"github.com/tamzrod/modbus-workbench/internal/monitor"
	"github.com/tamzrod/modbus-workbench/internal/poll"
	"github.com/tamzrod/modbus-workbench/internal/ports"
	"github.com/tamzrod/modbus-workbench/internal/session"
)

const usage = `commands:
  connect tcp <ip> <port> <slave>     open a TCP connection
  connect rtu <path> <baud> <slave>   open a serial RTU connection
  connect                             reconnect with the stored settings
  disconnect                          close the connection
  read <fc> <addr> <count>            read (fc 1-4) into the monitor
  write <fc> <addr> <v1> [v2 ...]     write (fc 5/6/15/16, or a vendor code)
  writerange <addr> <count>           write monitor cells back via fc 16
  edit <addr> <text>                  edit one monitor cell locally
  fmt <hex|unsigned|signed|uint32|float32|ascii>
  show                                print the monitor table
  copy <i> <j>                        copy cells between snapshot indices
  poll start <fc> <addr> <count>      engage the auto poll
  poll stop                           disengage the auto poll
  scan                                list serial ports
  quit
numbers accept decimal or 0x-prefixed hex
`

// repl owns the interactive state: the session it drives and the settings
// it will persist on exit. All commands run on the one scanner goroutine.
type repl struct {
	sess  *session.Session
	mon   *monitor.Monitor
	state *config.State
	log   zerolog.Logger
	out   io.Writer
}

func (r *repl) run(in io.Reader) {
	r.printf("modbus workbench. type 'help' for commands.\n")
	sc := bufio.NewScanner(in)
	r.prompt()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			r.prompt()
			continue
		}
		args := strings.Fields(line)
		if args[0] == "quit" || args[0] == "exit" {
			return
		}
		if err := r.dispatch(args); err != nil {
			r.printf("error: %v\n", err)
		}
		r.prompt()
	}
}

func (r *repl) dispatch(args []string) error {
	switch args[0] {
	case "help":
		r.printf("%s", usage)
		return nil
	case "connect":
		return r.cmdConnect(args[1:])
	case "disconnect":
		if err := r.sess.Disconnect(); err != nil {
			return err
		}
		r.printf("disconnected\n")
		return nil
	case "read":
		return r.cmdRead(args[1:])
	case "write":
		return r.cmdWrite(args[1:])
	case "writerange":
		return r.cmdWriteRange(args[1:])
	case "edit":
		return r.cmdEdit(args[1:])
	case "fmt":
		return r.cmdFmt(args[1:])
	case "show":
		r.showTable()
		return nil
	case "copy":
		return r.cmdCopy(args[1:])
	case "poll":
		return r.cmdPoll(args[1:])
	case "scan":
		return r.cmdScan()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", args[0])
	}
}

// ---- commands ----

func (r *repl) cmdConnect(args []string) error {
	cfg := r.state.Connection

	switch {
	case len(args) == 0:
		// reconnect with whatever was stored

	case args[0] == "tcp" && len(args) == 4:
		port, err := parseU16(args[2])
		if err != nil {
			return fmt.Errorf("bad port %q", args[2])
		}
		slave, err := parseU8(args[3])
		if err != nil {
			return fmt.Errorf("bad slave id %q", args[3])
		}
		cfg.Mode = config.ModeTCP
		cfg.IP = args[1]
		cfg.Port = int(port)
		cfg.SlaveID = slave

	case args[0] == "rtu" && len(args) == 4:
		baud, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad baud rate %q", args[2])
		}
		slave, err := parseU8(args[3])
		if err != nil {
			return fmt.Errorf("bad slave id %q", args[3])
		}
		cfg.Mode = config.ModeRTU
		cfg.SerialPort = args[1]
		cfg.BaudRate = baud
		cfg.SlaveID = slave

	default:
		return errors.New("usage: connect [tcp <ip> <port> <slave> | rtu <path> <baud> <slave>]")
	}

	if err := r.sess.Connect(cfg); err != nil {
		return err
	}
	r.state.Connection = cfg
	r.printf("connected (%s)\n", describeConnection(cfg))
	return nil
}

func (r *repl) cmdRead(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: read <fc> <addr> <count>")
	}
	fc, err := parseU8(args[0])
	if err != nil {
		return fmt.Errorf("bad function code %q", args[0])
	}
	addr, err := parseU16(args[1])
	if err != nil {
		return fmt.Errorf("bad address %q", args[1])
	}
	count, err := parseU16(args[2])
	if err != nil {
		return fmt.Errorf("bad count %q", args[2])
	}
	if err := r.sess.Read(fc, addr, count); err != nil {
		return err
	}
	r.showTable()
	return nil
}

func (r *repl) cmdWrite(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: write <fc> <addr> <v1> [v2 ...]")
	}
	fc, err := parseU8(args[0])
	if err != nil {
		return fmt.Errorf("bad function code %q", args[0])
	}
	addr, err := parseU16(args[1])
	if err != nil {
		return fmt.Errorf("bad address %q", args[1])
	}
	values := make([]uint16, 0, len(args)-2)
	for _, a := range args[2:] {
		v, err := parseU16(a)
		if err != nil {
			return fmt.Errorf("bad value %q", a)
		}
		values = append(values, v)
	}
	if err := r.sess.Write(fc, addr, values); err != nil {
		return err
	}
	r.printf("wrote %d value(s) at %d\n", len(values), addr)
	return nil
}

func (r *repl) cmdWriteRange(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: writerange <addr> <count>")
	}
	addr, err := parseU16(args[0])
	if err != nil {
		return fmt.Errorf("bad address %q", args[0])
	}
	count, err := parseU16(args[1])
	if err != nil {
		return fmt.Errorf("bad count %q", args[1])
	}
	if err := r.sess.WriteCells(addr, int(count)); err != nil {
		return err
	}
	r.printf("wrote %d register(s) from the monitor at %d\n", count, addr)
	return nil
}

func (r *repl) cmdEdit(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: edit <addr> <text>")
	}
	addr, err := parseU16(args[0])
	if err != nil {
		return fmt.Errorf("bad address %q", args[0])
	}
	if err := r.mon.EditCell(addr, args[1], r.format()); err != nil {
		return err
	}
	start, _ := r.mon.Snapshot()
	if v, err := r.mon.Cell(int(addr)-int(start), r.format()); err == nil && !v.Hidden {
		r.printf("  %5d  0x%04X  %s\n", v.Address, v.Address, v.Text)
	}
	return nil
}

func (r *repl) cmdFmt(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: fmt <hex|unsigned|signed|uint32|float32|ascii>")
	}
	f, err := monitor.ParseFormat(args[0])
	if err != nil {
		return err
	}
	r.state.DisplayFormat = f.String()
	r.showTable()
	return nil
}

func (r *repl) cmdCopy(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: copy <i> <j>")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q", args[0])
	}
	b, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad index %q", args[1])
	}
	lines, err := r.mon.CopyRange(monitor.Selection{A: a, B: b}, r.format())
	if err != nil {
		return err
	}
	r.printf("%s\n", strings.Join(lines, "\n"))
	return nil
}

func (r *repl) cmdPoll(args []string) error {
	if len(args) == 1 && args[0] == "stop" {
		r.sess.StopPoll()
		r.printf("poll stopped\n")
		return nil
	}
	if len(args) != 4 || args[0] != "start" {
		return errors.New("usage: poll start <fc> <addr> <count> | poll stop")
	}
	fc, err := parseU8(args[1])
	if err != nil {
		return fmt.Errorf("bad function code %q", args[1])
	}
	if fc < 1 || fc > 4 {
		return fmt.Errorf("poll needs a read function code (1-4), got %d", fc)
	}
	addr, err := parseU16(args[2])
	if err != nil {
		return fmt.Errorf("bad address %q", args[2])
	}
	count, err := parseU16(args[3])
	if err != nil {
		return fmt.Errorf("bad count %q", args[3])
	}

	req := poll.Request{FC: fc, Addr: addr, Count: count}
	if err := r.sess.StartPoll(func() poll.Request { return req }); err != nil {
		return err
	}
	r.printf("polling fc %d at %d, count %d\n", fc, addr, count)
	return nil
}

func (r *repl) cmdScan() error {
	found, err := ports.List()
	if err != nil {
		return err
	}
	if len(found) == 0 {
		r.printf("no serial ports found\n")
		return nil
	}
	for _, p := range found {
		r.printf("  %s\n", p.Path)
	}
	return nil
}

// ---- helpers ----

func (r *repl) format() monitor.Format {
	f, err := monitor.ParseFormat(r.state.DisplayFormat)
	if err != nil {
		return monitor.FormatHex
	}
	return f
}

func (r *repl) prompt() {
	status := "disconnected"
	if r.sess.Connected() {
		status = describeConnection(r.state.Connection)
	}
	if r.sess.Polling() {
		status += " polling"
	}
	r.printf("[%s]> ", status)
}

func (r *repl) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func describeConnection(s config.Settings) string {
	if s.Mode == config.ModeRTU {
		return fmt.Sprintf("rtu %s @%d slave %d", s.SerialPort, s.BaudRate, s.SlaveID)
	}
	return fmt.Sprintf("tcp %s:%d slave %d", s.IP, s.Port, s.SlaveID)
}

func parseU16(in string) (uint16, error) {
	v, err := strconv.ParseUint(in, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

func parseU8(in string) (uint8, error) {
	v, err := strconv.ParseUint(in, 0, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}
