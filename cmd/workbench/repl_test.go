// cmd/workbench/repl_test.go
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tbrandon/mbserver"

	"github.com/tamzrod/modbus-workbench/internal/config"
	"github.com/tamzrod/modbus-workbench/internal/engine"
	"github.com/tamzrod/modbus-workbench/internal/monitor"
	"github.com/tamzrod/modbus-workbench/internal/session"
)

const slaveAddr = "127.0.0.1:15504"

func startSlave(t *testing.T) *mbserver.Server {
	t.Helper()
	srv := mbserver.NewServer()
	if err := srv.ListenTCP(slaveAddr); err != nil {
		t.Skipf("cannot bind %s: %v", slaveAddr, err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func newTestRepl(t *testing.T) (*repl, *bytes.Buffer) {
	t.Helper()
	mon := monitor.New()
	eng := engine.New(engine.DialTransport, nil, zerolog.Nop())
	sess := session.New(eng, mon, zerolog.Nop())
	out := &bytes.Buffer{}
	r := &repl{sess: sess, mon: mon, state: config.DefaultState(), log: zerolog.Nop(), out: out}
	t.Cleanup(func() {
		sess.StopPoll()
		_ = sess.Disconnect()
	})
	return r, out
}

func TestReplScriptAgainstSlave(t *testing.T) {
	srv := startSlave(t)
	srv.HoldingRegisters[100] = 7
	srv.HoldingRegisters[101] = 8
	r, out := newTestRepl(t)

	script := strings.Join([]string{
		"connect tcp 127.0.0.1 15504 1",
		"read 3 100 2",
		"fmt signed",
		"edit 100 -5",
		"writerange 100 1",
		"copy 0 1",
		"disconnect",
		"quit",
	}, "\n")
	r.run(strings.NewReader(script))

	if srv.HoldingRegisters[100] != 65531 {
		t.Fatalf("slave register = %d, want 65531 (-5)", srv.HoldingRegisters[100])
	}
	text := out.String()
	for _, want := range []string{
		"connected (tcp 127.0.0.1:15504 slave 1)",
		"format signed",
		"-5",
		"disconnected",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReplRejectsMalformedCommands(t *testing.T) {
	r, out := newTestRepl(t)

	script := strings.Join([]string{
		"read 3",
		"write 6 0",
		"edit zz 1",
		"fmt nope",
		"bogus",
		"quit",
	}, "\n")
	r.run(strings.NewReader(script))

	text := out.String()
	for _, want := range []string{
		"usage: read <fc> <addr> <count>",
		"usage: write <fc> <addr> <v1> [v2 ...]",
		`bad address "zz"`,
		"unknown format",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestReplReadWithoutConnection(t *testing.T) {
	r, out := newTestRepl(t)
	r.run(strings.NewReader("read 3 0 1\nquit\n"))
	if !strings.Contains(out.String(), "not connected") {
		t.Fatalf("expected a not connected error, got:\n%s", out.String())
	}
}

func TestParseHelpers(t *testing.T) {
	if v, err := parseU16("0x1F"); err != nil || v != 31 {
		t.Fatalf("parseU16 hex: v=%d err=%v", v, err)
	}
	if v, err := parseU16("65535"); err != nil || v != 65535 {
		t.Fatalf("parseU16 max: v=%d err=%v", v, err)
	}
	if _, err := parseU16("65536"); err == nil {
		t.Fatalf("expected overflow error")
	}
	if v, err := parseU8("0x11"); err != nil || v != 17 {
		t.Fatalf("parseU8 hex: v=%d err=%v", v, err)
	}
}
