package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/oisee/z80emu/pkg/result"
	"github.com/oisee/z80emu/pkg/snapshot"
)

func TestParseImmediate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0x0100", 0x100},
		{"0XFF", 0xFF},
		{"F300h", 0xF300},
		{"38H", 0x38},
		{"42", 42},
	}
	for _, tt := range tests {
		got, err := parseImmediate(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseImmediate(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
	if _, err := parseImmediate(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := parseAddress("org", "0x10000"); err == nil {
		t.Error("expected range error")
	}
}

func TestConfigureLogging(t *testing.T) {
	l := logrus.New()
	if err := configureLogging(l, "debug", "json"); err != nil {
		t.Fatal(err)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("level %v", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter %T", l.Formatter)
	}
	if err := configureLogging(l, "loud", "text"); err == nil {
		t.Error("expected error for bad level")
	}
	if err := configureLogging(l, "info", "xml"); err == nil {
		t.Error("expected error for bad format")
	}
}

func writeImage(t *testing.T, prog []uint8) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, prog, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDisasmCommand(t *testing.T) {
	// LD A,42h; LD (IX-2),A; HALT
	path := writeImage(t, []uint8{0x3E, 0x42, 0xDD, 0x77, 0xFE, 0x76})
	cmd := newDisasmCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--org", "8000h"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), out.String())
	}
	for i, prefix := range []string{"8000  3E 42", "8002  DD 77 FE", "8005  76"} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d %q, want prefix %q", i, lines[i], prefix)
		}
	}
	if !strings.HasSuffix(lines[2], "HALT") {
		t.Errorf("last line %q", lines[2])
	}
}

func TestRunSaveAndResume(t *testing.T) {
	logrus.SetOutput(&bytes.Buffer{})
	// LD A,7; INC A; DI; HALT
	path := writeImage(t, []uint8{0x3E, 0x07, 0x3C, 0xF3, 0x76})
	state := filepath.Join(t.TempDir(), "state.gob")

	o := &runOptions{org: "0x0100", sp: "0xF300", consolePort: "0x01", saveState: state, until: "0x0103"}
	if err := runImage(context.Background(), o, path, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(state); err != nil {
		t.Fatal(err)
	}

	o = &runOptions{org: "0x0100", sp: "0xF300", consolePort: "0x01", loadState: state, saveState: state}
	if err := runImage(context.Background(), o, path, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSelftestList(t *testing.T) {
	cmd := newSelftestCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--list"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "daa-bcd") {
		t.Errorf("list output:\n%s", out.String())
	}
}

func TestSelftestOnly(t *testing.T) {
	logrus.SetOutput(&bytes.Buffer{})
	report := filepath.Join(t.TempDir(), "report.json")
	cmd := newSelftestCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--only", "parity,bit-test", "--output", report})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v\n%s", err, out.String())
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"properties": 2`) {
		t.Errorf("report:\n%s", data)
	}
}

func TestSelftestReport(t *testing.T) {
	logrus.SetOutput(&bytes.Buffer{})
	report := filepath.Join(t.TempDir(), "report.json")
	cmd := newSelftestCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--only", "prefix-fallback", "--output", report})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(report)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	outcomes, err := result.ReadJSON(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || outcomes[0].Property != "prefix-fallback" || !outcomes[0].Passed() {
		t.Errorf("outcomes %+v", outcomes)
	}

	cmd = newSelftestCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--only", "parity", "--output", filepath.Join(t.TempDir(), "missing", "report.json")})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unwritable report path")
	}
}

func TestRunWithROM(t *testing.T) {
	logrus.SetOutput(&bytes.Buffer{})
	// LD A,42h; LD (4000h),A; LD (0000h),A; DI; HALT
	rom := writeImage(t, []uint8{0x3E, 0x42, 0x32, 0x00, 0x40, 0x32, 0x00, 0x00, 0xF3, 0x76})
	image := writeImage(t, []uint8{0x00})
	state := filepath.Join(t.TempDir(), "state.gob")

	o := &runOptions{org: "0x4000", pc: "0x0000", sp: "0xF300", consolePort: "0x01", rom: rom, saveState: state}
	if err := runImage(context.Background(), o, image, nil); err != nil {
		t.Fatal(err)
	}
	s, err := snapshot.Load(state)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Memory[0x4000]; got != 0x42 {
		t.Errorf("RAM write: %02X want 42", got)
	}
	if got := s.Memory[0x0000]; got != 0x3E {
		t.Errorf("ROM was written: %02X want 3E", got)
	}
	if !s.Halted {
		t.Error("expected the CPU to end halted")
	}
}
