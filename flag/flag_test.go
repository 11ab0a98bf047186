package flag_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/bobuhiro11/postclock/flag"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		bits int
		want uint64
	}{
		{"0x80", 16, 0x80},
		{"128", 16, 0x80},
		{"0xCC", 8, 0xcc},
		{"0b1010", 8, 10},
		{"0o17", 8, 15},
		{"255", 8, 255},
	} {
		got, err := flag.ParseNumber(tt.in, tt.bits)
		if err != nil {
			t.Errorf("ParseNumber(%q): %v", tt.in, err)

			continue
		}

		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestParseNumberErrors(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		in   string
		bits int
		want error
	}{
		{"", 8, strconv.ErrSyntax},
		{"port", 16, strconv.ErrSyntax},
		{"-1", 8, strconv.ErrSyntax},
		{"256", 8, strconv.ErrRange},
		{"0x10000", 16, strconv.ErrRange},
	} {
		if _, err := flag.ParseNumber(tt.in, tt.bits); !errors.Is(err, tt.want) {
			t.Errorf("ParseNumber(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestParsePortAndByte(t *testing.T) {
	t.Parallel()

	if p, err := flag.ParsePort("0xed"); err != nil || p != 0xed {
		t.Errorf("ParsePort(0xed) = %#x, %v", p, err)
	}

	if b, err := flag.ParseByte("0xCC"); err != nil || b != 0xcc {
		t.Errorf("ParseByte(0xCC) = %#x, %v", b, err)
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	c := flag.CLI{}

	parser, err := flag.New(&c)
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := parser.Parse([]string{
		"run",
		"-p", "0xed",
		"--io-delay-path", "io_delay_type",
		"--dry-run",
		"--utc",
		"--refresh", "1m",
		"--recheck", "10s",
	})
	if err != nil {
		t.Fatal(err)
	}

	if ctx.Command() != "run" {
		t.Errorf("command %q, want run", ctx.Command())
	}

	r := c.Run
	if r.Port != "0xed" || r.IODelayPath != "io_delay_type" || !r.DryRun || !r.UTC {
		t.Errorf("unexpected flags %+v", r)
	}

	if r.Frame != time.Second {
		t.Errorf("frame %v, want default 1s", r.Frame)
	}

	if r.Refresh != time.Minute || r.Recheck != 10*time.Second {
		t.Errorf("refresh %v, recheck %v", r.Refresh, r.Recheck)
	}
}

func TestParseArgsDefaults(t *testing.T) {
	t.Parallel()

	c := flag.CLI{}

	parser, err := flag.New(&c)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"show", "42"}); err != nil {
		t.Fatal(err)
	}

	if c.Show.Port != "0x80" {
		t.Errorf("port %q, want 0x80", c.Show.Port)
	}

	if c.Show.IODelayPath != "/proc/sys/kernel/io_delay_type" {
		t.Errorf("io_delay path %q", c.Show.IODelayPath)
	}

	if c.Show.Value != "42" || c.Show.Hex {
		t.Errorf("unexpected flags %+v", c.Show)
	}

	if c.LoggingConfig != "<root>=INFO" {
		t.Errorf("logging config %q", c.LoggingConfig)
	}
}

func TestParseConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "postclock.yaml")

	config := `logging-config: <root>=DEBUG
run:
  port: 0xed
  refresh: 1m
  keep_caps: true
`
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}

	c := flag.CLI{}

	parser, err := flag.New(&c)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--config", path, "run", "--frame", "2s"}); err != nil {
		t.Fatal(err)
	}

	if c.LoggingConfig != "<root>=DEBUG" {
		t.Errorf("logging config %q", c.LoggingConfig)
	}

	if p, err := flag.ParsePort(c.Run.Port); err != nil || p != 0xed {
		t.Errorf("port %q", c.Run.Port)
	}

	if c.Run.Refresh != time.Minute || !c.Run.KeepCaps {
		t.Errorf("unexpected flags %+v", c.Run)
	}

	if c.Run.Frame != 2*time.Second {
		t.Errorf("frame %v, want 2s from the command line", c.Run.Frame)
	}
}
