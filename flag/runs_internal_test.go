package flag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobuhiro11/postclock/iodelay"
	"github.com/bobuhiro11/postclock/ioport"
	"github.com/bobuhiro11/postclock/machine"
)

func simulate(t *testing.T) *machine.Machine {
	t.Helper()

	m := machine.New()
	saved := newSimulator
	newSimulator = func() ioport.Backend { return m }

	t.Cleanup(func() { newSimulator = saved })

	return m
}

func ioDelay(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "io_delay_type")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestShow(t *testing.T) { // nolint:paralleltest
	m := simulate(t)
	path := ioDelay(t, "2\n")

	if err := Parse([]string{"show", "--dry-run", "--io-delay-path", path, "7"}); err != nil {
		t.Fatal(err)
	}

	if s := m.PostCode().Text(); s != "07" {
		t.Errorf("display shows %q, want 07", s)
	}

	if err := Parse([]string{"show", "-n", "-x", "--io-delay-path", path, "0xCC"}); err != nil {
		t.Fatal(err)
	}

	if s := m.PostCode().Text(); s != "CC" {
		t.Errorf("display shows %q, want CC", s)
	}

	if err := Parse([]string{"show", "-n", "--io-delay-path", path, "100"}); err == nil {
		t.Error("three-digit value accepted")
	}
}

func TestShowRefusesKernelPort(t *testing.T) { // nolint:paralleltest
	m := simulate(t)

	err := Parse([]string{"show", "--dry-run", "--io-delay-path", ioDelay(t, "0\n"), "42"})
	if !errors.Is(err, iodelay.ErrPortConflict) {
		t.Fatalf("error = %v, want ErrPortConflict", err)
	}

	if len(m.Writes()) != 0 {
		t.Error("port written despite the conflict")
	}
}

func TestRunStopsOnKernelConflict(t *testing.T) { // nolint:paralleltest
	m := simulate(t)
	path := ioDelay(t, "3\n")
	done := make(chan error)

	go func() {
		done <- Parse([]string{
			"run", "--dry-run", "--utc",
			"--io-delay-path", path,
			"--frame", "5ms",
			"--recheck", "20ms",
		})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(m.Writes()) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("clock did not start")
		}

		time.Sleep(5 * time.Millisecond)
	}

	if err := os.WriteFile(path, []byte("0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, iodelay.ErrPortConflict) {
			t.Errorf("error = %v, want ErrPortConflict", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}

	if h := m.PostCode().History(); h[2] != 0xcc {
		t.Errorf("third frame %#02x, want separator", h[2])
	}
}

func TestProbe(t *testing.T) { // nolint:paralleltest
	simulate(t)

	if err := Parse([]string{"probe", "-n", "--permission", "--io-delay-path", ioDelay(t, "1\n")}); err != nil {
		t.Fatal(err)
	}

	if err := Parse([]string{"probe", "--io-delay-path", ioDelay(t, "abc")}); !errors.Is(err, iodelay.ErrConfigParse) {
		t.Errorf("error = %v, want ErrConfigParse", err)
	}
}
