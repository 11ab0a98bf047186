package flag

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/bobuhiro11/postclock/clockface"
	"github.com/bobuhiro11/postclock/digits"
	"github.com/bobuhiro11/postclock/display"
	"github.com/bobuhiro11/postclock/iodelay"
	"github.com/bobuhiro11/postclock/ioport"
	"github.com/bobuhiro11/postclock/machine"
	"github.com/bobuhiro11/postclock/privdrop"
	"github.com/bobuhiro11/postclock/probe"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"
)

const (
	programName = "postclock"
	programDesc = "postclock shows the time of day on a POST-code display at I/O port 0x80"

	// DefaultConfigPath is loaded when present.
	DefaultConfigPath = "/etc/postclock.yaml"
)

var logger = loggo.GetLogger("postclock.flag")

// newSimulator returns the backend of --dry-run.
var newSimulator = func() ioport.Backend {
	m := machine.New()
	m.SetTrace(true)

	return m
}

type CLI struct {
	Config        kong.ConfigFlag `help:"YAML configuration file." placeholder:"PATH"`
	LoggingConfig string          `default:"<root>=INFO" help:"Logging levels, e.g. <root>=DEBUG;postclock.machine=TRACE."`

	Run   RunCMD   `cmd:"" help:"Show the time of day until interrupted."`
	Show  ShowCMD  `cmd:"" help:"Show one value and exit."`
	Probe ProbeCMD `cmd:"" help:"Report whether the kernel leaves the port to userspace."`
}

// Target selects the display's port and how to reach it.
type Target struct {
	Port        string `short:"p" default:"0x80" help:"I/O port of the display."`
	IODelayPath string `default:"${io_delay_path}" help:"Kernel io_delay type file." placeholder:"PATH"`
	DryRun      bool   `short:"n" help:"Drive a simulated machine instead of the hardware."`
}

type RunCMD struct {
	Target `embed:""`

	KeepCaps bool          `help:"Keep capabilities after acquiring the port."`
	UTC      bool          `help:"Show UTC instead of local time."`
	Frame    time.Duration `default:"1s" help:"How long hour, minute and separator are each shown."`
	Refresh  time.Duration `default:"30s" help:"How often the time is read."`
	Recheck  time.Duration `default:"0s" help:"Re-check the kernel's io_delay type at this interval, 0 to disable."`
}

type ShowCMD struct {
	Target `embed:""`

	Hex   bool   `short:"x" help:"Show the value as is instead of as two decimal digits."`
	Value string `arg:"" help:"Decimal number 0-99, or a byte with --hex."`
}

type ProbeCMD struct {
	Target `embed:""`

	Permission bool `help:"Also try to acquire the port, without writing to it."`
}

// New builds the command-line parser for c.
func New(c *CLI) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{"io_delay_path": iodelay.DefaultPath},
		kong.Configuration(YAML, DefaultConfigPath))
}

// Parse parses args, configures logging and runs the selected command.
func Parse(args []string) error {
	c := CLI{}

	parser, err := New(&c)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := loggo.ConfigureLoggers(c.LoggingConfig); err != nil {
		return errors.Annotate(err, "configuring logging")
	}

	return ctx.Run()
}

func (t *Target) open() (*display.Display, error) {
	port, err := ParsePort(t.Port)
	if err != nil {
		return nil, err
	}

	var b ioport.Backend = ioport.Hardware{}
	if t.DryRun {
		b = newSimulator()
	}

	return display.Open(display.Config{
		Port:        port,
		IODelayPath: t.IODelayPath,
		Backend:     b,
	})
}

func (r *RunCMD) Run() error {
	port, err := ParsePort(r.Port)
	if err != nil {
		return err
	}

	cfg := clockface.DefaultConfig()
	cfg.Frame = r.Frame
	cfg.Refresh = r.Refresh

	if r.UTC {
		cfg.Location = time.UTC
	}

	if cfg.Frame <= 0 {
		return fmt.Errorf("frame duration %v is not positive", cfg.Frame)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The port permission and, in cgo builds, the dropped capabilities
		// belong to this thread only.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		d, err := r.open()
		if err != nil {
			return err
		}

		defer func() {
			if err := d.Close(); err != nil {
				logger.Warningf("%v", err)
			}
		}()

		if !r.KeepCaps && !r.DryRun {
			if err := privdrop.Drop(); err != nil {
				return errors.Annotate(err, "dropping capabilities")
			}
		}

		return clockface.Run(ctx, d, cfg)
	})

	if r.Recheck > 0 {
		g.Go(func() error {
			return iodelay.Watch(ctx, clock.WallClock, r.IODelayPath, port, r.Recheck)
		})
	}

	return g.Wait()
}

func (s *ShowCMD) Run() error {
	var value uint8

	if s.Hex {
		v, err := ParseByte(s.Value)
		if err != nil {
			return err
		}

		value = v
	} else {
		v, err := strconv.ParseUint(s.Value, 10, 8)
		if err != nil {
			return fmt.Errorf("can not parse %q as a decimal number: %w", s.Value, err)
		}

		if v > digits.Max {
			return fmt.Errorf("%d has more than two decimal digits", v)
		}

		value = digits.Encode(uint8(v))
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d, err := s.open()
	if err != nil {
		return err
	}

	d.Hexadecimal(value)
	logger.Infof("showing %02X", value)

	return d.Close()
}

func (p *ProbeCMD) Run() error {
	if err := probe.IODelay(os.Stdout, p.IODelayPath); err != nil {
		return err
	}

	if !p.Permission {
		return nil
	}

	port, err := ParsePort(p.Port)
	if err != nil {
		return err
	}

	var b ioport.Backend = ioport.Hardware{}
	if p.DryRun {
		b = newSimulator()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	return probe.Permission(os.Stdout, b, port)
}
