// Package clockface shows the time of day on a two-digit display: the hour,
// then the minute, then a separator, one frame each.
package clockface

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

// ErrFrame is returned by Run for a frame duration that is not positive.
const ErrFrame = errors.ConstError("frame duration must be positive")

var logger = loggo.GetLogger("postclock.clockface")

// Writer is the part of display.Display the clock needs.
type Writer interface {
	Decimal(value uint8)
	Separator()
}

type Config struct {
	Clock clock.Clock
	// Location converts the clock's time; nil means time.Local.
	Location *time.Location
	// Frame is how long each of hour, minute and separator stays shown.
	Frame time.Duration
	// Refresh is how often the time is read again.
	Refresh time.Duration
	// Rounding is added to the time before truncating to the minute;
	// 30s rounds to the nearest minute.
	Rounding time.Duration
}

// DefaultConfig shows each frame for a second, reads the time every 30
// seconds and rounds to the nearest minute.
func DefaultConfig() Config {
	return Config{
		Clock:    clock.WallClock,
		Location: time.Local,
		Frame:    time.Second,
		Refresh:  30 * time.Second,
		Rounding: 30 * time.Second,
	}
}

// Run writes to w until ctx is done. It must run on the goroutine that owns w.
func Run(ctx context.Context, w Writer, c Config) error {
	if c.Frame <= 0 {
		return fmt.Errorf("%w: %v", ErrFrame, c.Frame)
	}

	if c.Location == nil {
		c.Location = time.Local
	}

	cycles := int(c.Refresh / (3 * c.Frame))
	if cycles < 1 {
		cycles = 1
	}

	for {
		now := c.Clock.Now().In(c.Location).Add(c.Rounding)
		hour, minute := uint8(now.Hour()), uint8(now.Minute())

		logger.Debugf("showing %02d:%02d", hour, minute)

		frames := []func(){
			func() { w.Decimal(hour) },
			func() { w.Decimal(minute) },
			w.Separator,
		}

		for i := 0; i < cycles; i++ {
			for _, show := range frames {
				show()

				select {
				case <-ctx.Done():
					return nil
				case <-c.Clock.After(c.Frame):
				}
			}
		}
	}
}
