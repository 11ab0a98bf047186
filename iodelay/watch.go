package iodelay

import (
	"context"
	"time"

	"github.com/juju/clock"
)

// Watch checks path for a kernel claim on port every interval until ctx is
// done. The first failed check ends it with that error; a conflict that shows
// up at runtime is as final as one found at startup.
func Watch(ctx context.Context, clk clock.Clock, path string, port uint16, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-clk.After(interval):
		}

		if err := Check(path, port); err != nil {
			logger.Errorf("port %#x: %v", port, err)

			return err
		}
	}
}
