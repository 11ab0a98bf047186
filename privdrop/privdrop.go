// Package privdrop gives up every capability of the process once the
// privileged setup is over.
package privdrop

import (
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

const ErrUnsupported = errors.ConstError("dropping capabilities is not supported on this platform")

var logger = loggo.GetLogger("postclock.privdrop")
