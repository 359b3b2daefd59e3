package mlr

import (
	"github.com/pkg/errors"
)

// ErrConfiguration is the cause of every pre-execution validation failure:
// invalid resampling parameters, mismatched sizes, or a bad weight vector.
// Nothing is executed once configuration validation fails.
var ErrConfiguration = errors.New("invalid resampling configuration")

// ErrBatchExecution is the cause of run-level failures of the parallel
// execution itself, as opposed to a training or prediction failure inside a
// single iteration. No partial result is produced.
var ErrBatchExecution = errors.New("batch execution failure")

// IsConfiguration reports whether err was caused by invalid configuration.
func IsConfiguration(err error) bool {
	return errors.Cause(err) == ErrConfiguration
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}
