package providerdrv

import (
	"context"
	"strings"
	"time"

	"github.com/yaegashi/clusterops/internal/logging"
)

// MethodLogger implements the span pattern for driver method logging.
// It emits a START log line and returns a context with logger attributes attached,
// plus a cleanup function to emit the END:OK or END:FAILED log line.
//
// Usage:
//
//	ctx, cleanup := providerdrv.MethodLogger(ctx, d.logger, "hcloud", "InstanceStart")
//	defer func() { cleanup(err) }()
//
// Log message format:
//   - START:  HCLOUD:<method>:START
//   - END:    HCLOUD:<method>:END:OK or HCLOUD:<method>:END:FAILED (with err, elapsed)
func MethodLogger(ctx context.Context, logger logging.Logger, driverID, method string) (context.Context, func(err error)) {
	startAt := time.Now()
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	prefix := strings.ToUpper(driverID) + ":" + method
	logger = logger.With("driver", driverID+"."+method)
	ctx = logging.WithLogger(ctx, logger)

	logger.Debug(ctx, prefix+":START")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Debug(ctx, prefix+":END:OK", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 64 {
			errStr = errStr[:64] + "..."
		}
		logger.Warn(ctx, prefix+":END:FAILED", "err", errStr, "elapsed", elapsed)
	}
	return ctx, cleanup
}
