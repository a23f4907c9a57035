package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yaegashi/clusterops/config/opsenv"
	"github.com/yaegashi/clusterops/internal/logging"
)

// buildLogger resolves the log settings (flag > env > config.yml > default)
// and opens the log destination.
func buildLogger(cmd *cobra.Command, env *opsenv.Env) (logging.Logger, error) {
	pick := func(flag, envKey, conf, def string) string {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			return v
		}
		if v := os.Getenv(envKey); v != "" {
			return v
		}
		if conf != "" {
			return conf
		}
		return def
	}
	format := pick("log-format", "CLUSTEROPS_LOG_FORMAT", env.Logging.Format, "human")
	levelName := pick("log-level", "CLUSTEROPS_LOG_LEVEL", env.Logging.Level, "INFO")
	output := pick("log-output", "CLUSTEROPS_LOG_OUTPUT", env.Logging.Output, "-")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	lf, err := logging.NewLogFile(&logging.LogConfig{
		Format:        format,
		Level:         levelName,
		Output:        env.ExpandVars(output),
		Dir:           env.LogDir(),
		RetentionDays: env.Logging.RetentionDays,
	})
	if err != nil {
		return nil, err
	}
	logFile = lf
	logToStderr = lf.ToStderr()
	return logging.NewWithWriter(format, level, lf.Writer())
}

// withCmdRunLogger implements the Span pattern for CLI command logging.
// It emits a start log line and returns a context with logger attributes attached,
// plus a cleanup function to emit the success or failure log line.
//
// Usage:
//
//	ctx, cleanup := withCmdRunLogger(ctx, "worker.start", name)
//	defer func() { cleanup(err) }()
//
// Log message format:
//   - Start:   CMD:<operation>/S (with resourceId in logger attributes)
//   - Success: CMD:<operation>/EOK (with err, elapsed in logger attributes)
//   - Failure: CMD:<operation>/EFAIL (with err, elapsed in logger attributes)
//
// All logs use INFO level (mechanical recording).
func withCmdRunLogger(ctx context.Context, operation, resourceID string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("resourceId", resourceID)
	ctx = logging.WithLogger(ctx, logger)
	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		if err == nil {
			logger.Info(ctx, "CMD:"+operation+"/EOK", "err", "", "elapsed", elapsed)
			return
		}
		errStr := err.Error()
		if len(errStr) > 32 {
			errStr = errStr[:32] + "..."
		}
		logger.Info(ctx, "CMD:"+operation+"/EFAIL", "err", errStr, "elapsed", elapsed)
	}
	return ctx, cleanup
}
