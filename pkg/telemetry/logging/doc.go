// Package logging builds the structured loggers used across the service.
//
// Loggers are plain *slog.Logger values. The handler returned by New reads
// request and document IDs from the context, so code that logs with
// InfoContext/ErrorContext gets correlation fields for free:
//
//	logger, level, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRequestID(ctx, "f3c1...")
//	logger.InfoContext(ctx, "rendered tree", "nodes", 7)
//
// The returned *slog.LevelVar lets callers change the level after a config
// reload without rebuilding the logger.
package logging
